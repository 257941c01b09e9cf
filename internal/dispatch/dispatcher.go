package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/enums"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"go.uber.org/multierr"
)

// URLKey is the extra argument read by the open_url action.
const URLKey = documents.ExtraURL

// Dispatcher turns notification bodies into desktop notifications and
// browser windows.
type Dispatcher struct {
	exec    Executor
	cfg     config.DispatchConfig
	appName string
	logg    *logger.Logger
}

func New(exec Executor, cfg config.DispatchConfig, appName string, logg *logger.Logger) *Dispatcher {
	if logg == nil {
		logg = logger.Discard()
	}
	if cfg.NotifyCommand == "" {
		cfg.NotifyCommand = "notify-send"
	}
	if cfg.BrowserCommand == "" {
		cfg.BrowserCommand = "gnome-www-browser"
	}
	return &Dispatcher{exec: exec, cfg: cfg, appName: appName, logg: logg}
}

// Notify shows a desktop notification and waits for the notifier to exit.
func (d *Dispatcher) Notify(ctx context.Context, title, text string, urgency enums.UrgencyLevel) error {
	args := []string{"-u", urgency.String()}
	if d.appName != "" {
		args = append(args, "-a", d.appName)
	}
	args = append(args, title, text)

	res, err := d.exec.Run(ctx, d.cfg.NotifyCommand, args...)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("%s exited with code %d", d.cfg.NotifyCommand, res.Code)).
			WithDetails(map[string]any{"stderr": res.Stderr})
	}
	return nil
}

// OpenURL opens url in a new browser window without waiting for it.
func (d *Dispatcher) OpenURL(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}
	return d.exec.Start(ctx, d.cfg.BrowserCommand, "--new-window", url)
}

// Fire executes every action tag on body. All actions are attempted and
// their failures combined.
func (d *Dispatcher) Fire(ctx context.Context, name string, body *documents.StoredRecord, urgency enums.UrgencyLevel) error {
	if body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification body is required")
	}
	ctx = d.logg.WithDocumentID(ctx, body.ID)

	var errs error
	for _, tag := range body.Actions {
		var err error
		switch enums.Action(tag) {
		case enums.ActionShow:
			err = d.Notify(ctx, body.Title, body.Description, urgency)
		case enums.ActionRemind:
			err = d.Notify(ctx, fmt.Sprintf("Reminder: %s", name), body.Title, urgency)
		case enums.ActionOpenURL:
			url, ok := body.Extra(URLKey)
			if !ok {
				err = pkgerrors.New(pkgerrors.CodeValidation, "open_url action without a url")
				break
			}
			err = d.OpenURL(ctx, url)
		default:
			d.logg.Warn(d.logg.WithField(ctx, "action", tag), "skipping unknown action")
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", tag, err))
		}
	}
	return errs
}

// NotifyCreated confirms a successful create.
func (d *Dispatcher) NotifyCreated(ctx context.Context, name string) error {
	return d.Notify(ctx, d.appName, fmt.Sprintf("Reminder %q was created.", name), enums.UrgencyLow)
}

// NotifyAborted reports a create that was rolled back, naming the document
// left behind when cleanup failed.
func (d *Dispatcher) NotifyAborted(ctx context.Context, name, orphanID string) error {
	text := fmt.Sprintf("Creating reminder %q was aborted.", name)
	if orphanID != "" {
		text += fmt.Sprintf(" Notification %s could not be removed and will be swept later.", orphanID)
	}
	return d.Notify(ctx, d.appName, text, enums.UrgencyNormal)
}
