package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/la-reminders/internal/dispatch"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/angelmondragon/la-reminders/internal/reminders"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	"github.com/angelmondragon/la-reminders/pkg/enums"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
)

// Accepted input formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

const maxAttempts = 3

// Form field keys.
const (
	KeyName        = "name"
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyAction      = "action"
	KeyCategory    = "category"
	KeyUrgency     = "urgency"
	KeyRepeat      = "repeat"
	KeyDate        = "date"
	KeyTime        = "time"
	KeyPattern     = "pattern"
	KeyConfirm     = "confirm"
)

// App drives the create, find and delete flows over a prompt function.
type App struct {
	svc    notifications.Service
	prompt PromptFunc
	logg   *logger.Logger
	loc    *time.Location
}

func New(svc notifications.Service, prompt PromptFunc, logg *logger.Logger) (*App, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if prompt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "prompt function required")
	}
	if logg == nil {
		logg = logger.Discard()
	}
	return &App{svc: svc, prompt: prompt, logg: logg, loc: time.Local}, nil
}

// Create asks for a new reminder and stores it. Nothing is written when the
// user cancels.
func (a *App) Create(ctx context.Context) (*notifications.Full, error) {
	cats, err := a.svc.Categories(ctx)
	if err != nil {
		return nil, err
	}
	catIDs := make(map[string]int, len(cats))
	catNames := make([]string, 0, len(cats))
	for _, c := range cats {
		catIDs[c.Name] = c.ID
		catNames = append(catNames, c.Name)
	}

	form := Prompt{
		Title: "New reminder",
		Fields: []Field{
			{Key: KeyName, Label: "Name", Required: true},
			{Key: KeyTitle, Label: "Title", Required: true},
			{Key: KeyDescription, Label: "Description"},
			{Key: KeyAction, Label: "Action", Required: true, Choices: enums.ActionVocabulary(), Multi: true},
			{Key: KeyCategory, Label: "Category", Choices: catNames, Default: defaultCategory(cats)},
			{Key: KeyUrgency, Label: "Urgency", Choices: []string{"low", "normal", "critical"}, Default: "low"},
			{Key: KeyRepeat, Label: "Repeat", Choices: []string{"none", "daily", "weekly", "monthly"}, Default: "none"},
			{Key: KeyDate, Label: "Date", Hint: DateLayout, Required: true},
			{Key: KeyTime, Label: "Time", Hint: TimeLayout, Required: true},
		},
	}

	var input *draft
	for attempt := 1; ; attempt++ {
		vals, err := a.prompt(ctx, form)
		if errors.Is(err, ErrCancelled) {
			return nil, cancelled(err)
		}
		if err != nil {
			return nil, err
		}
		var problems []string
		input, problems = a.parse(vals, catIDs)
		if len(problems) == 0 {
			break
		}
		if attempt >= maxAttempts {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many invalid attempts: "+strings.Join(problems, "; "))
		}
		form.Text = strings.Join(problems, "\n")
		form.Fields = withDefaults(form.Fields, vals)
	}

	if input.hasAction(enums.ActionOpenURL) {
		link, err := a.askURL(ctx)
		if err != nil {
			return nil, err
		}
		input.fields["extra_args"] = map[string]any{dispatch.URLKey: link}
	}

	full, err := a.svc.Create(ctx, input.reminder, input.fields)
	if err != nil {
		return nil, err
	}
	a.logg.Info(a.logg.WithReminderID(ctx, full.Reminder.ID.String()), "reminder created")
	return full, nil
}

type draft struct {
	reminder *models.Reminder
	fields   map[string]any
	actions  []string
}

func (d *draft) hasAction(action enums.Action) bool {
	for _, a := range d.actions {
		if a == string(action) {
			return true
		}
	}
	return false
}

// parse checks the form values and reports every problem at once.
func (a *App) parse(vals Values, catIDs map[string]int) (*draft, []string) {
	var problems []string
	get := func(key string) string { return strings.TrimSpace(vals[key]) }

	for _, key := range []string{KeyName, KeyTitle, KeyAction, KeyDate, KeyTime} {
		if get(key) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", key))
		}
	}

	r := &models.Reminder{Name: get(KeyName)}
	if raw := get(KeyDate); raw != "" {
		d, err := time.ParseInLocation(DateLayout, raw, a.loc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("date must look like %s", DateLayout))
		} else {
			r.TargetDate = models.NewDate(d)
		}
	}
	if raw := get(KeyTime); raw != "" {
		t, err := time.Parse(TimeLayout, raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("time must look like %s", TimeLayout))
		} else {
			r.TargetTime = models.TimeOfDay(t)
		}
	}
	if raw := get(KeyCategory); raw != "" {
		id, ok := catIDs[raw]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown category %q", raw))
		}
		r.CategoryID = id
	}
	if raw := get(KeyUrgency); raw != "" {
		u, err := enums.ParseUrgencyLevel(raw)
		if err != nil {
			problems = append(problems, err.Error())
		}
		r.UrgencyLevel = u
	}
	rule, err := enums.ParseRepeatRule(get(KeyRepeat))
	if err != nil {
		problems = append(problems, err.Error())
	}
	r.RepeatRule = rule

	actions := splitList(get(KeyAction))
	for _, action := range actions {
		if !enums.Action(action).IsValid() {
			problems = append(problems, fmt.Sprintf("unknown action %q, choose from %s",
				action, strings.Join(enums.ActionVocabulary(), ", ")))
		}
	}

	fields := map[string]any{"title": get(KeyTitle), "action": actions}
	if desc := get(KeyDescription); desc != "" {
		fields["description"] = desc
	}
	return &draft{reminder: r, fields: fields, actions: actions}, problems
}

func (a *App) askURL(ctx context.Context) (string, error) {
	form := Prompt{
		Title:  "Link",
		Text:   "The open_url action needs a link, for example https://www.google.com/",
		Fields: []Field{{Key: dispatch.URLKey, Label: "URL", Required: true}},
	}
	for attempt := 1; ; attempt++ {
		vals, err := a.prompt(ctx, form)
		if errors.Is(err, ErrCancelled) {
			return "", cancelled(err)
		}
		if err != nil {
			return "", err
		}
		link := strings.TrimSpace(vals[dispatch.URLKey])
		if u, err := url.Parse(link); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return link, nil
		}
		if attempt >= maxAttempts {
			return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid url %q", link))
		}
		form.Text = fmt.Sprintf("%q is not an http(s) link", link)
	}
}

// Find asks for a name pattern and returns the matching reminders. An empty
// pattern lists everything.
func (a *App) Find(ctx context.Context) (*notifications.LookupResult, error) {
	vals, err := a.prompt(ctx, Prompt{
		Title:  "Find reminders",
		Fields: []Field{{Key: KeyPattern, Label: "Name contains"}},
	})
	if errors.Is(err, ErrCancelled) {
		return nil, cancelled(err)
	}
	if err != nil {
		return nil, err
	}
	filters := reminders.Filters{}
	if pattern := strings.TrimSpace(vals[KeyPattern]); pattern != "" {
		filters[KeyName] = pattern
	}
	return a.svc.GetByFilters(ctx, filters)
}

// List returns every reminder.
func (a *App) List(ctx context.Context) (*notifications.LookupResult, error) {
	return a.svc.GetByFilters(ctx, reminders.Filters{})
}

// Delete confirms and removes a reminder with its notification.
func (a *App) Delete(ctx context.Context, full notifications.Full) (bool, error) {
	vals, err := a.prompt(ctx, Prompt{
		Title: "Delete reminder",
		Text:  fmt.Sprintf("Delete %q?", full.Reminder.Name),
		Fields: []Field{{
			Key: KeyConfirm, Label: "Confirm", Choices: []string{"yes", "no"}, Default: "no",
		}},
	})
	if errors.Is(err, ErrCancelled) {
		return false, cancelled(err)
	}
	if err != nil {
		return false, err
	}
	if answer := strings.ToLower(strings.TrimSpace(vals[KeyConfirm])); answer != "yes" && answer != "y" {
		return false, cancelled(ErrCancelled)
	}

	deleted, err := a.svc.Delete(ctx, full)
	if err != nil {
		return false, err
	}
	if deleted {
		a.logg.Info(a.logg.WithReminderID(ctx, full.Reminder.ID.String()), "reminder deleted")
	}
	return deleted, nil
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultCategory(cats []models.Category) string {
	for _, c := range cats {
		if c.ID == models.DefaultCategoryID {
			return c.Name
		}
	}
	if len(cats) == 0 {
		return ""
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names[0]
}

// withDefaults pre-fills fields with what the user already typed.
func withDefaults(fields []Field, vals Values) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		if v, ok := vals[f.Key]; ok && strings.TrimSpace(v) != "" {
			f.Default = v
		}
		out[i] = f
	}
	return out
}
