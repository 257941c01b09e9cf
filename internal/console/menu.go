package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/la-reminders/internal/app"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
)

const helpText = `commands:
  create   add a reminder
  list     show every reminder
  find     search reminders by name
  delete   remove a reminder
  quit     leave`

// Flows is the subset of app.App the menu drives.
type Flows interface {
	Create(ctx context.Context) (*notifications.Full, error)
	List(ctx context.Context) (*notifications.LookupResult, error)
	Find(ctx context.Context) (*notifications.LookupResult, error)
	Delete(ctx context.Context, full notifications.Full) (bool, error)
}

// Menu dispatches console commands to the app flows.
type Menu struct {
	console *Console
	flows   Flows
}

func NewMenu(console *Console, flows Flows) *Menu {
	return &Menu{console: console, flows: flows}
}

// Run reads commands until quit, end of input, or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	out := m.console.Out()
	fmt.Fprintln(out, DimStyle.Render(helpText))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, err := m.console.ReadCommand()
		if isEOF(err) {
			return nil
		}
		if err != nil {
			return err
		}

		switch cmd {
		case "":
		case "create", "c":
			full, err := m.flows.Create(ctx)
			if m.report(err) {
				RenderSuccess(out, fmt.Sprintf("created %q", full.Reminder.Name))
			}
		case "list", "l", "ls":
			result, err := m.flows.List(ctx)
			if m.report(err) {
				RenderLookup(out, result)
			}
		case "find", "f":
			result, err := m.flows.Find(ctx)
			if m.report(err) {
				RenderLookup(out, result)
			}
		case "delete", "d", "rm":
			m.delete(ctx)
		case "help", "h", "?":
			fmt.Fprintln(out, DimStyle.Render(helpText))
		case "quit", "q", "exit":
			return nil
		default:
			RenderError(out, fmt.Errorf("unknown command %q", cmd))
		}
	}
}

func (m *Menu) delete(ctx context.Context) {
	out := m.console.Out()
	result, err := m.flows.Find(ctx)
	if !m.report(err) {
		return
	}
	RenderLookup(out, result)
	if len(result.Items) == 0 {
		return
	}

	vals, err := m.console.Prompt(ctx, app.Prompt{
		Title:  "Select reminder",
		Fields: []app.Field{{Key: "index", Label: "Number", Required: true}},
	})
	if err != nil {
		m.report(cancelledOr(err))
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals["index"]))
	if err != nil || n < 1 || n > len(result.Items) {
		RenderError(out, fmt.Errorf("pick a number between 1 and %d", len(result.Items)))
		return
	}

	full := result.Items[n-1]
	deleted, err := m.flows.Delete(ctx, full)
	if !m.report(err) {
		return
	}
	if deleted {
		RenderSuccess(out, fmt.Sprintf("deleted %q", full.Reminder.Name))
		return
	}
	fmt.Fprintln(out, DimStyle.Render("nothing was deleted"))
}

// report prints err and reports whether the flow succeeded. Cancellation is
// not an error.
func (m *Menu) report(err error) bool {
	if err == nil {
		return true
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeCancelled) {
		fmt.Fprintln(m.console.Out(), DimStyle.Render("cancelled"))
		return false
	}
	RenderError(m.console.Out(), err)
	return false
}

func cancelledOr(err error) error {
	if errors.Is(err, app.ErrCancelled) {
		return pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "cancelled by user")
	}
	return err
}
