package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/la-reminders/internal/app"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// RenderLookup prints joined reminders as a numbered list, followed by a
// warning for reminders whose notification is missing.
func RenderLookup(w io.Writer, result *notifications.LookupResult) {
	if result == nil || (len(result.Items) == 0 && len(result.Missing) == 0) {
		fmt.Fprintln(w, DimStyle.Render("no reminders"))
		return
	}
	for i, item := range result.Items {
		fmt.Fprintln(w, BoxStyle.Render(formatItem(i+1, item)))
	}
	if len(result.Missing) > 0 {
		names := make([]string, 0, len(result.Missing))
		for _, r := range result.Missing {
			names = append(names, r.Name)
		}
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("%d reminder(s) without a notification: %s",
			len(result.Missing), strings.Join(names, ", "))))
	}
}

func formatItem(n int, item notifications.Full) string {
	r := item.Reminder
	when := time.Time(r.TargetDate).Format(app.DateLayout) + " " +
		time.Time{}.Add(time.Duration(r.TargetTime)).Format(app.TimeLayout)
	status := "pending"
	if r.Status {
		status = "done"
	}

	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("%d. %s", n, r.Name)),
		fmt.Sprintf("%s  %s  %s  repeat %s", when, status, r.UrgencyLevel, r.RepeatRule),
	}
	if item.Body != nil {
		lines = append(lines, item.Body.Title)
		if item.Body.Description != "" {
			lines = append(lines, DimStyle.Render(item.Body.Description))
		}
		lines = append(lines, DimStyle.Render("actions: "+strings.Join(item.Body.Actions, ", ")))
	}
	return strings.Join(lines, "\n")
}

// RenderError prints err in the error style.
func RenderError(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorStyle.Render(err.Error()))
}

func RenderSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, SuccessStyle.Render(msg))
}
