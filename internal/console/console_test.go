package console

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/angelmondragon/la-reminders/internal/app"
	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	lines   []string
	prompts []string
	err     error
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedReader) SetPrompt(p string) { s.prompts = append(s.prompts, p) }
func (s *scriptedReader) Close() error       { return nil }

func TestPromptCollectsValuesAndDefaults(t *testing.T) {
	rl := &scriptedReader{lines: []string{"Standup", "", "maybe", "high", "critical"}}
	var out bytes.Buffer
	c := newConsole(rl, &out)

	vals, err := c.Prompt(context.Background(), app.Prompt{
		Title: "New reminder",
		Text:  "title is required",
		Fields: []app.Field{
			{Key: "name", Label: "Name", Required: true},
			{Key: "category", Label: "Category", Choices: []string{"general", "work"}, Default: "general"},
			{Key: "urgency", Label: "Urgency", Choices: []string{"low", "normal", "critical"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, app.Values{"name": "Standup", "category": "general", "urgency": "critical"}, vals)
	assert.Contains(t, out.String(), "title is required")
	assert.Contains(t, out.String(), "choose one of: low, normal, critical")
	assert.Equal(t, "Name*: ", rl.prompts[0])
	assert.Equal(t, "Category [general/work] {general}: ", rl.prompts[1])
}

func TestPromptInterruptCancels(t *testing.T) {
	rl := &scriptedReader{err: readline.ErrInterrupt}
	c := newConsole(rl, io.Discard)

	_, err := c.Prompt(context.Background(), app.Prompt{Fields: []app.Field{{Key: "name", Label: "Name"}}})
	assert.ErrorIs(t, err, app.ErrCancelled)
}

func TestFieldPromptMulti(t *testing.T) {
	got := fieldPrompt(app.Field{Label: "Action", Required: true, Choices: []string{"open_url", "show"}, Multi: true})
	assert.Equal(t, "Action* [open_url,show]: ", got)
	assert.Equal(t, "Date* (2006-01-02): ", fieldPrompt(app.Field{Label: "Date", Required: true, Hint: "2006-01-02"}))
}

type fakeFlows struct {
	created int
	deleted []notifications.Full
	found   *notifications.LookupResult
}

func (f *fakeFlows) Create(context.Context) (*notifications.Full, error) {
	f.created++
	if f.created > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeCancelled, "cancelled by user")
	}
	return &notifications.Full{Reminder: models.Reminder{Name: "plants"}}, nil
}

func (f *fakeFlows) List(context.Context) (*notifications.LookupResult, error) {
	return f.found, nil
}

func (f *fakeFlows) Find(context.Context) (*notifications.LookupResult, error) {
	return f.found, nil
}

func (f *fakeFlows) Delete(_ context.Context, full notifications.Full) (bool, error) {
	f.deleted = append(f.deleted, full)
	return true, nil
}

func TestMenuDispatchesCommands(t *testing.T) {
	flows := &fakeFlows{found: &notifications.LookupResult{
		Items: []notifications.Full{
			{Reminder: models.Reminder{Name: "first"}, Body: &documents.StoredRecord{Title: "One", Actions: []string{"show"}}},
			{Reminder: models.Reminder{Name: "second"}, Body: &documents.StoredRecord{Title: "Two", Actions: []string{"remind"}}},
		},
		Missing: []models.Reminder{{Name: "ghost"}},
	}}
	rl := &scriptedReader{lines: []string{"create", "create", "list", "delete", "2", "bogus", "quit"}}
	var out bytes.Buffer

	err := NewMenu(newConsole(rl, &out), flows).Run(context.Background())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, `created "plants"`)
	assert.Contains(t, text, "cancelled")
	assert.Contains(t, text, "2. second")
	assert.Contains(t, text, "without a notification: ghost")
	assert.Contains(t, text, `deleted "second"`)
	assert.Contains(t, text, `unknown command "bogus"`)
	require.Len(t, flows.deleted, 1)
	assert.Equal(t, "second", flows.deleted[0].Reminder.Name)
}

func TestMenuStopsAtEOF(t *testing.T) {
	err := NewMenu(newConsole(&scriptedReader{}, io.Discard), &fakeFlows{}).Run(context.Background())
	assert.NoError(t, err)
}

func TestRenderLookupEmpty(t *testing.T) {
	var out bytes.Buffer
	RenderLookup(&out, &notifications.LookupResult{})
	assert.Contains(t, out.String(), "no reminders")
}
