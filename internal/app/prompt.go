package app

import (
	"context"
	"errors"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
)

// ErrCancelled is returned by a PromptFunc when the user aborts the form.
var ErrCancelled = errors.New("prompt cancelled")

// Field is one input of a prompt form.
type Field struct {
	Key      string
	Label    string
	Hint     string
	Required bool
	// Choices restricts the answer. Multi allows a comma separated subset.
	Choices []string
	Multi   bool
	Default string
}

// Prompt is a form shown to the user. Text carries the problems found in a
// previous attempt, if any.
type Prompt struct {
	Title  string
	Text   string
	Fields []Field
}

// Values maps field keys to what the user typed.
type Values map[string]string

// PromptFunc collects values for p or returns ErrCancelled.
type PromptFunc func(ctx context.Context, p Prompt) (Values, error)

func cancelled(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "cancelled by user")
}
