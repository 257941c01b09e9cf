package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/la-reminders/internal/app"
	"github.com/chzyer/readline"
)

// lineReader is the part of readline.Instance the console needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Console reads prompt answers and menu commands from a terminal.
type Console struct {
	rl  lineReader
	out io.Writer
}

// New opens a readline session on the process terminal.
func New() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "la > ",
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return &Console{rl: rl, out: rl.Stdout()}, nil
}

func newConsole(rl lineReader, out io.Writer) *Console {
	return &Console{rl: rl, out: out}
}

func (c *Console) Close() error {
	return c.rl.Close()
}

func (c *Console) Out() io.Writer {
	return c.out
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}

// Prompt implements app.PromptFunc. Ctrl-C or Ctrl-D cancels the whole form.
func (c *Console) Prompt(ctx context.Context, p app.Prompt) (app.Values, error) {
	defer c.rl.SetPrompt("la > ")

	fmt.Fprintln(c.out, HeaderStyle.Render(p.Title))
	if p.Text != "" {
		fmt.Fprintln(c.out, WarningStyle.Render(p.Text))
	}

	vals := app.Values{}
	for _, field := range p.Fields {
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c.rl.SetPrompt(fieldPrompt(field))
			line, err := c.rl.Readline()
			if isEOF(err) {
				return nil, app.ErrCancelled
			}
			if err != nil {
				return nil, err
			}
			answer := strings.TrimSpace(line)
			if answer == "" {
				answer = field.Default
			}
			if answer != "" && len(field.Choices) > 0 && !field.Multi && !contains(field.Choices, answer) {
				fmt.Fprintln(c.out, ErrorStyle.Render(fmt.Sprintf("choose one of: %s", strings.Join(field.Choices, ", "))))
				continue
			}
			vals[field.Key] = answer
			break
		}
	}
	return vals, nil
}

// ReadCommand reads one menu command.
func (c *Console) ReadCommand() (string, error) {
	line, err := c.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func fieldPrompt(f app.Field) string {
	var b strings.Builder
	b.WriteString(f.Label)
	if f.Required {
		b.WriteString("*")
	}
	if len(f.Choices) > 0 {
		sep := "/"
		if f.Multi {
			sep = ","
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(f.Choices, sep))
	}
	if f.Hint != "" {
		fmt.Fprintf(&b, " (%s)", f.Hint)
	}
	if f.Default != "" {
		fmt.Fprintf(&b, " {%s}", f.Default)
	}
	b.WriteString(": ")
	return b.String()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
