package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
)

// Result is the outcome of a synchronous command.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// Executor runs external commands.
type Executor interface {
	// Start launches the command without waiting for it to finish.
	Start(ctx context.Context, name string, args ...string) error
	// Run waits for the command and captures its output. A non-zero exit is
	// reported through Result.Code, not the error.
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// CommandExecutor runs commands through os/exec with a per-command timeout.
type CommandExecutor struct {
	timeout time.Duration
	logg    *logger.Logger
}

func NewCommandExecutor(timeout time.Duration, logg *logger.Logger) *CommandExecutor {
	if logg == nil {
		logg = logger.Discard()
	}
	return &CommandExecutor{timeout: timeout, logg: logg}
}

func (e *CommandExecutor) Start(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("start %s", name))
	}

	logCtx := e.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"command": name,
		"pid":     cmd.Process.Pid,
	})
	go func() {
		if err := cmd.Wait(); err != nil {
			e.logg.Warn(e.logg.WithField(logCtx, "error", err.Error()), "background command exited with error")
		}
	}()
	return nil
}

func (e *CommandExecutor) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimRight(stdout.String(), "\n"),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.Code = exitErr.ExitCode()
		return res, nil
	}
	res.Code = -1
	return res, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("run %s", name)).
		WithDetails(map[string]any{"stderr": res.Stderr})
}
