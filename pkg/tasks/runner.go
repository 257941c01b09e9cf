package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/la-reminders/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Runner schedules fire-and-forget work. The caller never waits on a task;
// failures and panics are logged.
type Runner struct {
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner builds a runner whose tasks are bounded by timeout.
func NewRunner(logg *logger.Logger, timeout time.Duration) *Runner {
	if logg == nil {
		logg = logger.Discard()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{logg: logg, timeout: timeout}
}

// Go runs fn in the background. The task context keeps the caller's values
// (log fields) but not its cancellation.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx := r.logg.WithField(context.WithoutCancel(ctx), "task", name)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		runCtx, cancel := context.WithTimeout(taskCtx, r.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				r.logg.Error(taskCtx, "background task panicked", fmt.Errorf("panic: %v", rec))
			}
		}()

		if err := fn(runCtx); err != nil {
			r.logg.Error(taskCtx, "background task failed", err)
		}
	}()
}

// Wait blocks until every scheduled task finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
