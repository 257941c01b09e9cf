package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	"github.com/angelmondragon/la-reminders/pkg/enums"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/angelmondragon/la-reminders/pkg/metrics"
	"go.uber.org/multierr"
)

type DueRemindersJobParams struct {
	Logger     *logger.Logger
	Service    dueLookup
	Dispatcher firer
	Reminders  firedMarker
	Metrics    *metrics.ConsistencyMetrics
}

type dueLookup interface {
	Due(ctx context.Context, now time.Time) (*notifications.LookupResult, error)
}

type firer interface {
	Fire(ctx context.Context, name string, body *documents.StoredRecord, urgency enums.UrgencyLevel) error
}

type firedMarker interface {
	MarkFired(ctx context.Context, reminder *models.Reminder, firedAt time.Time) error
}

// NewDueRemindersJob fires every reminder whose time has come.
func NewDueRemindersJob(params DueRemindersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	return &dueRemindersJob{
		logg:       params.Logger,
		service:    params.Service,
		dispatcher: params.Dispatcher,
		reminders:  params.Reminders,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

type dueRemindersJob struct {
	logg       *logger.Logger
	service    dueLookup
	dispatcher firer
	reminders  firedMarker
	metrics    *metrics.ConsistencyMetrics
	now        func() time.Time
}

func (j *dueRemindersJob) Name() string { return "due-reminders" }

// Run fires each due reminder and then completes or reschedules it. A
// reminder whose actions failed stays pending and is retried next tick,
// unless every failure is a validation error, which no retry can clear.
func (j *dueRemindersJob) Run(ctx context.Context) error {
	now := j.now()
	result, err := j.service.Due(ctx, now)
	if err != nil {
		return err
	}

	var errs error
	fired := 0
	for i := range result.Items {
		item := result.Items[i]
		itemCtx := j.logg.WithDocumentID(j.logg.WithReminderID(ctx, item.Reminder.ID.String()), item.Reminder.DocumentRef)

		if err := j.dispatcher.Fire(itemCtx, item.Reminder.Name, item.Body, item.Reminder.UrgencyLevel); err != nil {
			if !permanent(err) {
				errs = multierr.Append(errs, fmt.Errorf("fire reminder %s: %w", item.Reminder.ID, err))
				continue
			}
			j.logg.Error(itemCtx, "reminder actions cannot succeed, completing it anyway", err)
		} else {
			for _, action := range item.Body.Actions {
				j.metrics.IncFired(action)
			}
		}
		if err := j.reminders.MarkFired(itemCtx, &item.Reminder, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark reminder %s fired: %w", item.Reminder.ID, err))
			continue
		}
		fired++
	}

	if fired > 0 || len(result.Missing) > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"fired":   fired,
			"missing": len(result.Missing),
		}), "due reminders processed")
	}
	return errs
}

// permanent reports whether every error combined in err is a validation
// failure.
func permanent(err error) bool {
	list := multierr.Errors(err)
	for _, e := range list {
		if !pkgerrors.IsCode(e, pkgerrors.CodeValidation) {
			return false
		}
	}
	return len(list) > 0
}
