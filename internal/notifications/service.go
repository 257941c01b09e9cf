package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/internal/reminders"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/angelmondragon/la-reminders/pkg/metrics"
	"github.com/angelmondragon/la-reminders/pkg/tasks"
)

// Full pairs a reminder with its notification body. It is never stored as
// such.
type Full struct {
	Reminder models.Reminder
	Body     *documents.StoredRecord
}

// LookupResult carries the joined records plus the reminders whose body
// could not be found.
type LookupResult struct {
	Items   []Full
	Missing []models.Reminder
}

// Notifier receives create confirmations. Calls are made in the background.
type Notifier interface {
	NotifyCreated(ctx context.Context, name string) error
	NotifyAborted(ctx context.Context, name, orphanID string) error
}

// Service keeps reminders and their notification bodies consistent.
type Service interface {
	Create(ctx context.Context, reminder *models.Reminder, fields map[string]any) (*Full, error)
	Delete(ctx context.Context, full Full) (bool, error)
	GetByFilters(ctx context.Context, filters reminders.Filters) (*LookupResult, error)
	Due(ctx context.Context, now time.Time) (*LookupResult, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type Options struct {
	Logger   *logger.Logger
	Tasks    *tasks.Runner
	Notifier Notifier
	Metrics  *metrics.ConsistencyMetrics
}

type service struct {
	docs     documents.Repository
	rems     reminders.Repository
	logg     *logger.Logger
	tasks    *tasks.Runner
	notifier Notifier
	metrics  *metrics.ConsistencyMetrics
}

// NewService wires the coordinator.
func NewService(docs documents.Repository, rems reminders.Repository, opts Options) (Service, error) {
	if docs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "documents repository required")
	}
	if rems == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reminders repository required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Discard()
	}
	return &service{
		docs:     docs,
		rems:     rems,
		logg:     logg,
		tasks:    opts.Tasks,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
	}, nil
}

// Create writes the notification body first and the reminder second. Once the
// body exists every failure removes it again before returning.
func (s *service) Create(ctx context.Context, reminder *models.Reminder, fields map[string]any) (*Full, error) {
	if reminder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reminder is required")
	}
	intent, err := documents.Create(fields)
	if err != nil {
		return nil, err
	}
	if err := reminders.Validate(reminder, "DocumentRef"); err != nil {
		return nil, err
	}

	ctx = s.logg.WithOperation(ctx, "create")
	ids, err := s.docs.Create(ctx, intent)
	if err != nil {
		return nil, err
	}
	if len(ids) != 1 {
		cause := pkgerrors.New(pkgerrors.CodeInternal, "document store returned an unexpected number of ids").
			WithDetails(map[string]any{"ids": ids})
		return nil, s.compensate(ctx, reminder, ids, cause)
	}
	docID := ids[0]
	ctx = s.logg.WithDocumentID(ctx, docID)

	if err := ctx.Err(); err != nil {
		return nil, s.compensate(ctx, reminder, ids, err)
	}

	reminder.DocumentRef = docID
	if err := s.rems.Create(ctx, reminder); err != nil {
		return nil, s.compensate(ctx, reminder, ids, err)
	}

	name := reminder.Name
	s.background(ctx, "notify-created", func(ctx context.Context) error {
		return s.notifier.NotifyCreated(ctx, name)
	})

	return &Full{Reminder: *reminder, Body: storedFromIntent(docID, intent)}, nil
}

// compensate deletes documents created by a failed Create. It runs on a
// context detached from the caller so a cancelled request still cleans up.
func (s *service) compensate(ctx context.Context, reminder *models.Reminder, docIDs []string, cause error) error {
	reminder.DocumentRef = ""
	cleanupCtx := context.WithoutCancel(ctx)
	name := reminder.Name

	_, delErr := s.docs.Delete(cleanupCtx, docIDs)
	if delErr != nil {
		orphan := ""
		if len(docIDs) > 0 {
			orphan = docIDs[0]
		}
		s.metrics.IncCompensation(metrics.CompensationFailed)
		s.logg.Error(s.logg.WithField(cleanupCtx, "cause", cause.Error()), "orphan notification left behind", delErr)
		s.background(cleanupCtx, "notify-aborted", func(ctx context.Context) error {
			return s.notifier.NotifyAborted(ctx, name, orphan)
		})
		return pkgerrors.Wrap(pkgerrors.CodeInconsistent, cause, "reminder was not saved and its notification could not be removed").
			WithDetails(map[string]any{
				"orphan_document_id": orphan,
				"cleanup_error":      delErr.Error(),
			})
	}

	s.metrics.IncCompensation(metrics.CompensationSucceeded)
	s.logg.Warn(s.logg.WithField(cleanupCtx, "cause", cause.Error()), "reminder not saved, notification removed")
	s.background(cleanupCtx, "notify-aborted", func(ctx context.Context) error {
		return s.notifier.NotifyAborted(ctx, name, "")
	})
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "reminder was not saved")
}

// Delete removes the reminder inside an open transaction, deletes the body,
// and only then commits. A body that is already gone counts as deleted.
func (s *service) Delete(ctx context.Context, full Full) (bool, error) {
	reminderID := full.Reminder.ID.String()
	ctx = s.logg.WithReminderID(s.logg.WithOperation(ctx, "delete"), reminderID)

	pending, err := s.rems.DeleteDeferred(ctx, []string{reminderID})
	if err != nil {
		return false, err
	}
	if pending == nil {
		return false, nil
	}
	defer pending.Rollback()

	ref := full.Reminder.DocumentRef
	ctx = s.logg.WithDocumentID(ctx, ref)
	if full.Body != nil && full.Body.ID != "" && full.Body.ID != ref {
		s.logg.Warn(s.logg.WithField(ctx, "body_id", full.Body.ID), "body id differs from reminder reference")
	}

	if documents.ValidID(ref) {
		if _, err := s.docs.Delete(ctx, []string{ref}); err != nil {
			s.logg.Error(ctx, "notification delete failed, keeping reminder", err)
			return false, err
		}
	} else {
		s.logg.Warn(ctx, "reminder has a malformed document reference, deleting reminder only")
	}

	if err := pending.Commit(); err != nil {
		s.logg.Error(ctx, "notification removed but reminder delete did not commit", err)
		return false, pkgerrors.Wrap(pkgerrors.CodeInconsistent, err, "reminder delete failed after its notification was removed").
			WithDetails(map[string]any{"reminder_id": reminderID, "document_id": ref})
	}
	return true, nil
}

func (s *service) GetByFilters(ctx context.Context, filters reminders.Filters) (*LookupResult, error) {
	rows, err := s.rems.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return s.join(s.logg.WithOperation(ctx, "lookup"), rows)
}

// Due returns pending reminders whose fire time has passed, joined with
// their bodies.
func (s *service) Due(ctx context.Context, now time.Time) (*LookupResult, error) {
	rows, err := s.rems.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.join(s.logg.WithOperation(ctx, "due"), rows)
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.rems.Categories(ctx, nil)
}

// join fetches every referenced body in one query and pairs it with its
// reminders, preserving reminder order.
func (s *service) join(ctx context.Context, rows []models.Reminder) (*LookupResult, error) {
	result := &LookupResult{Items: make([]Full, 0, len(rows))}
	if len(rows) == 0 {
		return result, nil
	}

	refs := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		ref := strings.ToLower(row.DocumentRef)
		if !documents.ValidID(ref) || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}

	bodies := map[string]*documents.StoredRecord{}
	if len(refs) > 0 {
		found, err := s.docs.FindByIDs(ctx, refs)
		if err != nil {
			return nil, err
		}
		for _, body := range found {
			bodies[body.ID] = body
		}
	}

	for _, row := range rows {
		// ids come back as lowercase hex
		body, ok := bodies[strings.ToLower(row.DocumentRef)]
		if !ok {
			result.Missing = append(result.Missing, row)
			continue
		}
		result.Items = append(result.Items, Full{Reminder: row, Body: body})
	}

	if n := len(result.Missing); n > 0 {
		missing := make([]string, 0, n)
		for _, row := range result.Missing {
			missing = append(missing, row.ID.String())
		}
		s.metrics.AddMissing(n)
		s.logg.Warn(s.logg.WithField(ctx, "missing_reminder_ids", missing), "reminders reference notifications that do not exist")
	}
	return result, nil
}

func (s *service) background(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if s.tasks == nil || s.notifier == nil {
		return
	}
	s.tasks.Go(ctx, name, fn)
}

func storedFromIntent(id string, intent *documents.CreateIntent) *documents.StoredRecord {
	rec := &documents.StoredRecord{
		ID:        id,
		Title:     intent.Title,
		Actions:   intent.ActionStrings(),
		ExtraArgs: make(map[string]any, len(intent.Extra)),
	}
	if intent.Description != nil {
		rec.Description = *intent.Description
	}
	for k, v := range intent.Extra {
		rec.ExtraArgs[k] = v
	}
	return rec
}
