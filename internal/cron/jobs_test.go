package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/la-reminders/internal/dispatch"
	"github.com/angelmondragon/la-reminders/internal/documents"
	"github.com/angelmondragon/la-reminders/internal/notifications"
	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	"github.com/angelmondragon/la-reminders/pkg/enums"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

type fakeDue struct {
	dueFn func(ctx context.Context, now time.Time) (*notifications.LookupResult, error)
}

func (f *fakeDue) Due(ctx context.Context, now time.Time) (*notifications.LookupResult, error) {
	return f.dueFn(ctx, now)
}

type fakeFirer struct {
	fired  []string
	fireFn func(name string) error
}

func (f *fakeFirer) Fire(_ context.Context, name string, _ *documents.StoredRecord, _ enums.UrgencyLevel) error {
	f.fired = append(f.fired, name)
	if f.fireFn != nil {
		return f.fireFn(name)
	}
	return nil
}

type fakeMarker struct {
	marked []string
}

func (f *fakeMarker) MarkFired(_ context.Context, reminder *models.Reminder, _ time.Time) error {
	f.marked = append(f.marked, reminder.Name)
	return nil
}

func full(name string) notifications.Full {
	return notifications.Full{
		Reminder: models.Reminder{ID: uuid.New(), Name: name, DocumentRef: primitive.NewObjectID().Hex()},
		Body:     &documents.StoredRecord{Title: name, Actions: []string{"show"}},
	}
}

func TestDueRemindersJobFiresAndMarks(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	due := &fakeDue{dueFn: func(_ context.Context, got time.Time) (*notifications.LookupResult, error) {
		assert.Equal(t, now, got)
		return &notifications.LookupResult{
			Items:   []notifications.Full{full("a"), full("broken"), full("b")},
			Missing: []models.Reminder{{Name: "lost"}},
		}, nil
	}}
	firer := &fakeFirer{fireFn: func(name string) error {
		if name == "broken" {
			return errors.New("notify-send missing")
		}
		return nil
	}}
	marker := &fakeMarker{}

	job, err := NewDueRemindersJob(DueRemindersJobParams{
		Logger:     logger.Discard(),
		Service:    due,
		Dispatcher: firer,
		Reminders:  marker,
	})
	require.NoError(t, err)
	job.(*dueRemindersJob).now = func() time.Time { return now }

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "notify-send missing")
	assert.Equal(t, []string{"a", "broken", "b"}, firer.fired)
	assert.Equal(t, []string{"a", "b"}, marker.marked)
	assert.Equal(t, "due-reminders", job.Name())
}

type countingExecutor struct {
	runs   int
	starts int
}

func (c *countingExecutor) Start(context.Context, string, ...string) error {
	c.starts++
	return nil
}

func (c *countingExecutor) Run(context.Context, string, ...string) (dispatch.Result, error) {
	c.runs++
	return dispatch.Result{}, nil
}

func TestDueRemindersJobCompletesReminderWithUnfixableAction(t *testing.T) {
	item := notifications.Full{
		Reminder: models.Reminder{ID: uuid.New(), Name: "standup", DocumentRef: primitive.NewObjectID().Hex()},
		Body:     &documents.StoredRecord{Title: "Standup", Actions: []string{"show", "open_url"}},
	}
	marker := &fakeMarker{}
	due := &fakeDue{dueFn: func(context.Context, time.Time) (*notifications.LookupResult, error) {
		if len(marker.marked) > 0 {
			return &notifications.LookupResult{}, nil
		}
		return &notifications.LookupResult{Items: []notifications.Full{item}}, nil
	}}
	exec := &countingExecutor{}

	job, err := NewDueRemindersJob(DueRemindersJobParams{
		Logger:     logger.Discard(),
		Service:    due,
		Dispatcher: dispatch.New(exec, config.DispatchConfig{}, "la", logger.Discard()),
		Reminders:  marker,
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, job.Run(context.Background()))
	}
	assert.Equal(t, 1, exec.runs)
	assert.Zero(t, exec.starts)
	assert.Equal(t, []string{"standup"}, marker.marked)
}

func TestDueRemindersJobRetriesMixedFailures(t *testing.T) {
	marker := &fakeMarker{}
	firer := &fakeFirer{fireFn: func(string) error {
		return multierr.Combine(
			pkgerrors.New(pkgerrors.CodeValidation, "open_url action without a url"),
			pkgerrors.New(pkgerrors.CodeDependency, "notify-send exited with 1"),
		)
	}}
	job, err := NewDueRemindersJob(DueRemindersJobParams{
		Logger: logger.Discard(),
		Service: &fakeDue{dueFn: func(context.Context, time.Time) (*notifications.LookupResult, error) {
			return &notifications.LookupResult{Items: []notifications.Full{full("mixed")}}, nil
		}},
		Dispatcher: firer,
		Reminders:  marker,
	})
	require.NoError(t, err)

	require.Error(t, job.Run(context.Background()))
	assert.Empty(t, marker.marked)
}

func TestDueRemindersJobPropagatesLookupError(t *testing.T) {
	job, err := NewDueRemindersJob(DueRemindersJobParams{
		Logger: logger.Discard(),
		Service: &fakeDue{dueFn: func(context.Context, time.Time) (*notifications.LookupResult, error) {
			return nil, errors.New("db down")
		}},
		Dispatcher: &fakeFirer{},
		Reminders:  &fakeMarker{},
	})
	require.NoError(t, err)
	assert.EqualError(t, job.Run(context.Background()), "db down")
}

type fakeSweeper struct {
	ids     []primitive.ObjectID
	deleted []string
}

func (f *fakeSweeper) ListIDs(context.Context) ([]primitive.ObjectID, error) { return f.ids, nil }

func (f *fakeSweeper) Delete(_ context.Context, ids []string) (int64, error) {
	f.deleted = append(f.deleted, ids...)
	return int64(len(ids)), nil
}

type fakeRefs struct{ refs []string }

func (f *fakeRefs) DocumentRefs(context.Context) ([]string, error) { return f.refs, nil }

func TestOrphanSweepJobRespectsGrace(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	referenced := primitive.NewObjectIDFromTimestamp(now.Add(-time.Hour))
	oldOrphan := primitive.NewObjectIDFromTimestamp(now.Add(-time.Hour))
	freshOrphan := primitive.NewObjectIDFromTimestamp(now.Add(-time.Minute))

	sweeper := &fakeSweeper{ids: []primitive.ObjectID{referenced, oldOrphan, freshOrphan}}
	job, err := NewOrphanSweepJob(OrphanSweepJobParams{
		Logger:    logger.Discard(),
		Documents: sweeper,
		Reminders: &fakeRefs{refs: []string{referenced.Hex()}},
		Grace:     10 * time.Minute,
	})
	require.NoError(t, err)
	job.(*orphanSweepJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{oldOrphan.Hex()}, sweeper.deleted)
}

func TestOrphanSweepJobKeepsUppercaseReferences(t *testing.T) {
	id := primitive.NewObjectIDFromTimestamp(time.Now().Add(-time.Hour))
	sweeper := &fakeSweeper{ids: []primitive.ObjectID{id}}
	job, err := NewOrphanSweepJob(OrphanSweepJobParams{
		Logger:    logger.Discard(),
		Documents: sweeper,
		Reminders: &fakeRefs{refs: []string{strings.ToUpper(id.Hex())}},
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sweeper.deleted)
}

func TestOrphanSweepJobNothingToDo(t *testing.T) {
	id := primitive.NewObjectIDFromTimestamp(time.Now().Add(-time.Hour))
	sweeper := &fakeSweeper{ids: []primitive.ObjectID{id}}
	job, err := NewOrphanSweepJob(OrphanSweepJobParams{
		Logger:    logger.Discard(),
		Documents: sweeper,
		Reminders: &fakeRefs{refs: []string{id.Hex()}},
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sweeper.deleted)
}
