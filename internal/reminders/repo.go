package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/la-reminders/pkg/db"
	"github.com/angelmondragon/la-reminders/pkg/db/models"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/angelmondragon/la-reminders/pkg/validators"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for reminders and categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	List(ctx context.Context, filters Filters) ([]models.Reminder, error)
	Categories(ctx context.Context, filters Filters) ([]models.Category, error)
	Create(ctx context.Context, reminders ...*models.Reminder) error
	Delete(ctx context.Context, ids []string) (bool, error)
	DeleteDeferred(ctx context.Context, ids []string) (*PendingDelete, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkFired(ctx context.Context, reminder *models.Reminder, firedAt time.Time) error
	DocumentRefs(ctx context.Context) ([]string, error)
}

type repositoryImpl struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository returns a reminders repository bound to the provided
// database. A zero timeout leaves the caller's deadline untouched.
func NewRepository(conn *gorm.DB, timeout time.Duration) Repository {
	return &repositoryImpl{db: conn, timeout: timeout}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx, timeout: r.timeout}
}

func (r *repositoryImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var reminder models.Reminder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get reminder")
	}
	return &reminder, nil
}

func (r *repositoryImpl) List(ctx context.Context, filters Filters) ([]models.Reminder, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return findByFilter[models.Reminder](r.db.WithContext(ctx), reminderColumns, filters, "target_date, target_time, id")
}

func (r *repositoryImpl) Categories(ctx context.Context, filters Filters) ([]models.Category, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return findByFilter[models.Category](r.db.WithContext(ctx), categoryColumns, filters, "id")
}

// Validate checks a reminder against its struct rules with defaults applied.
// Fields named in except are skipped.
func Validate(reminder *models.Reminder, except ...string) error {
	if reminder == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reminder is required")
	}
	candidate := *reminder
	_ = candidate.BeforeCreate(nil)
	if err := validators.Struct(&candidate, except...); err != nil {
		return err
	}
	if !candidate.UrgencyLevel.IsValid() || !candidate.RepeatRule.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reminder has an unknown urgency level or repeat rule")
	}
	return nil
}

// Create inserts every reminder in a single transaction.
func (r *repositoryImpl) Create(ctx context.Context, reminders ...*models.Reminder) error {
	if len(reminders) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no reminders to create")
	}
	for _, reminder := range reminders {
		if err := Validate(reminder); err != nil {
			return err
		}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, reminder := range reminders {
			if err := tx.Create(reminder).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsConstraintViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "create reminder")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reminder")
	}
	return nil
}

// Delete removes the reminders with the given ids. It reports false without
// writing when none of them exist.
func (r *repositoryImpl) Delete(ctx context.Context, ids []string) (bool, error) {
	parsed, err := parseIDs(ids)
	if err != nil {
		return false, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var deleted bool
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteMatching(tx, parsed)
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reminders")
	}
	return deleted, nil
}

// DeleteDeferred deletes the reminders inside a transaction that is left open
// for the caller to commit or roll back. It returns nil when nothing matched.
// The transaction is bound to ctx and must not outlive the calling operation.
func (r *repositoryImpl) DeleteDeferred(ctx context.Context, ids []string) (*PendingDelete, error) {
	parsed, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, tx.Error, "begin delete")
	}
	n, err := deleteMatching(tx, parsed)
	if err != nil {
		tx.Rollback()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reminders")
	}
	if n == 0 {
		tx.Rollback()
		return nil, nil
	}
	return &PendingDelete{tx: tx, Deleted: n}, nil
}

func deleteMatching(tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	var matched []uuid.UUID
	if err := tx.Model(&models.Reminder{}).Where("id IN ?", ids).Pluck("id", &matched).Error; err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}
	res := tx.Where("id IN ?", matched).Delete(&models.Reminder{})
	return res.RowsAffected, res.Error
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one id is required")
	}
	parsed := make([]uuid.UUID, 0, len(ids))
	var invalid []string
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			invalid = append(invalid, id)
			continue
		}
		parsed = append(parsed, u)
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid reminder ids: %q", invalid)).
			WithDetails(map[string]any{"invalid_ids": invalid})
	}
	return parsed, nil
}

// ListDue returns pending reminders whose fire time is at or before now,
// interpreting the stored date and time in now's location.
func (r *repositoryImpl) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var candidates []models.Reminder
	err := r.db.WithContext(ctx).
		Where("status = ? AND target_date <= ?", false, models.NewDate(now)).
		Order("target_date, target_time, id").
		Find(&candidates).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due reminders")
	}

	due := candidates[:0]
	for _, reminder := range candidates {
		if !reminder.FireAt(now.Location()).After(now) {
			due = append(due, reminder)
		}
	}
	return due, nil
}

// MarkFired completes a one-off reminder or moves a repeating one to its
// next occurrence.
func (r *repositoryImpl) MarkFired(ctx context.Context, reminder *models.Reminder, firedAt time.Time) error {
	if reminder == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reminder is required")
	}

	updates := map[string]any{"status": true}
	if date, tod, ok := reminder.NextOccurrence(reminder.FireAt(firedAt.Location()), firedAt); ok {
		updates = map[string]any{"target_date": date, "target_time": tod}
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.Reminder{}).Where("id = ?", reminder.ID).Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark reminder fired")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found").
			WithDetails(map[string]any{"reminder_id": reminder.ID.String()})
	}
	return nil
}

// DocumentRefs returns every distinct document id referenced by a reminder.
func (r *repositoryImpl) DocumentRefs(ctx context.Context) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var refs []string
	if err := r.db.WithContext(ctx).Model(&models.Reminder{}).Distinct().Pluck("document_ref", &refs).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list document refs")
	}
	return refs, nil
}
