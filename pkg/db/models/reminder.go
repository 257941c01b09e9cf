package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/la-reminders/pkg/enums"
)

// Reminder is the schedule half of a notification. DocumentRef points at the
// notification body held in the document store.
type Reminder struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string             `gorm:"type:text;not null" json:"name" validate:"required,max=255"`
	CreatedOn    datatypes.Date     `gorm:"type:date;not null" json:"created_on"`
	TargetDate   datatypes.Date     `gorm:"type:date;not null" json:"target_date" validate:"required"`
	TargetTime   datatypes.Time     `gorm:"type:time;not null" json:"target_time" validate:"gte=0,lt=86400000000000"`
	Status       bool               `gorm:"not null;default:false" json:"status"`
	DocumentRef  string             `gorm:"type:text;not null;index" json:"document_ref" validate:"required,len=24,hexadecimal"`
	UrgencyLevel enums.UrgencyLevel `gorm:"not null;default:1" json:"urgency_level" validate:"gte=1,lte=3"`
	RepeatRule   enums.RepeatRule   `gorm:"not null;default:0" json:"repeat_rule" validate:"gte=0,lte=3"`
	CategoryID   int                `gorm:"column:category_id;not null;default:1" json:"category" validate:"gte=1"`
}

func (Reminder) TableName() string { return "reminder" }

// BeforeCreate fills the generated columns.
func (r *Reminder) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if time.Time(r.CreatedOn).IsZero() {
		r.CreatedOn = NewDate(time.Now())
	}
	if r.UrgencyLevel == 0 {
		r.UrgencyLevel = enums.UrgencyLow
	}
	if r.CategoryID == 0 {
		r.CategoryID = DefaultCategoryID
	}
	return nil
}

// FireAt combines the target date and time in loc.
func (r Reminder) FireAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := time.Time(r.TargetDate).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(r.TargetTime))
}

// NextOccurrence returns the first schedule after both fireAt and after for
// repeating reminders. Periods missed while nothing was running are skipped.
func (r Reminder) NextOccurrence(fireAt, after time.Time) (datatypes.Date, datatypes.Time, bool) {
	next, ok := r.RepeatRule.Next(fireAt)
	if !ok {
		return datatypes.Date{}, 0, false
	}
	for !next.After(after) {
		next, _ = r.RepeatRule.Next(next)
	}
	return NewDate(next), TimeOfDay(next), true
}

// NewDate truncates t to a calendar date stored in UTC.
func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// TimeOfDay drops the date part of t.
func TimeOfDay(t time.Time) datatypes.Time {
	return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0)
}
