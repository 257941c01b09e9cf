package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/angelmondragon/la-reminders/pkg/enums"
)

func TestReminderFireAt(t *testing.T) {
	r := Reminder{
		TargetDate: NewDate(time.Date(2026, 3, 14, 22, 10, 0, 0, time.UTC)),
		TargetTime: datatypes.NewTime(9, 30, 15, 0),
	}
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 15, 0, time.UTC), r.FireAt(time.UTC))
}

func TestReminderNextOccurrence(t *testing.T) {
	r := Reminder{RepeatRule: enums.RepeatWeekly}
	fireAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	date, tod, ok := r.NextOccurrence(fireAt, fireAt)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC), time.Time(date))
	assert.Equal(t, datatypes.NewTime(9, 30, 0, 0), tod)

	_, _, ok = Reminder{}.NextOccurrence(fireAt, fireAt)
	assert.False(t, ok)
}

func TestReminderNextOccurrenceSkipsMissedPeriods(t *testing.T) {
	r := Reminder{RepeatRule: enums.RepeatDaily}
	fireAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	date, tod, ok := r.NextOccurrence(fireAt, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), time.Time(date))
	assert.Equal(t, datatypes.NewTime(9, 0, 0, 0), tod)

	date, _, ok = r.NextOccurrence(fireAt, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), time.Time(date))
}

func TestReminderBeforeCreateDefaults(t *testing.T) {
	r := &Reminder{Name: "water plants"}
	require.NoError(t, r.BeforeCreate(nil))
	assert.NotEmpty(t, r.ID.String())
	assert.False(t, time.Time(r.CreatedOn).IsZero())
	assert.Equal(t, enums.UrgencyLow, r.UrgencyLevel)
	assert.Equal(t, DefaultCategoryID, r.CategoryID)
}
