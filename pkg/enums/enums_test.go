package enums

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionVocabulary(t *testing.T) {
	assert.Equal(t, []string{"open_url", "remind", "show"}, ActionVocabulary())
	assert.True(t, ActionShow.IsValid())
	assert.False(t, Action("invalid_tag").IsValid())

	a, err := ParseAction("open_url")
	require.NoError(t, err)
	assert.Equal(t, ActionOpenURL, a)
	_, err = ParseAction("OPEN_URL")
	assert.Error(t, err)
}

func TestUrgencyLevel(t *testing.T) {
	assert.Equal(t, "critical", UrgencyCritical.String())
	assert.Equal(t, "normal", UrgencyLevel(9).String())
	assert.False(t, UrgencyLevel(0).IsValid())

	lvl, err := ParseUrgencyLevel("Low")
	require.NoError(t, err)
	assert.Equal(t, UrgencyLow, lvl)
	lvl, err = ParseUrgencyLevel("3")
	require.NoError(t, err)
	assert.Equal(t, UrgencyCritical, lvl)
	_, err = ParseUrgencyLevel("urgent")
	assert.Error(t, err)
}

func TestRepeatRuleNext(t *testing.T) {
	base := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

	next, ok := RepeatDaily.Next(base)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), next)

	next, ok = RepeatWeekly.Next(base)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC), next)

	_, ok = RepeatNone.Next(base)
	assert.False(t, ok)

	rule, err := ParseRepeatRule("")
	require.NoError(t, err)
	assert.Equal(t, RepeatNone, rule)
	rule, err = ParseRepeatRule("monthly")
	require.NoError(t, err)
	assert.Equal(t, RepeatMonthly, rule)
}
