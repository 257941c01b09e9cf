package enums

import (
	"fmt"
	"strings"
	"time"
)

// RepeatRule maps to the integer repeat_rule column.
type RepeatRule int

const (
	RepeatNone    RepeatRule = 0
	RepeatDaily   RepeatRule = 1
	RepeatWeekly  RepeatRule = 2
	RepeatMonthly RepeatRule = 3
)

var repeatNames = map[RepeatRule]string{
	RepeatNone:    "none",
	RepeatDaily:   "daily",
	RepeatWeekly:  "weekly",
	RepeatMonthly: "monthly",
}

func (r RepeatRule) IsValid() bool {
	_, ok := repeatNames[r]
	return ok
}

func (r RepeatRule) String() string {
	if name, ok := repeatNames[r]; ok {
		return name
	}
	return fmt.Sprintf("repeat(%d)", int(r))
}

// Next returns the next occurrence after t, or false when the rule does not repeat.
func (r RepeatRule) Next(t time.Time) (time.Time, bool) {
	switch r {
	case RepeatDaily:
		return t.AddDate(0, 0, 1), true
	case RepeatWeekly:
		return t.AddDate(0, 0, 7), true
	case RepeatMonthly:
		return t.AddDate(0, 1, 0), true
	default:
		return time.Time{}, false
	}
}

// ParseRepeatRule accepts either the name or the numeric value.
func ParseRepeatRule(value string) (RepeatRule, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return RepeatNone, nil
	}
	for rule, name := range repeatNames {
		if v == name || v == fmt.Sprint(int(rule)) {
			return rule, nil
		}
	}
	return 0, fmt.Errorf("invalid repeat rule %q", value)
}
