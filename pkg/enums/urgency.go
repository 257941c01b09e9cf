package enums

import (
	"fmt"
	"strings"
)

// UrgencyLevel maps to the integer urgency_level column and to the urgency
// names understood by notify-send.
type UrgencyLevel int

const (
	UrgencyLow      UrgencyLevel = 1
	UrgencyNormal   UrgencyLevel = 2
	UrgencyCritical UrgencyLevel = 3
)

var urgencyNames = map[UrgencyLevel]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

func (u UrgencyLevel) IsValid() bool {
	_, ok := urgencyNames[u]
	return ok
}

// String returns the notify-send name, falling back to "normal".
func (u UrgencyLevel) String() string {
	if name, ok := urgencyNames[u]; ok {
		return name
	}
	return urgencyNames[UrgencyNormal]
}

// ParseUrgencyLevel accepts either the name or the numeric value.
func ParseUrgencyLevel(value string) (UrgencyLevel, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for level, name := range urgencyNames {
		if v == name || v == fmt.Sprint(int(level)) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid urgency level %q", value)
}
