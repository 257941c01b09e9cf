package enums

import (
	"fmt"
	"sort"
)

// Action is a tag describing what happens when a reminder fires.
type Action string

const (
	ActionOpenURL Action = "open_url"
	ActionRemind  Action = "remind"
	ActionShow    Action = "show"
)

var validActions = []Action{
	ActionOpenURL,
	ActionRemind,
	ActionShow,
}

// IsValid checks whether the action belongs to the fixed vocabulary.
func (a Action) IsValid() bool {
	for _, candidate := range validActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAction converts raw strings into Action.
func ParseAction(value string) (Action, error) {
	for _, candidate := range validActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action %q", value)
}

// ActionVocabulary returns the accepted action tags in sorted order.
func ActionVocabulary() []string {
	out := make([]string, 0, len(validActions))
	for _, a := range validActions {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}
