package documents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/la-reminders/pkg/enums"
	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names of a notification document.
const (
	FieldID          = "_id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAction      = "action"
	FieldExtraArgs   = "extra_args"
)

// ExtraURL is the extra argument the open_url action reads.
const ExtraURL = "url"

// schemaFields are the declared top-level fields, in storage order.
var schemaFields = []string{FieldTitle, FieldDescription, FieldAction}

func isSchemaField(key string) bool {
	switch key {
	case FieldID, FieldTitle, FieldDescription, FieldAction, FieldExtraArgs:
		return true
	}
	return false
}

// Body is either a CreateIntent (validated, not yet stored) or a
// StoredRecord (read back, never validated).
type Body interface {
	// Pairs returns the record as an ordered key/value sequence.
	Pairs() bson.D
	// Get returns the value stored under key, or an error naming the key and
	// listing every valid key.
	Get(key string) (any, error)
	Keys() []string

	sealed()
}

// CreateIntent is a validated notification body ready to be inserted. Extra
// arguments are flattened into the top level of the stored record.
type CreateIntent struct {
	Title       string
	Description *string
	Actions     []enums.Action
	Extra       map[string]any
}

func (*CreateIntent) sealed() {}

// ActionStrings returns the actions as plain strings.
func (c *CreateIntent) ActionStrings() []string {
	out := make([]string, 0, len(c.Actions))
	for _, a := range c.Actions {
		out = append(out, string(a))
	}
	return out
}

func (c *CreateIntent) Keys() []string {
	keys := []string{FieldTitle}
	if c.Description != nil {
		keys = append(keys, FieldDescription)
	}
	keys = append(keys, FieldAction)
	return append(keys, sortedKeys(c.Extra)...)
}

func (c *CreateIntent) Pairs() bson.D {
	doc := bson.D{{Key: FieldTitle, Value: c.Title}}
	if c.Description != nil {
		doc = append(doc, bson.E{Key: FieldDescription, Value: *c.Description})
	}
	doc = append(doc, bson.E{Key: FieldAction, Value: c.ActionStrings()})
	for _, k := range sortedKeys(c.Extra) {
		doc = append(doc, bson.E{Key: k, Value: c.Extra[k]})
	}
	return doc
}

func (c *CreateIntent) Get(key string) (any, error) {
	return lookup(c.Pairs(), key)
}

// StoredRecord is a notification body as read from the store. Keys outside
// the declared schema are collected under ExtraArgs.
type StoredRecord struct {
	ID          string
	Title       string
	Description string
	Actions     []string
	ExtraArgs   map[string]any
}

func (*StoredRecord) sealed() {}

func (s *StoredRecord) Keys() []string {
	return []string{FieldID, FieldTitle, FieldDescription, FieldAction, FieldExtraArgs}
}

func (s *StoredRecord) Pairs() bson.D {
	extra := s.ExtraArgs
	if extra == nil {
		extra = map[string]any{}
	}
	return bson.D{
		{Key: FieldID, Value: s.ID},
		{Key: FieldTitle, Value: s.Title},
		{Key: FieldDescription, Value: s.Description},
		{Key: FieldAction, Value: s.Actions},
		{Key: FieldExtraArgs, Value: extra},
	}
}

func (s *StoredRecord) Get(key string) (any, error) {
	return lookup(s.Pairs(), key)
}

// Extra returns an extra argument as a string, if present.
func (s *StoredRecord) Extra(key string) (string, bool) {
	v, ok := s.ExtraArgs[key]
	if !ok || v == nil {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	return fmt.Sprint(v), true
}

// HasAction reports whether the record carries the action tag.
func (s *StoredRecord) HasAction(action enums.Action) bool {
	for _, a := range s.Actions {
		if a == string(action) {
			return true
		}
	}
	return false
}

func lookup(pairs bson.D, key string) (any, error) {
	valid := make([]string, 0, len(pairs))
	for _, e := range pairs {
		if e.Key == key {
			return e.Value, nil
		}
		valid = append(valid, e.Key)
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("invalid key %q: valid keys are %s", key, strings.Join(valid, ", "))).
		WithDetails(map[string]any{"key": key, "valid_keys": valid})
}

// ValidationDetails is attached to the error returned by Create.
type ValidationDetails struct {
	Fields         map[string]string `json:"fields,omitempty"`
	InvalidActions []string          `json:"invalid_actions,omitempty"`
	Vocabulary     []string          `json:"vocabulary,omitempty"`
}

// Create validates user supplied fields and normalizes them into a
// CreateIntent. A bare action string becomes a one element list, duplicate
// actions are dropped, and extra_args (plus any undeclared top-level key) is
// merged into the top level.
func Create(fields map[string]any) (*CreateIntent, error) {
	details := ValidationDetails{Fields: map[string]string{}}
	intent := &CreateIntent{Extra: map[string]any{}}

	switch title := fields[FieldTitle].(type) {
	case string:
		if len(title) == 0 {
			details.Fields[FieldTitle] = "must not be empty"
		}
		intent.Title = title
	case nil:
		details.Fields[FieldTitle] = "is required"
	default:
		details.Fields[FieldTitle] = "must be a string"
	}

	switch desc := fields[FieldDescription].(type) {
	case nil:
	case string:
		intent.Description = &desc
	default:
		details.Fields[FieldDescription] = "must be a string"
	}

	raw, err := actionValues(fields[FieldAction])
	if err != "" {
		details.Fields[FieldAction] = err
	}
	seen := map[enums.Action]bool{}
	for _, value := range raw {
		action := enums.Action(value)
		if !action.IsValid() {
			details.InvalidActions = append(details.InvalidActions, value)
			continue
		}
		if !seen[action] {
			seen[action] = true
			intent.Actions = append(intent.Actions, action)
		}
	}
	if len(details.InvalidActions) > 0 {
		details.Vocabulary = enums.ActionVocabulary()
		details.Fields[FieldAction] = fmt.Sprintf("invalid values %s, accepted values are %s",
			strings.Join(details.InvalidActions, ", "), strings.Join(details.Vocabulary, ", "))
	}

	extra, problem := extraArgs(fields[FieldExtraArgs])
	if problem != "" {
		details.Fields[FieldExtraArgs] = problem
	}
	for k, v := range extra {
		intent.Extra[k] = v
	}
	for k, v := range fields {
		if isSchemaField(k) {
			if k == FieldID {
				details.Fields[FieldID] = "is assigned by the store"
			}
			continue
		}
		intent.Extra[k] = v
	}

	if seen[enums.ActionOpenURL] {
		if link, ok := intent.Extra[ExtraURL].(string); !ok || strings.TrimSpace(link) == "" {
			details.Fields[ExtraURL] = "is required by the open_url action"
		}
	}

	if len(details.Fields) > 0 {
		return nil, newValidationError(details)
	}
	return intent, nil
}

func newValidationError(details ValidationDetails) error {
	keys := sortedKeys(details.Fields)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+details.Fields[k])
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification: "+strings.Join(parts, "; ")).
		WithDetails(details)
}

// actionValues accepts a single tag or a list of tags.
func actionValues(v any) ([]string, string) {
	switch actions := v.(type) {
	case nil:
		return nil, "is required"
	case string:
		return []string{actions}, ""
	case enums.Action:
		return []string{string(actions)}, ""
	case []string:
		if len(actions) == 0 {
			return nil, "must contain at least one tag"
		}
		return actions, ""
	case []enums.Action:
		if len(actions) == 0 {
			return nil, "must contain at least one tag"
		}
		out := make([]string, 0, len(actions))
		for _, a := range actions {
			out = append(out, string(a))
		}
		return out, ""
	case []any:
		return anySlice(actions)
	case bson.A:
		return anySlice(actions)
	default:
		return nil, "must be a tag or a list of tags"
	}
}

func anySlice(actions []any) ([]string, string) {
	if len(actions) == 0 {
		return nil, "must contain at least one tag"
	}
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, fmt.Sprint(a))
	}
	return out, ""
}

func extraArgs(v any) (map[string]any, string) {
	var extra map[string]any
	switch args := v.(type) {
	case nil:
		return nil, ""
	case map[string]any:
		extra = args
	case bson.M:
		extra = args
	case map[string]string:
		extra = make(map[string]any, len(args))
		for k, v := range args {
			extra[k] = v
		}
	default:
		return nil, "must be a mapping"
	}
	var clashes []string
	for k := range extra {
		if isSchemaField(k) {
			clashes = append(clashes, k)
		}
	}
	if len(clashes) > 0 {
		sort.Strings(clashes)
		return nil, "must not redefine " + strings.Join(clashes, ", ")
	}
	return extra, ""
}

// FromStored partitions a raw stored record into the declared fields and
// extra arguments. Nothing is validated. A nested extra_args map left by
// older writers is merged into ExtraArgs.
func FromStored(raw bson.M) *StoredRecord {
	rec := &StoredRecord{ExtraArgs: map[string]any{}}
	for k, v := range raw {
		switch k {
		case FieldID:
			rec.ID = idString(v)
		case FieldTitle:
			rec.Title = asString(v)
		case FieldDescription:
			rec.Description = asString(v)
		case FieldAction:
			rec.Actions = asStrings(v)
		case FieldExtraArgs:
			if nested, ok := asMap(v); ok {
				for nk, nv := range nested {
					if _, taken := rec.ExtraArgs[nk]; !taken {
						rec.ExtraArgs[nk] = nv
					}
				}
				continue
			}
			rec.ExtraArgs[k] = v
		default:
			rec.ExtraArgs[k] = v
		}
	}
	return rec
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case nil:
		return nil
	case string:
		return []string{list}
	case []string:
		return list
	case bson.A:
		return stringsOf(list)
	case []any:
		return stringsOf(list)
	default:
		return []string{fmt.Sprint(list)}
	}
}

func stringsOf(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return m, true
	case bson.D:
		return m.Map(), true
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
