package reminders

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"gorm.io/gorm"
)

// Filters maps field names to substring patterns. Every pattern is matched
// case-insensitively and the predicates are ANDed. Boolean columns take a
// boolean value and match exactly. An empty map matches all rows.
type Filters map[string]string

var reminderColumns = map[string]string{
	"id":            "id",
	"name":          "name",
	"created_on":    "created_on",
	"target_date":   "target_date",
	"target_time":   "target_time",
	"status":        "status",
	"document_ref":  "document_ref",
	"urgency_level": "urgency_level",
	"repeat_rule":   "repeat_rule",
	"category":      "category_id",
	"category_id":   "category_id",
}

// boolColumns are compared with "=" because their text form differs between
// postgres (true/false) and sqlite (1/0).
var boolColumns = map[string]bool{"status": true}

var categoryColumns = map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"created_on":  "created_on",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// applyFilters adds one predicate per filter key. Keys outside columns are
// rejected together so the caller sees every bad key at once.
func applyFilters(query *gorm.DB, columns map[string]string, filters Filters) (*gorm.DB, error) {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var unknown []string
	for _, key := range keys {
		column, ok := columns[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if boolColumns[column] {
			value, err := strconv.ParseBool(strings.TrimSpace(filters[key]))
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("filter %s expects true or false, got %q", key, filters[key])).
					WithDetails(map[string]any{"field": key, "value": filters[key]})
			}
			query = query.Where(fmt.Sprintf("%s = ?", column), value)
			continue
		}
		query = query.Where(
			fmt.Sprintf(`LOWER(CAST(%s AS TEXT)) LIKE LOWER(?) ESCAPE '\'`, column),
			containsPattern(filters[key]),
		)
	}
	if len(unknown) > 0 {
		valid := make([]string, 0, len(columns))
		for key := range columns {
			valid = append(valid, key)
		}
		sort.Strings(valid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown filter fields: %s", strings.Join(unknown, ", "))).
			WithDetails(map[string]any{"unknown": unknown, "valid": valid})
	}
	return query, nil
}

func findByFilter[T any](query *gorm.DB, columns map[string]string, filters Filters, order string) ([]T, error) {
	query, err := applyFilters(query.Model(new(T)), columns, filters)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := query.Order(order).Find(&out).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query by filter")
	}
	return out, nil
}
