package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpExtractsPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "reminder_pkey",
		TableName:      "reminder",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert: %w", pgErr), "create reminder").
		WithDetails(map[string]any{"document_ref": "abc"})

	dump := Dump(err)
	assert.Equal(t, CodeDependency, dump.Code)
	assert.Equal(t, "23505", dump.PGCode)
	assert.Equal(t, "reminder_pkey", dump.PGConstraint)
	assert.Equal(t, "reminder", dump.PGTable)
	require.Len(t, dump.Chain, 3)

	fields := dump.Fields()
	assert.Equal(t, "DEPENDENCY_ERROR", fields["error_code"])
	assert.Equal(t, "23505", fields["pg_code"])
	assert.NotNil(t, fields["error_details"])
}

func TestDumpExtractsPqDetails(t *testing.T) {
	err := &pq.Error{Code: "23503", Constraint: "reminder_category_id_fkey", Table: "reminder"}

	dump := Dump(err)
	assert.Equal(t, "23503", dump.PGCode)
	assert.Equal(t, "reminder_category_id_fkey", dump.PGConstraint)
	assert.Empty(t, dump.Code)
}

func TestDumpNil(t *testing.T) {
	dump := Dump(nil)
	assert.Empty(t, dump.TopMessage)
	assert.Empty(t, dump.Fields())
}
