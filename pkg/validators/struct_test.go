package validators

import (
	"testing"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name" validate:"required,max=5"`
	Ref  string `json:"ref" validate:"required,len=24,hexadecimal"`
	Rank int    `json:"rank" validate:"gte=1,lte=3"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(&sample{Name: "toolong", Rank: 7})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "validation failed: name, rank, ref", typed.Message())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at most 5", details["name"])
	assert.Equal(t, "is required", details["ref"])
	assert.Equal(t, "must be <= 3", details["rank"])
}

func TestStructExceptSkipsNamedFields(t *testing.T) {
	require.NoError(t, Struct(&sample{Name: "ok", Rank: 1}, "Ref"))
	require.Error(t, Struct(&sample{Name: "ok", Rank: 1}))
	require.NoError(t, Struct(&sample{Name: "ok", Rank: 2, Ref: "670532d3acf02dec8d964037"}))
}
