package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return NewSchema(
		Field{Name: "title", Kind: KindString, Required: true, MaxLen: 10},
		Field{Name: "code", Kind: KindString, Required: true},
		Field{Name: "rating", Kind: KindInt, Min: 1, Max: 5},
		Field{Name: "price", Kind: KindFloat, Min: 0.01},
		Field{Name: "featured", Kind: KindBool},
		Field{Name: "expiryDate", Kind: KindTime},
		Field{Name: "tags", Kind: KindStringSlice, MaxLen: 3},
		Field{Name: "image", Kind: KindString, Media: true},
		Field{Name: "status", Kind: KindString, Enum: []string{"active", "inactive"}, Default: "active"},
	)
}

func TestValidateCreateHappyPath(t *testing.T) {
	s := testSchema()
	out, err := s.ValidateCreate(map[string]any{
		"title":  "hello",
		"code":   "X1",
		"rating": int64(4),
		"price":  9.99,
		"tags":   []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, int64(4), out["rating"])
	assert.Equal(t, "active", out["status"], "default applied when absent")
}

func TestValidateCreateMissingRequired(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateCreate(map[string]any{"title": "hello"})
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "code", ve.Fields[0].Field)
	assert.Equal(t, "is required", ve.Fields[0].Message)
}

func TestValidateCreateCollectsEveryViolation(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateCreate(map[string]any{
		"title":  "way too long for the limit",
		"rating": int64(9),
		"bogus":  1,
	})
	require.Error(t, err)
	ve := err.(*ValidationError)
	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "bogus")
	assert.Contains(t, fields, "code")
	assert.Equal(t, "unknown field", fields["bogus"])
}

func TestValidateCreateEnum(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateCreate(map[string]any{
		"title": "hi", "code": "X", "status": "archived",
	})
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "status", ve.Fields[0].Field)
}

func TestValidateCreateTypeMismatch(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateCreate(map[string]any{
		"title": "hi", "code": "X", "rating": "four",
	})
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "must be an integer", ve.Fields[0].Message)
}

func TestValidateUpdatePartial(t *testing.T) {
	s := testSchema()
	out, err := s.ValidateUpdate(map[string]any{"status": "inactive"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "inactive"}, out)
}

func TestValidateUpdateRejectsUnknown(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateUpdate(map[string]any{"nope": "x"})
	require.Error(t, err)
	ve := err.(*ValidationError)
	assert.Equal(t, "nope", ve.Fields[0].Field)
}

func TestValidateUpdateEmptyBody(t *testing.T) {
	s := testSchema()
	_, err := s.ValidateUpdate(map[string]any{})
	require.Error(t, err)
}

func TestValidateUpdateNoDefaultsApplied(t *testing.T) {
	s := testSchema()
	out, err := s.ValidateUpdate(map[string]any{"title": "new"})
	require.NoError(t, err)
	_, hasStatus := out["status"]
	assert.False(t, hasStatus, "update must not inject create defaults")
}

func TestCoerce(t *testing.T) {
	f := Field{Name: "rating", Kind: KindInt}
	v, err := f.Coerce("3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = f.Coerce(float64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = f.Coerce(7.5)
	assert.Error(t, err, "non-integral floats do not coerce to int")

	tf := Field{Name: "expiryDate", Kind: KindTime}
	v, err = tf.Coerce("2026-09-03T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), v)

	sf := Field{Name: "tags", Kind: KindStringSlice}
	v, err = sf.Coerce("a, b,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	v, err = sf.Coerce([]any{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, v)
}

func TestMediaFields(t *testing.T) {
	s := testSchema()
	mf := s.MediaFields()
	require.Len(t, mf, 1)
	assert.Equal(t, "image", mf[0].Name)
}
