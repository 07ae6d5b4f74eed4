package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := New("email", KindFormat, "Email format is invalid")
	assert.Equal(t, "email: Email format is invalid", err.Error())
	assert.Equal(t, KindFormat, err.Kind)
}

func TestError_IsValidation(t *testing.T) {
	err := New("email", KindFormat, "Email format is invalid")
	wrapped := fmt.Errorf("set email: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsValidation(errors.New("boom")))

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, err, got)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("no such host")
	err := Wrap("email", KindVerification, "Email domain does not exist", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindVerification, err.Kind)
}

func TestErrors_Aggregate(t *testing.T) {
	ve := NewErrors()
	assert.False(t, ve.HasErrors())
	assert.NoError(t, ve.ErrOrNil())

	ve.Add(New("name", KindMandatory, "Must not be null"))
	ve.Add(New("code", KindMandatory, "Must not be null"))
	ve.Add(New("name", KindType, "must be string"))

	assert.True(t, ve.HasErrors())
	assert.Equal(t, 3, ve.Count())
	assert.Len(t, ve.Fields()["name"], 2)
	assert.Len(t, ve.All(), 3)

	err := ve.ErrOrNil()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestErrors_Error(t *testing.T) {
	tests := []struct {
		name     string
		errs     []*Error
		contains []string
	}{
		{
			name:     "no errors",
			contains: []string{"validation failed"},
		},
		{
			name:     "single error",
			errs:     []*Error{New("title", KindRequired, "Must not be empty")},
			contains: []string{"validation failed: title: Must not be empty"},
		},
		{
			name: "multiple errors",
			errs: []*Error{
				New("title", KindRequired, "Must not be empty"),
				New("email", KindFormat, "Email format is invalid"),
			},
			contains: []string{"validation failed:\n", "  - title: Must not be empty", "  - email: Email format is invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := NewErrors()
			for _, e := range tt.errs {
				ve.Add(e)
			}
			msg := ve.Error()
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(msg, want), "expected %q in %q", want, msg)
			}
		})
	}
}

func TestErrors_MarshalJSON(t *testing.T) {
	ve := NewErrors()
	ve.Add(New("email", KindFormat, "Email format is invalid"))

	data, err := json.Marshal(ve)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "validation_failed", out["error"])

	fields, ok := out["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Email format is invalid"}, fields["email"])
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "format", KindFormat.String())
	assert.Equal(t, "verification", KindVerification.String())
	assert.Equal(t, "multiplicity", KindMultiplicity.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
