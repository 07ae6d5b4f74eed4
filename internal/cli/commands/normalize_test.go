package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/datamap/internal/orm/field"
)

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"email", []string{"email", "  jane@example.com "}, "jane@example.com"},
		{"multiple emails", []string{"email", "a@x.com; b@y.com", "--allow-multiple", "--separator", ";"}, "a@x.com, b@y.com"},
		{"separator set", []string{"email", "a@x.com,, b@y.com ; c@z.com", "--allow-multiple", "--separator", ",;"}, "a@x.com, b@y.com, c@z.com"},
		{"display name", []string{"email", "Jane Doe <jane@example.com>", "--include-names"}, "jane@example.com"},
		{"integer", []string{"integer", "42"}, "42"},
		{"boolean", []string{"boolean", "true"}, "true"},
		{"date", []string{"date", "2024-03-01"}, "2024-03-01T00:00:00Z"},
		{"composite", []string{"composite", `{"a":1}`}, `{"a":1}`},
		{"null", []string{"string", "--null"}, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, seededLoader(t), append([]string{"normalize"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestNormalizeCommand_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"bad format", []string{"email", "not-an-email"}, "Rejected by the format check."},
		{"single only", []string{"email", "a@x.com, b@y.com"}, "Only a single email can be entered"},
		{"required null", []string{"integer", "--null", "--required"}, "Must not be null"},
		{"not an integer", []string{"integer", "abc"}, "Rejected by the type check."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, seededLoader(t), append([]string{"normalize"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, stderr, "INVALID VALUE")
			assert.Contains(t, stderr, tt.message)
		})
	}
}

func TestNormalizeCommand_InvalidOptions(t *testing.T) {
	_, _, err := execute(t, seededLoader(t), "normalize", "integer", "1", "--allow-multiple")
	assert.ErrorIs(t, err, field.ErrInvalidOptions)

	_, _, err = execute(t, seededLoader(t), "normalize", "colour", "red")
	assert.ErrorIs(t, err, field.ErrInvalidOptions)
}

func TestNormalizeCommand_MissingValue(t *testing.T) {
	_, _, err := execute(t, seededLoader(t), "normalize", "string")
	assert.ErrorContains(t, err, "a value or --null is required")
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"text", "text"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{ts, "2024-03-01T12:30:00Z"},
		{[]any{"a", float64(1)}, `["a",1]`},
	}
	for _, tt := range tests {
		got, err := formatValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
