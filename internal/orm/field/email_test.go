package field

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/datamap/internal/orm/validation"
)

func emailField(e *Email) *Field {
	return New("email", Options{Type: TypeEmail, Normalizer: e})
}

func requireValidationKind(t *testing.T, err error, kind validation.Kind) *validation.Error {
	t.Helper()
	require.Error(t, err)
	ve, ok := validation.AsError(err)
	require.True(t, ok, "expected *validation.Error, got %T", err)
	assert.Equal(t, kind, ve.Kind)
	assert.Equal(t, "email", ve.Field)
	return ve
}

func TestEmail_SingleEntry(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{name: "plain", input: "jane@example.com", want: "jane@example.com"},
		{name: "surrounding whitespace", input: "  jane@example.com \t", want: "jane@example.com"},
		{name: "subdomain", input: "ops+alerts@mail.example.co.uk", want: "ops+alerts@mail.example.co.uk"},
		{name: "nil passes through", input: nil, want: nil},
		{name: "empty string", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := emailField(&Email{}).Normalize(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmail_MultipleRejectedWhenNotAllowed(t *testing.T) {
	tests := []string{
		"a@x.com, b@y.com",
		"not-valid, also-not-valid",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := emailField(&Email{}).Normalize(context.Background(), input)
			ve := requireValidationKind(t, err, validation.KindMultiplicity)
			assert.Contains(t, ve.Message, "single")
		})
	}
}

func TestEmail_SeparatorRuns(t *testing.T) {
	f := emailField(&Email{AllowMultiple: true, Separators: ",;"})

	got, err := f.Normalize(context.Background(), "a@x.com,, b@y.com ; c@z.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com, b@y.com, c@z.com", got)
}

func TestEmail_BlankSegmentsDropped(t *testing.T) {
	f := emailField(&Email{AllowMultiple: true})

	got, err := f.Normalize(context.Background(), ",a@x.com, ,b@y.com,")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com, b@y.com", got)
}

func TestEmail_StringSlice(t *testing.T) {
	f := emailField(&Email{AllowMultiple: true, Separators: ";"})

	got, err := f.Normalize(context.Background(), []string{"a@x.com", "b@y.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com, b@y.com", got)
}

func TestEmail_DisplayNames(t *testing.T) {
	t.Run("stripped when enabled", func(t *testing.T) {
		f := emailField(&Email{IncludeNames: true})
		got, err := f.Normalize(context.Background(), "Jane Doe <jane@x.com>")
		require.NoError(t, err)
		assert.Equal(t, "jane@x.com", got)
	})

	t.Run("entries without brackets kept verbatim", func(t *testing.T) {
		f := emailField(&Email{IncludeNames: true, AllowMultiple: true})
		got, err := f.Normalize(context.Background(), "Jane Doe <jane@x.com>, bob@y.com")
		require.NoError(t, err)
		assert.Equal(t, "jane@x.com, bob@y.com", got)
	})

	t.Run("rejected when disabled", func(t *testing.T) {
		f := emailField(&Email{})
		_, err := f.Normalize(context.Background(), "Jane Doe <jane@x.com>")
		requireValidationKind(t, err, validation.KindFormat)
	})
}

func TestEmail_InvalidFormat(t *testing.T) {
	tests := []string{
		"not-an-email",
		"@example.com",
		"jane@",
		"jane@localhost",
		"jane@exa mple.com",
		"jane@-example.com",
		"jane@example.123",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := emailField(&Email{}).Normalize(context.Background(), input)
			ve := requireValidationKind(t, err, validation.KindFormat)
			assert.Equal(t, "Email format is invalid", ve.Message)
		})
	}
}

func TestEmail_InternationalDomainKeptAsEntered(t *testing.T) {
	var verified []string
	f := emailField(&Email{
		DNSCheck: true,
		Verifier: VerifierFunc(func(ctx context.Context, domain string) error {
			verified = append(verified, domain)
			return nil
		}),
	})

	got, err := f.Normalize(context.Background(), "user@münchen.de")
	require.NoError(t, err)
	assert.Equal(t, "user@münchen.de", got)
	assert.Equal(t, []string{"xn--mnchen-3ya.de"}, verified)
}

func TestEmail_Verification(t *testing.T) {
	lookupErr := errors.New("no such host")
	calls := 0
	verifier := VerifierFunc(func(ctx context.Context, domain string) error {
		calls++
		if domain == "missing.example" {
			return lookupErr
		}
		return nil
	})

	t.Run("failure is distinct from format", func(t *testing.T) {
		f := emailField(&Email{DNSCheck: true, Verifier: verifier})
		_, err := f.Normalize(context.Background(), "jane@missing.example")
		ve := requireValidationKind(t, err, validation.KindVerification)
		assert.Equal(t, "Email domain does not exist", ve.Message)
		assert.True(t, errors.Is(err, lookupErr))
	})

	t.Run("one failing entry aborts the whole value", func(t *testing.T) {
		f := emailField(&Email{DNSCheck: true, AllowMultiple: true, Verifier: verifier})
		got, err := f.Normalize(context.Background(), "a@ok.example, b@missing.example")
		requireValidationKind(t, err, validation.KindVerification)
		assert.Nil(t, got)
	})

	t.Run("skipped when disabled", func(t *testing.T) {
		calls = 0
		f := emailField(&Email{Verifier: verifier})
		_, err := f.Normalize(context.Background(), "jane@missing.example")
		require.NoError(t, err)
		assert.Zero(t, calls)
	})

	t.Run("not reached for invalid format", func(t *testing.T) {
		calls = 0
		f := emailField(&Email{DNSCheck: true, Verifier: verifier})
		_, err := f.Normalize(context.Background(), "not-an-email")
		requireValidationKind(t, err, validation.KindFormat)
		assert.Zero(t, calls)
	})
}

func TestEmail_ComposesWithRequired(t *testing.T) {
	f := New("email", Options{Type: TypeEmail, Required: true, Normalizer: &Email{}})

	_, err := f.Normalize(context.Background(), "")
	requireValidationKind(t, err, validation.KindRequired)

	_, err = f.Normalize(context.Background(), " , ")
	requireValidationKind(t, err, validation.KindRequired)

	_, err = f.Normalize(context.Background(), nil)
	requireValidationKind(t, err, validation.KindRequired)
}
