package field

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/net/idna"

	"github.com/conduit-lang/datamap/internal/orm/validation"
)

// DefaultSeparators is the separator set used when Email.Separators is empty
const DefaultSeparators = ","

var (
	displayNamePattern = regexp.MustCompile(`^[^<]*<([^>]*)>`)
	domainLabelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

	// Non-transitional UTS #46 processing, as used for lookups.
	idnaProfile = idna.New(
		idna.MapForLookup(),
		idna.Transitional(false),
		idna.BidiRule(),
	)
)

// Email normalizes one or more email addresses.
//
// Usage:
//
//	field.Options{Type: field.TypeEmail, Normalizer: &field.Email{}}
//	field.Options{Type: field.TypeEmail, Normalizer: &field.Email{DNSCheck: true}}
//	field.Options{Type: field.TypeEmail, Normalizer: &field.Email{IncludeNames: true}}
//	field.Options{Type: field.TypeEmail, Normalizer: &field.Email{AllowMultiple: true, Separators: ",;"}}
//
// Entries are stored as entered (after trimming and display-name stripping);
// the ASCII form of the domain is only used for validation and verification.
type Email struct {
	// DNSCheck enables the Verifier for every entry.
	DNSCheck bool
	// AllowMultiple permits more than one entry.
	AllowMultiple bool
	// IncludeNames accepts entries like "Jane Doe <jane@example.com>"; only
	// the bracketed address is kept.
	IncludeNames bool
	// Separators is the set of characters that split entries.
	Separators string
	// Verifier defaults to MXVerifier when DNSCheck is set.
	Verifier Verifier
}

// Normalize implements Normalizer
func (e *Email) Normalize(ctx context.Context, f *Field, value any) (any, error) {
	raw, err := e.rawString(value)
	if err != nil {
		return nil, validation.New(f.Name, validation.KindType, "must be text")
	}

	entries := e.split(raw)
	if !e.AllowMultiple && len(entries) > 1 {
		return nil, validation.New(f.Name, validation.KindMultiplicity, "Only a single email can be entered")
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		normalized, err := e.normalizeEntry(ctx, f, entry)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}

	return strings.Join(out, ", "), nil
}

func (e *Email) normalizeEntry(ctx context.Context, f *Field, entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if e.IncludeNames {
		entry = strings.TrimSpace(displayNamePattern.ReplaceAllString(entry, "$1"))
	}

	at := strings.LastIndex(entry, "@")
	if at <= 0 {
		return "", validation.New(f.Name, validation.KindFormat, "Email format is invalid")
	}
	local, domain := entry[:at], entry[at+1:]

	ascii, err := idnaProfile.ToASCII(domain)
	if err != nil || !validAddress(local, ascii) {
		return "", validation.New(f.Name, validation.KindFormat, "Email format is invalid")
	}

	if e.DNSCheck {
		if err := e.verifier().Verify(ctx, ascii); err != nil {
			return "", validation.Wrap(f.Name, validation.KindVerification, "Email domain does not exist", err)
		}
	}

	return entry, nil
}

func (e *Email) verifier() Verifier {
	if e.Verifier != nil {
		return e.Verifier
	}
	return MXVerifier{}
}

func (e *Email) separators() string {
	if e.Separators == "" {
		return DefaultSeparators
	}
	return e.Separators
}

func (e *Email) rawString(value any) (string, error) {
	if list, ok := value.([]string); ok {
		return strings.Join(list, string([]rune(e.separators())[0])), nil
	}
	return cast.ToStringE(value)
}

// split breaks raw on any run of separator characters and drops blank segments
func (e *Email) split(raw string) []string {
	seps := e.separators()
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})

	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

// validAddress checks local@domain, where domain is already in ASCII form
func validAddress(local, domain string) bool {
	if len(local) > 64 || len(local)+1+len(domain) > 254 {
		return false
	}

	addr, err := mail.ParseAddress(local + "@" + domain)
	if err != nil || addr.Name != "" {
		return false
	}

	labels := strings.Split(strings.ToLower(domain), ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !domainLabelPattern.MatchString(label) {
			return false
		}
	}
	tld := labels[len(labels)-1]
	return strings.Trim(tld, "0123456789") != ""
}
