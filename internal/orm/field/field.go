// Package field describes model attributes and turns raw input into
// validated, canonical values.
//
// A Field is built from an Options template with New. The template is copied
// attribute by attribute, so one Options value can seed any number of fields
// without being mutated. Normalize runs the optional type-specific Normalizer
// first (for example Email) and then the generic per-type rules, which also
// enforce the required flag.
package field

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidOptions is returned when a declarative option bag cannot be decoded
var ErrInvalidOptions = errors.New("invalid field options")

// PersistHints carries persistence formatting settings for a field
type PersistHints struct {
	// Format is the time layout used for date, datetime and time values.
	Format string
	// Timezone is an IANA location name; empty means UTC.
	Timezone string
}

// Options is the full set of recognized field attributes. It is used both to
// declare a field directly and as a reusable template for derived fields.
type Options struct {
	Type         Type
	System       bool
	Default      any
	NeverPersist bool
	ReadOnly     bool
	Caption      string
	UI           map[string]any
	Persistence  PersistHints
	Mandatory    bool
	Required     bool
	Typecast     *Typecast
	Serialize    *Serializer
	Normalizer   Normalizer
	// Reference names the reference that provisioned this field, if any.
	Reference string
}

// Field is the metadata and behavior contract for one model attribute
type Field struct {
	Name         string
	Type         Type
	System       bool
	Default      any
	NeverPersist bool
	ReadOnly     bool
	Caption      string
	UI           map[string]any
	Persistence  PersistHints
	Mandatory    bool
	Required     bool
	Typecast     *Typecast
	Serialize    *Serializer
	Normalizer   Normalizer
	Reference    string
}

// New builds a field named name from the template o
func New(name string, o Options) *Field {
	return &Field{
		Name:         name,
		Type:         o.Type,
		System:       o.System,
		Default:      o.Default,
		NeverPersist: o.NeverPersist,
		ReadOnly:     o.ReadOnly,
		Caption:      o.Caption,
		UI:           cloneMap(o.UI),
		Persistence:  o.Persistence,
		Mandatory:    o.Mandatory,
		Required:     o.Required,
		Typecast:     o.Typecast,
		Serialize:    o.Serialize,
		Normalizer:   o.Normalizer,
		Reference:    o.Reference,
	}
}

// Options returns the template that would rebuild this field
func (f *Field) Options() Options {
	return Options{
		Type:         f.Type,
		System:       f.System,
		Default:      f.Default,
		NeverPersist: f.NeverPersist,
		ReadOnly:     f.ReadOnly,
		Caption:      f.Caption,
		UI:           cloneMap(f.UI),
		Persistence:  f.Persistence,
		Mandatory:    f.Mandatory,
		Required:     f.Required,
		Typecast:     f.Typecast,
		Serialize:    f.Serialize,
		Normalizer:   f.Normalizer,
		Reference:    f.Reference,
	}
}

// Saveable reports whether the field takes part in insert and update
func (f *Field) Saveable() bool {
	return !f.NeverPersist && !f.ReadOnly
}

// Label returns the caption, or a title-cased form of the name when no caption is set
func (f *Field) Label() string {
	if f.Caption != "" {
		return f.Caption
	}
	return humanize(f.Name)
}

// humanize turns "capital_id" into "Capital Id"
func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
