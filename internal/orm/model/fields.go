package model

import (
	"fmt"

	"github.com/conduit-lang/datamap/internal/orm/field"
)

// AddField declares a new field built from o. Declaring an empty or an
// existing name is a configuration error.
func (m *Model) AddField(name string, o field.Options) (*field.Field, error) {
	if name == "" {
		return nil, NewConfigurationError(m.name, "field", "name is empty")
	}
	if _, exists := m.fields[name]; exists {
		return nil, NewConfigurationError(m.name, "field "+name, "already defined")
	}
	f := field.New(name, o)
	m.attach(f)
	return f, nil
}

// EnsureField returns the field named name, creating it from tmpl when it
// does not exist. A repeated call returns the same descriptor and ignores tmpl.
func (m *Model) EnsureField(name string, tmpl field.Options) (*field.Field, error) {
	if f, ok := m.fields[name]; ok {
		return f, nil
	}
	return m.AddField(name, tmpl)
}

func (m *Model) attach(f *field.Field) {
	m.fields[f.Name] = f
	m.order = append(m.order, f.Name)
	if !m.loaded && f.Default != nil {
		m.data[f.Name] = f.Default
		m.tracker.Set(f.Name, f.Default)
	}
}

// HasField reports whether name is declared
func (m *Model) HasField(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// Field returns the descriptor for name
func (m *Model) Field(name string) (*field.Field, error) {
	f, ok := m.fields[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", m.name, name, ErrUnknownField)
	}
	return f, nil
}

// Fields returns the descriptors in declaration order
func (m *Model) Fields() []*field.Field {
	out := make([]*field.Field, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.fields[name])
	}
	return out
}

// FieldNames returns the field names in declaration order
func (m *Model) FieldNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
