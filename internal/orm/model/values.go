package model

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/conduit-lang/datamap/internal/orm/field"
)

// Get returns the current value of name, or nil
func (m *Model) Get(name string) any {
	return m.data[name]
}

// ID returns the identity of the loaded record, or nil
func (m *Model) ID() any {
	return m.id
}

// Loaded reports whether the instance is bound to a persisted record
func (m *Model) Loaded() bool {
	return m.loaded
}

// Row returns a copy of the current values
func (m *Model) Row() Row {
	return m.data.Clone()
}

// Dirty returns the names of fields changed since the last load or save
func (m *Model) Dirty() []string {
	return m.tracker.Fields()
}

// Set normalizes value through the field descriptor and assigns it.
// Validation failures are returned unmodified and leave the value untouched.
func (m *Model) Set(ctx context.Context, name string, value any) error {
	f, err := m.Field(name)
	if err != nil {
		return err
	}
	if m.readOnly || f.ReadOnly {
		return fmt.Errorf("set %s.%s: %w", m.name, name, ErrReadOnly)
	}
	return m.assign(ctx, f, value)
}

// Sync assigns value like Set but ignores read-only flags. References use it
// to keep a provisioned field consistent with the related record.
func (m *Model) Sync(ctx context.Context, name string, value any) error {
	f, err := m.Field(name)
	if err != nil {
		return err
	}
	return m.assign(ctx, f, value)
}

// SetMany assigns values in name order and stops at the first failure
func (m *Model) SetMany(ctx context.Context, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.Set(ctx, name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) assign(ctx context.Context, f *field.Field, value any) error {
	v, err := f.Normalize(ctx, value)
	if err != nil {
		return err
	}
	m.data[f.Name] = v
	m.tracker.Set(f.Name, v)
	return nil
}

// IsEmpty reports whether v counts as "no value" for reference resolution:
// nil, the empty string, false and numeric zero.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
