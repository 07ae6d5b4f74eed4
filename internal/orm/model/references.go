package model

import (
	"context"
	"fmt"
)

// Reference is a declared to-one link from an owner model to a related model
type Reference interface {
	// Init runs once when the reference is attached to owner under name.
	// It is where the owner-side field gets provisioned.
	Init(owner *Model, name string) error
	// Ref produces a related model instance bound to the owner's current value
	Ref(ctx context.Context, owner *Model, d Defaults) (*Model, error)
}

// AddReference attaches r under name and initializes it
func (m *Model) AddReference(name string, r Reference) error {
	if name == "" {
		return NewConfigurationError(m.name, "reference", "name is empty")
	}
	if _, exists := m.refs[name]; exists {
		return NewConfigurationError(m.name, "reference "+name, "already defined")
	}
	if err := r.Init(m, name); err != nil {
		return err
	}
	m.refs[name] = r
	m.refOrd = append(m.refOrd, name)
	return nil
}

// HasReference reports whether name is declared
func (m *Model) HasReference(name string) bool {
	_, ok := m.refs[name]
	return ok
}

// Reference returns the reference declared under name
func (m *Model) Reference(name string) (Reference, error) {
	r, ok := m.refs[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", m.name, name, ErrUnknownReference)
	}
	return r, nil
}

// References returns the reference names in declaration order
func (m *Model) References() []string {
	out := make([]string, len(m.refOrd))
	copy(out, m.refOrd)
	return out
}

// Ref dereferences name and returns the related model instance
func (m *Model) Ref(ctx context.Context, name string, d Defaults) (*Model, error) {
	r, err := m.Reference(name)
	if err != nil {
		return nil, err
	}
	return r.Ref(ctx, m, d)
}
