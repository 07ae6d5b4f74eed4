// Package hooks provides per-instance lifecycle callbacks.
//
// A Registry belongs to exactly one model instance. Callbacks fire
// synchronously, in registration order, and the first error stops the
// remaining callbacks for that event.
package hooks

import (
	"context"
	"fmt"
)

// Kind identifies a lifecycle event
type Kind int

const (
	BeforeSave Kind = iota
	AfterSave
	BeforeDelete
	AfterDelete
	AfterLoad
)

// String returns the string representation of the hook kind
func (k Kind) String() string {
	switch k {
	case BeforeSave:
		return "before_save"
	case AfterSave:
		return "after_save"
	case BeforeDelete:
		return "before_delete"
	case AfterDelete:
		return "after_delete"
	case AfterLoad:
		return "after_load"
	default:
		return "unknown"
	}
}

// Func is a callback receiving the instance whose event fired
type Func[T any] func(ctx context.Context, target T) error

// Registry holds the callbacks registered on one instance
type Registry[T any] struct {
	hooks map[Kind][]Func[T]
}

// NewRegistry creates an empty registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		hooks: make(map[Kind][]Func[T]),
	}
}

// On appends fn to the callbacks for kind
func (r *Registry[T]) On(kind Kind, fn Func[T]) {
	r.hooks[kind] = append(r.hooks[kind], fn)
}

// Has returns true if there are any hooks registered for the given kind
func (r *Registry[T]) Has(kind Kind) bool {
	return len(r.hooks[kind]) > 0
}

// Count returns the number of callbacks registered for kind
func (r *Registry[T]) Count(kind Kind) int {
	return len(r.hooks[kind])
}

// Fire runs the callbacks for kind in order and stops at the first error
func (r *Registry[T]) Fire(ctx context.Context, kind Kind, target T) error {
	for i, fn := range r.hooks[kind] {
		if err := fn(ctx, target); err != nil {
			return fmt.Errorf("%s hook #%d failed: %w", kind, i+1, err)
		}
	}
	return nil
}
