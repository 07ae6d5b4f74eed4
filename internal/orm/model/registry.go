package model

import (
	"sort"
	"sync"
)

// Factory builds a fresh, unloaded model instance
type Factory func(d Defaults) (*Model, error)

// Registry maps model names to factories. References use it to resolve
// targets by name, so no model holds a pointer to another model's definition.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return NewConfigurationError(name, "registry", "name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return NewConfigurationError(name, "registry", "model already registered")
	}
	r.factories[name] = f
	return nil
}

// Get returns the factory registered under name
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// New builds a model instance from the factory registered under name
func (r *Registry) New(name string, d Defaults) (*Model, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, NewConfigurationError(name, "registry", "model is not registered")
	}
	m, err := f(d)
	if err != nil {
		return nil, err
	}
	if m.registry == nil {
		m.registry = r
	}
	return m, nil
}

// Names returns the registered model names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
