// Package model implements a model instance: an ordered set of field
// descriptors, the current record's values, and the load/save/delete
// lifecycle against a Persistence backend.
//
// A Model is one live record handle. Hooks and references are registered on
// the instance and never shared with other instances.
package model

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/field"
	"github.com/conduit-lang/datamap/internal/orm/hooks"
	"github.com/conduit-lang/datamap/internal/orm/tracking"
)

// DefaultIDField is the identity field name used when none is configured
const DefaultIDField = "id"

// Defaults configures a model instance produced by a factory or a reference
type Defaults struct {
	Table    string
	Caption  string
	ReadOnly bool
}

// Option configures a Model at construction
type Option func(*Model)

// WithTable sets the backend table name. It defaults to the model name.
func WithTable(table string) Option {
	return func(m *Model) {
		if table != "" {
			m.table = table
		}
	}
}

// WithIDField sets the identity field name
func WithIDField(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.idField = name
		}
	}
}

// WithCaption sets a human-readable model caption
func WithCaption(caption string) Option {
	return func(m *Model) {
		m.caption = caption
	}
}

// WithPersistence binds the model to a backend
func WithPersistence(p Persistence) Option {
	return func(m *Model) {
		m.persistence = p
	}
}

// WithRegistry gives references access to other registered models
func WithRegistry(r *Registry) Option {
	return func(m *Model) {
		m.registry = r
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithReadOnly rejects Set and Save on the whole model
func WithReadOnly(readOnly bool) Option {
	return func(m *Model) {
		m.readOnly = readOnly
	}
}

// WithDefaults applies factory defaults
func WithDefaults(d Defaults) Option {
	return func(m *Model) {
		WithTable(d.Table)(m)
		if d.Caption != "" {
			m.caption = d.Caption
		}
		if d.ReadOnly {
			m.readOnly = true
		}
	}
}

// Model is a live record handle
type Model struct {
	name     string
	table    string
	idField  string
	caption  string
	readOnly bool

	fields map[string]*field.Field
	order  []string
	refs   map[string]Reference
	refOrd []string

	data    Row
	id      any
	loaded  bool
	tracker *tracking.Tracker

	hooks       *hooks.Registry[*Model]
	persistence Persistence
	registry    *Registry
	logger      *zap.Logger
}

// New creates an unloaded model named name. The identity field is declared
// automatically as a system field.
func New(name string, opts ...Option) *Model {
	m := &Model{
		name:    name,
		table:   name,
		idField: DefaultIDField,
		fields:  make(map[string]*field.Field),
		refs:    make(map[string]Reference),
		data:    make(Row),
		tracker: tracking.New(nil),
		hooks:   hooks.NewRegistry[*Model](),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("model", m.name), zap.String("table", m.table))
	m.attach(field.New(m.idField, field.Options{System: true}))
	return m
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// Caption returns the caption, falling back to the name
func (m *Model) Caption() string {
	if m.caption != "" {
		return m.caption
	}
	return m.name
}

// Table returns the backend location of the model's records
func (m *Model) Table() Table {
	return Table{Name: m.table, IDField: m.idField}
}

// IDField returns the identity field name
func (m *Model) IDField() string {
	return m.idField
}

// ReadOnly reports whether the whole model rejects writes
func (m *Model) ReadOnly() bool {
	return m.readOnly
}

// Persistence returns the bound backend, or nil
func (m *Model) Persistence() Persistence {
	return m.persistence
}

// SetPersistence binds the model to a backend
func (m *Model) SetPersistence(p Persistence) {
	m.persistence = p
}

// Registry returns the model registry, or nil
func (m *Model) Registry() *Registry {
	return m.registry
}

// Logger returns the model's logger
func (m *Model) Logger() *zap.Logger {
	return m.logger
}

// OnHook registers fn for kind on this instance only
func (m *Model) OnHook(kind hooks.Kind, fn hooks.Func[*Model]) {
	m.hooks.On(kind, fn)
}

// Hooks exposes the instance's hook registry
func (m *Model) Hooks() *hooks.Registry[*Model] {
	return m.hooks
}
