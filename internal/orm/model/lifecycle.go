package model

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/hooks"
	"github.com/conduit-lang/datamap/internal/orm/validation"
)

// Load binds the instance to the record with the given identity. A missing
// record is reported with an error wrapping ErrNotFound.
func (m *Model) Load(ctx context.Context, id any) error {
	p, err := m.backend("load")
	if err != nil {
		return err
	}
	if IsEmpty(id) {
		return fmt.Errorf("load %s: %w", m.name, ErrEmptyID)
	}

	row, err := p.Load(ctx, m.Table(), id)
	if err != nil {
		return m.loadError("load", id, err)
	}
	if _, ok := row[m.idField]; !ok {
		row = row.Clone()
		row[m.idField] = id
	}
	return m.hydrate(ctx, row)
}

// TryLoad is Load that leaves the instance unloaded instead of failing when
// the record does not exist.
func (m *Model) TryLoad(ctx context.Context, id any) error {
	err := m.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		m.Unload()
		return nil
	}
	return err
}

// LoadBy binds the instance to the first record whose field name equals value
func (m *Model) LoadBy(ctx context.Context, name string, value any) error {
	p, err := m.backend("load")
	if err != nil {
		return err
	}
	f, err := m.Field(name)
	if err != nil {
		return err
	}
	stored, err := f.ToPersistence(value)
	if err != nil {
		return err
	}

	row, err := p.LoadBy(ctx, m.Table(), name, stored)
	if err != nil {
		return m.loadError("load by "+name, value, err)
	}
	return m.hydrate(ctx, row)
}

// TryLoadBy is LoadBy that leaves the instance unloaded when nothing matches
func (m *Model) TryLoadBy(ctx context.Context, name string, value any) error {
	err := m.LoadBy(ctx, name, value)
	if errors.Is(err, ErrNotFound) {
		m.Unload()
		return nil
	}
	return err
}

// Reload re-reads the current record from the backend
func (m *Model) Reload(ctx context.Context) error {
	if !m.loaded {
		return fmt.Errorf("reload %s: %w", m.name, ErrNotLoaded)
	}
	return m.Load(ctx, m.id)
}

// Unload detaches the instance from its record and restores defaults
func (m *Model) Unload() {
	m.data = make(Row)
	m.id = nil
	m.loaded = false
	m.tracker.Reset(nil)
	for _, name := range m.order {
		if f := m.fields[name]; f.Default != nil {
			m.data[name] = f.Default
			m.tracker.Set(name, f.Default)
		}
	}
}

// Validate checks every mandatory field holds a value
func (m *Model) Validate() error {
	errs := validation.NewErrors()
	for _, name := range m.order {
		f := m.fields[name]
		if f.Mandatory && m.data[name] == nil {
			errs.Add(validation.New(name, validation.KindMandatory, "Must not be null"))
		}
	}
	return errs.ErrOrNil()
}

// Save inserts an unloaded record or updates the changed fields of a loaded
// one. AFTER_SAVE hooks fire only when the backend call succeeded.
func (m *Model) Save(ctx context.Context) error {
	p, err := m.backend("save")
	if err != nil {
		return err
	}
	if m.readOnly {
		return fmt.Errorf("save %s: %w", m.name, ErrReadOnly)
	}
	if err := m.hooks.Fire(ctx, hooks.BeforeSave, m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	if !m.loaded {
		row, err := m.persistRow(m.insertFields())
		if err != nil {
			return err
		}
		id, err := p.Insert(ctx, m.Table(), row)
		if err != nil {
			return &PersistenceError{Op: "insert", Model: m.name, Err: err}
		}
		m.id = id
		m.data[m.idField] = id
		m.loaded = true
		m.logger.Debug("record inserted", zap.Any("id", id))
	} else if changed := m.changedFields(); len(changed) > 0 {
		row, err := m.persistRow(changed)
		if err != nil {
			return err
		}
		if err := p.Update(ctx, m.Table(), m.id, row); err != nil {
			return &PersistenceError{Op: "update", Model: m.name, ID: m.id, Err: err}
		}
		m.logger.Debug("record updated", zap.Any("id", m.id), zap.Strings("fields", changed))
	}

	m.tracker.Reset(m.data)
	return m.fire(ctx, hooks.AfterSave)
}

// Delete removes the loaded record. AFTER_DELETE hooks fire only when the
// backend call succeeded, after which the instance is unloaded.
func (m *Model) Delete(ctx context.Context) error {
	p, err := m.backend("delete")
	if err != nil {
		return err
	}
	if !m.loaded {
		return fmt.Errorf("delete %s: %w", m.name, ErrNotLoaded)
	}
	if m.readOnly {
		return fmt.Errorf("delete %s: %w", m.name, ErrReadOnly)
	}
	if err := m.hooks.Fire(ctx, hooks.BeforeDelete, m); err != nil {
		return err
	}

	id := m.id
	if err := p.Delete(ctx, m.Table(), id); err != nil {
		return &PersistenceError{Op: "delete", Model: m.name, ID: id, Err: err}
	}
	m.logger.Debug("record deleted", zap.Any("id", id))

	err = m.fire(ctx, hooks.AfterDelete)
	m.Unload()
	return err
}

func (m *Model) fire(ctx context.Context, kind hooks.Kind) error {
	if err := m.hooks.Fire(ctx, kind, m); err != nil {
		m.logger.Warn("hook failed", zap.Stringer("event", kind), zap.Any("id", m.id), zap.Error(err))
		return err
	}
	return nil
}

func (m *Model) hydrate(ctx context.Context, row Row) error {
	data := make(Row, len(row))
	for name, raw := range row {
		f, ok := m.fields[name]
		if !ok {
			continue
		}
		v, err := f.FromPersistence(raw)
		if err != nil {
			return &PersistenceError{Op: "decode " + name, Model: m.name, ID: row[m.idField], Err: err}
		}
		data[name] = v
	}

	m.data = data
	m.id = data[m.idField]
	m.loaded = true
	m.tracker.Reset(data)
	m.logger.Debug("record loaded", zap.Any("id", m.id))

	return m.fire(ctx, hooks.AfterLoad)
}

func (m *Model) loadError(op string, id any, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %s %v: %w", op, m.name, id, ErrNotFound)
	}
	return &PersistenceError{Op: op, Model: m.name, ID: id, Err: err}
}

func (m *Model) backend(op string) (Persistence, error) {
	if m.persistence == nil {
		return nil, NewConfigurationError(m.name, op, "no persistence bound")
	}
	return m.persistence, nil
}

// insertFields lists every saveable field holding a value, plus system
// fields. The identity is included only when set explicitly.
func (m *Model) insertFields() []string {
	var names []string
	for _, name := range m.order {
		f := m.fields[name]
		if !f.Saveable() {
			continue
		}
		if name == m.idField {
			if m.data[name] != nil {
				names = append(names, name)
			}
			continue
		}
		if _, ok := m.data[name]; ok || f.System {
			names = append(names, name)
		}
	}
	return names
}

func (m *Model) changedFields() []string {
	var names []string
	for _, name := range m.tracker.Fields() {
		f, ok := m.fields[name]
		if !ok || !f.Saveable() || name == m.idField {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (m *Model) persistRow(names []string) (Row, error) {
	row := make(Row, len(names))
	for _, name := range names {
		v, err := m.fields[name].ToPersistence(m.data[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", m.name, name, err)
		}
		row[name] = v
	}
	return row, nil
}
