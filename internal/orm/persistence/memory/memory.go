// Package memory implements model.Persistence in process memory. It backs the
// CLI by default and is the store used throughout the tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/model"
)

// ErrDuplicateID is returned when inserting a record whose identity is taken
var ErrDuplicateID = errors.New("duplicate id")

// Option configures a Store
type Option func(*Store)

// WithUUIDs makes Insert assign random UUID strings instead of sequential integers
func WithUUIDs() Option {
	return func(s *Store) {
		s.uuids = true
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store keeps records per table, in insertion order
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	uuids  bool
	logger *zap.Logger
}

type table struct {
	seq  int64
	keys []string
	rows map[string]model.Row
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns a copy of the record with the given identity
func (s *Store) Load(ctx context.Context, t model.Table, id any) (model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tbl, ok := s.tables[t.Name]
	if !ok {
		return nil, notFound(t, id)
	}
	row, ok := tbl.rows[key(id)]
	if !ok {
		return nil, notFound(t, id)
	}
	return row.Clone(), nil
}

// LoadBy returns the first record, in insertion order, whose field equals value
func (s *Store) LoadBy(ctx context.Context, t model.Table, field string, value any) (model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if tbl, ok := s.tables[t.Name]; ok {
		for _, k := range tbl.keys {
			row := tbl.rows[k]
			if equal(row[field], value) {
				return row.Clone(), nil
			}
		}
	}
	return nil, fmt.Errorf("%s where %s = %v: %w", t.Name, field, value, model.ErrNotFound)
}

// Insert stores a copy of row and returns its identity
func (s *Store) Insert(ctx context.Context, t model.Table, row model.Row) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl := s.table(t.Name)
	id := row[t.IDField]
	if id == nil {
		id = s.nextID(tbl)
	} else if n, err := cast.ToInt64E(id); err == nil && n > tbl.seq {
		tbl.seq = n
	}

	k := key(id)
	if _, exists := tbl.rows[k]; exists {
		return nil, fmt.Errorf("%s %v: %w", t.Name, id, ErrDuplicateID)
	}

	stored := row.Clone()
	stored[t.IDField] = id
	tbl.rows[k] = stored
	tbl.keys = append(tbl.keys, k)

	s.logger.Debug("insert", zap.String("table", t.Name), zap.Any("id", id))
	return id, nil
}

// Update merges row into the stored record
func (s *Store) Update(ctx context.Context, t model.Table, id any, row model.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.tables[t.Name]
	if !ok {
		return notFound(t, id)
	}
	stored, ok := tbl.rows[key(id)]
	if !ok {
		return notFound(t, id)
	}
	for k, v := range row {
		stored[k] = v
	}

	s.logger.Debug("update", zap.String("table", t.Name), zap.Any("id", id))
	return nil
}

// Delete removes the record with the given identity
func (s *Store) Delete(ctx context.Context, t model.Table, id any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tbl, ok := s.tables[t.Name]
	if !ok {
		return notFound(t, id)
	}
	k := key(id)
	if _, ok := tbl.rows[k]; !ok {
		return notFound(t, id)
	}
	delete(tbl.rows, k)
	for i, existing := range tbl.keys {
		if existing == k {
			tbl.keys = append(tbl.keys[:i], tbl.keys[i+1:]...)
			break
		}
	}

	s.logger.Debug("delete", zap.String("table", t.Name), zap.Any("id", id))
	return nil
}

// Len returns the number of records in a table
func (s *Store) Len(tableName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tbl, ok := s.tables[tableName]; ok {
		return len(tbl.rows)
	}
	return 0
}

func (s *Store) table(name string) *table {
	tbl, ok := s.tables[name]
	if !ok {
		tbl = &table{rows: make(map[string]model.Row)}
		s.tables[name] = tbl
	}
	return tbl
}

func (s *Store) nextID(tbl *table) any {
	if s.uuids {
		return uuid.NewString()
	}
	tbl.seq++
	return tbl.seq
}

// key maps an identity to a storage key so that 7, int64(7) and "7" address
// the same record.
func key(id any) string {
	return cast.ToString(id)
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, errA := cast.ToStringE(a)
	bs, errB := cast.ToStringE(b)
	return errA == nil && errB == nil && as == bs
}

func notFound(t model.Table, id any) error {
	return fmt.Errorf("%s %v: %w", t.Name, id, model.ErrNotFound)
}
