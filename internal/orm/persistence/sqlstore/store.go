// Package sqlstore implements model.Persistence on database/sql for the
// postgres (lib/pq, pgx) and sqlite3 drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	// register the "pgx" driver
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/conduit-lang/datamap/internal/orm/model"
)

// Querier is the subset of *sql.DB and *sql.Tx the store needs
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures a Store
type Option func(*Store)

// WithLogger logs every statement at debug level
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is a SQL-backed persistence
type Store struct {
	db      Querier
	dialect Dialect
	logger  *zap.Logger
	retry   RetryConfig
}

// New wraps an open connection
func New(db Querier, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, logger: zap.NewNop(), retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a database with the named driver and wraps it. The caller owns
// the returned *sql.DB and must close it.
func Open(driver, dsn string, opts ...Option) (*Store, *sql.DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	return New(db, dialect, opts...), db, nil
}

// Dialect returns the store's dialect
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Load selects the record with the given identity
func (s *Store) Load(ctx context.Context, t model.Table, id any) (model.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s LIMIT 1",
		quote(t.Name), quote(t.IDField), s.dialect.Placeholder(1))
	return s.selectOne(ctx, t, query, id)
}

// LoadBy selects the first record, by identity order, whose field equals value
func (s *Store) LoadBy(ctx context.Context, t model.Table, field string, value any) (model.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s ORDER BY %s LIMIT 1",
		quote(t.Name), quote(field), s.dialect.Placeholder(1), quote(t.IDField))
	return s.selectOne(ctx, t, query, value)
}

// Insert adds a record and returns its identity
func (s *Store) Insert(ctx context.Context, t model.Table, row model.Row) (any, error) {
	columns := sortedColumns(row)

	var query string
	args := make([]any, 0, len(columns))
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(t.Name))
	} else {
		quoted := make([]string, len(columns))
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = quote(col)
			placeholders[i] = s.dialect.Placeholder(i + 1)
			args = append(args, row[col])
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(t.Name), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	}

	if s.dialect.Returning() {
		query += " RETURNING " + quote(t.IDField)
	}

	var id any
	err := s.withRetry(ctx, "insert", func() error {
		var err error
		id, err = s.insert(ctx, t, row, query, args)
		return err
	})
	return id, err
}

func (s *Store) insert(ctx context.Context, t model.Table, row model.Row, query string, args []any) (any, error) {
	s.log(query, args)

	if s.dialect.Returning() {
		var id any
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert into %s: %w", t.Name, ConvertDBError(err))
		}
		return normalizeID(id), nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", t.Name, ConvertDBError(err))
	}
	if id, ok := row[t.IDField]; ok && id != nil {
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read id for %s: %w", t.Name, err)
	}
	return id, nil
}

// Update writes row onto the record with the given identity
func (s *Store) Update(ctx context.Context, t model.Table, id any, row model.Row) error {
	columns := sortedColumns(row)
	if len(columns) == 0 {
		return nil
	}

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = %s", quote(col), s.dialect.Placeholder(i+1))
		args = append(args, row[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quote(t.Name), strings.Join(sets, ", "), quote(t.IDField), s.dialect.Placeholder(len(args)))
	return s.execOne(ctx, t, id, "update", query, args)
}

// Delete removes the record with the given identity
func (s *Store) Delete(ctx context.Context, t model.Table, id any) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		quote(t.Name), quote(t.IDField), s.dialect.Placeholder(1))
	return s.execOne(ctx, t, id, "delete", query, []any{id})
}

func (s *Store) selectOne(ctx context.Context, t model.Table, query string, arg any) (model.Row, error) {
	s.log(query, []any{arg})

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, ConvertDBError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", t.Name, ConvertDBError(err))
		}
		return nil, fmt.Errorf("%s %v: %w", t.Name, arg, model.ErrNotFound)
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", t.Name, err)
	}

	row := make(model.Row, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}
	return row, nil
}

func (s *Store) execOne(ctx context.Context, t model.Table, id any, op, query string, args []any) error {
	return s.withRetry(ctx, op, func() error {
		return s.exec(ctx, t, id, op, query, args)
	})
}

func (s *Store) exec(ctx context.Context, t model.Table, id any, op, query string, args []any) error {
	s.log(query, args)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, t.Name, ConvertDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, t.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", t.Name, id, model.ErrNotFound)
	}
	return nil
}

func (s *Store) log(query string, args []any) {
	s.logger.Debug("sql", zap.String("dialect", s.dialect.Name()), zap.String("query", query), zap.Int("args", len(args)))
}

func sortedColumns(row model.Row) []string {
	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// normalizeID turns driver byte slices into strings so ids compare cleanly
func normalizeID(id any) any {
	if b, ok := id.([]byte); ok {
		return string(b)
	}
	return id
}
