package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect covers the SQL differences between supported databases
type Dialect interface {
	// Name returns the dialect name
	Name() string
	// Placeholder returns the bind parameter for the n-th argument, starting at 1
	Placeholder(n int) string
	// Returning reports whether INSERT ... RETURNING is supported
	Returning() bool
}

// Postgres uses $n placeholders and RETURNING
type Postgres struct{}

// Name implements Dialect
func (Postgres) Name() string { return "postgres" }

// Placeholder implements Dialect
func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// Returning implements Dialect
func (Postgres) Returning() bool { return true }

// SQLite uses ? placeholders and LastInsertId
type SQLite struct{}

// Name implements Dialect
func (SQLite) Name() string { return "sqlite3" }

// Placeholder implements Dialect
func (SQLite) Placeholder(int) string { return "?" }

// Returning implements Dialect
func (SQLite) Returning() bool { return false }

// DialectFor returns the dialect for a database/sql driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres{}, nil
	case "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// quote quotes an identifier, treating dots as schema separators
func quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
