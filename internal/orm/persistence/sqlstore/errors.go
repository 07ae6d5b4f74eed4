package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/datamap/internal/orm/model"
)

var (
	// ErrUniqueViolation is returned when a unique constraint is violated
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrCheckViolation is returned when a check constraint is violated
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrNotNullViolation is returned when a NOT NULL constraint is violated
	ErrNotNullViolation = errors.New("not null constraint violation")

	// ErrUnsupportedDriver is returned for a driver with no known dialect
	ErrUnsupportedDriver = errors.New("unsupported sql driver")
)

// SQLSTATE codes shared by the postgres drivers
const (
	codeNotNull    = "23502"
	codeForeignKey = "23503"
	codeUnique     = "23505"
	codeCheck      = "23514"
)

// ConvertDBError maps driver errors onto the package sentinels and
// sql.ErrNoRows onto model.ErrNotFound. Other errors pass through.
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classify(pgErr.Code, pgErr.Detail, pgErr.ColumnName, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classify(string(pqErr.Code), pqErr.Detail, pqErr.Column, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
		case sqlite3.ErrConstraintNotNull:
			return fmt.Errorf("%w: %s", ErrNotNullViolation, liteErr.Error())
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %s", ErrCheckViolation, liteErr.Error())
		}
	}

	return err
}

func classify(code, detail, column string, err error) error {
	switch code {
	case codeUnique:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, detail)
	case codeForeignKey:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, detail)
	case codeCheck:
		return fmt.Errorf("%w: %s", ErrCheckViolation, detail)
	case codeNotNull:
		return fmt.Errorf("%w: column %s", ErrNotNullViolation, column)
	}
	return err
}

// IsUniqueViolation returns true if the error is ErrUniqueViolation
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation returns true if the error is ErrForeignKeyViolation
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}
