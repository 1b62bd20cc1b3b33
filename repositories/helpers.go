package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/db"
	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so repository methods
// that take one can run inside or outside a transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewTransactor(conn *sql.DB) Transactor {
	return &sqlTransactor{db: conn}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	return db.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func asPQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// constraintViolation reports the constraint name when err is a violation of
// the given SQLSTATE class.
func constraintViolation(err error, code pq.ErrorCode) (string, bool) {
	pqErr, ok := asPQError(err)
	if !ok || pqErr.Code != code {
		return "", false
	}
	return pqErr.Constraint, true
}

func isUniqueViolation(err error, constraint string) bool {
	name, ok := constraintViolation(err, pqUniqueViolation)
	return ok && name == constraint
}

func isForeignKeyViolation(err error) bool {
	_, ok := constraintViolation(err, pqForeignKeyViolation)
	return ok
}

func isCheckViolation(err error) bool {
	_, ok := constraintViolation(err, pqCheckViolation)
	return ok
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func executor(db *sql.DB, exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return db
}
