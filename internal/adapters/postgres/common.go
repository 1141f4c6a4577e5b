package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/jmoiron/sqlx"
)

// dbExecutor is an interface that both *sqlx.DB and *sqlx.Tx implement
// This allows repositories to work with either a database connection or a transaction
type dbExecutor interface {
	sqlx.Queryer
	sqlx.Execer
	sqlx.Preparer
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// insertReturningID runs a named INSERT ... RETURNING id and stores the new id in dest
func insertReturningID(ctx context.Context, db dbExecutor, query string, arg interface{}, dest *int64) error {
	stmt, err := db.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	return stmt.GetContext(ctx, dest, arg)
}

// getOne runs a single-row query, mapping sql.ErrNoRows to a NotFoundError
func getOne(ctx context.Context, db dbExecutor, dest interface{}, entity string, id int64, query string, args ...interface{}) error {
	err := db.GetContext(ctx, dest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.NotFoundError{Entity: entity, ID: id}
		}
		return fmt.Errorf("failed to get %s: %w", entity, err)
	}
	return nil
}

// expectRowAffected turns a zero-row UPDATE into a NotFoundError
func expectRowAffected(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
