// Package store is the schema-scoped relational persistence facade for the
// domain model: every entity exposes upsert/find (and, for Position and
// Claim, delete), all parameterized by the caller's schema name so one
// database can host many deployment environments. It is a thin *sql.DB
// wrapper with hand-written parameterized SQL and ON CONFLICT upserts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store is the domain store. It owns no schema-specific state; every
// method takes the schema name as its first string parameter.
type Store struct {
	db *sql.DB
}

// NewPostgres opens a connection pool against dsn and verifies
// connectivity. The pool is shared by every worker in the process.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an already-open *sql.DB, used by tests that construct a pool
// against a scoped schema directly.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying pool for callers (e.g. the projector) that need
// to open a transaction spanning multiple Store methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// tbl renders a schema-qualified table name. Postgres does not allow
// parameter binding for identifiers, so schema/table composition goes
// through fmt.Sprintf like the rest of this package's queries; schema
// names are operator-configured, never user input.
func tbl(schema, name string) string {
	return fmt.Sprintf("%s.%s", schema, name)
}

// Execer is satisfied by both *sql.DB and *sql.Tx, letting every entity
// method run either directly against the pool or inside a caller-managed
// transaction (the projector wraps multi-write handlers in one).
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// InTx runs fn inside one transaction, committing on success and rolling
// back on error. Handlers use this so that a multi-write projection either
// applies fully or not at all, leaving the queue message undeleted for
// redelivery.
func (s *Store) InTx(ctx context.Context, fn func(ex Execer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
