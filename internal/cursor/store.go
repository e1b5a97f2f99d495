// Package cursor persists, per stream identifier, the producer's
// high-water mark and the last-known-valid mark to roll back to on reorg.
// One row per (chain, contract) stream. The historical producer keeps its
// marks in histoflux_cursor; the streaming producer keeps its opaque
// stream cursors in substreams_cursor.
package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// Store is the cursor persistence facade. Every operation takes the schema
// name as a parameter per the module's schema-scoping design note.
type Store struct {
	db    *sql.DB
	table string
}

// New wraps an existing *sql.DB over the historical producer's cursor
// table. The pool itself is owned by the caller (constructed once at
// startup, per the "no ambient singleton" design note) and shared across
// components.
func New(db *sql.DB) *Store {
	return &Store{db: db, table: "histoflux_cursor"}
}

// NewSubstreams wraps the pool over the streaming producer's cursor table,
// which holds opaque stream cursors instead of block numbers.
func NewSubstreams(db *sql.DB) *Store {
	return &Store{db: db, table: "substreams_cursor"}
}

// Get retrieves the cursor for streamID, or nil if none has been persisted
// yet.
func (s *Store) Get(ctx context.Context, schema, streamID string) (*domain.Cursor, error) {
	query := fmt.Sprintf(`
		SELECT stream_id, last_processed_key, last_valid_key, last_updated
		FROM %s.%s WHERE stream_id = $1
	`, schema, s.table)

	c := &domain.Cursor{}
	err := s.db.QueryRowContext(ctx, query, streamID).Scan(
		&c.StreamID, &c.LastProcessedKey, &c.LastValidKey, &c.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor %s: %w", streamID, err)
	}
	return c, nil
}

// Update advances the cursor for streamID to key, recording it as the new
// last-valid key too. The caller (the log producer) is responsible for
// only calling Update after both the durable raw-log write and the enqueue
// have succeeded.
func (s *Store) Update(ctx context.Context, schema, streamID, key string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.%s (stream_id, last_processed_key, last_valid_key, last_updated)
		VALUES ($1, $2, $2, $3)
		ON CONFLICT (stream_id) DO UPDATE SET
			last_processed_key = EXCLUDED.last_processed_key,
			last_valid_key = EXCLUDED.last_processed_key,
			last_updated = EXCLUDED.last_updated
	`, schema, s.table)

	_, err := s.db.ExecContext(ctx, query, streamID, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update cursor %s: %w", streamID, err)
	}
	return nil
}

// Reset rolls the cursor back to the last-valid key reported by a
// BlockUndoSignal (chain reorg) so that re-emitted logs re-traverse the
// pipeline; idempotent upserts downstream absorb the replay. This is the
// one operation allowed to move a cursor backwards.
func (s *Store) Reset(ctx context.Context, schema, streamID, key string) error {
	query := fmt.Sprintf(`
		UPDATE %s.%s SET last_processed_key = $2, last_valid_key = $2, last_updated = $3
		WHERE stream_id = $1
	`, schema, s.table)

	_, err := s.db.ExecContext(ctx, query, streamID, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset cursor %s: %w", streamID, err)
	}
	return nil
}
