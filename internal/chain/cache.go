package chain

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Cache is the read-through JSON-RPC response cache, keyed by
// (chain_id, method, contract, input, block). Only calls pinned to a
// concrete block are cached; the reader never consults it for "latest".
type Cache struct {
	db     *sql.DB
	schema string
}

// NewCache wraps the shared connection pool. The cache table lives in the
// same schema as the rest of the deployment environment.
func NewCache(db *sql.DB, schema string) *Cache {
	return &Cache{db: db, schema: schema}
}

// Get returns the cached result for the key, reporting whether it was
// present.
func (c *Cache) Get(ctx context.Context, chainID int64, method, contract, input, block string) (string, bool, error) {
	query := fmt.Sprintf(`
		SELECT result FROM %s.json_rpc_cache
		WHERE chain_id = $1 AND method = $2 AND to_address = $3 AND input = $4 AND block_number = $5
	`, c.schema)

	var result string
	err := c.db.QueryRowContext(ctx, query, chainID, method, contract, input, block).Scan(&result)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get rpc cache: %w", err)
	}
	return result, true, nil
}

// Put stores a result. Concurrent writers racing on the same key converge
// on whichever lands first; results for a pinned block are identical by
// construction.
func (c *Cache) Put(ctx context.Context, chainID int64, method, contract, input, block, result string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.json_rpc_cache (chain_id, method, to_address, input, block_number, result, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (chain_id, method, to_address, input, block_number) DO NOTHING
	`, c.schema)

	_, err := c.db.ExecContext(ctx, query, chainID, method, contract, input, block, result, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put rpc cache: %w", err)
	}
	return nil
}
