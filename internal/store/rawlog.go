package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// InsertRawLog durably writes a raw log exactly once, idempotent on
// (transaction_hash, log_index), before the producer publishes it to the
// raw queue. Re-running the producer over the same block range (e.g. after
// a crash before the cursor was advanced) is therefore safe.
func (s *Store) InsertRawLog(ctx context.Context, ex Execer, schema string, l *domain.RawLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			gs_id, block_number, block_hash, transaction_hash, transaction_index,
			log_index, address, data, topics, block_timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (transaction_hash, log_index) DO NOTHING
	`, tbl(schema, "raw_log"))

	_, err := ex.ExecContext(ctx, query,
		l.GSID, l.BlockNumber, l.BlockHash, l.TransactionHash, l.TransactionIdx,
		l.LogIndex, l.Address, l.Data, pq.Array(l.Topics), l.BlockTimestamp,
	)
	if err != nil {
		return fmt.Errorf("insert raw_log %s/%d: %w", l.TransactionHash, l.LogIndex, err)
	}
	return nil
}
