// Package producer tails the chain's logs for the target contract, lands
// each one durably in the raw_log table, publishes it to the raw queue in
// (block_number, log_index) order, and advances the persisted cursor only
// after both succeed.
package producer

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// Source is a chain indexer queried in historical-batch mode: all logs for
// the target contract within a block range, in (block_number, log_index)
// order.
type Source interface {
	// Height returns the indexer's current chain height.
	Height(ctx context.Context) (uint64, error)

	// Logs returns every log emitted by address within [from, to],
	// inclusive, ordered by (block_number, log_index).
	Logs(ctx context.Context, address string, from, to uint64) ([]domain.RawLog, error)
}

// BlockScopedData is a forward batch from a streaming source: the logs of
// one or more finalized blocks plus the opaque cursor to persist once they
// are durably handed off.
type BlockScopedData struct {
	Logs   []domain.RawLog
	Cursor string
}

// BlockUndoSignal reports a chain reorganization. The producer reacts by
// resetting its cursor to the last valid key so re-emitted logs re-traverse
// the pipeline; idempotent upserts downstream absorb the replay.
type BlockUndoSignal struct {
	LastValidCursor string
}

// StreamMessage is the tagged union a streaming source yields. Exactly one
// field is non-nil.
type StreamMessage struct {
	Data *BlockScopedData
	Undo *BlockUndoSignal
}

// StreamSource is a block-stream RPC connection. Stream yields messages
// from the given cursor onward until the context is cancelled or the
// connection drops, at which point the channel closes and the producer
// reconnects with backoff.
type StreamSource interface {
	Stream(ctx context.Context, fromCursor string) (<-chan StreamMessage, error)
}
