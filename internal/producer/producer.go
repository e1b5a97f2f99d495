package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/config"
	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/metrics"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// Storage is the subset of the domain store the producer writes.
type Storage interface {
	InsertRawLog(ctx context.Context, ex store.Execer, schema string, l *domain.RawLog) error
}

// CursorStore persists the producer's high-water mark.
type CursorStore interface {
	Get(ctx context.Context, schema, streamID string) (*domain.Cursor, error)
	Update(ctx context.Context, schema, streamID, key string) error
	Reset(ctx context.Context, schema, streamID, key string) error
}

// Producer drives one stream of logs for one contract. Run covers the
// historical-batch mode, RunStream the streaming mode; the two are
// interchangeable and share the cursor.
type Producer struct {
	cfg      *config.Config
	storage  Storage
	ex       store.Execer
	cursors  CursorStore
	rawQueue queue.Queue
	source   Source
	stream   StreamSource
	streamID string
	log      *logrus.Entry
	metrics  *metrics.Metrics
}

// New constructs a Producer. ex is the connection pool the raw-log writes
// run against; stream may be nil when only batch mode is used.
func New(cfg *config.Config, storage Storage, ex store.Execer, cursors CursorStore, rawQueue queue.Queue, source Source, stream StreamSource, m *metrics.Metrics, log *logrus.Entry) *Producer {
	return &Producer{
		cfg:      cfg,
		storage:  storage,
		ex:       ex,
		cursors:  cursors,
		rawQueue: rawQueue,
		source:   source,
		stream:   stream,
		streamID: fmt.Sprintf("%d:%s", cfg.ChainID, domain.NormalizeAddress(cfg.IntuitionContractAddress)),
		log:      log,
		metrics:  m,
	}
}

// Run polls the historical source until the context is cancelled or the
// configured end block is reached. At the tail of the chain it backs off
// exponentially between polls, capped at 3s.
func (p *Producer) Run(ctx context.Context) error {
	tailCap := p.cfg.PollInterval
	if tailCap <= 0 || tailCap > 3*time.Second {
		tailCap = 3 * time.Second
	}
	tail := resilience.NewPollBackoff(resilience.RetryConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     tailCap,
		Multiplier:   2.0,
		Jitter:       0.1,
	})
	reconnect := resilience.NewPollBackoff(resilience.RetryConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     45 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	})

	for {
		progressed, done, err := p.syncOnce(ctx)
		switch {
		case err != nil:
			p.log.WithError(err).Error("sync batch")
			if !sleep(ctx, reconnect.Next()) {
				return ctx.Err()
			}
			continue
		case done:
			p.log.Info("reached configured end block, stopping")
			return nil
		case progressed:
			tail.Reset()
			reconnect.Reset()
			continue
		default:
			reconnect.Reset()
			if !sleep(ctx, tail.Next()) {
				return ctx.Err()
			}
		}
	}
}

// syncOnce processes one batch: (progressed, done, err).
func (p *Producer) syncOnce(ctx context.Context) (bool, bool, error) {
	start, err := p.nextBlock(ctx)
	if err != nil {
		return false, false, err
	}

	if p.cfg.EndBlock != nil && start > *p.cfg.EndBlock {
		return false, true, nil
	}

	height, err := p.source.Height(ctx)
	if err != nil {
		return false, false, fmt.Errorf("get chain height: %w", err)
	}
	if p.metrics != nil {
		if height >= start {
			p.metrics.LagBlocks.Set(float64(height - start + 1))
		} else {
			p.metrics.LagBlocks.Set(0)
		}
	}
	if start > height {
		return false, false, nil
	}

	end := start + uint64(p.cfg.BatchSize) - 1
	if end > height {
		end = height
	}
	if p.cfg.EndBlock != nil && end > *p.cfg.EndBlock {
		end = *p.cfg.EndBlock
	}

	logs, err := p.source.Logs(ctx, p.cfg.IntuitionContractAddress, start, end)
	if err != nil {
		return false, false, fmt.Errorf("fetch logs [%d,%d]: %w", start, end, err)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})

	if err := p.emit(ctx, logs); err != nil {
		return false, false, err
	}

	if err := p.cursors.Update(ctx, p.cfg.IndexerSchema, p.streamID, strconv.FormatUint(end, 10)); err != nil {
		return false, false, err
	}

	p.log.WithFields(logrus.Fields{
		"start": start,
		"end":   end,
		"logs":  len(logs),
	}).Info("synced batch")
	return true, false, nil
}

// emit durably lands each log in raw_log and publishes it to the raw queue
// under the constant group id. The write is idempotent on gs_id, so a crash
// between write and enqueue is absorbed by the replay.
func (p *Producer) emit(ctx context.Context, logs []domain.RawLog) error {
	for i := range logs {
		l := &logs[i]
		if err := p.storage.InsertRawLog(ctx, p.ex, p.cfg.IndexerSchema, l); err != nil {
			return err
		}
		body, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("marshal raw log %s: %w", l.GSID, err)
		}
		if err := p.rawQueue.Send(ctx, string(body), queue.RawGroupID); err != nil {
			return fmt.Errorf("enqueue raw log %s: %w", l.GSID, err)
		}
	}
	return nil
}

// nextBlock resolves the first block of the next batch from the persisted
// cursor, falling back to the configured start block. The cursor never goes
// backwards: a stale candidate below the persisted key is ignored.
func (p *Producer) nextBlock(ctx context.Context) (uint64, error) {
	cur, err := p.cursors.Get(ctx, p.cfg.IndexerSchema, p.streamID)
	if err != nil {
		return 0, err
	}
	if cur == nil || cur.LastProcessedKey == "" {
		return p.cfg.StartBlock, nil
	}
	last, err := strconv.ParseUint(cur.LastProcessedKey, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cursor key %q: %w", cur.LastProcessedKey, err)
	}
	next := last + 1
	if next < p.cfg.StartBlock {
		next = p.cfg.StartBlock
	}
	return next, nil
}

// RunStream consumes the streaming source, handling BlockScopedData
// forward batches and BlockUndoSignal reorgs, reconnecting with
// exponential backoff (500ms start, 45s cap) when the connection drops.
func (p *Producer) RunStream(ctx context.Context) error {
	if p.stream == nil {
		return fmt.Errorf("no stream source configured")
	}

	reconnect := resilience.NewPollBackoff(resilience.RetryConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     45 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cur, err := p.cursors.Get(ctx, p.cfg.IndexerSchema, p.streamID)
		if err != nil {
			p.log.WithError(err).Error("load stream cursor")
			if !sleep(ctx, reconnect.Next()) {
				return ctx.Err()
			}
			continue
		}
		fromCursor := ""
		if cur != nil {
			fromCursor = cur.LastProcessedKey
		}

		ch, err := p.stream.Stream(ctx, fromCursor)
		if err != nil {
			p.log.WithError(err).Error("connect stream")
			if !sleep(ctx, reconnect.Next()) {
				return ctx.Err()
			}
			continue
		}
		reconnect.Reset()

		if err := p.consumeStream(ctx, ch); err != nil {
			p.log.WithError(err).Error("stream interrupted")
		}
	}
}

func (p *Producer) consumeStream(ctx context.Context, ch <-chan StreamMessage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("stream closed")
			}
			switch {
			case msg.Undo != nil:
				p.log.WithField("last_valid", msg.Undo.LastValidCursor).Warn("block undo signal, resetting cursor")
				if err := p.cursors.Reset(ctx, p.cfg.IndexerSchema, p.streamID, msg.Undo.LastValidCursor); err != nil {
					return err
				}
			case msg.Data != nil:
				if err := p.emit(ctx, msg.Data.Logs); err != nil {
					return err
				}
				if err := p.cursors.Update(ctx, p.cfg.IndexerSchema, p.streamID, msg.Data.Cursor); err != nil {
					return err
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
