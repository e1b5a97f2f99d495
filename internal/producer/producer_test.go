package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/config"
	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

type fakeRawLogStore struct {
	inserted []domain.RawLog
	byID     map[string]bool
}

func newFakeRawLogStore() *fakeRawLogStore {
	return &fakeRawLogStore{byID: make(map[string]bool)}
}

func (f *fakeRawLogStore) InsertRawLog(_ context.Context, _ store.Execer, _ string, l *domain.RawLog) error {
	if f.byID[l.GSID] {
		return nil
	}
	f.byID[l.GSID] = true
	f.inserted = append(f.inserted, *l)
	return nil
}

type fakeCursorStore struct {
	cursors map[string]*domain.Cursor
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: make(map[string]*domain.Cursor)}
}

func (f *fakeCursorStore) Get(_ context.Context, _ string, streamID string) (*domain.Cursor, error) {
	if c, ok := f.cursors[streamID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCursorStore) Update(_ context.Context, _ string, streamID, key string) error {
	f.cursors[streamID] = &domain.Cursor{StreamID: streamID, LastProcessedKey: key, LastValidKey: key}
	return nil
}

func (f *fakeCursorStore) Reset(_ context.Context, _ string, streamID, key string) error {
	f.cursors[streamID] = &domain.Cursor{StreamID: streamID, LastProcessedKey: key, LastValidKey: key}
	return nil
}

type fakeSource struct {
	height uint64
	logs   map[uint64][]domain.RawLog
}

func (f *fakeSource) Height(_ context.Context) (uint64, error) {
	return f.height, nil
}

func (f *fakeSource) Logs(_ context.Context, _ string, from, to uint64) ([]domain.RawLog, error) {
	var out []domain.RawLog
	for b := from; b <= to; b++ {
		out = append(out, f.logs[b]...)
	}
	return out, nil
}

func logAt(block int64, logIndex int64) domain.RawLog {
	return domain.RawLog{
		GSID:        domainGSID(block, logIndex),
		BlockNumber: block,
		LogIndex:    logIndex,
		Topics:      []string{"0x01"},
	}
}

func domainGSID(block, logIndex int64) string {
	return fmt.Sprintf("%012d-%08d", block, logIndex)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.IntuitionContractAddress = "0xffffffffffffffffffffffffffffffffffffffff"
	cfg.StartBlock = 10
	cfg.BatchSize = 100
	return cfg
}

func TestSyncOnceEmitsInOrderAndAdvancesCursor(t *testing.T) {
	cfg := testConfig()
	storage := newFakeRawLogStore()
	cursors := newFakeCursorStore()
	rawQ := queue.New()
	src := &fakeSource{
		height: 12,
		logs: map[uint64][]domain.RawLog{
			11: {logAt(11, 3), logAt(11, 1)},
			10: {logAt(10, 0)},
		},
	}

	p := New(cfg, storage, nil, cursors, rawQ, src, nil, nil, logrus.WithField("test", true))

	progressed, done, err := p.syncOnce(context.Background())
	if err != nil {
		t.Fatalf("syncOnce: %v", err)
	}
	if !progressed || done {
		t.Fatalf("expected progress, got progressed=%v done=%v", progressed, done)
	}

	if len(storage.inserted) != 3 {
		t.Fatalf("expected 3 raw rows, got %d", len(storage.inserted))
	}

	// (block, log_index) order is preserved regardless of source order.
	var got []string
	for {
		msgs, _ := rawQ.Receive(context.Background(), 1)
		if len(msgs) == 0 {
			break
		}
		var l domain.RawLog
		if err := json.Unmarshal([]byte(msgs[0].Body), &l); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, l.GSID)
		_ = rawQ.Delete(context.Background(), msgs[0].ReceiptID)
	}
	want := []string{domainGSID(10, 0), domainGSID(11, 1), domainGSID(11, 3)}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}

	cur, _ := cursors.Get(context.Background(), cfg.IndexerSchema, p.streamID)
	if cur == nil || cur.LastProcessedKey != "12" {
		t.Errorf("expected cursor 12, got %+v", cur)
	}
}

func TestSyncOnceIdleAtChainTip(t *testing.T) {
	cfg := testConfig()
	cursors := newFakeCursorStore()
	_ = cursors.Update(context.Background(), cfg.IndexerSchema, streamIDFor(cfg), "50")

	p := New(cfg, newFakeRawLogStore(), nil, cursors, queue.New(), &fakeSource{height: 50}, nil, nil, logrus.WithField("test", true))

	progressed, done, err := p.syncOnce(context.Background())
	if err != nil {
		t.Fatalf("syncOnce: %v", err)
	}
	if progressed || done {
		t.Errorf("expected idle, got progressed=%v done=%v", progressed, done)
	}
}

func TestSyncOnceStopsAtEndBlock(t *testing.T) {
	cfg := testConfig()
	end := uint64(40)
	cfg.EndBlock = &end
	cursors := newFakeCursorStore()
	_ = cursors.Update(context.Background(), cfg.IndexerSchema, streamIDFor(cfg), "40")

	p := New(cfg, newFakeRawLogStore(), nil, cursors, queue.New(), &fakeSource{height: 100}, nil, nil, logrus.WithField("test", true))

	_, done, err := p.syncOnce(context.Background())
	if err != nil {
		t.Fatalf("syncOnce: %v", err)
	}
	if !done {
		t.Error("expected done past end block")
	}
}

func TestConsumeStreamAppliesDataAndUndo(t *testing.T) {
	cfg := testConfig()
	storage := newFakeRawLogStore()
	cursors := newFakeCursorStore()
	rawQ := queue.New()

	ch := make(chan StreamMessage, 3)
	ch <- StreamMessage{Data: &BlockScopedData{
		Logs:   []domain.RawLog{logAt(10, 0)},
		Cursor: "cursor-a",
	}}
	ch <- StreamMessage{Undo: &BlockUndoSignal{LastValidCursor: "cursor-0"}}
	close(ch)

	p := New(cfg, storage, nil, cursors, rawQ, nil, nil, nil, logrus.WithField("test", true))

	err := p.consumeStream(context.Background(), ch)
	if err == nil {
		t.Fatal("expected stream-closed error")
	}

	if len(storage.inserted) != 1 {
		t.Errorf("expected 1 raw row, got %d", len(storage.inserted))
	}
	cur, _ := cursors.Get(context.Background(), cfg.IndexerSchema, p.streamID)
	if cur == nil || cur.LastProcessedKey != "cursor-0" {
		t.Errorf("expected cursor reset to cursor-0, got %+v", cur)
	}
}

func streamIDFor(cfg *config.Config) string {
	p := New(cfg, nil, nil, nil, nil, nil, nil, nil, logrus.WithField("test", true))
	return p.streamID
}
