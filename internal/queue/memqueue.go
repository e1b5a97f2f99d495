package queue

import (
	"container/list"
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemQueue is an in-process Queue implementation used by unit tests and
// local development, satisfying the same ordering and dedup guarantees a
// real SQS FIFO queue provides. Per the design note that "test setups
// construct a scoped instance per test," MemQueue carries no package-level
// state; each New call returns an independent queue.
type MemQueue struct {
	mu      sync.Mutex
	groups  map[string]*list.List
	order   []string // group ids in first-seen order, for round-robin receive
	seen    map[string]struct{}
	pending map[string]*pendingMessage
}

type pendingMessage struct {
	groupID string
	elem    *list.Element
}

// New constructs an empty MemQueue.
func New() *MemQueue {
	return &MemQueue{
		groups:  make(map[string]*list.List),
		seen:    make(map[string]struct{}),
		pending: make(map[string]*pendingMessage),
	}
}

// Send implements Queue. Content-based dedup is scoped to the lifetime of
// the MemQueue (an in-memory approximation of SQS FIFO's rolling 5-minute
// dedup window).
func (q *MemQueue) Send(ctx context.Context, body string, groupID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := groupID + "\x00" + body
	if _, dup := q.seen[key]; dup {
		return nil
	}
	q.seen[key] = struct{}{}

	g, ok := q.groups[groupID]
	if !ok {
		g = list.New()
		q.groups[groupID] = g
		q.order = append(q.order, groupID)
	}
	g.PushBack(body)
	return nil
}

// Receive implements Queue, round-robining across groups so no single
// group can starve the others, while preserving FIFO order within each
// group.
func (q *MemQueue) Receive(ctx context.Context, max int) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Message
	for _, groupID := range q.order {
		if len(out) >= max {
			break
		}
		g := q.groups[groupID]
		if g == nil || g.Len() == 0 {
			continue
		}
		elem := g.Front()
		g.Remove(elem)
		receiptID := uuid.NewString()
		q.pending[receiptID] = &pendingMessage{groupID: groupID, elem: elem}
		out = append(out, Message{
			Body:      elem.Value.(string),
			GroupID:   groupID,
			ReceiptID: receiptID,
		})
	}
	return out, nil
}

// Delete implements Queue.
func (q *MemQueue) Delete(ctx context.Context, receiptID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, receiptID)
	return nil
}

// Depth implements DepthReporter.
func (q *MemQueue) Depth(ctx context.Context) (int, error) {
	return q.Len(), nil
}

// Len reports the total number of undelivered messages across all groups.
func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, g := range q.groups {
		total += g.Len()
	}
	return total
}
