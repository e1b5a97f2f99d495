package queue

import (
	"context"
	"testing"
)

func TestMemQueueFIFOWithinGroup(t *testing.T) {
	q := New()
	ctx := context.Background()

	for _, body := range []string{"a", "b", "c"} {
		if err := q.Send(ctx, body, RawGroupID); err != nil {
			t.Fatalf("send %s: %v", body, err)
		}
	}

	var got []string
	for i := 0; i < 3; i++ {
		msgs, err := q.Receive(ctx, 1)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		if len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(msgs))
		}
		got = append(got, msgs[0].Body)
		if err := q.Delete(ctx, msgs[0].ReceiptID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	}

	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMemQueueContentDedup(t *testing.T) {
	q := New()
	ctx := context.Background()

	if err := q.Send(ctx, "same", "g"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := q.Send(ctx, "same", "g"); err != nil {
		t.Fatalf("duplicate send: %v", err)
	}

	if q.Len() != 1 {
		t.Errorf("expected 1 message after dedup, got %d", q.Len())
	}

	// The same body under another group is a distinct message.
	if err := q.Send(ctx, "same", "other"); err != nil {
		t.Fatalf("send other group: %v", err)
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 messages across groups, got %d", q.Len())
	}
}

func TestMemQueueReceiveSpansGroups(t *testing.T) {
	q := New()
	ctx := context.Background()

	_ = q.Send(ctx, "g1-a", "g1")
	_ = q.Send(ctx, "g1-b", "g1")
	_ = q.Send(ctx, "g2-a", "g2")

	msgs, err := q.Receive(ctx, 10)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected one message per group, got %d", len(msgs))
	}
	seen := map[string]bool{}
	for _, m := range msgs {
		seen[m.GroupID] = true
	}
	if !seen["g1"] || !seen["g2"] {
		t.Errorf("expected messages from both groups, got %v", seen)
	}
}

func TestMemQueueEmptyReceive(t *testing.T) {
	q := New()
	msgs, err := q.Receive(context.Background(), 5)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}
