package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySuccess(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryEventualSuccess(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("fail")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 2}
	want := errors.New("always")

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return want
	})
	if err != want {
		t.Errorf("expected %v, got %v", want, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryCancelled(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, cfg, func() error {
		return errors.New("fail")
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPollBackoffGrowsAndResets(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	b := NewPollBackoff(cfg)

	first := b.Next()
	second := b.Next()
	if second <= first {
		t.Errorf("expected growth, got %v then %v", first, second)
	}

	for i := 0; i < 10; i++ {
		if d := b.Next(); d > cfg.MaxDelay {
			t.Fatalf("delay %v exceeds cap %v", d, cfg.MaxDelay)
		}
	}

	b.Reset()
	if d := b.Next(); d != cfg.InitialDelay {
		t.Errorf("expected reset to %v, got %v", cfg.InitialDelay, d)
	}
}

func TestRetryHTTPBoundedAttempts(t *testing.T) {
	cfg := HTTPRetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	calls := 0
	err := RetryHTTP(context.Background(), cfg, func() error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Error("expected error after budget exhaustion")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryHTTPPermanentStopsEarly(t *testing.T) {
	cfg := HTTPRetryConfig{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	calls := 0
	err := RetryHTTP(context.Background(), cfg, func() error {
		calls++
		return Permanent(errors.New("bad request"))
	})
	if err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
