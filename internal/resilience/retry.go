// Package resilience provides the retry/backoff primitives shared by the
// producer's tail-of-chain poll loop, the chain reader, and the resolver's
// external HTTP fetches.
package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig configures exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64 // 0-1, adds randomness
}

// DefaultRetryConfig is the usual external-call budget: 3 attempts, base
// delay 1s, cap 45s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     45 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Retry executes fn with exponential backoff, stopping early on ctx
// cancellation or success.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(addJitter(delay, cfg.Jitter)):
			}
			delay = nextDelay(delay, cfg)
		}
	}
	return lastErr
}

func nextDelay(current time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

func addJitter(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	delta := float64(d) * jitter
	return d + time.Duration(rand.Float64()*delta*2-delta)
}

// PollBackoff tracks the producer's tail-of-chain backoff: it grows
// exponentially from InitialDelay up to MaxDelay on successive empty polls,
// and resets as soon as a poll finds new logs.
type PollBackoff struct {
	cfg     RetryConfig
	current time.Duration
}

// NewPollBackoff builds a PollBackoff from a RetryConfig's Initial/Max delay
// and multiplier (MaxAttempts is unused for this shape since polling never
// gives up).
func NewPollBackoff(cfg RetryConfig) *PollBackoff {
	return &PollBackoff{cfg: cfg, current: cfg.InitialDelay}
}

// Reset returns the backoff to its initial delay, called whenever a poll
// makes progress.
func (p *PollBackoff) Reset() {
	p.current = p.cfg.InitialDelay
}

// Next returns the delay to wait before the next poll and advances the
// internal state.
func (p *PollBackoff) Next() time.Duration {
	d := addJitter(p.current, p.cfg.Jitter)
	p.current = nextDelay(p.current, p.cfg)
	return d
}
