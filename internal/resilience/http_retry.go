package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPRetryConfig configures cenkalti/backoff-driven retry for outbound
// HTTP calls (IPFS gateway fetch, chain RPC). RetryConfig in retry.go
// stays with the workers' poll loops, which need PollBackoff's
// reset-on-progress shape; one-shot external calls use this instead.
type HTTPRetryConfig struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultHTTPRetryConfig is the 3-attempt, 1s-base policy the resolver's
// external fetches use.
func DefaultHTTPRetryConfig() HTTPRetryConfig {
	return HTTPRetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Permanent marks err so RetryHTTP stops immediately instead of burning
// the remaining retry budget, used for failures a retry cannot fix (a
// JSON-RPC error object, a 4xx response).
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// RetryHTTP runs fn under exponential backoff bounded by cfg.MaxAttempts,
// honoring ctx cancellation.
func RetryHTTP(ctx context.Context, cfg HTTPRetryConfig, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialInterval
	eb.MaxInterval = cfg.MaxInterval
	eb.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(eb, cfg.MaxAttempts-1), ctx)
	return backoff.Retry(fn, bo)
}
