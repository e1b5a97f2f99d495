// Package app holds the startup wiring shared by the pipeline's daemons:
// configuration, logging, the database pool, queues, and the metrics
// endpoint. Each cmd/ binary calls Bootstrap once and wires its own worker
// on top.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/config"
	"github.com/0xintuition/intuition-indexer/internal/cursor"
	"github.com/0xintuition/intuition-indexer/internal/logging"
	"github.com/0xintuition/intuition-indexer/internal/metrics"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// App is the shared process state every daemon starts from.
type App struct {
	Cfg     *config.Config
	Log     *logrus.Entry
	Store   *store.Store
	Cursors *cursor.Store
	Metrics *metrics.Metrics
}

// Bootstrap loads configuration, opens the database pool, and constructs
// the process-wide collaborators. Configuration errors are fatal at
// startup.
func Bootstrap(component string) (*App, error) {
	log := logging.NewDefault(component)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	st, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &App{
		Cfg:     cfg,
		Log:     log,
		Store:   st,
		Cursors: cursor.New(st.DB()),
		Metrics: metrics.New(),
	}, nil
}

// Queue opens the SQS-backed queue at url, honoring the localstack
// override for local development.
func (a *App) Queue(ctx context.Context, url string) (queue.Queue, error) {
	if url == "" {
		return nil, fmt.Errorf("queue URL required")
	}
	return queue.NewSQSQueue(ctx, url, a.Cfg.LocalstackURL)
}

// Retry derives the chain clients' HTTP retry budget from the configured
// attempt count.
func (a *App) Retry() resilience.HTTPRetryConfig {
	cfg := resilience.DefaultHTTPRetryConfig()
	if a.Cfg.MaxRetries > 0 {
		cfg.MaxAttempts = uint64(a.Cfg.MaxRetries)
	}
	return cfg
}

// ServeMetrics starts the /metrics endpoint in the background on the
// address from METRICS_ADDR, defaulting to :9090.
func (a *App) ServeMetrics(ctx context.Context) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	go a.Metrics.Serve(ctx, addr, a.Log)
}

// Close releases the process-wide resources.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Log.WithError(err).Warn("close store")
	}
}
