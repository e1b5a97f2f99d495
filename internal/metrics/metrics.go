// Package metrics exposes the minimal operational surface the pipeline
// offers: queue depth, handler success/failure counters, and processor lag
// in blocks, served over a Prometheus /metrics endpoint.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds the pipeline's instruments. One instance is constructed at
// startup and passed by reference into each worker.
type Metrics struct {
	registry *prometheus.Registry

	HandlerSuccess *prometheus.CounterVec
	HandlerFailure *prometheus.CounterVec
	QueueDepth     *prometheus.GaugeVec
	LagBlocks      prometheus.Gauge
}

// New constructs and registers the pipeline's instruments on a fresh
// registry, so tests can hold an isolated instance.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HandlerSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_handler_success_total",
			Help: "Messages processed successfully, by worker and event kind.",
		}, []string{"worker", "event"}),
		HandlerFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_handler_failure_total",
			Help: "Messages that failed processing, by worker and event kind.",
		}, []string{"worker", "event"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "indexer_queue_depth",
			Help: "Approximate undelivered messages per queue.",
		}, []string{"queue"}),
		LagBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_lag_blocks",
			Help: "Blocks between the chain head and the producer cursor.",
		}),
	}

	registry.MustRegister(m.HandlerSuccess, m.HandlerFailure, m.QueueDepth, m.LagBlocks)
	return m
}

// Serve runs the /metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("metrics server")
	}
}
