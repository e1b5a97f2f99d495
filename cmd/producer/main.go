package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xintuition/intuition-indexer/internal/app"
	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/producer"
)

func main() {
	a, err := app.Bootstrap("producer")
	if err != nil {
		// Bootstrap failed before the logger's config was known; stderr is
		// all we have.
		os.Stderr.WriteString("producer: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rawQueue, err := a.Queue(ctx, a.Cfg.RawConsumerQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open raw queue")
	}

	client, err := chain.NewClient(chain.Config{
		RPCURL:    a.Cfg.RPCURL,
		ChainID:   a.Cfg.ChainID,
		Timeout:   a.Cfg.RequestTimeout,
		Retry:     a.Retry(),
		AuthToken: a.Cfg.HypersyncToken,
	})
	if err != nil {
		a.Log.WithError(err).Fatal("create chain client")
	}

	p := producer.New(
		a.Cfg, a.Store, a.Store.DB(), a.Cursors, rawQueue,
		producer.NewRPCSource(client), nil, a.Metrics, a.Log,
	)

	a.ServeMetrics(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		a.Log.Info("shutting down")
		cancel()
	}()

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		a.Log.WithError(err).Fatal("producer stopped")
	}
}
