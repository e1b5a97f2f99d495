package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xintuition/intuition-indexer/internal/app"
	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/projector"
)

func main() {
	a, err := app.Bootstrap("projector")
	if err != nil {
		os.Stderr.WriteString("projector: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	decodedQueue, err := a.Queue(ctx, a.Cfg.DecodedLogsQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open decoded queue")
	}
	resolverQueue, err := a.Queue(ctx, a.Cfg.ResolverQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open resolver queue")
	}

	client, err := chain.NewClient(chain.Config{
		RPCURL:  a.Cfg.RPCURL,
		ChainID: a.Cfg.ChainID,
		Retry:   a.Retry(),
	})
	if err != nil {
		a.Log.WithError(err).Fatal("create chain client")
	}
	reader, err := chain.NewContractReader(
		client,
		a.Cfg.IntuitionContractAddress,
		chain.NewCache(a.Store.DB(), a.Cfg.IndexerSchema),
	)
	if err != nil {
		a.Log.WithError(err).Fatal("create chain reader")
	}

	p := projector.New(a.Store, reader, decodedQueue, resolverQueue, a.Cfg.BackendSchema, a.Metrics, a.Log)

	a.ServeMetrics(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		a.Log.Info("shutting down")
		cancel()
	}()

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		a.Log.WithError(err).Fatal("projector stopped")
	}
}
