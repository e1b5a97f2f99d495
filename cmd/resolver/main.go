package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xintuition/intuition-indexer/internal/app"
	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/resolver"
)

func main() {
	a, err := app.Bootstrap("resolver")
	if err != nil {
		os.Stderr.WriteString("resolver: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue, err := a.Queue(ctx, a.Cfg.ResolverQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open resolver queue")
	}
	imageQueue, err := a.Queue(ctx, a.Cfg.IPFSUploadQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open image queue")
	}

	mainnet, err := chain.NewClient(chain.Config{
		RPCURL:  a.Cfg.MainnetRPCURL,
		ChainID: 1,
		Retry:   a.Retry(),
	})
	if err != nil {
		a.Log.WithError(err).Fatal("create mainnet client")
	}

	w := resolver.New(jobQueue, imageQueue, a.Store, mainnet, a.Cfg.BackendSchema, a.Cfg.IPFSGatewayURL, a.Metrics, a.Log)

	a.ServeMetrics(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		a.Log.Info("shutting down")
		cancel()
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		a.Log.WithError(err).Fatal("resolver stopped")
	}
}
