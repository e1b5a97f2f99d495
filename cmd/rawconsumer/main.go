package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xintuition/intuition-indexer/internal/app"
	"github.com/0xintuition/intuition-indexer/internal/rawconsumer"
)

func main() {
	a, err := app.Bootstrap("raw-consumer")
	if err != nil {
		os.Stderr.WriteString("raw-consumer: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rawQueue, err := a.Queue(ctx, a.Cfg.RawConsumerQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open raw queue")
	}
	decodedQueue, err := a.Queue(ctx, a.Cfg.DecodedLogsQueueURL)
	if err != nil {
		a.Log.WithError(err).Fatal("open decoded queue")
	}

	c := rawconsumer.New(rawQueue, decodedQueue, a.Metrics, a.Log)

	a.ServeMetrics(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		a.Log.Info("shutting down")
		cancel()
	}()

	if err := c.Run(ctx); err != nil && err != context.Canceled {
		a.Log.WithError(err).Fatal("raw consumer stopped")
	}
}
