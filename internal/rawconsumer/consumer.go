// Package rawconsumer relays raw logs to the decoded queue: dequeue, ABI
// decode, publish the typed message, and delete the raw message only after
// the decoded one has been accepted. Unknown-topic logs are logged and
// dropped since they are non-actionable.
package rawconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/abi"
	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/metrics"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
)

// receiveBatch is how many raw messages one loop iteration pulls.
const receiveBatch = 10

// Consumer is the raw→decoded relay worker.
type Consumer struct {
	raw     queue.Queue
	decoded queue.Queue
	log     *logrus.Entry
	metrics *metrics.Metrics
}

// New constructs a Consumer.
func New(raw, decoded queue.Queue, m *metrics.Metrics, log *logrus.Entry) *Consumer {
	return &Consumer{raw: raw, decoded: decoded, metrics: m, log: log}
}

// Run processes the raw queue until ctx is cancelled, backing off
// exponentially (100ms to 1s) when no messages are available.
func (c *Consumer) Run(ctx context.Context) error {
	idle := resilience.NewPollBackoff(resilience.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := c.raw.Receive(ctx, receiveBatch)
		if err != nil {
			c.log.WithError(err).Error("receive raw messages")
			if !sleep(ctx, idle.Next()) {
				return ctx.Err()
			}
			continue
		}
		if len(msgs) == 0 {
			if !sleep(ctx, idle.Next()) {
				return ctx.Err()
			}
			continue
		}
		idle.Reset()

		for _, msg := range msgs {
			c.process(ctx, msg)
		}
		c.reportDepth(ctx)
	}
}

// reportDepth feeds the queue depth gauge when the backend can report it.
func (c *Consumer) reportDepth(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	if dr, ok := c.raw.(queue.DepthReporter); ok {
		if d, err := dr.Depth(ctx); err == nil {
			c.metrics.QueueDepth.WithLabelValues("raw").Set(float64(d))
		}
	}
}

// process relays one raw message. The raw message is deleted when the
// decoded message was accepted, or when the log is permanently
// non-actionable (unknown topic, malformed payload); transient publish
// failures leave it for redelivery after the visibility timeout.
func (c *Consumer) process(ctx context.Context, msg queue.Message) {
	decoded, err := c.relay(ctx, msg)
	switch {
	case err == nil:
		if err := c.raw.Delete(ctx, msg.ReceiptID); err != nil {
			c.log.WithError(err).Warn("delete raw message")
		}
		if c.metrics != nil {
			c.metrics.HandlerSuccess.WithLabelValues("raw_consumer", string(decoded)).Inc()
		}
	case isPermanent(err):
		c.log.WithError(err).Warn("dropping non-actionable raw message")
		if err := c.raw.Delete(ctx, msg.ReceiptID); err != nil {
			c.log.WithError(err).Warn("delete raw message")
		}
		if c.metrics != nil {
			c.metrics.HandlerFailure.WithLabelValues("raw_consumer", "decode").Inc()
		}
	default:
		c.log.WithError(err).Error("relay raw message, leaving for redelivery")
		if c.metrics != nil {
			c.metrics.HandlerFailure.WithLabelValues("raw_consumer", "transient").Inc()
		}
	}
}

// relay decodes the raw log and publishes the decoded message, returning
// the event kind on success.
func (c *Consumer) relay(ctx context.Context, msg queue.Message) (abi.Kind, error) {
	var raw domain.RawLog
	if err := json.Unmarshal([]byte(msg.Body), &raw); err != nil {
		return "", permanentError{fmt.Errorf("unmarshal raw log: %w", err)}
	}

	topics := make([]common.Hash, 0, len(raw.Topics))
	for _, t := range raw.Topics {
		topics = append(topics, common.HexToHash(t))
	}

	event, err := abi.Decode(topics, common.FromHex(raw.Data))
	if err != nil {
		return "", permanentError{fmt.Errorf("decode log %s: %w", raw.GSID, err)}
	}
	if event.Kind == abi.KindUnknown {
		topic0 := ""
		if event.Unknown != nil {
			topic0 = event.Unknown.Topic0
		}
		return "", permanentError{fmt.Errorf("unknown topic %s in log %s", topic0, raw.GSID)}
	}

	out := domain.DecodedMessage{
		Body:            convert(event),
		BlockNumber:     raw.BlockNumber,
		BlockTimestamp:  raw.BlockTimestamp,
		TransactionHash: raw.TransactionHash,
		LogIndex:        raw.LogIndex,
	}
	body, err := json.Marshal(&out)
	if err != nil {
		return "", permanentError{fmt.Errorf("marshal decoded message: %w", err)}
	}

	if err := c.decoded.Send(ctx, string(body), msg.GroupID); err != nil {
		return "", fmt.Errorf("publish decoded message: %w", err)
	}
	return event.Kind, nil
}

// permanentError marks a message the queue cannot usefully redeliver.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	_, ok := err.(permanentError)
	return ok
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
