// Package projector consumes decoded events and applies each one as a
// deterministic set of upserts, deletes, and follow-up enqueues against
// the domain store, maintaining share accounting, position/claim
// consistency, and the per-(predicate, object) aggregates.
package projector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/metrics"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
)

// receiveBatch is how many decoded messages one loop iteration pulls.
const receiveBatch = 10

// Projector is the decoded-event worker. Handlers run sequentially within
// one Projector to preserve per-group order; horizontal concurrency comes
// from running multiple projectors against distinct queue groups.
type Projector struct {
	store    Storage
	chain    chain.Reader
	decoded  queue.Queue
	resolver queue.Queue
	schema   string
	log      *logrus.Entry
	metrics  *metrics.Metrics
}

// New constructs a Projector.
func New(st Storage, reader chain.Reader, decoded, resolver queue.Queue, schema string, m *metrics.Metrics, log *logrus.Entry) *Projector {
	return &Projector{
		store:    st,
		chain:    reader,
		decoded:  decoded,
		resolver: resolver,
		schema:   schema,
		metrics:  m,
		log:      log,
	}
}

// Run processes the decoded queue until ctx is cancelled, backing off
// exponentially (100ms to 1s) when no messages are available.
func (p *Projector) Run(ctx context.Context) error {
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

		msgs, err := p.decoded.Receive(ctx, receiveBatch)
		if err != nil {
			p.log.WithError(err).Error("receive decoded messages")
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
			p.process(ctx, msg)
		}
		p.reportDepth(ctx)
	}
}

// reportDepth feeds the queue depth gauge when the backend can report it.
func (p *Projector) reportDepth(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	if dr, ok := p.decoded.(queue.DepthReporter); ok {
		if d, err := dr.Depth(ctx); err == nil {
			p.metrics.QueueDepth.WithLabelValues("decoded").Set(float64(d))
		}
	}
}

// process applies one queue message. Success and permanent failures delete
// the message; transient failures leave it so the visibility timeout
// redelivers it.
func (p *Projector) process(ctx context.Context, msg queue.Message) {
	var decoded domain.DecodedMessage
	if err := json.Unmarshal([]byte(msg.Body), &decoded); err != nil {
		p.log.WithError(err).Warn("dropping malformed decoded message")
		if err := p.decoded.Delete(ctx, msg.ReceiptID); err != nil {
			p.log.WithError(err).Warn("delete decoded message")
		}
		p.countFailure("malformed")
		return
	}

	kind, err := p.Handle(ctx, &decoded)
	switch {
	case err == nil:
		if err := p.decoded.Delete(ctx, msg.ReceiptID); err != nil {
			p.log.WithError(err).Warn("delete decoded message")
		}
		p.countSuccess(kind)
	case isPermanent(err):
		p.log.WithError(err).WithField("event", kind).Warn("dropping unprocessable message")
		if err := p.decoded.Delete(ctx, msg.ReceiptID); err != nil {
			p.log.WithError(err).Warn("delete decoded message")
		}
		p.countFailure(kind)
	default:
		p.log.WithError(err).WithField("event", kind).Error("handler failed, leaving for redelivery")
		p.countFailure(kind)
	}
}

// Handle dispatches one decoded message to its typed handler and returns
// the event kind it carried.
func (p *Projector) Handle(ctx context.Context, msg *domain.DecodedMessage) (string, error) {
	b := msg.Body
	switch {
	case b.AtomCreated != nil:
		return "AtomCreated", p.handleAtomCreated(ctx, b.AtomCreated, msg)
	case b.TripleCreated != nil:
		return "TripleCreated", p.handleTripleCreated(ctx, b.TripleCreated, msg)
	case b.Deposited != nil:
		return "Deposited", p.handleDeposited(ctx, b.Deposited, msg)
	case b.DepositedCurve != nil:
		return "DepositedCurve", p.handleDeposited(ctx, b.DepositedCurve, msg)
	case b.Redeemed != nil:
		return "Redeemed", p.handleRedeemed(ctx, b.Redeemed, msg)
	case b.RedeemedCurve != nil:
		return "RedeemedCurve", p.handleRedeemed(ctx, b.RedeemedCurve, msg)
	case b.SharePriceChanged != nil:
		return "SharePriceChanged", p.handleSharePriceChanged(ctx, b.SharePriceChanged, msg)
	case b.SharePriceChangedCurve != nil:
		return "SharePriceChangedCurve", p.handleSharePriceChanged(ctx, b.SharePriceChangedCurve, msg)
	case b.FeesTransferred != nil:
		return "FeesTransferred", p.handleFeesTransferred(ctx, b.FeesTransferred, msg)
	default:
		return "unknown", permanent(fmt.Errorf("decoded message carries no recognized variant"))
	}
}

func (p *Projector) countSuccess(kind string) {
	if p.metrics != nil {
		p.metrics.HandlerSuccess.WithLabelValues("projector", kind).Inc()
	}
}

func (p *Projector) countFailure(kind string) {
	if p.metrics != nil {
		p.metrics.HandlerFailure.WithLabelValues("projector", kind).Inc()
	}
}

// enqueueResolveAtom publishes a resolver job for an atom left Pending.
// Enqueues happen after the handler's transaction commits; a crash in
// between is absorbed on replay because the whole message is redelivered.
func (p *Projector) enqueueResolveAtom(ctx context.Context, atom *domain.Atom) error {
	body, err := json.Marshal(&domain.ResolverMessage{
		Message: domain.ResolverMessageBody{Atom: &domain.ResolveAtomJob{Atom: *atom}},
	})
	if err != nil {
		return fmt.Errorf("marshal resolver message: %w", err)
	}
	if err := p.resolver.Send(ctx, string(body), atom.ID.String()); err != nil {
		return fmt.Errorf("enqueue resolver job for atom %s: %w", atom.ID.String(), err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
