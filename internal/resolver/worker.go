// Package resolver enriches newly created atoms and accounts with
// off-chain metadata: content-addressed JSON for atoms, reverse name
// registry lookups for accounts. It only ever touches label, image, and
// resolution-state fields, so it cannot violate the projector's
// share-accounting invariants.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/metrics"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// receiveBatch is how many resolver jobs one loop iteration pulls.
const receiveBatch = 10

// fetchTimeout bounds each external fetch (IPFS gateway, avatar endpoint).
const fetchTimeout = 3 * time.Second

// Storage is the slice of the domain store the resolver writes through.
type Storage interface {
	InTx(ctx context.Context, fn func(ex store.Execer) error) error

	UpsertAtom(ctx context.Context, ex store.Execer, schema string, a *domain.Atom) error
	FindAtomByID(ctx context.Context, ex store.Execer, schema string, id domain.U256) (*domain.Atom, error)
	UpsertAccount(ctx context.Context, ex store.Execer, schema string, a *domain.Account) error

	UpsertPerson(ctx context.Context, ex store.Execer, schema string, p *domain.Person) error
	UpsertOrganization(ctx context.Context, ex store.Execer, schema string, o *domain.Organization) error
	UpsertThing(ctx context.Context, ex store.Execer, schema string, t *domain.Thing) error
	UpsertBook(ctx context.Context, ex store.Execer, schema string, b *domain.Book) error

	FindCachedImageByURL(ctx context.Context, ex store.Execer, schema, url string) (*domain.CachedImage, error)
	UpsertCachedImage(ctx context.Context, ex store.Execer, schema string, c *domain.CachedImage) error
}

// Worker consumes the resolver queue.
type Worker struct {
	jobs       queue.Queue
	imageQueue queue.Queue
	store      Storage
	mainnet    *chain.Client
	schema     string
	gatewayURL string
	httpClient *http.Client
	retry      resilience.HTTPRetryConfig
	log        *logrus.Entry
	metrics    *metrics.Metrics
}

// New constructs a Worker. mainnet is the chain client used for reverse
// name lookups; imageQueue receives pin jobs for resolved image URLs.
func New(jobs, imageQueue queue.Queue, st Storage, mainnet *chain.Client, schema, gatewayURL string, m *metrics.Metrics, log *logrus.Entry) *Worker {
	return &Worker{
		jobs:       jobs,
		imageQueue: imageQueue,
		store:      st,
		mainnet:    mainnet,
		schema:     schema,
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: fetchTimeout},
		retry:      resilience.DefaultHTTPRetryConfig(),
		log:        log,
		metrics:    m,
	}
}

// Run processes resolver jobs until ctx is cancelled, backing off
// exponentially (100ms to 1s) when the queue is empty.
func (w *Worker) Run(ctx context.Context) error {
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

		msgs, err := w.jobs.Receive(ctx, receiveBatch)
		if err != nil {
			w.log.WithError(err).Error("receive resolver jobs")
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
			w.process(ctx, msg)
		}
		w.reportDepth(ctx)
	}
}

// reportDepth feeds the queue depth gauge when the backend can report it.
func (w *Worker) reportDepth(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	if dr, ok := w.jobs.(queue.DepthReporter); ok {
		if d, err := dr.Depth(ctx); err == nil {
			w.metrics.QueueDepth.WithLabelValues("resolver").Set(float64(d))
		}
	}
}

func (w *Worker) process(ctx context.Context, msg queue.Message) {
	kind, err := w.handle(ctx, msg.Body)
	switch {
	case err == nil:
		if err := w.jobs.Delete(ctx, msg.ReceiptID); err != nil {
			w.log.WithError(err).Warn("delete resolver job")
		}
		if w.metrics != nil {
			w.metrics.HandlerSuccess.WithLabelValues("resolver", kind).Inc()
		}
	case errors.As(err, &unresolvableError{}):
		// The atom is already marked Failed; the job is spent.
		w.log.WithError(err).Info("job unresolvable")
		if err := w.jobs.Delete(ctx, msg.ReceiptID); err != nil {
			w.log.WithError(err).Warn("delete resolver job")
		}
		if w.metrics != nil {
			w.metrics.HandlerFailure.WithLabelValues("resolver", kind).Inc()
		}
	default:
		w.log.WithError(err).Error("resolver job failed, leaving for redelivery")
		if w.metrics != nil {
			w.metrics.HandlerFailure.WithLabelValues("resolver", kind).Inc()
		}
	}
}

func (w *Worker) handle(ctx context.Context, body string) (string, error) {
	var msg domain.ResolverMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return "malformed", unresolvableError{fmt.Errorf("unmarshal resolver message: %w", err)}
	}

	switch {
	case msg.Message.Atom != nil:
		return "atom", w.resolveAtom(ctx, &msg.Message.Atom.Atom)
	case msg.Message.Account != nil:
		return "account", w.resolveAccount(ctx, msg.Message.Account)
	default:
		return "malformed", unresolvableError{fmt.Errorf("resolver message carries no job variant")}
	}
}

// enqueuePinJob emits an image-pin job unless the URL was already handled,
// recording it in the cached_image table either way.
func (w *Worker) enqueuePinJob(ctx context.Context, url string) error {
	var seen bool
	err := w.store.InTx(ctx, func(ex store.Execer) error {
		cached, err := w.store.FindCachedImageByURL(ctx, ex, w.schema, url)
		if err != nil {
			return err
		}
		if cached != nil {
			seen = true
			return nil
		}
		return w.store.UpsertCachedImage(ctx, ex, w.schema, &domain.CachedImage{
			URL:        url,
			CachedPath: url,
			FetchedAt:  time.Now().UTC(),
		})
	})
	if err != nil || seen {
		return err
	}

	body, err := json.Marshal(&domain.PinImageMessage{URL: url})
	if err != nil {
		return fmt.Errorf("marshal pin job: %w", err)
	}
	return w.imageQueue.Send(ctx, string(body), "images")
}

// unresolvableError marks a job whose payload can never resolve; the atom
// involved has been marked Failed and the message is deleted.
type unresolvableError struct{ err error }

func (e unresolvableError) Error() string { return e.err.Error() }
func (e unresolvableError) Unwrap() error { return e.err }

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
