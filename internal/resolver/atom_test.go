package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/queue"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

type fakeStore struct {
	atoms    map[string]*domain.Atom
	accounts map[string]*domain.Account
	persons  map[string]*domain.Person
	orgs     map[string]*domain.Organization
	things   map[string]*domain.Thing
	books    map[string]*domain.Book
	images   map[string]*domain.CachedImage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		atoms:    make(map[string]*domain.Atom),
		accounts: make(map[string]*domain.Account),
		persons:  make(map[string]*domain.Person),
		orgs:     make(map[string]*domain.Organization),
		things:   make(map[string]*domain.Thing),
		books:    make(map[string]*domain.Book),
		images:   make(map[string]*domain.CachedImage),
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ex store.Execer) error) error {
	return fn(nil)
}

func (f *fakeStore) UpsertAtom(_ context.Context, _ store.Execer, _ string, a *domain.Atom) error {
	cp := *a
	f.atoms[a.ID.String()] = &cp
	return nil
}

func (f *fakeStore) FindAtomByID(_ context.Context, _ store.Execer, _ string, id domain.U256) (*domain.Atom, error) {
	if a, ok := f.atoms[id.String()]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertAccount(_ context.Context, _ store.Execer, _ string, a *domain.Account) error {
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeStore) UpsertPerson(_ context.Context, _ store.Execer, _ string, p *domain.Person) error {
	cp := *p
	f.persons[p.ID.String()] = &cp
	return nil
}

func (f *fakeStore) UpsertOrganization(_ context.Context, _ store.Execer, _ string, o *domain.Organization) error {
	cp := *o
	f.orgs[o.ID.String()] = &cp
	return nil
}

func (f *fakeStore) UpsertThing(_ context.Context, _ store.Execer, _ string, th *domain.Thing) error {
	cp := *th
	f.things[th.ID.String()] = &cp
	return nil
}

func (f *fakeStore) UpsertBook(_ context.Context, _ store.Execer, _ string, b *domain.Book) error {
	cp := *b
	f.books[b.ID.String()] = &cp
	return nil
}

func (f *fakeStore) FindCachedImageByURL(_ context.Context, _ store.Execer, _ string, url string) (*domain.CachedImage, error) {
	if c, ok := f.images[url]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertCachedImage(_ context.Context, _ store.Execer, _ string, c *domain.CachedImage) error {
	cp := *c
	f.images[c.URL] = &cp
	return nil
}

func newTestWorker(fs *fakeStore, gatewayURL string) (*Worker, *queue.MemQueue) {
	imageQ := queue.New()
	w := New(queue.New(), imageQ, fs, nil, "test_schema", gatewayURL, nil, logrus.WithField("test", true))
	return w, imageQ
}

func pendingAtom(id uint64, data string) *domain.Atom {
	return &domain.Atom{
		ID:              domain.U256FromUint64(id),
		VaultID:         domain.U256FromUint64(id),
		Data:            &data,
		AtomType:        domain.AtomTypeUnknown,
		ResolvingStatus: domain.ResolvingPending,
	}
}

func TestResolveAtomFromIPFSPerson(t *testing.T) {
	payload := "\uFEFF" + `{"@context":"https://schema.org","@type":"Person","name":"Alice","image":"https://img.example/alice.png"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/QmX" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	fs := newFakeStore()
	w, imageQ := newTestWorker(fs, srv.URL)

	atom := pendingAtom(10, "ipfs://QmX")
	if err := w.resolveAtom(context.Background(), atom); err != nil {
		t.Fatalf("resolveAtom: %v", err)
	}

	person := fs.persons["10"]
	if person == nil {
		t.Fatal("person row not created")
	}
	if person.Name != "Alice" {
		t.Errorf("expected name Alice, got %s", person.Name)
	}

	saved := fs.atoms["10"]
	if saved == nil {
		t.Fatal("atom not updated")
	}
	if saved.AtomType != domain.AtomTypePerson {
		t.Errorf("expected Person, got %s", saved.AtomType)
	}
	if saved.Label == nil || *saved.Label != "Alice" {
		t.Errorf("expected label Alice, got %v", saved.Label)
	}
	if saved.ResolvingStatus != domain.ResolvingResolved {
		t.Errorf("expected Resolved, got %s", saved.ResolvingStatus)
	}

	if imageQ.Len() != 1 {
		t.Errorf("expected 1 pin job, got %d", imageQ.Len())
	}
}

func TestResolveAtomInlineJSONThing(t *testing.T) {
	fs := newFakeStore()
	w, imageQ := newTestWorker(fs, "http://unused")

	data := `{"@context":"https://schema.org","@type":"Thing","name":"Widget","description":"A widget"}`
	atom := pendingAtom(11, data)
	if err := w.resolveAtom(context.Background(), atom); err != nil {
		t.Fatalf("resolveAtom: %v", err)
	}

	thing := fs.things["11"]
	if thing == nil {
		t.Fatal("thing row not created")
	}
	if thing.Description == nil || *thing.Description != "A widget" {
		t.Errorf("expected description, got %v", thing.Description)
	}
	if imageQ.Len() != 0 {
		t.Errorf("expected no pin job without image, got %d", imageQ.Len())
	}
}

func TestResolveAtomUnrecognizedPayloadFails(t *testing.T) {
	fs := newFakeStore()
	w, _ := newTestWorker(fs, "http://unused")

	atom := pendingAtom(12, "just some text")
	err := w.resolveAtom(context.Background(), atom)
	if err == nil {
		t.Fatal("expected unresolvable error")
	}
	var unres unresolvableError
	if !errors.As(err, &unres) {
		t.Fatalf("expected unresolvableError, got %T", err)
	}

	saved := fs.atoms["12"]
	if saved == nil || saved.ResolvingStatus != domain.ResolvingFailed {
		t.Errorf("expected Failed atom, got %+v", saved)
	}
}

func TestResolveAtomUnknownSchemaTypeFails(t *testing.T) {
	fs := newFakeStore()
	w, _ := newTestWorker(fs, "http://unused")

	data := `{"@context":"https://schema.org","@type":"Rocket","name":"Saturn V"}`
	atom := pendingAtom(13, data)
	if err := w.resolveAtom(context.Background(), atom); err == nil {
		t.Fatal("expected unresolvable error")
	}
	saved := fs.atoms["13"]
	if saved == nil || saved.ResolvingStatus != domain.ResolvingFailed {
		t.Errorf("expected Failed atom, got %+v", saved)
	}
}

func TestPinJobDedupedByCachedImage(t *testing.T) {
	fs := newFakeStore()
	w, imageQ := newTestWorker(fs, "http://unused")

	url := "https://img.example/a.png"
	if err := w.enqueuePinJob(context.Background(), url); err != nil {
		t.Fatalf("first pin: %v", err)
	}
	if err := w.enqueuePinJob(context.Background(), url); err != nil {
		t.Fatalf("second pin: %v", err)
	}
	if imageQ.Len() != 1 {
		t.Errorf("expected 1 pin job after dedup, got %d", imageQ.Len())
	}
}

func TestNamehash(t *testing.T) {
	// Zero node for the empty name, per the registry's hashing rules.
	if got := namehash(""); got != [32]byte{} {
		t.Errorf("expected zero node, got %x", got)
	}

	// Known vector: namehash("eth").
	want := "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"
	if got := fmt.Sprintf("%x", namehash("eth")); got != want {
		t.Errorf("namehash(eth) = %s, want %s", got, want)
	}
}
