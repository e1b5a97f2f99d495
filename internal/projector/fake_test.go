package projector

import (
	"context"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// fakeStore is an in-memory Storage implementation; every method keys rows
// the same way the Postgres store does so handler logic is exercised
// without a database.
type fakeStore struct {
	events     map[string]*domain.Event
	accounts   map[string]*domain.Account
	atoms      map[string]*domain.Atom
	atomValues map[string]*domain.AtomValue
	triples    map[string]*domain.Triple
	vaults     map[string]*domain.Vault
	positions  map[string]*domain.Position
	claims     map[string]*domain.Claim
	predObjs   map[string]*domain.PredicateObject
	deposits   map[string]*domain.Deposit
	redemption map[string]*domain.Redemption
	fees       map[string]*domain.FeeTransfer
	signals    map[string]*domain.Signal
	history    []domain.SharePriceHistory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:     make(map[string]*domain.Event),
		accounts:   make(map[string]*domain.Account),
		atoms:      make(map[string]*domain.Atom),
		atomValues: make(map[string]*domain.AtomValue),
		triples:    make(map[string]*domain.Triple),
		vaults:     make(map[string]*domain.Vault),
		positions:  make(map[string]*domain.Position),
		claims:     make(map[string]*domain.Claim),
		predObjs:   make(map[string]*domain.PredicateObject),
		deposits:   make(map[string]*domain.Deposit),
		redemption: make(map[string]*domain.Redemption),
		fees:       make(map[string]*domain.FeeTransfer),
		signals:    make(map[string]*domain.Signal),
	}
}

func vaultKey(termID domain.U256, curveID int) string {
	return fmt.Sprintf("%s-%d", termID.String(), curveID)
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ex store.Execer) error) error {
	return fn(nil)
}

func (f *fakeStore) FindEventByID(_ context.Context, _ store.Execer, _ string, id string) (*domain.Event, error) {
	if e, ok := f.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertEvent(_ context.Context, _ store.Execer, _ string, e *domain.Event) error {
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) UpsertAccount(_ context.Context, _ store.Execer, _ string, a *domain.Account) error {
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeStore) FindAccountByID(_ context.Context, _ store.Execer, _ string, id string) (*domain.Account, error) {
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) GetOrCreateAccount(ctx context.Context, ex store.Execer, schema, id string, defaultLabel string, defaultType domain.AccountType) (*domain.Account, error) {
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	a := &domain.Account{ID: id, Label: defaultLabel, Type: defaultType}
	f.accounts[id] = a
	cp := *a
	return &cp, nil
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

func (f *fakeStore) UpsertAtomValue(_ context.Context, _ store.Execer, _ string, av *domain.AtomValue) error {
	cp := *av
	f.atomValues[av.AtomID.String()] = &cp
	return nil
}

func (f *fakeStore) UpsertTriple(_ context.Context, _ store.Execer, _ string, t *domain.Triple) error {
	if _, ok := f.triples[t.TermID.String()]; ok {
		return nil
	}
	cp := *t
	f.triples[t.TermID.String()] = &cp
	return nil
}

func (f *fakeStore) FindTripleByVaultID(_ context.Context, _ store.Execer, _ string, vaultID domain.U256) (*domain.Triple, error) {
	for _, t := range f.triples {
		if t.TermID.Cmp(vaultID) == 0 || t.CounterTermID.Cmp(vaultID) == 0 {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpsertVault(_ context.Context, _ store.Execer, _ string, v *domain.Vault) error {
	cp := *v
	f.vaults[vaultKey(v.TermID, v.CurveID)] = &cp
	return nil
}

func (f *fakeStore) FindVaultByID(_ context.Context, _ store.Execer, _ string, termID domain.U256, curveID int) (*domain.Vault, error) {
	if v, ok := f.vaults[vaultKey(termID, curveID)]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) AdjustPositionCount(_ context.Context, _ store.Execer, _ string, termID domain.U256, curveID int, delta int) error {
	if v, ok := f.vaults[vaultKey(termID, curveID)]; ok {
		v.PositionCount += delta
	}
	return nil
}

func (f *fakeStore) InsertSharePriceHistory(_ context.Context, _ store.Execer, _ string, h *domain.SharePriceHistory) error {
	for _, existing := range f.history {
		if existing.TermID.Cmp(h.TermID) == 0 && existing.CurveID == h.CurveID && existing.BlockTimestamp == h.BlockTimestamp {
			return nil
		}
	}
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeStore) UpsertPosition(_ context.Context, _ store.Execer, _ string, p *domain.Position) error {
	cp := *p
	f.positions[p.ID] = &cp
	return nil
}

func (f *fakeStore) FindPositionByID(_ context.Context, _ store.Execer, _ string, id string) (*domain.Position, error) {
	if p, ok := f.positions[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) FindPositionsByVault(_ context.Context, _ store.Execer, _ string, termID domain.U256, curveID int) ([]*domain.Position, error) {
	var out []*domain.Position
	for _, p := range f.positions {
		if p.TermID.Cmp(termID) == 0 && p.CurveID == curveID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePosition(_ context.Context, _ store.Execer, _ string, id string) error {
	delete(f.positions, id)
	return nil
}

func (f *fakeStore) UpsertClaim(_ context.Context, _ store.Execer, _ string, c *domain.Claim) error {
	cp := *c
	f.claims[c.ID] = &cp
	return nil
}

func (f *fakeStore) FindClaimByID(_ context.Context, _ store.Execer, _ string, id string) (*domain.Claim, error) {
	if c, ok := f.claims[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) DeleteClaim(_ context.Context, _ store.Execer, _ string, id string) error {
	delete(f.claims, id)
	return nil
}

func (f *fakeStore) predObj(predicateID, objectID domain.U256) *domain.PredicateObject {
	id := domain.PredicateObjectID(predicateID, objectID)
	po, ok := f.predObjs[id]
	if !ok {
		po = &domain.PredicateObject{ID: id, PredicateID: predicateID, ObjectID: objectID}
		f.predObjs[id] = po
	}
	return po
}

func (f *fakeStore) IncrementTripleCount(_ context.Context, _ store.Execer, _ string, predicateID, objectID domain.U256) error {
	f.predObj(predicateID, objectID).TripleCount++
	return nil
}

func (f *fakeStore) IncrementClaimCount(_ context.Context, _ store.Execer, _ string, predicateID, objectID domain.U256) error {
	f.predObj(predicateID, objectID).ClaimCount++
	return nil
}

func (f *fakeStore) DecrementClaimCount(_ context.Context, _ store.Execer, _ string, predicateID, objectID domain.U256) error {
	po := f.predObj(predicateID, objectID)
	if po.ClaimCount > 0 {
		po.ClaimCount--
	}
	return nil
}

func (f *fakeStore) UpsertDeposit(_ context.Context, _ store.Execer, _ string, d *domain.Deposit) error {
	cp := *d
	f.deposits[d.ID] = &cp
	return nil
}

func (f *fakeStore) UpsertRedemption(_ context.Context, _ store.Execer, _ string, r *domain.Redemption) error {
	cp := *r
	f.redemption[r.ID] = &cp
	return nil
}

func (f *fakeStore) UpsertFeeTransfer(_ context.Context, _ store.Execer, _ string, ft *domain.FeeTransfer) error {
	cp := *ft
	f.fees[ft.ID] = &cp
	return nil
}

func (f *fakeStore) UpsertSignal(_ context.Context, _ store.Execer, _ string, sig *domain.Signal) error {
	cp := *sig
	f.signals[sig.ID] = &cp
	return nil
}

// fakeReader is a canned chain.Reader.
type fakeReader struct {
	sharePrice  domain.U256
	totalShares domain.U256
	atomData    []byte
}

func (r *fakeReader) CurrentSharePrice(_ context.Context, _ domain.U256, _ int, _ int64) (domain.U256, error) {
	return r.sharePrice, nil
}

func (r *fakeReader) TotalSharesInVault(_ context.Context, _ domain.U256, _ int, _ int64) (domain.U256, error) {
	return r.totalShares, nil
}

func (r *fakeReader) CounterIDFromTriple(_ context.Context, termID domain.U256) (domain.U256, error) {
	return domain.CounterTermID(termID), nil
}

func (r *fakeReader) AtomData(_ context.Context, _ domain.U256) ([]byte, error) {
	return r.atomData, nil
}
