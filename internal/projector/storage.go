package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// Storage is the slice of the domain store the projector's handlers write
// through. *store.Store satisfies it; tests substitute an in-memory fake so
// the handler logic is exercised without a database.
type Storage interface {
	InTx(ctx context.Context, fn func(ex store.Execer) error) error

	FindEventByID(ctx context.Context, ex store.Execer, schema, id string) (*domain.Event, error)
	UpsertEvent(ctx context.Context, ex store.Execer, schema string, e *domain.Event) error

	UpsertAccount(ctx context.Context, ex store.Execer, schema string, a *domain.Account) error
	FindAccountByID(ctx context.Context, ex store.Execer, schema, id string) (*domain.Account, error)
	GetOrCreateAccount(ctx context.Context, ex store.Execer, schema, id string, defaultLabel string, defaultType domain.AccountType) (*domain.Account, error)

	UpsertAtom(ctx context.Context, ex store.Execer, schema string, a *domain.Atom) error
	FindAtomByID(ctx context.Context, ex store.Execer, schema string, id domain.U256) (*domain.Atom, error)
	UpsertAtomValue(ctx context.Context, ex store.Execer, schema string, av *domain.AtomValue) error

	UpsertTriple(ctx context.Context, ex store.Execer, schema string, t *domain.Triple) error
	FindTripleByVaultID(ctx context.Context, ex store.Execer, schema string, vaultID domain.U256) (*domain.Triple, error)

	UpsertVault(ctx context.Context, ex store.Execer, schema string, v *domain.Vault) error
	FindVaultByID(ctx context.Context, ex store.Execer, schema string, termID domain.U256, curveID int) (*domain.Vault, error)
	AdjustPositionCount(ctx context.Context, ex store.Execer, schema string, termID domain.U256, curveID int, delta int) error
	InsertSharePriceHistory(ctx context.Context, ex store.Execer, schema string, h *domain.SharePriceHistory) error

	UpsertPosition(ctx context.Context, ex store.Execer, schema string, p *domain.Position) error
	FindPositionByID(ctx context.Context, ex store.Execer, schema, id string) (*domain.Position, error)
	FindPositionsByVault(ctx context.Context, ex store.Execer, schema string, termID domain.U256, curveID int) ([]*domain.Position, error)
	DeletePosition(ctx context.Context, ex store.Execer, schema, id string) error

	UpsertClaim(ctx context.Context, ex store.Execer, schema string, c *domain.Claim) error
	FindClaimByID(ctx context.Context, ex store.Execer, schema, id string) (*domain.Claim, error)
	DeleteClaim(ctx context.Context, ex store.Execer, schema, id string) error

	IncrementTripleCount(ctx context.Context, ex store.Execer, schema string, predicateID, objectID domain.U256) error
	IncrementClaimCount(ctx context.Context, ex store.Execer, schema string, predicateID, objectID domain.U256) error
	DecrementClaimCount(ctx context.Context, ex store.Execer, schema string, predicateID, objectID domain.U256) error

	UpsertDeposit(ctx context.Context, ex store.Execer, schema string, d *domain.Deposit) error
	UpsertRedemption(ctx context.Context, ex store.Execer, schema string, r *domain.Redemption) error
	UpsertFeeTransfer(ctx context.Context, ex store.Execer, schema string, f *domain.FeeTransfer) error
	UpsertSignal(ctx context.Context, ex store.Execer, schema string, sig *domain.Signal) error
}
