package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// getOrCreateVault loads the Vault for (termID, curveID), creating it with
// the given share price, zero shares, and zero positions when absent.
// Handlers that need a vault another event would normally have created
// upsert the prerequisite this way instead of failing.
func (p *Projector) getOrCreateVault(ctx context.Context, ex store.Execer, termID domain.U256, curveID int, sharePrice domain.U256) (*domain.Vault, error) {
	existing, err := p.store.FindVaultByID(ctx, ex, p.schema, termID, curveID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	v := &domain.Vault{
		TermID:            termID,
		CurveID:           curveID,
		TotalShares:       domain.ZeroU256(),
		CurrentSharePrice: sharePrice,
		PositionCount:     0,
	}
	if err := p.store.UpsertVault(ctx, ex, p.schema, v); err != nil {
		return nil, err
	}
	return v, nil
}
