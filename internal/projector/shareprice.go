package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// handleSharePriceChanged updates the vault's price and total shares,
// creating the vault when the price change arrives before any deposit on
// it, and appends a history row. Every write is keyed by stable identity,
// so no event-table replay guard is needed.
func (p *Projector) handleSharePriceChanged(ctx context.Context, ev *domain.SharePriceChangedEvent, msg *domain.DecodedMessage) error {
	curveID := int(ev.CurveID.Uint64())

	return p.store.InTx(ctx, func(ex store.Execer) error {
		vault, err := p.getOrCreateVault(ctx, ex, ev.TermID, curveID, ev.NewSharePrice)
		if err != nil {
			return err
		}
		vault.CurrentSharePrice = ev.NewSharePrice
		vault.TotalShares = ev.TotalShares
		if err := p.store.UpsertVault(ctx, ex, p.schema, vault); err != nil {
			return err
		}

		return p.store.InsertSharePriceHistory(ctx, ex, p.schema, &domain.SharePriceHistory{
			TermID:         ev.TermID,
			CurveID:        curveID,
			SharePrice:     ev.NewSharePrice,
			TotalShares:    ev.TotalShares,
			BlockTimestamp: msg.BlockTimestamp,
		})
	})
}
