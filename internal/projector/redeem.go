package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// handleRedeemed projects a Redeemed/RedeemedCurve event: accounts, vault
// refresh with the redeemed shares subtracted, the redemption audit row,
// position/claim teardown or update, a negative signal, and the event row.
func (p *Projector) handleRedeemed(ctx context.Context, ev *domain.RedeemedEvent, msg *domain.DecodedMessage) error {
	eventID := msg.EventID()
	vaultID := ev.VaultID
	curveID := int(ev.CurveID.Uint64())

	sharePrice, err := p.chain.CurrentSharePrice(ctx, vaultID, curveID, msg.BlockNumber)
	if err != nil {
		return err
	}

	return p.store.InTx(ctx, func(ex store.Execer) error {
		existing, err := p.store.FindEventByID(ctx, ex, p.schema, eventID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.Sender, domain.ShortID(ev.Sender), domain.AccountTypeDefault); err != nil {
			return err
		}
		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.Receiver, domain.ShortID(ev.Receiver), domain.AccountTypeDefault); err != nil {
			return err
		}

		triple, err := p.store.FindTripleByVaultID(ctx, ex, p.schema, vaultID)
		if err != nil {
			return err
		}

		vault, err := p.getOrCreateVault(ctx, ex, vaultID, curveID, sharePrice)
		if err != nil {
			return err
		}
		vault.CurrentSharePrice = sharePrice
		vault.TotalShares = vault.TotalShares.Sub(ev.SharesRedeemedBySender)
		if err := p.store.UpsertVault(ctx, ex, p.schema, vault); err != nil {
			return err
		}

		if err := p.store.UpsertRedemption(ctx, ex, p.schema, &domain.Redemption{
			ID:                       eventID,
			SenderID:                 ev.Sender,
			ReceiverID:               ev.Receiver,
			VaultID:                  vaultID,
			CurveID:                  curveID,
			SharesRedeemedBySender:   ev.SharesRedeemedBySender,
			SenderTotalSharesInVault: ev.SenderTotalSharesInVault,
			AssetsForReceiver:        ev.AssetsForReceiver,
			BlockNumber:              domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:           msg.BlockTimestamp,
			TransactionHash:          msg.TransactionHash,
		}); err != nil {
			return err
		}

		if ev.SenderTotalSharesInVault.IsZero() {
			if err := p.teardownPosition(ctx, ex, ev, triple, curveID); err != nil {
				return err
			}
		} else {
			positionID := domain.PositionID(vaultID, curveID, ev.Sender)
			if err := p.store.UpsertPosition(ctx, ex, p.schema, &domain.Position{
				ID:        positionID,
				AccountID: ev.Sender,
				TermID:    vaultID,
				CurveID:   curveID,
				Shares:    ev.SenderTotalSharesInVault,
			}); err != nil {
				return err
			}
			if triple != nil {
				if _, err := p.upsertClaimSide(ctx, ex, triple, curveID, ev.Sender, positionID, vaultID, ev.SenderTotalSharesInVault); err != nil {
					return err
				}
			}
		}

		if !ev.AssetsForReceiver.IsZero() {
			signal := &domain.Signal{
				ID:              eventID,
				AccountID:       ev.Sender,
				Delta:           "-" + ev.AssetsForReceiver.String(),
				BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
				BlockTimestamp:  msg.BlockTimestamp,
				TransactionHash: msg.TransactionHash,
			}
			if triple != nil {
				signal.TripleID = &triple.TermID
			} else {
				signal.AtomID = &vaultID
			}
			if err := p.store.UpsertSignal(ctx, ex, p.schema, signal); err != nil {
				return err
			}
		}

		return p.store.UpsertEvent(ctx, ex, p.schema, &domain.Event{
			ID:              eventID,
			EventType:       domain.EventRedeemed,
			RedemptionID:    &eventID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		})
	})
}

// teardownPosition removes the sender's now-empty Position, decrements the
// vault's position_count, and deletes the matching Claim in the same
// transaction, per the position/claim consistency invariant.
func (p *Projector) teardownPosition(ctx context.Context, ex store.Execer, ev *domain.RedeemedEvent, triple *domain.Triple, curveID int) error {
	positionID := domain.PositionID(ev.VaultID, curveID, ev.Sender)
	existing, err := p.store.FindPositionByID(ctx, ex, p.schema, positionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := p.store.DeletePosition(ctx, ex, p.schema, positionID); err != nil {
		return err
	}
	if err := p.store.AdjustPositionCount(ctx, ex, p.schema, ev.VaultID, curveID, -1); err != nil {
		return err
	}

	if triple != nil {
		deleted, err := p.deleteClaim(ctx, ex, triple, curveID, ev.Sender)
		if err != nil {
			return err
		}
		if deleted {
			if err := p.store.DecrementClaimCount(ctx, ex, p.schema, triple.PredicateID, triple.ObjectID); err != nil {
				return err
			}
		}
	}
	return nil
}
