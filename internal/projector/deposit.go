package projector

import (
	"context"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// handleDeposited projects a Deposited/DepositedCurve event: accounts,
// vault refresh, the deposit audit row, position and claim upkeep, a
// signal for the spent assets, and the event row. The plain Deposited
// variant arrives with the default curve already filled in.
func (p *Projector) handleDeposited(ctx context.Context, ev *domain.DepositedEvent, msg *domain.DecodedMessage) error {
	eventID := msg.EventID()
	vaultID := ev.VaultID
	curveID := int(ev.CurveID.Uint64())

	sharePrice, err := p.chain.CurrentSharePrice(ctx, vaultID, curveID, msg.BlockNumber)
	if err != nil {
		return err
	}
	totalShares, err := p.chain.TotalSharesInVault(ctx, vaultID, curveID, msg.BlockNumber)
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

		var triple *domain.Triple
		if ev.IsTriple {
			triple, err = p.store.FindTripleByVaultID(ctx, ex, p.schema, vaultID)
			if err != nil {
				return err
			}
			if triple == nil {
				// The TripleCreated log is in another group and has not
				// landed yet; fail the message so it is redelivered.
				return fmt.Errorf("triple for vault %s not yet projected", vaultID.String())
			}
		}

		vault, err := p.getOrCreateVault(ctx, ex, vaultID, curveID, sharePrice)
		if err != nil {
			return err
		}
		vault.CurrentSharePrice = sharePrice
		vault.TotalShares = totalShares
		if err := p.store.UpsertVault(ctx, ex, p.schema, vault); err != nil {
			return err
		}

		if err := p.store.UpsertDeposit(ctx, ex, p.schema, &domain.Deposit{
			ID:                         eventID,
			SenderID:                   ev.Sender,
			ReceiverID:                 ev.Receiver,
			VaultID:                    vaultID,
			CurveID:                    curveID,
			SharesForReceiver:          ev.SharesForReceiver,
			ReceiverTotalSharesInVault: ev.ReceiverTotalSharesInVault,
			SenderAssetsAfterTotalFees: ev.SenderAssetsAfterTotalFees,
			IsTriple:                   ev.IsTriple,
			BlockNumber:                domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:             msg.BlockTimestamp,
			TransactionHash:            msg.TransactionHash,
		}); err != nil {
			return err
		}

		if err := p.applyDepositPosition(ctx, ex, ev, triple, curveID); err != nil {
			return err
		}

		if !ev.SenderAssetsAfterTotalFees.IsZero() {
			signal := &domain.Signal{
				ID:              eventID,
				AccountID:       ev.Sender,
				Delta:           ev.SenderAssetsAfterTotalFees.String(),
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
			EventType:       domain.EventDeposited,
			DepositID:       &eventID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		})
	})
}

// applyDepositPosition reconciles the receiver's Position (and, for triple
// vaults, Claim) with the post-deposit share balance the event reports.
// The vault's position_count moves only when a Position row is actually
// created; teardown of a zero balance belongs to the Redeemed handler.
func (p *Projector) applyDepositPosition(ctx context.Context, ex store.Execer, ev *domain.DepositedEvent, triple *domain.Triple, curveID int) error {
	if ev.ReceiverTotalSharesInVault.IsZero() {
		return nil
	}

	positionID := domain.PositionID(ev.VaultID, curveID, ev.Receiver)
	existing, err := p.store.FindPositionByID(ctx, ex, p.schema, positionID)
	if err != nil {
		return err
	}

	if err := p.store.UpsertPosition(ctx, ex, p.schema, &domain.Position{
		ID:        positionID,
		AccountID: ev.Receiver,
		TermID:    ev.VaultID,
		CurveID:   curveID,
		Shares:    ev.ReceiverTotalSharesInVault,
	}); err != nil {
		return err
	}

	if existing == nil {
		if err := p.store.AdjustPositionCount(ctx, ex, p.schema, ev.VaultID, curveID, 1); err != nil {
			return err
		}
	}

	if triple != nil {
		created, err := p.upsertClaimSide(ctx, ex, triple, curveID, ev.Receiver, positionID, ev.VaultID, ev.ReceiverTotalSharesInVault)
		if err != nil {
			return err
		}
		if created {
			if err := p.store.IncrementClaimCount(ctx, ex, p.schema, triple.PredicateID, triple.ObjectID); err != nil {
				return err
			}
		}
	}
	return nil
}
