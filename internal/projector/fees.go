package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// handleFeesTransferred projects a FeesTransferred event: the sender and
// protocol-multisig accounts, the fee-transfer audit row, and the event
// row.
func (p *Projector) handleFeesTransferred(ctx context.Context, ev *domain.FeesTransferredEvent, msg *domain.DecodedMessage) error {
	eventID := msg.EventID()

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
		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.ProtocolVault, domain.ShortID(ev.ProtocolVault), domain.AccountTypeProtocolVault); err != nil {
			return err
		}

		if err := p.store.UpsertFeeTransfer(ctx, ex, p.schema, &domain.FeeTransfer{
			ID:              eventID,
			SenderID:        ev.Sender,
			ReceiverID:      ev.ProtocolVault,
			Amount:          ev.Amount,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		}); err != nil {
			return err
		}

		return p.store.UpsertEvent(ctx, ex, p.schema, &domain.Event{
			ID:              eventID,
			EventType:       domain.EventFeesTransferred,
			FeeTransferID:   &eventID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		})
	})
}
