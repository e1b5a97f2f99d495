package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertEvent inserts an Event audit row, keyed by the deterministic
// event_id. Every AtomCreated/TripleCreated/.../FeesTransferred log upserts
// exactly one Event row; the database's check constraint (exactly one of
// atom_id/triple_id/deposit_id/redemption_id/fee_transfer_id set) is
// expressed at the schema level, not re-validated here. A violation
// surfaces as a store error the projector treats as a programmer error.
func (s *Store) UpsertEvent(ctx context.Context, ex Execer, schema string, e *domain.Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, event_type, atom_id, triple_id, deposit_id, redemption_id,
			fee_transfer_id, block_number, block_timestamp, transaction_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING
	`, tbl(schema, "event"))

	_, err := ex.ExecContext(ctx, query,
		e.ID, e.EventType, e.AtomID, e.TripleID, e.DepositID, e.RedemptionID,
		e.FeeTransferID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", e.ID, err)
	}
	return nil
}

// FindEventByID retrieves an Event by its deterministic id, or nil if
// absent. Handlers use this as their replay guard: an existing Event row
// means the log was already fully applied, so counter adjustments must not
// run again.
func (s *Store) FindEventByID(ctx context.Context, ex Execer, schema, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, event_type, atom_id, triple_id, deposit_id, redemption_id,
			fee_transfer_id, block_number, block_timestamp, transaction_hash
		FROM %s WHERE id = $1
	`, tbl(schema, "event"))

	e := &domain.Event{}
	err := ex.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.EventType, &e.AtomID, &e.TripleID, &e.DepositID, &e.RedemptionID,
		&e.FeeTransferID, &e.BlockNumber, &e.BlockTimestamp, &e.TransactionHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", id, err)
	}
	return e, nil
}

// UpsertDeposit inserts a Deposit audit row, keyed by event_id.
func (s *Store) UpsertDeposit(ctx context.Context, ex Execer, schema string, d *domain.Deposit) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, sender_id, receiver_id, vault_id, curve_id, shares_for_receiver,
			receiver_total_shares_in_vault, sender_assets_after_total_fees,
			is_triple, block_number, block_timestamp, transaction_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING
	`, tbl(schema, "deposit"))

	_, err := ex.ExecContext(ctx, query,
		d.ID, d.SenderID, d.ReceiverID, d.VaultID, d.CurveID, d.SharesForReceiver,
		d.ReceiverTotalSharesInVault, d.SenderAssetsAfterTotalFees,
		d.IsTriple, d.BlockNumber, d.BlockTimestamp, d.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert deposit %s: %w", d.ID, err)
	}
	return nil
}

// UpsertRedemption inserts a Redemption audit row, keyed by event_id.
func (s *Store) UpsertRedemption(ctx context.Context, ex Execer, schema string, r *domain.Redemption) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, sender_id, receiver_id, vault_id, curve_id,
			shares_redeemed_by_sender, sender_total_shares_in_vault,
			assets_for_receiver, block_number, block_timestamp, transaction_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING
	`, tbl(schema, "redemption"))

	_, err := ex.ExecContext(ctx, query,
		r.ID, r.SenderID, r.ReceiverID, r.VaultID, r.CurveID,
		r.SharesRedeemedBySender, r.SenderTotalSharesInVault,
		r.AssetsForReceiver, r.BlockNumber, r.BlockTimestamp, r.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert redemption %s: %w", r.ID, err)
	}
	return nil
}

// UpsertFeeTransfer inserts a FeeTransfer audit row, keyed by event_id.
func (s *Store) UpsertFeeTransfer(ctx context.Context, ex Execer, schema string, f *domain.FeeTransfer) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, sender_id, receiver_id, amount, block_number, block_timestamp, transaction_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`, tbl(schema, "fee_transfer"))

	_, err := ex.ExecContext(ctx, query, f.ID, f.SenderID, f.ReceiverID, f.Amount, f.BlockNumber, f.BlockTimestamp, f.TransactionHash)
	if err != nil {
		return fmt.Errorf("upsert fee_transfer %s: %w", f.ID, err)
	}
	return nil
}

// UpsertSignal inserts a Signal audit row, keyed by event_id. Duplicate
// delivery collapses on the unique id.
func (s *Store) UpsertSignal(ctx context.Context, ex Execer, schema string, sig *domain.Signal) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, account_id, atom_id, triple_id, delta, block_number, block_timestamp, transaction_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING
	`, tbl(schema, "signal"))

	_, err := ex.ExecContext(ctx, query,
		sig.ID, sig.AccountID, sig.AtomID, sig.TripleID, sig.Delta,
		sig.BlockNumber, sig.BlockTimestamp, sig.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert signal %s: %w", sig.ID, err)
	}
	return nil
}
