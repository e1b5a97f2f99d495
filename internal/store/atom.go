package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertAtom inserts or updates an Atom row.
func (s *Store) UpsertAtom(ctx context.Context, ex Execer, schema string, a *domain.Atom) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, wallet_id, creator_id, vault_id, value_id, data, raw_data,
			atom_type, emoji, label, image, resolving_status,
			block_number, block_timestamp, transaction_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			value_id = EXCLUDED.value_id,
			data = EXCLUDED.data,
			raw_data = EXCLUDED.raw_data,
			atom_type = EXCLUDED.atom_type,
			emoji = EXCLUDED.emoji,
			label = EXCLUDED.label,
			image = EXCLUDED.image,
			resolving_status = EXCLUDED.resolving_status
	`, tbl(schema, "atom"))

	_, err := ex.ExecContext(ctx, query,
		a.ID, a.WalletID, a.CreatorID, a.VaultID, a.ValueID, a.Data, a.RawData,
		a.AtomType, a.Emoji, a.Label, a.Image, a.ResolvingStatus,
		a.BlockNumber, a.BlockTimestamp, a.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert atom %s: %w", a.ID.String(), err)
	}
	return nil
}

// FindAtomByID retrieves an Atom by its 256-bit id, or nil if absent.
func (s *Store) FindAtomByID(ctx context.Context, ex Execer, schema string, id domain.U256) (*domain.Atom, error) {
	query := fmt.Sprintf(`
		SELECT id, wallet_id, creator_id, vault_id, value_id, data, raw_data,
			atom_type, emoji, label, image, resolving_status,
			block_number, block_timestamp, transaction_hash
		FROM %s WHERE id = $1
	`, tbl(schema, "atom"))

	a := &domain.Atom{}
	err := ex.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.WalletID, &a.CreatorID, &a.VaultID, &a.ValueID, &a.Data, &a.RawData,
		&a.AtomType, &a.Emoji, &a.Label, &a.Image, &a.ResolvingStatus,
		&a.BlockNumber, &a.BlockTimestamp, &a.TransactionHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find atom %s: %w", id.String(), err)
	}
	return a, nil
}
