package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertVault inserts or updates a Vault row keyed by (term_id, curve_id).
func (s *Store) UpsertVault(ctx context.Context, ex Execer, schema string, v *domain.Vault) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (term_id, curve_id, total_shares, current_share_price, position_count)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (term_id, curve_id) DO UPDATE SET
			total_shares = EXCLUDED.total_shares,
			current_share_price = EXCLUDED.current_share_price,
			position_count = EXCLUDED.position_count
	`, tbl(schema, "vault"))

	_, err := ex.ExecContext(ctx, query, v.TermID, v.CurveID, v.TotalShares, v.CurrentSharePrice, v.PositionCount)
	if err != nil {
		return fmt.Errorf("upsert vault %s/%d: %w", v.TermID.String(), v.CurveID, err)
	}
	return nil
}

// FindVaultByID retrieves a Vault by (termID, curveID), or nil if absent.
func (s *Store) FindVaultByID(ctx context.Context, ex Execer, schema string, termID domain.U256, curveID int) (*domain.Vault, error) {
	query := fmt.Sprintf(`
		SELECT term_id, curve_id, total_shares, current_share_price, position_count
		FROM %s WHERE term_id = $1 AND curve_id = $2
	`, tbl(schema, "vault"))

	v := &domain.Vault{}
	err := ex.QueryRowContext(ctx, query, termID, curveID).Scan(
		&v.TermID, &v.CurveID, &v.TotalShares, &v.CurrentSharePrice, &v.PositionCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vault %s/%d: %w", termID.String(), curveID, err)
	}
	return v, nil
}

// AdjustPositionCount applies delta (+1 or -1) to a Vault's position_count,
// called only when a Position is actually created or deleted, never on a
// plain balance update.
func (s *Store) AdjustPositionCount(ctx context.Context, ex Execer, schema string, termID domain.U256, curveID int, delta int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET position_count = position_count + $3
		WHERE term_id = $1 AND curve_id = $2
	`, tbl(schema, "vault"))

	_, err := ex.ExecContext(ctx, query, termID, curveID, delta)
	if err != nil {
		return fmt.Errorf("adjust position_count %s/%d: %w", termID.String(), curveID, err)
	}
	return nil
}

// SharePriceHistory tables.

// InsertSharePriceHistory appends a row to the share-price-history table.
func (s *Store) InsertSharePriceHistory(ctx context.Context, ex Execer, schema string, h *domain.SharePriceHistory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (term_id, curve_id, share_price, total_shares, block_timestamp)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (term_id, curve_id, block_timestamp) DO NOTHING
	`, tbl(schema, "share_price_history"))

	_, err := ex.ExecContext(ctx, query, h.TermID, h.CurveID, h.SharePrice, h.TotalShares, h.BlockTimestamp)
	if err != nil {
		return fmt.Errorf("insert share_price_history %s/%d: %w", h.TermID.String(), h.CurveID, err)
	}
	return nil
}
