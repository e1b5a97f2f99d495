package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertClaim inserts or updates a Claim row.
func (s *Store) UpsertClaim(ctx context.Context, ex Execer, schema string, c *domain.Claim) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, account_id, position_id, triple_term_id, curve_id,
			subject_id, predicate_id, object_id, shares, counter_shares
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			shares = EXCLUDED.shares,
			counter_shares = EXCLUDED.counter_shares
	`, tbl(schema, "claim"))

	_, err := ex.ExecContext(ctx, query,
		c.ID, c.AccountID, c.PositionID, c.TripleTermID, c.CurveID,
		c.SubjectID, c.PredicateID, c.ObjectID, c.Shares, c.CounterShares,
	)
	if err != nil {
		return fmt.Errorf("upsert claim %s: %w", c.ID, err)
	}
	return nil
}

// FindClaimByID retrieves a Claim by its own id
// ("{triple_term_id}-{curve_id}-{account_id}"), or nil if absent.
func (s *Store) FindClaimByID(ctx context.Context, ex Execer, schema, id string) (*domain.Claim, error) {
	query := fmt.Sprintf(`
		SELECT id, account_id, position_id, triple_term_id, curve_id,
			subject_id, predicate_id, object_id, shares, counter_shares
		FROM %s WHERE id = $1
	`, tbl(schema, "claim"))

	c := &domain.Claim{}
	err := ex.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.AccountID, &c.PositionID, &c.TripleTermID, &c.CurveID,
		&c.SubjectID, &c.PredicateID, &c.ObjectID, &c.Shares, &c.CounterShares,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find claim %s: %w", id, err)
	}
	return c, nil
}

// DeleteClaim removes a Claim by its own id, never by reusing the
// Position's id.
func (s *Store) DeleteClaim(ctx context.Context, ex Execer, schema, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tbl(schema, "claim"))
	_, err := ex.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete claim %s: %w", id, err)
	}
	return nil
}
