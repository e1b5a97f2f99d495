package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertPosition inserts or updates a Position row.
func (s *Store) UpsertPosition(ctx context.Context, ex Execer, schema string, p *domain.Position) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, account_id, term_id, curve_id, shares)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET shares = EXCLUDED.shares
	`, tbl(schema, "position"))

	_, err := ex.ExecContext(ctx, query, p.ID, p.AccountID, p.TermID, p.CurveID, p.Shares)
	if err != nil {
		return fmt.Errorf("upsert position %s: %w", p.ID, err)
	}
	return nil
}

// FindPositionByID retrieves a Position by its synthetic id, or nil if
// absent.
func (s *Store) FindPositionByID(ctx context.Context, ex Execer, schema, id string) (*domain.Position, error) {
	query := fmt.Sprintf(`
		SELECT id, account_id, term_id, curve_id, shares FROM %s WHERE id = $1
	`, tbl(schema, "position"))

	p := &domain.Position{}
	err := ex.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.AccountID, &p.TermID, &p.CurveID, &p.Shares)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find position %s: %w", id, err)
	}
	return p, nil
}

// FindPositionsByVault returns every Position referencing (termID, curveID),
// used when a TripleCreated event arrives after deposits already exist on
// its vault and each must gain a Claim.
func (s *Store) FindPositionsByVault(ctx context.Context, ex Execer, schema string, termID domain.U256, curveID int) ([]*domain.Position, error) {
	query := fmt.Sprintf(`
		SELECT id, account_id, term_id, curve_id, shares
		FROM %s WHERE term_id = $1 AND curve_id = $2
	`, tbl(schema, "position"))

	rows, err := ex.QueryContext(ctx, query, termID, curveID)
	if err != nil {
		return nil, fmt.Errorf("find positions by vault %s/%d: %w", termID.String(), curveID, err)
	}
	defer rows.Close()

	var out []*domain.Position
	for rows.Next() {
		p := &domain.Position{}
		if err := rows.Scan(&p.ID, &p.AccountID, &p.TermID, &p.CurveID, &p.Shares); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePosition removes a Position by id. Invariant: callers must delete
// the corresponding Claim (if any) in the same transaction.
func (s *Store) DeletePosition(ctx context.Context, ex Execer, schema, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, tbl(schema, "position"))
	_, err := ex.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete position %s: %w", id, err)
	}
	return nil
}
