package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertAccount inserts or updates an Account row.
func (s *Store) UpsertAccount(ctx context.Context, ex Execer, schema string, a *domain.Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, atom_id, label, image, type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			atom_id = EXCLUDED.atom_id,
			label = EXCLUDED.label,
			image = EXCLUDED.image,
			type = EXCLUDED.type
	`, tbl(schema, "account"))

	_, err := ex.ExecContext(ctx, query, a.ID, a.AtomID, a.Label, a.Image, a.Type)
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", a.ID, err)
	}
	return nil
}

// FindAccountByID retrieves an Account by its lowercased address, or nil if
// absent.
func (s *Store) FindAccountByID(ctx context.Context, ex Execer, schema, id string) (*domain.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, atom_id, label, image, type FROM %s WHERE id = $1
	`, tbl(schema, "account"))

	a := &domain.Account{}
	err := ex.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.AtomID, &a.Label, &a.Image, &a.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", id, err)
	}
	return a, nil
}

// GetOrCreateAccount returns the existing Account by id, or creates one
// with the given defaults (label, type) if absent. Accounts are created
// lazily on first reference and never deleted.
func (s *Store) GetOrCreateAccount(ctx context.Context, ex Execer, schema, id string, defaultLabel string, defaultType domain.AccountType) (*domain.Account, error) {
	existing, err := s.FindAccountByID(ctx, ex, schema, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	a := &domain.Account{ID: id, Label: defaultLabel, Type: defaultType}
	if err := s.UpsertAccount(ctx, ex, schema, a); err != nil {
		return nil, err
	}
	return a, nil
}
