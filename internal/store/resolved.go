package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertPerson inserts or updates the typed side-table row for a resolved
// schema.org Person atom.
func (s *Store) UpsertPerson(ctx context.Context, ex Execer, schema string, p *domain.Person) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, image) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image
	`, tbl(schema, "person"))
	_, err := ex.ExecContext(ctx, query, p.ID, p.Name, p.Image)
	if err != nil {
		return fmt.Errorf("upsert person %s: %w", p.ID.String(), err)
	}
	return nil
}

// UpsertOrganization inserts or updates the typed side-table row for a
// resolved schema.org Organization atom.
func (s *Store) UpsertOrganization(ctx context.Context, ex Execer, schema string, o *domain.Organization) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, image) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image
	`, tbl(schema, "organization"))
	_, err := ex.ExecContext(ctx, query, o.ID, o.Name, o.Image)
	if err != nil {
		return fmt.Errorf("upsert organization %s: %w", o.ID.String(), err)
	}
	return nil
}

// UpsertThing inserts or updates the typed side-table row for a resolved
// generic schema.org Thing atom.
func (s *Store) UpsertThing(ctx context.Context, ex Execer, schema string, t *domain.Thing) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, image) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, image = EXCLUDED.image
	`, tbl(schema, "thing"))
	_, err := ex.ExecContext(ctx, query, t.ID, t.Name, t.Description, t.Image)
	if err != nil {
		return fmt.Errorf("upsert thing %s: %w", t.ID.String(), err)
	}
	return nil
}

// UpsertBook inserts or updates the typed side-table row for a resolved
// schema.org Book atom.
func (s *Store) UpsertBook(ctx context.Context, ex Execer, schema string, b *domain.Book) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, author, image) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, author = EXCLUDED.author, image = EXCLUDED.image
	`, tbl(schema, "book"))
	_, err := ex.ExecContext(ctx, query, b.ID, b.Name, b.Author, b.Image)
	if err != nil {
		return fmt.Errorf("upsert book %s: %w", b.ID.String(), err)
	}
	return nil
}

// UpsertAtomValue binds an Atom whose decoded data is a 20-byte address to
// the Account row for that address.
func (s *Store) UpsertAtomValue(ctx context.Context, ex Execer, schema string, av *domain.AtomValue) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (atom_id, account_id) VALUES ($1,$2)
		ON CONFLICT (atom_id) DO UPDATE SET account_id = EXCLUDED.account_id
	`, tbl(schema, "atom_value"))
	_, err := ex.ExecContext(ctx, query, av.AtomID, av.AccountID)
	if err != nil {
		return fmt.Errorf("upsert atom_value %s: %w", av.AtomID.String(), err)
	}
	return nil
}

// FindCachedImageByURL returns the cached record for an image URL, or nil
// if the URL has not been fetched before.
func (s *Store) FindCachedImageByURL(ctx context.Context, ex Execer, schema, url string) (*domain.CachedImage, error) {
	query := fmt.Sprintf(`
		SELECT url, cached_path, fetched_at FROM %s WHERE url = $1
	`, tbl(schema, "cached_image"))

	c := &domain.CachedImage{}
	err := ex.QueryRowContext(ctx, query, url).Scan(&c.URL, &c.CachedPath, &c.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cached_image %s: %w", url, err)
	}
	return c, nil
}

// UpsertCachedImage records an image URL so the resolver does not emit a
// second pin job for it on a later enrichment job.
func (s *Store) UpsertCachedImage(ctx context.Context, ex Execer, schema string, c *domain.CachedImage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (url, cached_path, fetched_at) VALUES ($1,$2,$3)
		ON CONFLICT (url) DO UPDATE SET cached_path = EXCLUDED.cached_path, fetched_at = EXCLUDED.fetched_at
	`, tbl(schema, "cached_image"))
	_, err := ex.ExecContext(ctx, query, c.URL, c.CachedPath, c.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert cached_image %s: %w", c.URL, err)
	}
	return nil
}
