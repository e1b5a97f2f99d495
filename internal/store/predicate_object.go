package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertPredicateObject inserts or updates a PredicateObject row directly.
func (s *Store) UpsertPredicateObject(ctx context.Context, ex Execer, schema string, po *domain.PredicateObject) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, predicate_id, object_id, triple_count, claim_count)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			triple_count = EXCLUDED.triple_count,
			claim_count = EXCLUDED.claim_count
	`, tbl(schema, "predicate_object"))

	_, err := ex.ExecContext(ctx, query, po.ID, po.PredicateID, po.ObjectID, po.TripleCount, po.ClaimCount)
	if err != nil {
		return fmt.Errorf("upsert predicate_object %s: %w", po.ID, err)
	}
	return nil
}

// FindPredicateObjectByID retrieves a PredicateObject by its
// "{predicate_id}-{object_id}" id, or nil if absent.
func (s *Store) FindPredicateObjectByID(ctx context.Context, ex Execer, schema, id string) (*domain.PredicateObject, error) {
	query := fmt.Sprintf(`
		SELECT id, predicate_id, object_id, triple_count, claim_count FROM %s WHERE id = $1
	`, tbl(schema, "predicate_object"))

	po := &domain.PredicateObject{}
	err := ex.QueryRowContext(ctx, query, id).Scan(&po.ID, &po.PredicateID, &po.ObjectID, &po.TripleCount, &po.ClaimCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find predicate_object %s: %w", id, err)
	}
	return po, nil
}

// IncrementTripleCount finds-or-creates the PredicateObject for
// (predicateID, objectID) and increments triple_count.
func (s *Store) IncrementTripleCount(ctx context.Context, ex Execer, schema string, predicateID, objectID domain.U256) error {
	id := domain.PredicateObjectID(predicateID, objectID)
	existing, err := s.FindPredicateObjectByID(ctx, ex, schema, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.UpsertPredicateObject(ctx, ex, schema, &domain.PredicateObject{
			ID: id, PredicateID: predicateID, ObjectID: objectID, TripleCount: 1, ClaimCount: 0,
		})
	}
	existing.TripleCount++
	return s.UpsertPredicateObject(ctx, ex, schema, existing)
}

// IncrementClaimCount finds-or-creates the PredicateObject for
// (predicateID, objectID) and increments claim_count.
func (s *Store) IncrementClaimCount(ctx context.Context, ex Execer, schema string, predicateID, objectID domain.U256) error {
	id := domain.PredicateObjectID(predicateID, objectID)
	existing, err := s.FindPredicateObjectByID(ctx, ex, schema, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.UpsertPredicateObject(ctx, ex, schema, &domain.PredicateObject{
			ID: id, PredicateID: predicateID, ObjectID: objectID, TripleCount: 0, ClaimCount: 1,
		})
	}
	existing.ClaimCount++
	return s.UpsertPredicateObject(ctx, ex, schema, existing)
}

// DecrementClaimCount decrements claim_count for (predicateID, objectID) if
// the row exists, called when a Claim is torn down on full redemption.
func (s *Store) DecrementClaimCount(ctx context.Context, ex Execer, schema string, predicateID, objectID domain.U256) error {
	id := domain.PredicateObjectID(predicateID, objectID)
	existing, err := s.FindPredicateObjectByID(ctx, ex, schema, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.ClaimCount == 0 {
		return nil
	}
	existing.ClaimCount--
	return s.UpsertPredicateObject(ctx, ex, schema, existing)
}
