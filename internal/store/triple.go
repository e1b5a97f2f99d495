package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// UpsertTriple inserts or updates a Triple row. Triples are immutable after
// creation per the data model, but the upsert stays idempotent to absorb
// duplicate delivery of the same TripleCreated log.
func (s *Store) UpsertTriple(ctx context.Context, ex Execer, schema string, t *domain.Triple) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			term_id, creator_id, subject_id, predicate_id, object_id,
			counter_term_id, block_number, block_timestamp, transaction_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (term_id) DO NOTHING
	`, tbl(schema, "triple"))

	_, err := ex.ExecContext(ctx, query,
		t.TermID, t.CreatorID, t.SubjectID, t.PredicateID, t.ObjectID,
		t.CounterTermID, t.BlockNumber, t.BlockTimestamp, t.TransactionHash,
	)
	if err != nil {
		return fmt.Errorf("upsert triple %s: %w", t.TermID.String(), err)
	}
	return nil
}

// FindTripleByID retrieves a Triple by its term id, or nil if absent.
func (s *Store) FindTripleByID(ctx context.Context, ex Execer, schema string, termID domain.U256) (*domain.Triple, error) {
	query := fmt.Sprintf(`
		SELECT term_id, creator_id, subject_id, predicate_id, object_id,
			counter_term_id, block_number, block_timestamp, transaction_hash
		FROM %s WHERE term_id = $1
	`, tbl(schema, "triple"))

	t := &domain.Triple{}
	err := ex.QueryRowContext(ctx, query, termID).Scan(
		&t.TermID, &t.CreatorID, &t.SubjectID, &t.PredicateID, &t.ObjectID,
		&t.CounterTermID, &t.BlockNumber, &t.BlockTimestamp, &t.TransactionHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find triple %s: %w", termID.String(), err)
	}
	return t, nil
}

// FindTripleByVaultID looks a Triple up by either its term_id or its
// counter_term_id, used by handlers that only know a vault id and must
// determine whether it belongs to a triple (and which side).
func (s *Store) FindTripleByVaultID(ctx context.Context, ex Execer, schema string, vaultID domain.U256) (*domain.Triple, error) {
	query := fmt.Sprintf(`
		SELECT term_id, creator_id, subject_id, predicate_id, object_id,
			counter_term_id, block_number, block_timestamp, transaction_hash
		FROM %s WHERE term_id = $1 OR counter_term_id = $1
	`, tbl(schema, "triple"))

	t := &domain.Triple{}
	err := ex.QueryRowContext(ctx, query, vaultID).Scan(
		&t.TermID, &t.CreatorID, &t.SubjectID, &t.PredicateID, &t.ObjectID,
		&t.CounterTermID, &t.BlockNumber, &t.BlockTimestamp, &t.TransactionHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find triple by vault %s: %w", vaultID.String(), err)
	}
	return t, nil
}
