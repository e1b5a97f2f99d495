package projector

import (
	"context"
	"fmt"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// upsertClaimSide creates or updates the Claim an account holds on a
// triple, filling the shares or counter_shares side depending on whether
// vaultID is the triple's term or its counter term. It reports whether the
// Claim row was created, so callers adjust the predicate-object claim
// count only on first creation.
func (p *Projector) upsertClaimSide(ctx context.Context, ex store.Execer, triple *domain.Triple, curveID int, accountID, positionID string, vaultID, shares domain.U256) (bool, error) {
	claimID := domain.ClaimID(triple.TermID, curveID, accountID)

	existing, err := p.store.FindClaimByID(ctx, ex, p.schema, claimID)
	if err != nil {
		return false, err
	}

	claim := existing
	created := false
	if claim == nil {
		claim = &domain.Claim{
			ID:           claimID,
			AccountID:    accountID,
			PositionID:   positionID,
			TripleTermID: triple.TermID,
			CurveID:      curveID,
			SubjectID:    triple.SubjectID,
			PredicateID:  triple.PredicateID,
			ObjectID:     triple.ObjectID,
			Shares:       domain.ZeroU256(),
			CounterShares: domain.ZeroU256(),
		}
		created = true
	}

	switch {
	case vaultID.Cmp(triple.TermID) == 0:
		claim.Shares = shares
	case vaultID.Cmp(triple.CounterTermID) == 0:
		claim.CounterShares = shares
	default:
		return false, fmt.Errorf("vault %s belongs to neither side of triple %s", vaultID.String(), triple.TermID.String())
	}

	if err := p.store.UpsertClaim(ctx, ex, p.schema, claim); err != nil {
		return false, err
	}
	return created, nil
}

// deleteClaim tears the account's Claim on a triple down, keyed by the
// Claim's own id, and reports whether a row existed.
func (p *Projector) deleteClaim(ctx context.Context, ex store.Execer, triple *domain.Triple, curveID int, accountID string) (bool, error) {
	claimID := domain.ClaimID(triple.TermID, curveID, accountID)
	existing, err := p.store.FindClaimByID(ctx, ex, p.schema, claimID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if err := p.store.DeleteClaim(ctx, ex, p.schema, claimID); err != nil {
		return false, err
	}
	return true, nil
}
