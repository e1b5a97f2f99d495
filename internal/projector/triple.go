package projector

import (
	"context"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// handleTripleCreated projects a TripleCreated event: the triple row, stub
// atoms for any of its three terms that have not arrived yet, vaults for
// both the term and its counter term, the (predicate, object) aggregate,
// claims for pre-existing positions, and label propagation for
// account-identity assertions.
func (p *Projector) handleTripleCreated(ctx context.Context, ev *domain.TripleCreatedEvent, msg *domain.DecodedMessage) error {
	eventID := msg.EventID()
	termID := ev.VaultID

	counterID, err := p.chain.CounterIDFromTriple(ctx, termID)
	if err != nil {
		p.log.WithError(err).Warn("counter id lookup failed, deriving locally")
		counterID = domain.CounterTermID(termID)
	}
	sharePrice, err := p.chain.CurrentSharePrice(ctx, termID, domain.DefaultCurveID, msg.BlockNumber)
	if err != nil {
		return err
	}
	counterSharePrice, err := p.chain.CurrentSharePrice(ctx, counterID, domain.DefaultCurveID, msg.BlockNumber)
	if err != nil {
		return err
	}

	var stubs []*domain.Atom

	err = p.store.InTx(ctx, func(ex store.Execer) error {
		existing, err := p.store.FindEventByID(ctx, ex, p.schema, eventID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.Creator, domain.ShortID(ev.Creator), domain.AccountTypeDefault); err != nil {
			return err
		}

		for _, atomID := range []domain.U256{ev.SubjectID, ev.PredicateID, ev.ObjectID} {
			stub, err := p.ensureAtom(ctx, ex, atomID, ev.Creator, msg)
			if err != nil {
				return err
			}
			if stub != nil {
				stubs = append(stubs, stub)
			}
		}

		triple := &domain.Triple{
			TermID:          termID,
			CreatorID:       ev.Creator,
			SubjectID:       ev.SubjectID,
			PredicateID:     ev.PredicateID,
			ObjectID:        ev.ObjectID,
			CounterTermID:   counterID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		}
		if err := p.store.UpsertTriple(ctx, ex, p.schema, triple); err != nil {
			return err
		}

		if _, err := p.getOrCreateVault(ctx, ex, termID, domain.DefaultCurveID, sharePrice); err != nil {
			return err
		}
		if _, err := p.getOrCreateVault(ctx, ex, counterID, domain.DefaultCurveID, counterSharePrice); err != nil {
			return err
		}

		if err := p.store.IncrementTripleCount(ctx, ex, p.schema, ev.PredicateID, ev.ObjectID); err != nil {
			return err
		}

		// Deposits can land on a vault before the triple they belong to;
		// those positions gain their claims now.
		if err := p.claimExistingPositions(ctx, ex, triple, termID); err != nil {
			return err
		}
		if err := p.claimExistingPositions(ctx, ex, triple, counterID); err != nil {
			return err
		}

		if err := p.propagateIdentity(ctx, ex, ev); err != nil {
			return err
		}

		return p.store.UpsertEvent(ctx, ex, p.schema, &domain.Event{
			ID:              eventID,
			EventType:       domain.EventTripleCreated,
			TripleID:        &termID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		})
	})
	if err != nil {
		return err
	}

	for _, stub := range stubs {
		if err := p.enqueueResolveAtom(ctx, stub); err != nil {
			return err
		}
	}
	return nil
}

// ensureAtom returns nil when the atom already exists; otherwise it
// upserts a pending stub (cross-group ordering means a triple can
// reference atoms whose AtomCreated logs have not been projected yet) and
// returns it for resolver enqueueing. The stub's payload is read back from
// the contract so the resolver has something to work with before the
// AtomCreated log lands.
func (p *Projector) ensureAtom(ctx context.Context, ex store.Execer, atomID domain.U256, creator string, msg *domain.DecodedMessage) (*domain.Atom, error) {
	existing, err := p.store.FindAtomByID(ctx, ex, p.schema, atomID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	raw, err := p.chain.AtomData(ctx, atomID)
	if err != nil {
		return nil, err
	}
	data := string(raw)

	stub := &domain.Atom{
		ID:              atomID,
		WalletID:        creator,
		CreatorID:       creator,
		VaultID:         atomID,
		Data:            &data,
		RawData:         raw,
		AtomType:        domain.AtomTypeUnknown,
		ResolvingStatus: domain.ResolvingPending,
		BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
		BlockTimestamp:  msg.BlockTimestamp,
		TransactionHash: msg.TransactionHash,
	}
	if err := p.store.UpsertAtom(ctx, ex, p.schema, stub); err != nil {
		return nil, err
	}
	return stub, nil
}

// claimExistingPositions creates a Claim for every Position already open
// on one of the triple's two vaults, bumping the aggregate claim count for
// each claim created.
func (p *Projector) claimExistingPositions(ctx context.Context, ex store.Execer, triple *domain.Triple, vaultID domain.U256) error {
	positions, err := p.store.FindPositionsByVault(ctx, ex, p.schema, vaultID, domain.DefaultCurveID)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		created, err := p.upsertClaimSide(ctx, ex, triple, domain.DefaultCurveID, pos.AccountID, pos.ID, vaultID, pos.Shares)
		if err != nil {
			return err
		}
		if created {
			if err := p.store.IncrementClaimCount(ctx, ex, p.schema, triple.PredicateID, triple.ObjectID); err != nil {
				return err
			}
		}
	}
	return nil
}

// propagateIdentity pushes the object atom's label and image onto the
// subject's account and atom when the triple asserts a person or
// organization identity over an account atom.
func (p *Projector) propagateIdentity(ctx context.Context, ex store.Execer, ev *domain.TripleCreatedEvent) error {
	subject, err := p.store.FindAtomByID(ctx, ex, p.schema, ev.SubjectID)
	if err != nil || subject == nil {
		return err
	}
	predicate, err := p.store.FindAtomByID(ctx, ex, p.schema, ev.PredicateID)
	if err != nil || predicate == nil {
		return err
	}
	object, err := p.store.FindAtomByID(ctx, ex, p.schema, ev.ObjectID)
	if err != nil || object == nil {
		return err
	}

	isIdentity := subject.AtomType == domain.AtomTypeAccount &&
		((predicate.AtomType == domain.AtomTypePersonPredicate && object.AtomType == domain.AtomTypePerson) ||
			(predicate.AtomType == domain.AtomTypeOrganizationPredicate && object.AtomType == domain.AtomTypeOrganization))
	if !isIdentity {
		return nil
	}

	if subject.Data != nil {
		accountID := domain.NormalizeAddress(*subject.Data)
		account, err := p.store.FindAccountByID(ctx, ex, p.schema, accountID)
		if err != nil {
			return err
		}
		if account != nil {
			if object.Label != nil {
				account.Label = *object.Label
			}
			account.Image = object.Image
			if err := p.store.UpsertAccount(ctx, ex, p.schema, account); err != nil {
				return err
			}
		}
	}

	subject.Label = object.Label
	subject.Image = object.Image
	return p.store.UpsertAtom(ctx, ex, p.schema, subject)
}
