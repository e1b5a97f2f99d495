package projector

import (
	"context"
	"strings"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// schemaOrgContexts are the URL prefixes under which an atom's payload is
// treated as a direct schema.org reference.
var schemaOrgContexts = []string{
	"https://schema.org",
	"https://schema.org/",
	"http://schema.org",
	"http://schema.org/",
}

// atomMetadata is the classification outcome for an atom whose payload can
// be resolved without an off-chain fetch.
type atomMetadata struct {
	label    string
	emoji    string
	atomType domain.AtomType
}

// predicateMetadata maps a schema.org type name onto the predicate
// classification an atom carrying that URL receives.
func predicateMetadata(name string) (atomMetadata, bool) {
	switch name {
	case "Person":
		return atomMetadata{label: "is person", emoji: "\U0001F464", atomType: domain.AtomTypePersonPredicate}, true
	case "Thing":
		return atomMetadata{label: "is thing", emoji: "\U0001F9E9", atomType: domain.AtomTypeThingPredicate}, true
	case "Organization":
		return atomMetadata{label: "is organization", emoji: "\U0001F3E2", atomType: domain.AtomTypeOrganizationPredicate}, true
	case "Keywords":
		return atomMetadata{label: "has tag", emoji: "\U0001F3F7", atomType: domain.AtomTypeKeywords}, true
	case "LikeAction":
		return atomMetadata{label: "like", emoji: "\U0001F44D", atomType: domain.AtomTypeLikeAction}, true
	case "FollowAction":
		return atomMetadata{label: "follow", emoji: "\U0001F514", atomType: domain.AtomTypeFollowAction}, true
	}
	return atomMetadata{}, false
}

// classifySchemaOrgURL recognizes payloads that are bare schema.org type
// URLs, e.g. "https://schema.org/Person".
func classifySchemaOrgURL(data string) (atomMetadata, bool) {
	for _, ctx := range schemaOrgContexts {
		if strings.HasPrefix(data, ctx) {
			name := strings.TrimPrefix(strings.TrimPrefix(data, ctx), "/")
			return predicateMetadata(name)
		}
	}
	return atomMetadata{}, false
}

// asAddress reports whether the payload is a 20-byte hex address, returning
// it normalized.
func asAddress(data string) (string, bool) {
	candidate := domain.NormalizeAddress(data)
	if domain.IsValidAddress(candidate) {
		return candidate, true
	}
	return "", false
}

// handleAtomCreated projects an AtomCreated event: wallet and creator
// accounts, the atom row, its default-curve vault, classification of the
// payload where possible, and a resolver job otherwise.
func (p *Projector) handleAtomCreated(ctx context.Context, ev *domain.AtomCreatedEvent, msg *domain.DecodedMessage) error {
	eventID := msg.EventID()
	atomID := ev.VaultID

	// Chain reads happen before the transaction opens; the results are
	// passed in.
	sharePrice, err := p.chain.CurrentSharePrice(ctx, atomID, domain.DefaultCurveID, msg.BlockNumber)
	if err != nil {
		return err
	}

	data := strings.TrimSpace(string(ev.AtomData))
	var pending *domain.Atom

	err = p.store.InTx(ctx, func(ex store.Execer) error {
		existing, err := p.store.FindEventByID(ctx, ex, p.schema, eventID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.AtomWallet, domain.ShortID(ev.AtomWallet), domain.AccountTypeAtomWallet); err != nil {
			return err
		}
		if _, err := p.store.GetOrCreateAccount(ctx, ex, p.schema, ev.Creator, domain.ShortID(ev.Creator), domain.AccountTypeDefault); err != nil {
			return err
		}

		atom := &domain.Atom{
			ID:              atomID,
			WalletID:        ev.AtomWallet,
			CreatorID:       ev.Creator,
			VaultID:         atomID,
			Data:            &data,
			RawData:         ev.AtomData,
			AtomType:        domain.AtomTypeUnknown,
			ResolvingStatus: domain.ResolvingPending,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		}

		var atomAccount string
		if meta, ok := classifySchemaOrgURL(data); ok {
			atom.AtomType = meta.atomType
			atom.Label = &meta.label
			atom.Emoji = &meta.emoji
			atom.ResolvingStatus = domain.ResolvingResolved
		} else if addr, ok := asAddress(data); ok {
			label := domain.ShortID(addr)
			atom.AtomType = domain.AtomTypeAccount
			atom.Label = &label
			atom.ValueID = &addr
			atom.ResolvingStatus = domain.ResolvingResolved
			atomAccount = addr
		}

		if err := p.store.UpsertAtom(ctx, ex, p.schema, atom); err != nil {
			return err
		}

		if atomAccount != "" {
			// Two-step upsert resolves the Account/Atom back-reference
			// cycle: the atom row lands first, then the account pointing
			// back at it, then the binding.
			if err := p.store.UpsertAccount(ctx, ex, p.schema, &domain.Account{
				ID:     atomAccount,
				AtomID: &atomID,
				Label:  domain.ShortID(atomAccount),
				Type:   domain.AccountTypeDefault,
			}); err != nil {
				return err
			}
			if err := p.store.UpsertAtomValue(ctx, ex, p.schema, &domain.AtomValue{
				AtomID:    atomID,
				AccountID: atomAccount,
			}); err != nil {
				return err
			}
		}

		if _, err := p.getOrCreateVault(ctx, ex, atomID, domain.DefaultCurveID, sharePrice); err != nil {
			return err
		}

		if atom.ResolvingStatus == domain.ResolvingPending {
			pending = atom
		}

		return p.store.UpsertEvent(ctx, ex, p.schema, &domain.Event{
			ID:              eventID,
			EventType:       domain.EventAtomCreated,
			AtomID:          &atomID,
			BlockNumber:     domain.U256FromUint64(uint64(msg.BlockNumber)),
			BlockTimestamp:  msg.BlockTimestamp,
			TransactionHash: msg.TransactionHash,
		})
	})
	if err != nil {
		return err
	}

	if pending != nil {
		return p.enqueueResolveAtom(ctx, pending)
	}
	return nil
}
