package rawconsumer

import (
	"github.com/0xintuition/intuition-indexer/internal/abi"
	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// convert maps a decoded ABI event onto the wire body the projector
// consumes: addresses lowercased, numbers as U256 decimal strings, and the
// default curve filled in for the curveless variants so the projector
// handles both shapes uniformly.
func convert(e abi.DecodedEvent) domain.DecodedEventBody {
	defaultCurve := domain.U256FromUint64(domain.DefaultCurveID)

	switch e.Kind {
	case abi.KindAtomCreated:
		return domain.DecodedEventBody{AtomCreated: &domain.AtomCreatedEvent{
			Creator:    domain.NormalizeAddress(e.AtomCreated.Creator),
			AtomWallet: domain.NormalizeAddress(e.AtomCreated.AtomWallet),
			VaultID:    domain.NewU256(e.AtomCreated.VaultID),
			AtomData:   e.AtomCreated.AtomData,
		}}

	case abi.KindTripleCreated:
		return domain.DecodedEventBody{TripleCreated: &domain.TripleCreatedEvent{
			Creator:     domain.NormalizeAddress(e.TripleCreated.Creator),
			VaultID:     domain.NewU256(e.TripleCreated.VaultID),
			SubjectID:   domain.NewU256(e.TripleCreated.SubjectID),
			PredicateID: domain.NewU256(e.TripleCreated.PredicateID),
			ObjectID:    domain.NewU256(e.TripleCreated.ObjectID),
		}}

	case abi.KindDeposited:
		return domain.DecodedEventBody{Deposited: depositedBody(e.Deposited, defaultCurve)}

	case abi.KindDepositedCurve:
		return domain.DecodedEventBody{DepositedCurve: depositedBody(&e.DepositedCurve.Deposited, domain.NewU256(e.DepositedCurve.CurveID))}

	case abi.KindRedeemed:
		return domain.DecodedEventBody{Redeemed: redeemedBody(e.Redeemed, defaultCurve)}

	case abi.KindRedeemedCurve:
		return domain.DecodedEventBody{RedeemedCurve: redeemedBody(&e.RedeemedCurve.Redeemed, domain.NewU256(e.RedeemedCurve.CurveID))}

	case abi.KindSharePriceChanged:
		return domain.DecodedEventBody{SharePriceChanged: sharePriceBody(e.SharePriceChanged, defaultCurve)}

	case abi.KindSharePriceChangedCurve:
		return domain.DecodedEventBody{SharePriceChangedCurve: sharePriceBody(&e.SharePriceChangedCurve.SharePriceChanged, domain.NewU256(e.SharePriceChangedCurve.CurveID))}

	case abi.KindFeesTransferred:
		return domain.DecodedEventBody{FeesTransferred: &domain.FeesTransferredEvent{
			Sender:        domain.NormalizeAddress(e.FeesTransferred.Sender),
			ProtocolVault: domain.NormalizeAddress(e.FeesTransferred.ProtocolVault),
			Amount:        domain.NewU256(e.FeesTransferred.Amount),
		}}
	}

	return domain.DecodedEventBody{}
}

func depositedBody(d *abi.Deposited, curveID domain.U256) *domain.DepositedEvent {
	return &domain.DepositedEvent{
		Sender:                     domain.NormalizeAddress(d.Sender),
		Receiver:                   domain.NormalizeAddress(d.Receiver),
		VaultID:                    domain.NewU256(d.VaultID),
		CurveID:                    curveID,
		SharesForReceiver:          domain.NewU256(d.SharesForReceiver),
		ReceiverTotalSharesInVault: domain.NewU256(d.ReceiverTotalSharesInVault),
		SenderAssetsAfterTotalFees: domain.NewU256(d.SenderAssetsAfterTotalFees),
		IsTriple:                   d.IsTriple,
	}
}

func redeemedBody(r *abi.Redeemed, curveID domain.U256) *domain.RedeemedEvent {
	return &domain.RedeemedEvent{
		Sender:                   domain.NormalizeAddress(r.Sender),
		Receiver:                 domain.NormalizeAddress(r.Receiver),
		VaultID:                  domain.NewU256(r.VaultID),
		CurveID:                  curveID,
		SharesRedeemedBySender:   domain.NewU256(r.SharesRedeemedBySender),
		SenderTotalSharesInVault: domain.NewU256(r.SenderTotalSharesInVault),
		AssetsForReceiver:        domain.NewU256(r.AssetsForReceiver),
	}
}

func sharePriceBody(s *abi.SharePriceChanged, curveID domain.U256) *domain.SharePriceChangedEvent {
	return &domain.SharePriceChangedEvent{
		TermID:        domain.NewU256(s.TermID),
		CurveID:       curveID,
		NewSharePrice: domain.NewU256(s.NewSharePrice),
		TotalShares:   domain.NewU256(s.TotalShares),
	}
}
