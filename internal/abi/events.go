// Package abi implements the pure, side-effect-free decode step: given a
// log's topics and data, produce the tagged variant the rest of the
// pipeline dispatches on. Decoding is driven by topic[0] against a fixed
// table of event signatures.
package abi

import (
	"math/big"
)

// Kind tags which event variant a decoded log represents.
type Kind string

const (
	KindAtomCreated             Kind = "AtomCreated"
	KindTripleCreated           Kind = "TripleCreated"
	KindDeposited               Kind = "Deposited"
	KindDepositedCurve          Kind = "DepositedCurve"
	KindRedeemed                Kind = "Redeemed"
	KindRedeemedCurve           Kind = "RedeemedCurve"
	KindSharePriceChanged       Kind = "SharePriceChanged"
	KindSharePriceChangedCurve  Kind = "SharePriceChangedCurve"
	KindFeesTransferred         Kind = "FeesTransferred"
	KindUnknown                 Kind = "Unknown"
)

// AtomCreated is emitted when a new atom is minted.
type AtomCreated struct {
	Creator    string
	AtomWallet string
	VaultID    *big.Int
	AtomData   []byte
}

// TripleCreated is emitted when a new (subject, predicate, object) triple is
// minted.
type TripleCreated struct {
	Creator     string
	VaultID     *big.Int
	SubjectID   *big.Int
	PredicateID *big.Int
	ObjectID    *big.Int
}

// Deposited is emitted on a deposit into the default curve (curveId=1,
// implicit).
type Deposited struct {
	Sender                     string
	Receiver                   string
	VaultID                    *big.Int
	SharesForReceiver          *big.Int
	ReceiverTotalSharesInVault *big.Int
	SenderAssetsAfterTotalFees *big.Int
	IsTriple                   bool
}

// DepositedCurve is Deposited's explicit-curve sibling.
type DepositedCurve struct {
	Deposited
	CurveID *big.Int
}

// Redeemed is emitted on a redemption from the default curve.
type Redeemed struct {
	Sender                   string
	Receiver                 string
	VaultID                  *big.Int
	SharesRedeemedBySender   *big.Int
	SenderTotalSharesInVault *big.Int
	AssetsForReceiver        *big.Int
}

// RedeemedCurve is Redeemed's explicit-curve sibling.
type RedeemedCurve struct {
	Redeemed
	CurveID *big.Int
}

// SharePriceChanged is emitted whenever a vault's share price moves on the
// default curve.
type SharePriceChanged struct {
	TermID        *big.Int
	NewSharePrice *big.Int
	TotalShares   *big.Int
}

// SharePriceChangedCurve is SharePriceChanged's explicit-curve sibling.
type SharePriceChangedCurve struct {
	SharePriceChanged
	CurveID *big.Int
}

// FeesTransferred is emitted when protocol fees move to the multisig.
type FeesTransferred struct {
	Sender        string
	ProtocolVault string
	Amount        *big.Int
}

// Unknown carries the raw topic/data for a log whose topic[0] matched no
// known signature, so the raw consumer can log and drop it.
type Unknown struct {
	Topic0 string
}

// DecodedEvent is the tagged sum the ABI decoder produces. Exactly one of
// the typed fields is non-nil, selected by Kind. A tagged sum with a
// per-variant handler downstream keeps dispatch flat instead of growing a
// type hierarchy.
type DecodedEvent struct {
	Kind Kind

	AtomCreated            *AtomCreated
	TripleCreated          *TripleCreated
	Deposited              *Deposited
	DepositedCurve         *DepositedCurve
	Redeemed               *Redeemed
	RedeemedCurve          *RedeemedCurve
	SharePriceChanged      *SharePriceChanged
	SharePriceChangedCurve *SharePriceChangedCurve
	FeesTransferred        *FeesTransferred
	Unknown                *Unknown
}
