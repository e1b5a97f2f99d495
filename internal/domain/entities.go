// Package domain holds the relational data model described by the system's
// data model: accounts, atoms, triples, vaults, positions, claims, and the
// audit trail of events the projector writes as it applies chain logs.
package domain

import (
	"fmt"
	"time"
)

// AccountType enumerates the kinds of Account rows.
type AccountType string

const (
	AccountTypeDefault       AccountType = "Default"
	AccountTypeAtomWallet    AccountType = "AtomWallet"
	AccountTypeProtocolVault AccountType = "ProtocolVault"
)

// Account is a participant, addressed by its lowercased 20-byte address.
type Account struct {
	ID     string      `db:"id" json:"id"`
	AtomID *U256       `db:"atom_id" json:"atom_id,omitempty"`
	Label  string      `db:"label" json:"label"`
	Image  *string     `db:"image" json:"image,omitempty"`
	Type   AccountType `db:"type" json:"type"`
}

// AtomType enumerates the recognized classifications of an Atom.
type AtomType string

const (
	AtomTypeAccount               AtomType = "Account"
	AtomTypePerson                AtomType = "Person"
	AtomTypeOrganization          AtomType = "Organization"
	AtomTypeThing                 AtomType = "Thing"
	AtomTypeBook                  AtomType = "Book"
	AtomTypeKeywords              AtomType = "Keywords"
	AtomTypeLikeAction            AtomType = "LikeAction"
	AtomTypeFollowAction          AtomType = "FollowAction"
	AtomTypePersonPredicate       AtomType = "PersonPredicate"
	AtomTypeOrganizationPredicate AtomType = "OrganizationPredicate"
	AtomTypeThingPredicate        AtomType = "ThingPredicate"
	AtomTypeUnknown               AtomType = "Unknown"
)

// ResolvingStatus tracks the resolver worker's progress on an Atom.
type ResolvingStatus string

const (
	ResolvingPending  ResolvingStatus = "Pending"
	ResolvingResolved ResolvingStatus = "Resolved"
	ResolvingFailed   ResolvingStatus = "Failed"
)

// Atom is a typed assertion created by an AtomCreated event.
type Atom struct {
	ID              U256            `db:"id" json:"id"`
	WalletID        string          `db:"wallet_id" json:"wallet_id"`
	CreatorID       string          `db:"creator_id" json:"creator_id"`
	VaultID         U256            `db:"vault_id" json:"vault_id"`
	ValueID         *string         `db:"value_id" json:"value_id,omitempty"`
	Data            *string         `db:"data" json:"data,omitempty"`
	RawData         []byte          `db:"raw_data" json:"raw_data,omitempty"`
	AtomType        AtomType        `db:"atom_type" json:"atom_type"`
	Emoji           *string         `db:"emoji" json:"emoji,omitempty"`
	Label           *string         `db:"label" json:"label,omitempty"`
	Image           *string         `db:"image" json:"image,omitempty"`
	ResolvingStatus ResolvingStatus `db:"resolving_status" json:"resolving_status"`
	BlockNumber     U256            `db:"block_number" json:"block_number"`
	BlockTimestamp  int64           `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash string          `db:"transaction_hash" json:"transaction_hash"`
}

// Triple binds three atoms as (subject, predicate, object). Immutable after
// creation.
type Triple struct {
	TermID          U256   `db:"term_id" json:"term_id"`
	CreatorID       string `db:"creator_id" json:"creator_id"`
	SubjectID       U256   `db:"subject_id" json:"subject_id"`
	PredicateID     U256   `db:"predicate_id" json:"predicate_id"`
	ObjectID        U256   `db:"object_id" json:"object_id"`
	CounterTermID   U256   `db:"counter_term_id" json:"counter_term_id"`
	BlockNumber     U256   `db:"block_number" json:"block_number"`
	BlockTimestamp  int64  `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash string `db:"transaction_hash" json:"transaction_hash"`
}

// Vault is the economic container keyed by (term_id, curve_id).
type Vault struct {
	TermID            U256 `db:"term_id" json:"term_id"`
	CurveID           int  `db:"curve_id" json:"curve_id"`
	TotalShares       U256 `db:"total_shares" json:"total_shares"`
	CurrentSharePrice U256 `db:"current_share_price" json:"current_share_price"`
	PositionCount     int  `db:"position_count" json:"position_count"`
}

// DefaultCurveID is the implicit bonding-curve id used when an event carries
// no explicit curveId.
const DefaultCurveID = 1

// Position is an account's holding in a vault.
type Position struct {
	ID        string `db:"id" json:"id"`
	AccountID string `db:"account_id" json:"account_id"`
	TermID    U256   `db:"term_id" json:"term_id"`
	CurveID   int    `db:"curve_id" json:"curve_id"`
	Shares    U256   `db:"shares" json:"shares"`
}

// PositionID formats the synthetic Position primary key.
func PositionID(termID U256, curveID int, accountID string) string {
	return fmt.Sprintf("%s-%d-%s", termID.String(), curveID, accountID)
}

// Claim is a per-account view of a triple's two sides (shares, counter
// shares).
type Claim struct {
	ID            string `db:"id" json:"id"`
	AccountID     string `db:"account_id" json:"account_id"`
	PositionID    string `db:"position_id" json:"position_id"`
	TripleTermID  U256   `db:"triple_term_id" json:"triple_term_id"`
	CurveID       int    `db:"curve_id" json:"curve_id"`
	SubjectID     U256   `db:"subject_id" json:"subject_id"`
	PredicateID   U256   `db:"predicate_id" json:"predicate_id"`
	ObjectID      U256   `db:"object_id" json:"object_id"`
	Shares        U256   `db:"shares" json:"shares"`
	CounterShares U256   `db:"counter_shares" json:"counter_shares"`
}

// ClaimID formats the synthetic Claim primary key.
func ClaimID(tripleTermID U256, curveID int, accountID string) string {
	return fmt.Sprintf("%s-%d-%s", tripleTermID.String(), curveID, accountID)
}

// PredicateObject aggregates counters per (predicate, object) pair.
type PredicateObject struct {
	ID          string `db:"id" json:"id"`
	PredicateID U256   `db:"predicate_id" json:"predicate_id"`
	ObjectID    U256   `db:"object_id" json:"object_id"`
	TripleCount int    `db:"triple_count" json:"triple_count"`
	ClaimCount  int    `db:"claim_count" json:"claim_count"`
}

// PredicateObjectID formats the synthetic PredicateObject primary key.
func PredicateObjectID(predicateID, objectID U256) string {
	return fmt.Sprintf("%s-%s", predicateID.String(), objectID.String())
}

// EventType enumerates the on-chain event kinds recorded in the Event audit
// table.
type EventType string

const (
	EventAtomCreated     EventType = "AtomCreated"
	EventTripleCreated   EventType = "TripleCreated"
	EventDeposited       EventType = "Deposited"
	EventRedeemed        EventType = "Redeemed"
	EventFeesTransferred EventType = "FeesTransferred"
)

// Event is an immutable audit record, one per on-chain event, referencing
// exactly one of {AtomID, TripleID, DepositID, RedemptionID, FeeTransferID}.
type Event struct {
	ID              string    `db:"id" json:"id"`
	EventType       EventType `db:"event_type" json:"event_type"`
	AtomID          *U256     `db:"atom_id" json:"atom_id,omitempty"`
	TripleID        *U256     `db:"triple_id" json:"triple_id,omitempty"`
	DepositID       *string   `db:"deposit_id" json:"deposit_id,omitempty"`
	RedemptionID    *string   `db:"redemption_id" json:"redemption_id,omitempty"`
	FeeTransferID   *string   `db:"fee_transfer_id" json:"fee_transfer_id,omitempty"`
	BlockNumber     U256      `db:"block_number" json:"block_number"`
	BlockTimestamp  int64     `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash string    `db:"transaction_hash" json:"transaction_hash"`
}

// Deposit is an audit row for a Deposited/DepositedCurve event.
type Deposit struct {
	ID                         string `db:"id" json:"id"`
	SenderID                   string `db:"sender_id" json:"sender_id"`
	ReceiverID                 string `db:"receiver_id" json:"receiver_id"`
	VaultID                    U256   `db:"vault_id" json:"vault_id"`
	CurveID                    int    `db:"curve_id" json:"curve_id"`
	SharesForReceiver          U256   `db:"shares_for_receiver" json:"shares_for_receiver"`
	ReceiverTotalSharesInVault U256   `db:"receiver_total_shares_in_vault" json:"receiver_total_shares_in_vault"`
	SenderAssetsAfterTotalFees U256   `db:"sender_assets_after_total_fees" json:"sender_assets_after_total_fees"`
	IsTriple                   bool   `db:"is_triple" json:"is_triple"`
	BlockNumber                U256   `db:"block_number" json:"block_number"`
	BlockTimestamp             int64  `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash            string `db:"transaction_hash" json:"transaction_hash"`
}

// Redemption is an audit row for a Redeemed/RedeemedCurve event.
type Redemption struct {
	ID                       string `db:"id" json:"id"`
	SenderID                 string `db:"sender_id" json:"sender_id"`
	ReceiverID               string `db:"receiver_id" json:"receiver_id"`
	VaultID                  U256   `db:"vault_id" json:"vault_id"`
	CurveID                  int    `db:"curve_id" json:"curve_id"`
	SharesRedeemedBySender   U256   `db:"shares_redeemed_by_sender" json:"shares_redeemed_by_sender"`
	SenderTotalSharesInVault U256   `db:"sender_total_shares_in_vault" json:"sender_total_shares_in_vault"`
	AssetsForReceiver        U256   `db:"assets_for_receiver" json:"assets_for_receiver"`
	BlockNumber              U256   `db:"block_number" json:"block_number"`
	BlockTimestamp           int64  `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash          string `db:"transaction_hash" json:"transaction_hash"`
}

// FeeTransfer is an audit row for a FeesTransferred event.
type FeeTransfer struct {
	ID              string `db:"id" json:"id"`
	SenderID        string `db:"sender_id" json:"sender_id"`
	ReceiverID      string `db:"receiver_id" json:"receiver_id"`
	Amount          U256   `db:"amount" json:"amount"`
	BlockNumber     U256   `db:"block_number" json:"block_number"`
	BlockTimestamp  int64  `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash string `db:"transaction_hash" json:"transaction_hash"`
}

// Signal is a signed delta emitted per deposit/redemption for downstream
// analytics, tagged to either an atom or a triple term.
type Signal struct {
	ID              string `db:"id" json:"id"`
	AccountID       string `db:"account_id" json:"account_id"`
	AtomID          *U256  `db:"atom_id" json:"atom_id,omitempty"`
	TripleID        *U256  `db:"triple_id" json:"triple_id,omitempty"`
	Delta           string `db:"delta" json:"delta"`
	BlockNumber     U256   `db:"block_number" json:"block_number"`
	BlockTimestamp  int64  `db:"block_timestamp" json:"block_timestamp"`
	TransactionHash string `db:"transaction_hash" json:"transaction_hash"`
}

// SharePriceHistory is an append-only row written on every SharePriceChanged
// event.
type SharePriceHistory struct {
	TermID         U256  `db:"term_id" json:"term_id"`
	CurveID        int   `db:"curve_id" json:"curve_id"`
	SharePrice     U256  `db:"share_price" json:"share_price"`
	TotalShares    U256  `db:"total_shares" json:"total_shares"`
	BlockTimestamp int64 `db:"block_timestamp" json:"block_timestamp"`
}

// AtomValue binds an Atom whose decoded data is a 20-byte address to the
// Account row carrying that address.
type AtomValue struct {
	AtomID    U256   `db:"atom_id" json:"atom_id"`
	AccountID string `db:"account_id" json:"account_id"`
}

// Person is the typed side-table for a resolved schema.org Person atom.
type Person struct {
	ID    U256    `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Image *string `db:"image" json:"image,omitempty"`
}

// Organization is the typed side-table for a resolved schema.org
// Organization atom.
type Organization struct {
	ID    U256    `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Image *string `db:"image" json:"image,omitempty"`
}

// Thing is the typed side-table for a resolved generic schema.org Thing
// atom.
type Thing struct {
	ID          U256    `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Image       *string `db:"image" json:"image,omitempty"`
}

// Book is the typed side-table for a resolved schema.org Book atom.
type Book struct {
	ID     U256    `db:"id" json:"id"`
	Name   string  `db:"name" json:"name"`
	Author *string `db:"author" json:"author,omitempty"`
	Image  *string `db:"image" json:"image,omitempty"`
}

// CachedImage records an image URL the resolver has already emitted a pin
// job for, so the same avatar/content image is not pinned repeatedly.
type CachedImage struct {
	URL        string    `db:"url" json:"url"`
	CachedPath string    `db:"cached_path" json:"cached_path"`
	FetchedAt  time.Time `db:"fetched_at" json:"fetched_at"`
}

// RawLog is the durable, idempotent landing table the log producer writes
// to before enqueuing.
type RawLog struct {
	GSID            string   `db:"gs_id" json:"gs_id"`
	BlockNumber     int64    `db:"block_number" json:"block_number"`
	BlockHash       string   `db:"block_hash" json:"block_hash"`
	TransactionHash string   `db:"transaction_hash" json:"transaction_hash"`
	TransactionIdx  int64    `db:"transaction_index" json:"transaction_index"`
	LogIndex        int64    `db:"log_index" json:"log_index"`
	Address         string   `db:"address" json:"address"`
	Data            string   `db:"data" json:"data"`
	Topics          []string `db:"topics" json:"topics"`
	BlockTimestamp  int64    `db:"block_timestamp" json:"block_timestamp"`
}

// Cursor is the producer's persisted high-water mark per stream.
type Cursor struct {
	StreamID         string    `db:"stream_id" json:"stream_id"`
	LastProcessedKey string    `db:"last_processed_key" json:"last_processed_key"`
	LastValidKey     string    `db:"last_valid_key" json:"last_valid_key"`
	LastUpdated      time.Time `db:"last_updated" json:"last_updated"`
}
