package domain

// The queue message payloads exchanged between pipeline stages live next to
// the entity rows because several of them embed entity rows directly (the
// resolver message carries a full Atom/Account) and because both the raw
// consumer and the projector need to agree on one wire vocabulary.

// AtomCreatedEvent is the decoded body of an AtomCreated log.
type AtomCreatedEvent struct {
	Creator    string `json:"creator"`
	AtomWallet string `json:"atom_wallet"`
	VaultID    U256   `json:"vault_id"`
	AtomData   []byte `json:"atom_data"`
}

// TripleCreatedEvent is the decoded body of a TripleCreated log.
type TripleCreatedEvent struct {
	Creator     string `json:"creator"`
	VaultID     U256   `json:"vault_id"`
	SubjectID   U256   `json:"subject_id"`
	PredicateID U256   `json:"predicate_id"`
	ObjectID    U256   `json:"object_id"`
}

// DepositedEvent is the decoded body of a Deposited or DepositedCurve log.
// For the plain Deposited variant the raw consumer fills CurveID with the
// default curve, so the projector handles both shapes uniformly.
type DepositedEvent struct {
	Sender                     string `json:"sender"`
	Receiver                   string `json:"receiver"`
	VaultID                    U256   `json:"vault_id"`
	CurveID                    U256   `json:"curve_id"`
	SharesForReceiver          U256   `json:"shares_for_receiver"`
	ReceiverTotalSharesInVault U256   `json:"receiver_total_shares_in_vault"`
	SenderAssetsAfterTotalFees U256   `json:"sender_assets_after_total_fees"`
	IsTriple                   bool   `json:"is_triple"`
}

// RedeemedEvent is the decoded body of a Redeemed or RedeemedCurve log.
type RedeemedEvent struct {
	Sender                   string `json:"sender"`
	Receiver                 string `json:"receiver"`
	VaultID                  U256   `json:"vault_id"`
	CurveID                  U256   `json:"curve_id"`
	SharesRedeemedBySender   U256   `json:"shares_redeemed_by_sender"`
	SenderTotalSharesInVault U256   `json:"sender_total_shares_in_vault"`
	AssetsForReceiver        U256   `json:"assets_for_receiver"`
}

// SharePriceChangedEvent is the decoded body of a SharePriceChanged or
// SharePriceChangedCurve log.
type SharePriceChangedEvent struct {
	TermID        U256 `json:"term_id"`
	CurveID       U256 `json:"curve_id"`
	NewSharePrice U256 `json:"new_share_price"`
	TotalShares   U256 `json:"total_shares"`
}

// FeesTransferredEvent is the decoded body of a FeesTransferred log.
type FeesTransferredEvent struct {
	Sender        string `json:"sender"`
	ProtocolVault string `json:"protocol_vault"`
	Amount        U256   `json:"amount"`
}

// DecodedEventBody is the tagged variant carried by a decoded message.
// Exactly one field is non-nil; the field name is the wire tag.
type DecodedEventBody struct {
	AtomCreated            *AtomCreatedEvent       `json:"AtomCreated,omitempty"`
	TripleCreated          *TripleCreatedEvent     `json:"TripleCreated,omitempty"`
	Deposited              *DepositedEvent         `json:"Deposited,omitempty"`
	DepositedCurve         *DepositedEvent         `json:"DepositedCurve,omitempty"`
	Redeemed               *RedeemedEvent          `json:"Redeemed,omitempty"`
	RedeemedCurve          *RedeemedEvent          `json:"RedeemedCurve,omitempty"`
	SharePriceChanged      *SharePriceChangedEvent `json:"SharePriceChanged,omitempty"`
	SharePriceChangedCurve *SharePriceChangedEvent `json:"SharePriceChangedCurve,omitempty"`
	FeesTransferred        *FeesTransferredEvent   `json:"FeesTransferred,omitempty"`
}

// DecodedMessage is the envelope the raw consumer publishes on the decoded
// queue and the projector consumes.
type DecodedMessage struct {
	Body            DecodedEventBody `json:"body"`
	BlockNumber     int64            `json:"block_number"`
	BlockTimestamp  int64            `json:"block_timestamp"`
	TransactionHash string           `json:"transaction_hash"`
	LogIndex        int64            `json:"log_index"`
}

// EventID derives the deterministic audit key for this message.
func (m *DecodedMessage) EventID() string {
	return EventID(m.TransactionHash, m.LogIndex)
}

// ResolveAtomJob wraps the Atom row a resolver job carries.
type ResolveAtomJob struct {
	Atom Atom `json:"atom"`
}

// ResolverMessageBody is the tagged variant of a resolver job: either an
// atom enrichment or an account name lookup.
type ResolverMessageBody struct {
	Atom    *ResolveAtomJob `json:"Atom,omitempty"`
	Account *Account        `json:"Account,omitempty"`
}

// ResolverMessage is the envelope published on the resolver queue.
type ResolverMessage struct {
	Message ResolverMessageBody `json:"message"`
}

// PinImageMessage is the job the resolver emits on the image queue when a
// resolved atom or account carries an image URL that should be classified
// and pinned.
type PinImageMessage struct {
	URL string `json:"url"`
}
