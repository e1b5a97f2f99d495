package abi

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// signature describes one recognized event: its topic[0] hash and the
// go-ethereum ABI arguments needed to unpack its non-indexed (data) fields.
// Indexed fields are always address/uint256 here and are decoded directly
// from the topic bytes rather than through abi.Arguments, matching how the
// contract emits them.
type signature struct {
	kind     Kind
	dataArgs abi.Arguments
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi: invalid type %q: %v", t, err))
	}
	return typ
}

var signatures = buildSignatureTable()

func buildSignatureTable() map[common.Hash]signature {
	table := make(map[common.Hash]signature)

	reg := func(sig string, kind Kind, dataArgs abi.Arguments) {
		hash := crypto.Keccak256Hash([]byte(sig))
		table[hash] = signature{kind: kind, dataArgs: dataArgs}
	}

	reg("AtomCreated(address,address,uint256,bytes)", KindAtomCreated, abi.Arguments{
		{Type: mustType("bytes")},
	})
	reg("TripleCreated(address,uint256,uint256,uint256,uint256)", KindTripleCreated, abi.Arguments{
		{Type: mustType("uint256")}, // subjectId
		{Type: mustType("uint256")}, // predicateId
		{Type: mustType("uint256")}, // objectId
	})
	reg("Deposited(address,address,uint256,uint256,uint256,uint256,bool)", KindDeposited, abi.Arguments{
		{Type: mustType("uint256")}, // sharesForReceiver
		{Type: mustType("uint256")}, // receiverTotalSharesInVault
		{Type: mustType("uint256")}, // senderAssetsAfterTotalFees
		{Type: mustType("bool")},    // isTriple
	})
	reg("DepositedCurve(address,address,uint256,uint256,uint256,uint256,uint256,bool)", KindDepositedCurve, abi.Arguments{
		{Type: mustType("uint256")}, // curveId
		{Type: mustType("uint256")}, // sharesForReceiver
		{Type: mustType("uint256")}, // receiverTotalSharesInVault
		{Type: mustType("uint256")}, // senderAssetsAfterTotalFees
		{Type: mustType("bool")},    // isTriple
	})
	reg("Redeemed(address,address,uint256,uint256,uint256,uint256)", KindRedeemed, abi.Arguments{
		{Type: mustType("uint256")}, // sharesRedeemedBySender
		{Type: mustType("uint256")}, // senderTotalSharesInVault
		{Type: mustType("uint256")}, // assetsForReceiver
	})
	reg("RedeemedCurve(address,address,uint256,uint256,uint256,uint256,uint256)", KindRedeemedCurve, abi.Arguments{
		{Type: mustType("uint256")}, // curveId
		{Type: mustType("uint256")}, // sharesRedeemedBySender
		{Type: mustType("uint256")}, // senderTotalSharesInVault
		{Type: mustType("uint256")}, // assetsForReceiver
	})
	reg("SharePriceChanged(uint256,uint256,uint256)", KindSharePriceChanged, abi.Arguments{
		{Type: mustType("uint256")}, // newSharePrice
		{Type: mustType("uint256")}, // totalShares
	})
	reg("SharePriceChangedCurve(uint256,uint256,uint256,uint256)", KindSharePriceChangedCurve, abi.Arguments{
		{Type: mustType("uint256")}, // curveId
		{Type: mustType("uint256")}, // newSharePrice
		{Type: mustType("uint256")}, // totalShares
	})
	reg("FeesTransferred(address,address,uint256)", KindFeesTransferred, abi.Arguments{
		{Type: mustType("uint256")}, // amount
	})

	return table
}

// Decode implements the ABI decoder: (topics, data) -> typed event, or
// Unknown for an unrecognized topic[0]. It is pure and side-effect-free.
func Decode(topics []common.Hash, data []byte) (DecodedEvent, error) {
	if len(topics) == 0 {
		return DecodedEvent{Kind: KindUnknown, Unknown: &Unknown{}}, nil
	}

	sig, ok := signatures[topics[0]]
	if !ok {
		return DecodedEvent{Kind: KindUnknown, Unknown: &Unknown{Topic0: topics[0].Hex()}}, nil
	}

	values, err := sig.dataArgs.Unpack(data)
	if err != nil {
		return DecodedEvent{}, fmt.Errorf("unpack %s data: %w", sig.kind, err)
	}

	switch sig.kind {
	case KindAtomCreated:
		return DecodedEvent{Kind: KindAtomCreated, AtomCreated: &AtomCreated{
			Creator:    topicAddress(topics, 1),
			AtomWallet: topicAddress(topics, 2),
			VaultID:    topicUint256(topics, 3),
			AtomData:   values[0].([]byte),
		}}, nil

	case KindTripleCreated:
		return DecodedEvent{Kind: KindTripleCreated, TripleCreated: &TripleCreated{
			Creator:     topicAddress(topics, 1),
			VaultID:     topicUint256(topics, 2),
			SubjectID:   values[0].(*big.Int),
			PredicateID: values[1].(*big.Int),
			ObjectID:    values[2].(*big.Int),
		}}, nil

	case KindDeposited:
		return DecodedEvent{Kind: KindDeposited, Deposited: &Deposited{
			Sender:                     topicAddress(topics, 1),
			Receiver:                   topicAddress(topics, 2),
			VaultID:                    topicUint256(topics, 3),
			SharesForReceiver:          values[0].(*big.Int),
			ReceiverTotalSharesInVault: values[1].(*big.Int),
			SenderAssetsAfterTotalFees: values[2].(*big.Int),
			IsTriple:                   values[3].(bool),
		}}, nil

	case KindDepositedCurve:
		return DecodedEvent{Kind: KindDepositedCurve, DepositedCurve: &DepositedCurve{
			Deposited: Deposited{
				Sender:                     topicAddress(topics, 1),
				Receiver:                   topicAddress(topics, 2),
				VaultID:                    topicUint256(topics, 3),
				SharesForReceiver:          values[1].(*big.Int),
				ReceiverTotalSharesInVault: values[2].(*big.Int),
				SenderAssetsAfterTotalFees: values[3].(*big.Int),
				IsTriple:                   values[4].(bool),
			},
			CurveID: values[0].(*big.Int),
		}}, nil

	case KindRedeemed:
		return DecodedEvent{Kind: KindRedeemed, Redeemed: &Redeemed{
			Sender:                   topicAddress(topics, 1),
			Receiver:                 topicAddress(topics, 2),
			VaultID:                  topicUint256(topics, 3),
			SharesRedeemedBySender:   values[0].(*big.Int),
			SenderTotalSharesInVault: values[1].(*big.Int),
			AssetsForReceiver:        values[2].(*big.Int),
		}}, nil

	case KindRedeemedCurve:
		return DecodedEvent{Kind: KindRedeemedCurve, RedeemedCurve: &RedeemedCurve{
			Redeemed: Redeemed{
				Sender:                   topicAddress(topics, 1),
				Receiver:                 topicAddress(topics, 2),
				VaultID:                  topicUint256(topics, 3),
				SharesRedeemedBySender:   values[1].(*big.Int),
				SenderTotalSharesInVault: values[2].(*big.Int),
				AssetsForReceiver:        values[3].(*big.Int),
			},
			CurveID: values[0].(*big.Int),
		}}, nil

	case KindSharePriceChanged:
		return DecodedEvent{Kind: KindSharePriceChanged, SharePriceChanged: &SharePriceChanged{
			TermID:        topicUint256(topics, 1),
			NewSharePrice: values[0].(*big.Int),
			TotalShares:   values[1].(*big.Int),
		}}, nil

	case KindSharePriceChangedCurve:
		return DecodedEvent{Kind: KindSharePriceChangedCurve, SharePriceChangedCurve: &SharePriceChangedCurve{
			SharePriceChanged: SharePriceChanged{
				TermID:        topicUint256(topics, 1),
				NewSharePrice: values[1].(*big.Int),
				TotalShares:   values[2].(*big.Int),
			},
			CurveID: values[0].(*big.Int),
		}}, nil

	case KindFeesTransferred:
		return DecodedEvent{Kind: KindFeesTransferred, FeesTransferred: &FeesTransferred{
			Sender:        topicAddress(topics, 1),
			ProtocolVault: topicAddress(topics, 2),
			Amount:        values[0].(*big.Int),
		}}, nil
	}

	return DecodedEvent{Kind: KindUnknown, Unknown: &Unknown{Topic0: topics[0].Hex()}}, nil
}

// topicAddress extracts the lower 20 bytes of an indexed address topic.
func topicAddress(topics []common.Hash, idx int) string {
	if idx >= len(topics) {
		return ""
	}
	return common.BytesToAddress(topics[idx].Bytes()).Hex()
}

// topicUint256 reinterprets an indexed topic as a 256-bit unsigned integer.
func topicUint256(topics []common.Hash, idx int) *big.Int {
	if idx >= len(topics) {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(topics[idx].Bytes())
}
