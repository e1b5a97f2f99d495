package abi

import (
	"math/big"
	"testing"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func topicOf(sig string) common.Hash {
	return crypto.Keccak256Hash([]byte(sig))
}

func addressTopic(addr string) common.Hash {
	return common.BytesToHash(common.HexToAddress(addr).Bytes())
}

func uintTopic(v int64) common.Hash {
	return common.BigToHash(big.NewInt(v))
}

func pack(t *testing.T, types []string, values ...interface{}) []byte {
	t.Helper()
	args := make(ethabi.Arguments, len(types))
	for i, typ := range types {
		args[i] = ethabi.Argument{Type: mustType(typ)}
	}
	data, err := args.Pack(values...)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return data
}

func TestDecodeAtomCreated(t *testing.T) {
	topics := []common.Hash{
		topicOf("AtomCreated(address,address,uint256,bytes)"),
		addressTopic("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		addressTopic("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		uintTopic(10),
	}
	data := pack(t, []string{"bytes"}, []byte("ipfs://QmX"))

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindAtomCreated {
		t.Fatalf("expected AtomCreated, got %s", ev.Kind)
	}
	if ev.AtomCreated.VaultID.Int64() != 10 {
		t.Errorf("expected vault 10, got %s", ev.AtomCreated.VaultID)
	}
	if string(ev.AtomCreated.AtomData) != "ipfs://QmX" {
		t.Errorf("wrong atom data: %q", ev.AtomCreated.AtomData)
	}
	if ev.AtomCreated.Creator != common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa").Hex() {
		t.Errorf("wrong creator: %s", ev.AtomCreated.Creator)
	}
}

func TestDecodeTripleCreated(t *testing.T) {
	topics := []common.Hash{
		topicOf("TripleCreated(address,uint256,uint256,uint256,uint256)"),
		addressTopic("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		uintTopic(20),
	}
	data := pack(t, []string{"uint256", "uint256", "uint256"},
		big.NewInt(1), big.NewInt(2), big.NewInt(3))

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindTripleCreated {
		t.Fatalf("expected TripleCreated, got %s", ev.Kind)
	}
	tc := ev.TripleCreated
	if tc.VaultID.Int64() != 20 || tc.SubjectID.Int64() != 1 || tc.PredicateID.Int64() != 2 || tc.ObjectID.Int64() != 3 {
		t.Errorf("wrong ids: %+v", tc)
	}
}

func TestDecodeDeposited(t *testing.T) {
	topics := []common.Hash{
		topicOf("Deposited(address,address,uint256,uint256,uint256,uint256,bool)"),
		addressTopic("0xcccccccccccccccccccccccccccccccccccccccc"),
		addressTopic("0xdddddddddddddddddddddddddddddddddddddddd"),
		uintTopic(20),
	}
	data := pack(t, []string{"uint256", "uint256", "uint256", "bool"},
		big.NewInt(100), big.NewInt(100), big.NewInt(1000), true)

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindDeposited {
		t.Fatalf("expected Deposited, got %s", ev.Kind)
	}
	d := ev.Deposited
	if d.SharesForReceiver.Int64() != 100 || d.ReceiverTotalSharesInVault.Int64() != 100 {
		t.Errorf("wrong shares: %+v", d)
	}
	if d.SenderAssetsAfterTotalFees.Int64() != 1000 {
		t.Errorf("wrong assets: %s", d.SenderAssetsAfterTotalFees)
	}
	if !d.IsTriple {
		t.Error("expected isTriple")
	}
}

func TestDecodeDepositedCurve(t *testing.T) {
	topics := []common.Hash{
		topicOf("DepositedCurve(address,address,uint256,uint256,uint256,uint256,uint256,bool)"),
		addressTopic("0xcccccccccccccccccccccccccccccccccccccccc"),
		addressTopic("0xdddddddddddddddddddddddddddddddddddddddd"),
		uintTopic(20),
	}
	data := pack(t, []string{"uint256", "uint256", "uint256", "uint256", "bool"},
		big.NewInt(4), big.NewInt(100), big.NewInt(100), big.NewInt(1000), false)

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindDepositedCurve {
		t.Fatalf("expected DepositedCurve, got %s", ev.Kind)
	}
	if ev.DepositedCurve.CurveID.Int64() != 4 {
		t.Errorf("expected curve 4, got %s", ev.DepositedCurve.CurveID)
	}
	if ev.DepositedCurve.SharesForReceiver.Int64() != 100 {
		t.Errorf("wrong shares: %s", ev.DepositedCurve.SharesForReceiver)
	}
}

func TestDecodeRedeemed(t *testing.T) {
	topics := []common.Hash{
		topicOf("Redeemed(address,address,uint256,uint256,uint256,uint256)"),
		addressTopic("0xdddddddddddddddddddddddddddddddddddddddd"),
		addressTopic("0xdddddddddddddddddddddddddddddddddddddddd"),
		uintTopic(20),
	}
	data := pack(t, []string{"uint256", "uint256", "uint256"},
		big.NewInt(100), big.NewInt(0), big.NewInt(950))

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindRedeemed {
		t.Fatalf("expected Redeemed, got %s", ev.Kind)
	}
	r := ev.Redeemed
	if r.SharesRedeemedBySender.Int64() != 100 || r.SenderTotalSharesInVault.Int64() != 0 || r.AssetsForReceiver.Int64() != 950 {
		t.Errorf("wrong fields: %+v", r)
	}
}

func TestDecodeSharePriceChangedCurve(t *testing.T) {
	topics := []common.Hash{
		topicOf("SharePriceChangedCurve(uint256,uint256,uint256,uint256)"),
		uintTopic(99),
	}
	data := pack(t, []string{"uint256", "uint256", "uint256"},
		big.NewInt(7), big.NewInt(500), big.NewInt(2000))

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindSharePriceChangedCurve {
		t.Fatalf("expected SharePriceChangedCurve, got %s", ev.Kind)
	}
	s := ev.SharePriceChangedCurve
	if s.TermID.Int64() != 99 || s.CurveID.Int64() != 7 || s.NewSharePrice.Int64() != 500 || s.TotalShares.Int64() != 2000 {
		t.Errorf("wrong fields: %+v", s)
	}
}

func TestDecodeFeesTransferred(t *testing.T) {
	topics := []common.Hash{
		topicOf("FeesTransferred(address,address,uint256)"),
		addressTopic("0xcccccccccccccccccccccccccccccccccccccccc"),
		addressTopic("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"),
	}
	data := pack(t, []string{"uint256"}, big.NewInt(42))

	ev, err := Decode(topics, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindFeesTransferred {
		t.Fatalf("expected FeesTransferred, got %s", ev.Kind)
	}
	if ev.FeesTransferred.Amount.Int64() != 42 {
		t.Errorf("expected 42, got %s", ev.FeesTransferred.Amount)
	}
}

func TestDecodeUnknownTopic(t *testing.T) {
	topics := []common.Hash{topicOf("SomethingElse(uint256)")}

	ev, err := Decode(topics, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindUnknown {
		t.Fatalf("expected Unknown, got %s", ev.Kind)
	}
	if ev.Unknown.Topic0 != topics[0].Hex() {
		t.Errorf("expected topic0 %s, got %s", topics[0].Hex(), ev.Unknown.Topic0)
	}
}

func TestDecodeNoTopics(t *testing.T) {
	ev, err := Decode(nil, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Kind != KindUnknown {
		t.Errorf("expected Unknown, got %s", ev.Kind)
	}
}
