package rawconsumer

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/queue"
)

func mustArg(t *testing.T, typ string) ethabi.Argument {
	t.Helper()
	parsed, err := ethabi.NewType(typ, "", nil)
	if err != nil {
		t.Fatalf("abi type %s: %v", typ, err)
	}
	return ethabi.Argument{Type: parsed}
}

// depositedRawLog builds the raw-log JSON for a Deposited event the way
// the producer would emit it.
func depositedRawLog(t *testing.T) string {
	t.Helper()

	args := ethabi.Arguments{
		mustArg(t, "uint256"), mustArg(t, "uint256"), mustArg(t, "uint256"), mustArg(t, "bool"),
	}
	data, err := args.Pack(big.NewInt(100), big.NewInt(100), big.NewInt(1000), true)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	raw := domain.RawLog{
		GSID:            "000000000100-00000001",
		BlockNumber:     100,
		BlockHash:       "0xblock",
		TransactionHash: "0xtx",
		TransactionIdx:  0,
		LogIndex:        1,
		Address:         "0xffffffffffffffffffffffffffffffffffffffff",
		Data:            "0x" + common.Bytes2Hex(data),
		Topics: []string{
			crypto.Keccak256Hash([]byte("Deposited(address,address,uint256,uint256,uint256,uint256,bool)")).Hex(),
			common.BytesToHash(common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc").Bytes()).Hex(),
			common.BytesToHash(common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd").Bytes()).Hex(),
			common.BigToHash(big.NewInt(20)).Hex(),
		},
		BlockTimestamp: 1000,
	}
	body, err := json.Marshal(&raw)
	if err != nil {
		t.Fatalf("marshal raw log: %v", err)
	}
	return string(body)
}

func TestRelayDepositedLog(t *testing.T) {
	rawQ := queue.New()
	decodedQ := queue.New()
	c := New(rawQ, decodedQ, nil, logrus.WithField("test", true))
	ctx := context.Background()

	if err := rawQ.Send(ctx, depositedRawLog(t), queue.RawGroupID); err != nil {
		t.Fatalf("seed raw queue: %v", err)
	}

	msgs, _ := rawQ.Receive(ctx, 1)
	if len(msgs) != 1 {
		t.Fatal("expected 1 raw message")
	}
	c.process(ctx, msgs[0])

	out, _ := decodedQ.Receive(ctx, 1)
	if len(out) != 1 {
		t.Fatal("expected 1 decoded message")
	}

	var decoded domain.DecodedMessage
	if err := json.Unmarshal([]byte(out[0].Body), &decoded); err != nil {
		t.Fatalf("unmarshal decoded: %v", err)
	}
	d := decoded.Body.Deposited
	if d == nil {
		t.Fatal("expected Deposited variant")
	}
	if d.VaultID.String() != "20" {
		t.Errorf("expected vault 20, got %s", d.VaultID.String())
	}
	if d.CurveID.String() != "1" {
		t.Errorf("expected default curve, got %s", d.CurveID.String())
	}
	if d.Sender != "0xcccccccccccccccccccccccccccccccccccccccc" {
		t.Errorf("expected lowercased sender, got %s", d.Sender)
	}
	if d.SenderAssetsAfterTotalFees.String() != "1000" {
		t.Errorf("expected assets 1000, got %s", d.SenderAssetsAfterTotalFees.String())
	}
	if decoded.BlockNumber != 100 || decoded.LogIndex != 1 || decoded.TransactionHash != "0xtx" {
		t.Errorf("wrong envelope: %+v", decoded)
	}
}

func TestUnknownTopicIsDropped(t *testing.T) {
	rawQ := queue.New()
	decodedQ := queue.New()
	c := New(rawQ, decodedQ, nil, logrus.WithField("test", true))
	ctx := context.Background()

	raw := domain.RawLog{
		GSID:            "000000000100-00000002",
		TransactionHash: "0xtx",
		LogIndex:        2,
		Topics:          []string{crypto.Keccak256Hash([]byte("SomethingElse(uint256)")).Hex()},
	}
	body, _ := json.Marshal(&raw)
	_ = rawQ.Send(ctx, string(body), queue.RawGroupID)

	msgs, _ := rawQ.Receive(ctx, 1)
	c.process(ctx, msgs[0])

	if decodedQ.Len() != 0 {
		t.Errorf("expected nothing published, got %d", decodedQ.Len())
	}
	if rawQ.Len() != 0 {
		t.Errorf("expected raw message consumed, got %d pending", rawQ.Len())
	}
}

func TestMalformedBodyIsDropped(t *testing.T) {
	rawQ := queue.New()
	decodedQ := queue.New()
	c := New(rawQ, decodedQ, nil, logrus.WithField("test", true))
	ctx := context.Background()

	_ = rawQ.Send(ctx, "{not json", queue.RawGroupID)
	msgs, _ := rawQ.Receive(ctx, 1)
	c.process(ctx, msgs[0])

	if decodedQ.Len() != 0 {
		t.Errorf("expected nothing published, got %d", decodedQ.Len())
	}
}
