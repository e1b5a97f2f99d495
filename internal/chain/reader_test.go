package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
)

const testContract = "0xffffffffffffffffffffffffffffffffffffffff"

// rpcServer serves canned eth_call results keyed by the 4-byte selector.
func rpcServer(t *testing.T, results map[string]string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Method != "eth_call" {
			t.Errorf("unexpected method %s", req.Method)
			return
		}
		if calls != nil {
			*calls++
		}

		callObj := req.Params[0].(map[string]interface{})
		data := callObj["data"].(string)
		selector := data[:10]

		result, ok := results[selector]
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","error":{"code":-32000,"message":"unknown selector"},"id":1}`)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","result":%q,"id":1}`, result)
	}))
}

func selectorFor(t *testing.T, reader *ContractReader, method string, args ...interface{}) string {
	t.Helper()
	input, err := reader.abi.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	return "0x" + common.Bytes2Hex(input[:4])
}

func uint256Result(v int64) string {
	return "0x" + common.Bytes2Hex(common.BigToHash(big.NewInt(v)).Bytes())
}

func newTestReader(t *testing.T, url string) *ContractReader {
	t.Helper()
	client, err := NewClient(Config{
		RPCURL:  url,
		ChainID: 8453,
		Timeout: time.Second,
		Retry:   resilience.HTTPRetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	reader, err := NewContractReader(client, testContract, nil)
	if err != nil {
		t.Fatalf("NewContractReader: %v", err)
	}
	return reader
}

func TestCurrentSharePrice(t *testing.T) {
	reader := newTestReader(t, "http://placeholder")
	srv := rpcServer(t, map[string]string{
		selectorFor(t, reader, "currentSharePrice", big.NewInt(10), big.NewInt(1)): uint256Result(12345),
	}, nil)
	defer srv.Close()
	reader = newTestReader(t, srv.URL)

	price, err := reader.CurrentSharePrice(context.Background(), domain.U256FromUint64(10), 1, 100)
	if err != nil {
		t.Fatalf("CurrentSharePrice: %v", err)
	}
	if price.String() != "12345" {
		t.Errorf("expected 12345, got %s", price.String())
	}
}

func TestCounterIDFromTriple(t *testing.T) {
	reader := newTestReader(t, "http://placeholder")
	counter := domain.CounterTermID(domain.U256FromUint64(20))
	srv := rpcServer(t, map[string]string{
		selectorFor(t, reader, "getCounterIdFromTriple", big.NewInt(20)): "0x" + common.Bytes2Hex(common.BigToHash(counter.Big()).Bytes()),
	}, nil)
	defer srv.Close()
	reader = newTestReader(t, srv.URL)

	got, err := reader.CounterIDFromTriple(context.Background(), domain.U256FromUint64(20))
	if err != nil {
		t.Fatalf("CounterIDFromTriple: %v", err)
	}
	if got.Cmp(counter) != 0 {
		t.Errorf("expected %s, got %s", counter.String(), got.String())
	}
}

func TestCallReturnsRPCError(t *testing.T) {
	srv := rpcServer(t, map[string]string{}, nil)
	defer srv.Close()
	reader := newTestReader(t, srv.URL)

	_, err := reader.CurrentSharePrice(context.Background(), domain.U256FromUint64(1), 1, 100)
	if err == nil {
		t.Fatal("expected rpc error")
	}
	if !strings.Contains(err.Error(), "unknown selector") {
		t.Errorf("expected rpc error message, got %v", err)
	}
}

func TestBlockRef(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-1, "latest"},
		{0, "0x0"},
		{255, "0xff"},
	}
	for _, tt := range tests {
		if got := BlockRef(tt.in); got != tt.want {
			t.Errorf("BlockRef(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
