package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// Reader is the narrow read-through interface the projector and resolver
// depend on. atBlock < 0 means "latest".
type Reader interface {
	CurrentSharePrice(ctx context.Context, termID domain.U256, curveID int, atBlock int64) (domain.U256, error)
	TotalSharesInVault(ctx context.Context, termID domain.U256, curveID int, atBlock int64) (domain.U256, error)
	CounterIDFromTriple(ctx context.Context, termID domain.U256) (domain.U256, error)
	AtomData(ctx context.Context, atomID domain.U256) ([]byte, error)
}

// multiVaultABI covers the four read functions the pipeline calls on the
// vault contract.
const multiVaultABI = `[
	{"type":"function","name":"currentSharePrice","stateMutability":"view","inputs":[{"name":"termId","type":"uint256"},{"name":"curveId","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"totalSharesInVault","stateMutability":"view","inputs":[{"name":"termId","type":"uint256"},{"name":"curveId","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"getCounterIdFromTriple","stateMutability":"view","inputs":[{"name":"termId","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"atoms","stateMutability":"view","inputs":[{"name":"atomId","type":"uint256"}],"outputs":[{"type":"bytes"}]}
]`

// ContractReader implements Reader over eth_call against the vault
// contract, with an optional read-through cache for calls pinned to a
// concrete block.
type ContractReader struct {
	client   *Client
	contract string
	abi      ethabi.ABI
	cache    *Cache
}

// NewContractReader builds a Reader bound to the target contract address.
// cache may be nil to disable read-through caching.
func NewContractReader(client *Client, contract string, cache *Cache) (*ContractReader, error) {
	parsed, err := ethabi.JSON(strings.NewReader(multiVaultABI))
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}
	return &ContractReader{
		client:   client,
		contract: domain.NormalizeAddress(contract),
		abi:      parsed,
		cache:    cache,
	}, nil
}

// CurrentSharePrice implements Reader.
func (r *ContractReader) CurrentSharePrice(ctx context.Context, termID domain.U256, curveID int, atBlock int64) (domain.U256, error) {
	return r.callUint256(ctx, "currentSharePrice", atBlock, termID.Big(), big.NewInt(int64(curveID)))
}

// TotalSharesInVault implements Reader.
func (r *ContractReader) TotalSharesInVault(ctx context.Context, termID domain.U256, curveID int, atBlock int64) (domain.U256, error) {
	return r.callUint256(ctx, "totalSharesInVault", atBlock, termID.Big(), big.NewInt(int64(curveID)))
}

// CounterIDFromTriple implements Reader. The counter id is a pure function
// of the term id, so the call is always made at "latest".
func (r *ContractReader) CounterIDFromTriple(ctx context.Context, termID domain.U256) (domain.U256, error) {
	return r.callUint256(ctx, "getCounterIdFromTriple", -1, termID.Big())
}

// AtomData implements Reader, returning the raw on-chain payload bytes for
// an atom.
func (r *ContractReader) AtomData(ctx context.Context, atomID domain.U256) ([]byte, error) {
	raw, err := r.ethCall(ctx, "atoms", -1, atomID.Big())
	if err != nil {
		return nil, err
	}
	values, err := r.abi.Unpack("atoms", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack atoms: %w", err)
	}
	return values[0].([]byte), nil
}

func (r *ContractReader) callUint256(ctx context.Context, method string, atBlock int64, args ...interface{}) (domain.U256, error) {
	raw, err := r.ethCall(ctx, method, atBlock, args...)
	if err != nil {
		return domain.ZeroU256(), err
	}
	values, err := r.abi.Unpack(method, raw)
	if err != nil {
		return domain.ZeroU256(), fmt.Errorf("unpack %s: %w", method, err)
	}
	return domain.NewU256(values[0].(*big.Int)), nil
}

// ethCall encodes and performs one eth_call, consulting the cache first
// when the block reference is concrete. A cache is only trusted for pinned
// blocks because "latest" results go stale immediately.
func (r *ContractReader) ethCall(ctx context.Context, method string, atBlock int64, args ...interface{}) ([]byte, error) {
	input, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	inputHex := "0x" + common.Bytes2Hex(input)
	blockRef := BlockRef(atBlock)

	cacheable := atBlock >= 0 && r.cache != nil
	if cacheable {
		if hit, ok, err := r.cache.Get(ctx, r.client.ChainID(), "eth_call", r.contract, inputHex, blockRef); err == nil && ok {
			return common.FromHex(hit), nil
		}
	}

	params := []interface{}{
		map[string]string{"to": r.contract, "data": inputHex},
		blockRef,
	}
	result, err := r.client.Call(ctx, "eth_call", params)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", method, err)
	}

	var outHex string
	if err := json.Unmarshal(result, &outHex); err != nil {
		return nil, fmt.Errorf("decode eth_call %s result: %w", method, err)
	}

	if cacheable {
		// Best effort: a failed cache write never fails the read.
		_ = r.cache.Put(ctx, r.client.ChainID(), "eth_call", r.contract, inputHex, blockRef, outHex)
	}
	return common.FromHex(outHex), nil
}
