package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/0xintuition/intuition-indexer/internal/chain"
	"github.com/0xintuition/intuition-indexer/internal/domain"
)

// RPCSource implements Source over a standard JSON-RPC node using
// eth_blockNumber and eth_getLogs, with block timestamps backfilled via
// eth_getBlockByNumber.
type RPCSource struct {
	client *chain.Client
}

// NewRPCSource wraps a chain client as a historical log source.
func NewRPCSource(client *chain.Client) *RPCSource {
	return &RPCSource{client: client}
}

// Height implements Source.
func (s *RPCSource) Height(ctx context.Context) (uint64, error) {
	result, err := s.client.Call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}
	var hex string
	if err := json.Unmarshal(result, &hex); err != nil {
		return 0, fmt.Errorf("decode eth_blockNumber: %w", err)
	}
	return parseHexUint(hex)
}

// rpcLog is the wire shape of one eth_getLogs entry.
type rpcLog struct {
	BlockNumber      string   `json:"blockNumber"`
	BlockHash        string   `json:"blockHash"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	LogIndex         string   `json:"logIndex"`
	Address          string   `json:"address"`
	Data             string   `json:"data"`
	Topics           []string `json:"topics"`
}

// Logs implements Source. Timestamps are fetched once per distinct block in
// the batch.
func (s *RPCSource) Logs(ctx context.Context, address string, from, to uint64) ([]domain.RawLog, error) {
	params := []interface{}{map[string]interface{}{
		"fromBlock": chain.BlockRef(int64(from)),
		"toBlock":   chain.BlockRef(int64(to)),
		"address":   domain.NormalizeAddress(address),
	}}
	result, err := s.client.Call(ctx, "eth_getLogs", params)
	if err != nil {
		return nil, err
	}

	var entries []rpcLog
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, fmt.Errorf("decode eth_getLogs: %w", err)
	}

	timestamps := make(map[uint64]int64)
	out := make([]domain.RawLog, 0, len(entries))
	for _, e := range entries {
		block, err := parseHexUint(e.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("parse log block number %q: %w", e.BlockNumber, err)
		}
		logIndex, err := parseHexUint(e.LogIndex)
		if err != nil {
			return nil, fmt.Errorf("parse log index %q: %w", e.LogIndex, err)
		}
		txIndex, err := parseHexUint(e.TransactionIndex)
		if err != nil {
			return nil, fmt.Errorf("parse tx index %q: %w", e.TransactionIndex, err)
		}

		ts, ok := timestamps[block]
		if !ok {
			ts, err = s.blockTimestamp(ctx, block)
			if err != nil {
				return nil, err
			}
			timestamps[block] = ts
		}

		out = append(out, domain.RawLog{
			GSID:            fmt.Sprintf("%012d-%08d", block, logIndex),
			BlockNumber:     int64(block),
			BlockHash:       e.BlockHash,
			TransactionHash: e.TransactionHash,
			TransactionIdx:  int64(txIndex),
			LogIndex:        int64(logIndex),
			Address:         domain.NormalizeAddress(e.Address),
			Data:            e.Data,
			Topics:          e.Topics,
			BlockTimestamp:  ts,
		})
	}
	return out, nil
}

func (s *RPCSource) blockTimestamp(ctx context.Context, block uint64) (int64, error) {
	result, err := s.client.Call(ctx, "eth_getBlockByNumber", []interface{}{chain.BlockRef(int64(block)), false})
	if err != nil {
		return 0, err
	}
	var header struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(result, &header); err != nil {
		return 0, fmt.Errorf("decode block %d header: %w", block, err)
	}
	ts, err := parseHexUint(header.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("parse block %d timestamp: %w", block, err)
	}
	return int64(ts), nil
}

func parseHexUint(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, 64)
}
