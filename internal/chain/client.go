// Package chain provides the JSON-RPC access layer for the target EVM
// chain: a thin HTTP client plus the narrow Reader interface the projector
// and resolver depend on.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/0xintuition/intuition-indexer/internal/resilience"
)

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// Config holds client configuration.
type Config struct {
	RPCURL  string
	ChainID int64
	Timeout time.Duration
	Retry   resilience.HTTPRetryConfig
	// AuthToken, when set, is sent as a bearer token; hosted indexer
	// endpoints require it.
	AuthToken string
}

// Client is a JSON-RPC 2.0 client over HTTPS. It is safe for concurrent use
// and shared across a process's workers.
type Client struct {
	rpcURL     string
	chainID    int64
	httpClient *http.Client
	retry      resilience.HTTPRetryConfig
	authToken  string
}

// NewClient creates a JSON-RPC client. Each call carries the configured
// per-call timeout (3s unless overridden) and is retried up to the
// configured budget on transport failure.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultHTTPRetryConfig()
	}

	return &Client{
		rpcURL:     cfg.RPCURL,
		chainID:    cfg.ChainID,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		authToken:  cfg.AuthToken,
	}, nil
}

// ChainID returns the configured chain id, used to scope cache keys.
func (c *Client) ChainID() int64 {
	return c.chainID
}

// Call makes a JSON-RPC call. Transport failures and 5xx responses are
// retried under the client's backoff budget; a JSON-RPC error object is
// returned as-is without retrying, since the node understood the request.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	var result json.RawMessage
	err = resilience.RetryHTTP(ctx, c.retry, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build rpc request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.authToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s: status %d", method, resp.StatusCode)
		}

		var rpcResp RPCResponse
		if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}
		if rpcResp.Error != nil {
			return resilience.Permanent(rpcResp.Error)
		}
		result = rpcResp.Result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BlockRef renders a block identifier for the RPC wire: a hex-prefixed
// number for concrete blocks, "latest" when n is negative.
func BlockRef(n int64) string {
	if n < 0 {
		return "latest"
	}
	return fmt.Sprintf("0x%x", n)
}
