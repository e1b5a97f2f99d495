// Package config loads process configuration from environment variables.
// Every daemon reads the same surface so deployments stay consistent.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-configurable value enumerated in the
// external-interfaces contract. Individual daemons only read the subset
// they need, but all daemons share one loader so the environment surface
// stays consistent across cmd/producer, cmd/rawconsumer, cmd/projector,
// and cmd/resolver.
type Config struct {
	// Storage targets.
	DatabaseURL   string
	IndexerSchema string
	BackendSchema string

	// Queue endpoints.
	RawConsumerQueueURL string
	DecodedLogsQueueURL string
	ResolverQueueURL    string
	IPFSUploadQueueURL  string

	// Target contract and producer range.
	IntuitionContractAddress string
	StartBlock                uint64
	EndBlock                  *uint64

	// Chain RPC.
	RPCURL        string
	MainnetRPCURL string
	ChainID       int64

	// Content-addressed storage.
	IPFSGatewayURL string
	IPFSUploadURL  string
	PinataJWT      string

	// Out-of-scope collaborators touched only at the edges.
	ImageGuardURL string

	// Indexer credentials.
	SubstreamsAPIToken string
	HypersyncToken     string

	// Local development override.
	LocalstackURL string

	// Tuning knobs.
	BatchSize      int
	PollInterval   time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IndexerSchema:  "base_indexer",
		BackendSchema:  "base_indexer",
		StartBlock:     0,
		ChainID:        1,
		BatchSize:      500,
		PollInterval:   3 * time.Second,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
	}
}

// LoadFromEnv loads configuration from environment variables named per the
// external-interfaces contract.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	cfg.DatabaseURL = os.Getenv("INDEXER_DATABASE_URL")
	if v := os.Getenv("INDEXER_SCHEMA"); v != "" {
		cfg.IndexerSchema = v
	}
	if v := os.Getenv("BACKEND_SCHEMA"); v != "" {
		cfg.BackendSchema = v
	}

	cfg.RawConsumerQueueURL = os.Getenv("RAW_CONSUMER_QUEUE_URL")
	cfg.DecodedLogsQueueURL = os.Getenv("DECODED_LOGS_QUEUE_URL")
	cfg.ResolverQueueURL = os.Getenv("RESOLVER_QUEUE_URL")
	cfg.IPFSUploadQueueURL = os.Getenv("IPFS_UPLOAD_QUEUE_URL")

	cfg.IntuitionContractAddress = os.Getenv("INTUITION_CONTRACT_ADDRESS")

	if v := os.Getenv("START_BLOCK"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse START_BLOCK: %w", err)
		}
		cfg.StartBlock = n
	}
	if v := os.Getenv("END_BLOCK"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse END_BLOCK: %w", err)
		}
		cfg.EndBlock = &n
	}

	cfg.RPCURL = os.Getenv("RPC_URL")
	cfg.MainnetRPCURL = os.Getenv("MAINNET_RPC_URL")

	cfg.IPFSGatewayURL = os.Getenv("IPFS_GATEWAY_URL")
	if cfg.IPFSGatewayURL == "" {
		cfg.IPFSGatewayURL = "https://ipfs.io/ipfs/"
	}
	cfg.IPFSUploadURL = os.Getenv("IPFS_UPLOAD_URL")
	cfg.PinataJWT = os.Getenv("PINATA_JWT")

	cfg.ImageGuardURL = os.Getenv("IMAGE_GUARD_URL")

	cfg.SubstreamsAPIToken = os.Getenv("SUBSTREAMS_API_TOKEN")
	cfg.HypersyncToken = os.Getenv("HYPERSYNC_TOKEN")

	cfg.LocalstackURL = os.Getenv("LOCALSTACK_URL")

	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse BATCH_SIZE: %w", err)
		}
		cfg.BatchSize = n
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. Configuration errors
// are fatal at startup, never discovered mid-run.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("INDEXER_DATABASE_URL required")
	}
	if c.IndexerSchema == "" {
		return fmt.Errorf("INDEXER_SCHEMA required")
	}
	if c.IntuitionContractAddress == "" {
		return fmt.Errorf("INTUITION_CONTRACT_ADDRESS required")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL required")
	}
	if c.BatchSize < 1 || c.BatchSize > 2000 {
		return fmt.Errorf("BATCH_SIZE must be between 1 and 2000")
	}
	return nil
}
