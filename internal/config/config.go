// Package config loads ambient wallet tuning values from the environment,
// in the same envconfig+godotenv style used by server deployments of this
// codebase, so a host application can override fee rate, cache TTL, or
// endpoint selection without recompiling.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the ambient tunables a wallet facade reads at construction
// time. All fields have defaults matching the spec's stated values.
type Config struct {
	LogLevel string `envconfig:"XECWALLET_LOG_LEVEL" default:"info"`
	Network  string `envconfig:"XECWALLET_NETWORK" default:"mainnet"`

	FeeRateSatsPerByte float64 `envconfig:"XECWALLET_FEE_RATE" default:"1.2"`
	MemoPrefix         string  `envconfig:"XECWALLET_MEMO_PREFIX" default:"6d02"`

	CacheTTLSeconds         int `envconfig:"XECWALLET_CACHE_TTL_SECONDS" default:"30"`
	ConsolidationThreshold  int `envconfig:"XECWALLET_CONSOLIDATION_THRESHOLD_SATS" default:"100000"`
	MaxConsolidationInputs  int `envconfig:"XECWALLET_MAX_CONSOLIDATION_INPUTS" default:"200"`

	ChronikEndpoints []string `envconfig:"XECWALLET_CHRONIK_ENDPOINTS"`
}

// Load reads a .env file (if present) then environment variables, returning
// a Config with library defaults applied. A host application may also
// construct Config literally and skip Load entirely.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	if len(cfg.ChronikEndpoints) == 0 {
		cfg.ChronikEndpoints = append([]string(nil), DefaultChronikEndpoints...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "testnet" {
		return fmt.Errorf("%w: network must be \"mainnet\" or \"testnet\", got %q", ErrInvalidConfig, c.Network)
	}
	if c.FeeRateSatsPerByte <= 0 {
		return fmt.Errorf("%w: fee rate must be positive, got %v", ErrInvalidConfig, c.FeeRateSatsPerByte)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("%w: cache TTL must be positive, got %d", ErrInvalidConfig, c.CacheTTLSeconds)
	}
	if strings.TrimSpace(c.MemoPrefix) == "" {
		return fmt.Errorf("%w: memo prefix must not be empty", ErrInvalidConfig)
	}
	return nil
}
