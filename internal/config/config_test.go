package config

import "testing"

func TestValidate_ValidNetworks(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet"} {
		cfg := &Config{
			Network:            network,
			FeeRateSatsPerByte: 1.2,
			CacheTTLSeconds:    30,
			MemoPrefix:         "6d02",
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%q) error = %v, want nil", network, err)
		}
	}
}

func TestValidate_InvalidNetwork(t *testing.T) {
	tests := []string{"", "foobar", "Mainnet", "devnet"}
	for _, network := range tests {
		t.Run(network, func(t *testing.T) {
			cfg := &Config{
				Network:            network,
				FeeRateSatsPerByte: 1.2,
				CacheTTLSeconds:    30,
				MemoPrefix:         "6d02",
			}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() expected error for network=%q, got nil", network)
			}
		})
	}
}

func TestValidate_InvalidFeeRate(t *testing.T) {
	tests := []float64{0, -1.2}
	for _, rate := range tests {
		cfg := &Config{
			Network:            "mainnet",
			FeeRateSatsPerByte: rate,
			CacheTTLSeconds:    30,
			MemoPrefix:         "6d02",
		}
		if err := cfg.Validate(); err == nil {
			t.Fatalf("Validate() expected error for fee rate=%v, got nil", rate)
		}
	}
}

func TestValidate_InvalidCacheTTL(t *testing.T) {
	cfg := &Config{
		Network:            "mainnet",
		FeeRateSatsPerByte: 1.2,
		CacheTTLSeconds:    0,
		MemoPrefix:         "6d02",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for zero cache TTL, got nil")
	}
}

func TestValidate_EmptyMemoPrefix(t *testing.T) {
	cfg := &Config{
		Network:            "mainnet",
		FeeRateSatsPerByte: 1.2,
		CacheTTLSeconds:    30,
		MemoPrefix:         "  ",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for blank memo prefix, got nil")
	}
}
