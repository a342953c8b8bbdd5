package keys

import (
	"strings"
	"testing"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewIdentityFromMnemonic(t *testing.T) {
	id, err := NewIdentityFromMnemonic(testMnemonic, "", "", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic: %v", err)
	}
	if id.Path != DefaultPath {
		t.Fatalf("path = %q, want %q", id.Path, DefaultPath)
	}
	if !strings.HasPrefix(id.Address, "ecash:") {
		t.Fatalf("address %q missing ecash prefix", id.Address)
	}
	if len(id.Hash160) != 20 {
		t.Fatalf("hash160 length = %d, want 20", len(id.Hash160))
	}

	id2, err := NewIdentityFromMnemonic(testMnemonic, "", "", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic (2nd): %v", err)
	}
	if id.Address != id2.Address {
		t.Fatal("same mnemonic+path produced different addresses")
	}

	idOtherPath, err := NewIdentityFromMnemonic(testMnemonic, "", "m/44'/899'/0'/0/1", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic (other path): %v", err)
	}
	if idOtherPath.Address == id.Address {
		t.Fatal("different derivation paths produced the same address")
	}
}

func TestIdentityWIFRoundTrip(t *testing.T) {
	id, err := NewIdentityFromMnemonic(testMnemonic, "", "", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic: %v", err)
	}

	wif, err := id.WIF()
	if err != nil {
		t.Fatalf("WIF: %v", err)
	}

	imported, err := NewIdentityFromWIF(wif)
	if err != nil {
		t.Fatalf("NewIdentityFromWIF: %v", err)
	}
	if imported.Address != id.Address {
		t.Fatal("identity imported from WIF has a different address")
	}
	if imported.Mnemonic != "" {
		t.Fatal("WIF-imported identity should carry no mnemonic")
	}
}

func TestNewIdentityFromRawKey(t *testing.T) {
	id, err := NewIdentityFromMnemonic(testMnemonic, "", "", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic: %v", err)
	}

	raw := make([]byte, 32)
	copy(raw, id.PrivateKey[:])

	imported, err := NewIdentityFromRawKey(raw, Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromRawKey: %v", err)
	}
	if imported.Address != id.Address {
		t.Fatal("identity imported from raw key has a different address")
	}

	if _, err := NewIdentityFromRawKey([]byte{1, 2, 3}, Mainnet); err == nil {
		t.Fatal("expected error for short key, got nil")
	}

	zero := make([]byte, 32)
	if _, err := NewIdentityFromRawKey(zero, Mainnet); err == nil {
		t.Fatal("expected error for zero key, got nil")
	}
}

func TestIdentityZero(t *testing.T) {
	id, err := NewIdentityFromMnemonic(testMnemonic, "", "", Mainnet)
	if err != nil {
		t.Fatalf("NewIdentityFromMnemonic: %v", err)
	}

	id.Zero()
	for i, b := range id.PrivateKey {
		if b != 0 {
			t.Fatalf("PrivateKey[%d] = %d, want 0 after Zero", i, b)
		}
	}
	if id.Mnemonic != "" {
		t.Fatal("mnemonic not cleared after Zero")
	}
}
