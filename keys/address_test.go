package keys

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

func TestAddressFromPubKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pub := priv.PubKey()

	addr, err := AddressFromPubKey(pub)
	if err != nil {
		t.Fatalf("AddressFromPubKey: %v", err)
	}
	if !strings.HasPrefix(addr, "ecash:") {
		t.Fatalf("address %q missing ecash prefix", addr)
	}

	hash, addrType, err := xeccrypto.DecodeCashAddr(addr)
	if err != nil {
		t.Fatalf("DecodeCashAddr: %v", err)
	}
	if addrType != xeccrypto.CashAddrTypeP2PKH {
		t.Fatalf("address type = %d, want P2PKH", addrType)
	}
	if string(hash) != string(PubKeyHash(pub)) {
		t.Fatal("decoded hash does not match PubKeyHash")
	}
}

func TestAddressFromHash160(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}

	addr, err := AddressFromHash160(hash)
	if err != nil {
		t.Fatalf("AddressFromHash160: %v", err)
	}

	decoded, _, err := xeccrypto.DecodeCashAddr(addr)
	if err != nil {
		t.Fatalf("DecodeCashAddr: %v", err)
	}
	if string(decoded) != string(hash) {
		t.Fatal("round trip hash mismatch")
	}

	if _, err := AddressFromHash160([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short hash, got nil")
	}
}
