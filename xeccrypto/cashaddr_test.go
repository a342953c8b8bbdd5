package xeccrypto

import (
	"bytes"
	"testing"
)

func TestCashAddrRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		hash []byte
		typ  int
	}{
		{"p2pkh all zero", make([]byte, 20), CashAddrTypeP2PKH},
		{"p2pkh all ff", bytes.Repeat([]byte{0xff}, 20), CashAddrTypeP2PKH},
		{"p2sh mixed", func() []byte {
			h := make([]byte, 20)
			for i := range h {
				h[i] = byte(i * 7)
			}
			return h
		}(), CashAddrTypeP2SH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := EncodeCashAddr(tt.hash, tt.typ)
			if err != nil {
				t.Fatalf("EncodeCashAddr() error = %v", err)
			}
			if addr[:len(MainnetPrefix)+1] != MainnetPrefix+":" {
				t.Errorf("encoded address missing ecash: prefix, got %q", addr)
			}

			gotHash, gotType, err := DecodeCashAddr(addr)
			if err != nil {
				t.Fatalf("DecodeCashAddr() error = %v", err)
			}
			if !bytes.Equal(gotHash, tt.hash) {
				t.Errorf("decoded hash = %x, want %x", gotHash, tt.hash)
			}
			if gotType != tt.typ {
				t.Errorf("decoded type = %d, want %d", gotType, tt.typ)
			}
		})
	}
}

func TestCashAddrEtokenPrefixNormalizes(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	ecashAddr, err := EncodeCashAddr(hash, CashAddrTypeP2PKH)
	if err != nil {
		t.Fatalf("EncodeCashAddr() error = %v", err)
	}

	body := ecashAddr[len(MainnetPrefix)+1:]
	etokenAddr := legacyTokenPrefix + ":" + body

	gotHash, gotType, err := DecodeCashAddr(etokenAddr)
	if err != nil {
		t.Fatalf("DecodeCashAddr(etoken) error = %v", err)
	}
	if !bytes.Equal(gotHash, hash) || gotType != CashAddrTypeP2PKH {
		t.Errorf("etoken decode mismatch: hash=%x type=%d", gotHash, gotType)
	}

	normalized, err := NormalizePrefix(etokenAddr)
	if err != nil {
		t.Fatalf("NormalizePrefix() error = %v", err)
	}
	if normalized != ecashAddr {
		t.Errorf("NormalizePrefix() = %q, want %q", normalized, ecashAddr)
	}
}

func TestCashAddrRejectsBadChecksum(t *testing.T) {
	hash := make([]byte, 20)
	addr, err := EncodeCashAddr(hash, CashAddrTypeP2PKH)
	if err != nil {
		t.Fatalf("EncodeCashAddr() error = %v", err)
	}

	// Flip the last character, which lives in the checksum.
	runes := []byte(addr)
	last := runes[len(runes)-1]
	for _, c := range []byte(cashAddrCharset) {
		if c != last {
			runes[len(runes)-1] = c
			break
		}
	}
	corrupted := string(runes)

	if _, _, err := DecodeCashAddr(corrupted); err == nil {
		t.Errorf("DecodeCashAddr() on corrupted checksum: want error, got nil")
	}
}

func TestCashAddrRejectsWrongHashLength(t *testing.T) {
	if _, err := EncodeCashAddr(make([]byte, 19), CashAddrTypeP2PKH); err == nil {
		t.Errorf("EncodeCashAddr() with 19-byte hash: want error, got nil")
	}
}
