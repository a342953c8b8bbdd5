package keys

import (
	"strings"
	"testing"
)

func TestGenerateMnemonic(t *testing.T) {
	tests := []struct {
		name      string
		bits      int
		wantWords int
		wantErr   bool
	}{
		{"12 words", 128, 12, false},
		{"24 words", 256, 24, false},
		{"unsupported entropy", 160, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := GenerateMnemonic(tt.bits)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateMnemonic: %v", err)
			}
			if got := len(strings.Fields(m)); got != tt.wantWords {
				t.Fatalf("word count = %d, want %d", got, tt.wantWords)
			}
			if err := ValidateMnemonic(m); err != nil {
				t.Fatalf("generated mnemonic failed validation: %v", err)
			}
		})
	}
}

func TestValidateMnemonic(t *testing.T) {
	good, err := GenerateMnemonic(128)
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	if err := ValidateMnemonic(good); err != nil {
		t.Fatalf("valid mnemonic rejected: %v", err)
	}

	words := strings.Fields(good)
	words[0] = "zzzzzzzz"
	if err := ValidateMnemonic(strings.Join(words, " ")); err == nil {
		t.Fatal("expected error for invalid word, got nil")
	}

	if err := ValidateMnemonic("abandon abandon abandon"); err == nil {
		t.Fatal("expected error for too few words, got nil")
	}
}

func TestMnemonicToSeedDeterministic(t *testing.T) {
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	seed1, err := MnemonicToSeed(mnemonic, "")
	if err != nil {
		t.Fatalf("MnemonicToSeed: %v", err)
	}
	seed2, err := MnemonicToSeed(mnemonic, "")
	if err != nil {
		t.Fatalf("MnemonicToSeed: %v", err)
	}
	if len(seed1) != 64 {
		t.Fatalf("seed length = %d, want 64", len(seed1))
	}
	if string(seed1) != string(seed2) {
		t.Fatal("seed derivation is not deterministic")
	}

	seedWithPass, err := MnemonicToSeed(mnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("MnemonicToSeed with passphrase: %v", err)
	}
	if string(seedWithPass) == string(seed1) {
		t.Fatal("passphrase did not change derived seed")
	}

	if _, err := MnemonicToSeed("not a mnemonic", ""); err == nil {
		t.Fatal("expected error for invalid mnemonic, got nil")
	}
}
