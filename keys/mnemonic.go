package keys

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// GenerateMnemonic creates a new BIP-39 mnemonic from entropyBits of
// randomness (128 -> 12 words, 256 -> 24 words).
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != 128 && entropyBits != 256 {
		return "", fmt.Errorf("generate mnemonic: %w: entropyBits must be 128 or 256, got %d", walleterrors.ErrInvalidInput, entropyBits)
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w: %v", walleterrors.ErrInvalidInput, err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks a BIP-39 mnemonic against the English wordlist and
// its embedded checksum. Accepts 12 or 24 word phrases.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("validate mnemonic: %w", walleterrors.ErrInvalidInput)
	}

	words := strings.Fields(mnemonic)
	if len(words) != 12 && len(words) != 24 {
		return fmt.Errorf("validate mnemonic: %w: expected 12 or 24 words, got %d", walleterrors.ErrInvalidInput, len(words))
	}
	return nil
}

// MnemonicToSeed derives the 64-byte BIP-39 seed via
// PBKDF2-HMAC-SHA512("mnemonic"+passphrase, 2048 iterations).
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("mnemonic to seed: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	return seed, nil
}
