package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// DeriveMasterKey derives the BIP-32 master extended key from a seed, using
// the standard "Bitcoin seed" HMAC key (the same master-key derivation XEC,
// BCH and BTC all share).
func DeriveMasterKey(seed []byte, net *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	master, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	return master, nil
}

// PrivateKeyFromExtended extracts the raw 32-byte secp256k1 scalar from an
// extended key.
func PrivateKeyFromExtended(key *hdkeychain.ExtendedKey) (*btcec.PrivateKey, error) {
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	return priv, nil
}

// NetworkParams returns the chaincfg.Params for "mainnet" or "testnet";
// defaults to mainnet for any other value.
func NetworkParams(network string) *chaincfg.Params {
	if network == "testnet" {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}
