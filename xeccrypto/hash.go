// Package xeccrypto implements the cryptographic primitives the wallet
// builds on: hashing, Base58Check, CashAddr, and the PBKDF2/AES envelope
// used to encrypt mnemonics at rest. Everything that touches a private key
// is expected to run in constant time courtesy of btcec/v2's underlying
// secp256k1 field arithmetic.
package xeccrypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcutil"
)

// Sha256d returns SHA256(SHA256(b)), the double-SHA256 digest used
// throughout the transaction format (txid hashing, sighash, Base58Check).
func Sha256d(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Hash160 returns RIPEMD160(SHA256(b)), the digest used for P2PKH pubkey
// hashes and addresses. Delegates to btcutil, which the module already
// depends on for BIP32 derivation (btcutil/hdkeychain).
func Hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}
