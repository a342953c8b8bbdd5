package keys

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// PubKeyHash returns HASH160 of the compressed public key.
func PubKeyHash(pub *btcec.PublicKey) []byte {
	return xeccrypto.Hash160(pub.SerializeCompressed())
}

// AddressFromPubKey derives the CashAddr P2PKH address for a public key.
func AddressFromPubKey(pub *btcec.PublicKey) (string, error) {
	return xeccrypto.EncodeCashAddr(PubKeyHash(pub), xeccrypto.CashAddrTypeP2PKH)
}

// AddressFromHash160 derives the CashAddr P2PKH address for a pre-computed
// 20-byte hash, used when reconstructing an address without the pubkey.
func AddressFromHash160(hash160 []byte) (string, error) {
	return xeccrypto.EncodeCashAddr(hash160, xeccrypto.CashAddrTypeP2PKH)
}
