// Package txbuilder assembles and signs eCash transactions: P2PKH
// scriptPubKey/scriptSig construction, a BIP143-shaped sighash digest with
// the SIGHASH_FORKID bit set, and OP_RETURN commitments built from explicit
// length-prefixed pushes.
// eCash carries no SegWit, so signing here produces a legacy scriptSig
// rather than witness data.
package txbuilder

import "github.com/btcsuite/btcd/btcec/v2"

// Input is one UTXO being spent, paired with the key that controls it.
type Input struct {
	TxID     string // display-order (big-endian) hex, as returned by the indexer
	Vout     uint32
	Value    int64  // satoshis carried by the UTXO being spent
	PKScript []byte // the UTXO's own scriptPubKey, used as the BIP143 script code
	PrivKey  *btcec.PrivateKey
}

// Output is one transaction output to create. Value is serialized as given
// for every script; an OP_RETURN script is exempt from the dust check and
// normally carries 0.
type Output struct {
	Value  int64
	Script []byte
}

// Built is an assembled, signed transaction ready for broadcast.
type Built struct {
	TxHex string
	TxID  string
	Size  int
}
