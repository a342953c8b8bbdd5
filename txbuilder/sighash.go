package txbuilder

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"

	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// sighashALLForkID computes the digest signed for input inputIndex, using
// the BIP143 preimage layout (hashPrevouts/hashSequence/hashOutputs) with
// the SIGHASH_FORKID bit set in the trailing hash-type field. BCH-family
// chains adopted this preimage to fix the historical O(n^2) sighash and
// cross-fork replay, not because the input carries witness data; pkScript
// is the spent UTXO's own scriptPubKey, standing in as the BIP143 "script
// code" (plain P2PKH never uses OP_CODESEPARATOR, so no sub-script
// extraction is needed).
func sighashALLForkID(tx *wire.MsgTx, inputIndex int, pkScript []byte, value int64) []byte {
	var prevouts, sequences bytes.Buffer
	for _, in := range tx.TxIn {
		prevouts.Write(in.PreviousOutPoint.Hash[:])
		binary.Write(&prevouts, binary.LittleEndian, in.PreviousOutPoint.Index)
		binary.Write(&sequences, binary.LittleEndian, in.Sequence)
	}
	hashPrevouts := xeccrypto.Sha256d(prevouts.Bytes())
	hashSequence := xeccrypto.Sha256d(sequences.Bytes())

	var outputs bytes.Buffer
	for _, out := range tx.TxOut {
		binary.Write(&outputs, binary.LittleEndian, out.Value)
		writeVarBytes(&outputs, out.PkScript)
	}
	hashOutputs := xeccrypto.Sha256d(outputs.Bytes())

	in := tx.TxIn[inputIndex]

	var preimage bytes.Buffer
	binary.Write(&preimage, binary.LittleEndian, tx.Version)
	preimage.Write(hashPrevouts)
	preimage.Write(hashSequence)
	preimage.Write(in.PreviousOutPoint.Hash[:])
	binary.Write(&preimage, binary.LittleEndian, in.PreviousOutPoint.Index)
	writeVarBytes(&preimage, pkScript)
	binary.Write(&preimage, binary.LittleEndian, value)
	binary.Write(&preimage, binary.LittleEndian, in.Sequence)
	preimage.Write(hashOutputs)
	binary.Write(&preimage, binary.LittleEndian, tx.LockTime)
	binary.Write(&preimage, binary.LittleEndian, uint32(config.SighashFlag))

	return xeccrypto.Sha256d(preimage.Bytes())
}

// writeVarBytes writes a Bitcoin compact-size length prefix followed by b.
func writeVarBytes(buf *bytes.Buffer, b []byte) {
	writeCompactSize(buf, uint64(len(b)))
	buf.Write(b)
}

func writeCompactSize(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)
		binary.Write(buf, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		buf.WriteByte(0xfe)
		binary.Write(buf, binary.LittleEndian, uint32(n))
	default:
		buf.WriteByte(0xff)
		binary.Write(buf, binary.LittleEndian, n)
	}
}
