package txbuilder

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

const txVersion = 2

// BuildAndSign assembles a version-2 transaction spending inputs to
// outputs, signs every input with SIGHASH_ALL|SIGHASH_FORKID, and
// serializes the result to hex. Every non-OP_RETURN output below the dust
// limit is rejected before any signing happens.
func BuildAndSign(inputs []Input, outputs []Output) (*Built, error) {
	if len(inputs) == 0 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "tx build: no inputs", nil)
	}
	if err := validateOutputs(outputs); err != nil {
		return nil, err
	}

	msgTx := wire.NewMsgTx(txVersion)
	for _, in := range inputs {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "tx build: bad txid", err)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum
		msgTx.AddTxIn(txIn)
	}
	for _, out := range outputs {
		msgTx.AddTxOut(wire.NewTxOut(out.Value, out.Script))
	}

	for i, in := range inputs {
		digest := sighashALLForkID(msgTx, i, in.PKScript, in.Value)
		sig := ecdsa.Sign(in.PrivKey, digest)
		sigBytes := append(sig.Serialize(), byte(config.SighashFlag))

		sigScript, err := scriptSig(sigBytes, in.PrivKey.PubKey().SerializeCompressed())
		if err != nil {
			return nil, err
		}
		msgTx.TxIn[i].SignatureScript = sigScript
		in.PrivKey.Zero()
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "tx serialize", err)
	}

	txid := chainhash.DoubleHashH(buf.Bytes())
	return &Built{
		TxHex: hex.EncodeToString(buf.Bytes()),
		TxID:  txid.String(),
		Size:  buf.Len(),
	}, nil
}

func validateOutputs(outputs []Output) error {
	for _, out := range outputs {
		if isOpReturn(out.Script) {
			continue
		}
		if out.Value < config.DustLimitSats {
			return walleterrors.Wrap(walleterrors.ErrDustOutput, "tx build", nil)
		}
	}
	return nil
}
