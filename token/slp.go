// Package token implements the eToken engine: SLP and ALP data-output
// codecs, token UTXO selection, and the send/burn/list facade layered on
// top of the UTXO store and transaction builder.
package token

import (
	"encoding/binary"

	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// BuildSLPSend builds the OP_RETURN script for an SLP SEND: LOKAD id,
// version byte, SEND type, token_id, then one big-endian 8-byte atom count
// per output carrier in order.
func BuildSLPSend(tokenID [32]byte, outputAtoms []uint64) ([]byte, error) {
	return buildSLP(tokenID, config.SLPSendType, outputAtoms)
}

// BuildSLPBurn builds the OP_RETURN script for an SLP BURN of a single
// amount; nothing is echoed back as a carrier quantity by the data output
// itself (recipients, if any, are a degenerate zero-length case — a pure
// burn spends the token UTXO and emits no token carrier).
func BuildSLPBurn(tokenID [32]byte, burnAtoms uint64) ([]byte, error) {
	return buildSLP(tokenID, config.SLPBurnType, []uint64{burnAtoms})
}

// buildSLP assembles the canonical SLP push sequence. Each field is its
// own pushdata item, and txbuilder.OpReturnScript encodes every push
// explicitly, so the single-byte version field never collapses into a
// BIP62 small-int opcode the way a general-purpose script builder's
// AddData would.
func buildSLP(tokenID [32]byte, txType string, amounts []uint64) ([]byte, error) {
	if len(amounts) == 0 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "slp encode", nil)
	}

	pushes := make([][]byte, 0, 4+len(amounts))
	pushes = append(pushes,
		[]byte(config.SLPLokadID),
		[]byte{0x01},
		[]byte(txType),
		tokenID[:],
	)
	for _, a := range amounts {
		pushes = append(pushes, be8(a))
	}

	return txbuilder.OpReturnScript(pushes...)
}

func be8(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
