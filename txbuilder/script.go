package txbuilder

import (
	"github.com/btcsuite/btcd/txscript"

	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// P2PKHScript builds the standard pay-to-pubkey-hash scriptPubKey:
// OP_DUP OP_HASH160 <hash160> OP_EQUALVERIFY OP_CHECKSIG.
func P2PKHScript(hash160 []byte) ([]byte, error) {
	if len(hash160) != 20 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "p2pkh script", nil)
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(hash160).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// OpReturnScript builds an OP_RETURN output script from one or more data
// pushes (SLP/ALP wire formats each commit several fields as separate
// pushes; a plain memo commits a prefix and a message). Each push is
// encoded as an explicit length-prefixed pushdata, never through
// txscript.ScriptBuilder.AddData: AddData applies BIP62 minimal-push
// canonicalization, rewriting a single 0x00 byte as OP_0 (an empty stack
// push) and a single 0x01..0x10 byte as OP_1..OP_16 (a bare opcode, no
// length prefix at all). SLP/ALP parsers walk raw pushdata length bytes
// rather than evaluating opcodes, so that substitution desyncs the very
// first field of any push whose value happens to be small.
func OpReturnScript(pushes ...[]byte) ([]byte, error) {
	script := []byte{txscript.OP_RETURN}
	for _, p := range pushes {
		push, err := explicitPush(p)
		if err != nil {
			return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "op_return script", err)
		}
		script = append(script, push...)
	}
	return script, nil
}

// explicitPush encodes data as direct pushdata (OP_DATA_1..75,
// OP_PUSHDATA1, or OP_PUSHDATA2 depending on length), bypassing the
// small-int/empty-push canonicalization a general-purpose script builder
// applies.
func explicitPush(data []byte) ([]byte, error) {
	n := len(data)
	switch {
	case n == 0:
		return []byte{txscript.OP_0}, nil
	case n <= 75:
		return append([]byte{byte(n)}, data...), nil
	case n <= 255:
		return append([]byte{txscript.OP_PUSHDATA1, byte(n)}, data...), nil
	case n <= 65535:
		return append([]byte{txscript.OP_PUSHDATA2, byte(n), byte(n >> 8)}, data...), nil
	default:
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "pushdata too large", nil)
	}
}

// OpReturnMessageSize is the byte total spec's 220-byte send_op_return
// ceiling measures: the message payload plus, when a prefix is supplied,
// the prefix bytes and its own one-byte pushdata length prefix. It is
// independent of whatever pushdata opcode overhead the message's own
// encoding needs (OP_PUSHDATA1 for messages of 76+ bytes), since the
// ceiling bounds the commitment's content, not the serialized script size.
func OpReturnMessageSize(prefix, message []byte) int {
	size := len(message)
	if len(prefix) > 0 {
		size += len(prefix) + 1
	}
	return size
}

// ValidateOpReturnMessageSize enforces that ceiling for a send_op_return
// commitment. SLP/ALP data outputs are not subject to it; their sizes are
// already fixed by their wire formats.
func ValidateOpReturnMessageSize(prefix, message []byte) error {
	if OpReturnMessageSize(prefix, message) > config.OpReturnMaxBytes {
		return walleterrors.Wrap(walleterrors.ErrOversizeOpReturn, "send_op_return: message", nil)
	}
	return nil
}

// scriptSig assembles the legacy P2PKH unlocking script: <sig><pubkey>.
func scriptSig(sig, pubkey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubkey).
		Script()
}

func isOpReturn(script []byte) bool {
	return len(script) > 0 && script[0] == txscript.OP_RETURN
}
