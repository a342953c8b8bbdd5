package token

import (
	"encoding/hex"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// tokenIDBytes decodes a hex-encoded token_id into its 32-byte wire form.
func tokenIDBytes(tokenID string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(tokenID)
	if err != nil || len(raw) != 32 {
		return out, walleterrors.Wrap(walleterrors.ErrInvalidInput, "token_id", err)
	}
	copy(out[:], raw)
	return out, nil
}
