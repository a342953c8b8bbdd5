package xeccrypto

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// Base58CheckEncode encodes payload with a version byte prefix and a
// 4-byte Sha256d checksum, the scheme WIF and legacy Bitcoin addresses use.
func Base58CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	checksum := Sha256d(buf)[:4]
	buf = append(buf, checksum...)
	return base58.Encode(buf)
}

// Base58CheckDecode reverses Base58CheckEncode, validating the checksum.
// Returns the version byte and payload.
func Base58CheckDecode(s string) (version byte, payload []byte, err error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return 0, nil, fmt.Errorf("base58check decode: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	if len(raw) < 5 {
		return 0, nil, fmt.Errorf("base58check decode: %w: payload too short", walleterrors.ErrInvalidInput)
	}

	body := raw[:len(raw)-4]
	checksum := raw[len(raw)-4:]
	want := Sha256d(body)[:4]
	for i := range checksum {
		if checksum[i] != want[i] {
			return 0, nil, fmt.Errorf("base58check decode: %w: bad checksum", walleterrors.ErrInvalidInput)
		}
	}

	return body[0], body[1:], nil
}
