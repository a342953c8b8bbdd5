package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/zh/minimal-xec-wallet/walleterrors"
	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// Network selects the WIF version byte and, by extension, which network a
// private key belongs to.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

const (
	wifVersionMainnet = 0x80
	wifVersionTestnet = 0xef
	compressionFlag   = 0x01
)

// EncodeWIF encodes a 32-byte secp256k1 private key as Wallet Import
// Format: version || key [|| 0x01 if compressed], Base58Check-encoded.
func EncodeWIF(privKey []byte, compressed bool, net Network) (string, error) {
	if len(privKey) != 32 {
		return "", fmt.Errorf("encode WIF: %w: private key must be 32 bytes, got %d", walleterrors.ErrInvalidInput, len(privKey))
	}

	version := byte(wifVersionMainnet)
	if net == Testnet {
		version = wifVersionTestnet
	}

	payload := make([]byte, 0, 33)
	payload = append(payload, privKey...)
	if compressed {
		payload = append(payload, compressionFlag)
	}

	return xeccrypto.Base58CheckEncode(version, payload), nil
}

// DecodeWIF reverses EncodeWIF, validating the checksum and recovering the
// compression flag and network.
func DecodeWIF(wif string) (privKey []byte, compressed bool, net Network, err error) {
	version, payload, err := xeccrypto.Base58CheckDecode(wif)
	if err != nil {
		return nil, false, 0, fmt.Errorf("decode WIF: %w", walleterrors.ErrInvalidInput)
	}

	switch version {
	case wifVersionMainnet:
		net = Mainnet
	case wifVersionTestnet:
		net = Testnet
	default:
		return nil, false, 0, fmt.Errorf("decode WIF: %w: unknown version byte 0x%02x", walleterrors.ErrInvalidInput, version)
	}

	switch len(payload) {
	case 32:
		compressed = false
	case 33:
		if payload[32] != compressionFlag {
			return nil, false, 0, fmt.Errorf("decode WIF: %w: unexpected compression byte", walleterrors.ErrInvalidInput)
		}
		compressed = true
	default:
		return nil, false, 0, fmt.Errorf("decode WIF: %w: bad payload length %d", walleterrors.ErrInvalidInput, len(payload))
	}

	key := payload[:32]
	if !isValidScalar(key) {
		return nil, false, 0, fmt.Errorf("decode WIF: %w: key out of range", walleterrors.ErrInvalidInput)
	}

	return key, compressed, net, nil
}

// isValidScalar reports whether key, read as a big-endian 256-bit integer,
// lies in [1, n-1] for the secp256k1 group order n.
func isValidScalar(key []byte) bool {
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(key)
	return !overflow && !scalar.IsZero()
}
