package xeccrypto

import (
	"fmt"
	"strings"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// CashAddr type tags. Only P2PKH is produced by this module, but P2SH must
// decode cleanly since it can appear in indexer-reported scripts.
const (
	CashAddrTypeP2PKH = 0
	CashAddrTypeP2SH  = 1
)

// MainnetPrefix is the CashAddr human-readable part used for XEC addresses.
const MainnetPrefix = "ecash"

// legacyTokenPrefix is accepted on decode and normalized to MainnetPrefix;
// it denotes the same payload under the eToken-aware wallet UIs.
const legacyTokenPrefix = "etoken"

const cashAddrCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var cashAddrCharsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range cashAddrCharset {
		rev[c] = int8(i)
	}
	return rev
}()

// polymod computes the 40-bit BCH checksum used by CashAddr over a sequence
// of 5-bit values (prefix expansion + payload, or prefix expansion + payload
// + checksum groups for verification).
func polymod(v []byte) uint64 {
	c := uint64(1)
	for _, d := range v {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}
	return c ^ 1
}

// prefixExpand lowers each prefix byte to its 5 low bits, then appends a
// zero separator, per the CashAddr spec.
func prefixExpand(prefix string) []byte {
	out := make([]byte, 0, len(prefix)+1)
	for _, c := range prefix {
		out = append(out, byte(c)&0x1f)
	}
	out = append(out, 0)
	return out
}

// convertBits regroups a bit string from fromBits-wide groups to toBits-wide
// groups, padding the final group with zero bits when pad is true.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	var out []byte
	maxv := uint32(1<<toBits) - 1
	for _, value := range data {
		acc = (acc << fromBits) | uint32(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || ((acc<<(toBits-bits))&maxv) != 0 {
		return nil, fmt.Errorf("convertBits: non-zero padding")
	}
	return out, nil
}

// EncodeCashAddr encodes a 20-byte P2PKH (or P2SH) hash as a CashAddr string
// with the "ecash" human-readable prefix.
func EncodeCashAddr(hash []byte, addrType int) (string, error) {
	if len(hash) != 20 {
		return "", fmt.Errorf("encode cashaddr: %w: hash must be 20 bytes, got %d", walleterrors.ErrInvalidInput, len(hash))
	}
	versionByte := byte(addrType<<3) | 0 // size bits 0 == 160-bit hash

	payload := append([]byte{versionByte}, hash...)
	payload5, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("encode cashaddr: %w", err)
	}

	checksumInput := append(prefixExpand(MainnetPrefix), payload5...)
	checksumInput = append(checksumInput, make([]byte, 8)...)
	chk := polymod(checksumInput)

	checksum := make([]byte, 8)
	for i := 0; i < 8; i++ {
		checksum[i] = byte((chk >> (5 * uint(7-i))) & 0x1f)
	}

	all := append(payload5, checksum...)
	var sb strings.Builder
	sb.WriteString(MainnetPrefix)
	sb.WriteByte(':')
	for _, v := range all {
		sb.WriteByte(cashAddrCharset[v])
	}
	return sb.String(), nil
}

// DecodeCashAddr decodes a CashAddr string, returning the 20-byte payload
// hash and its type tag. Accepts both "ecash:" and "etoken:" prefixes
// (normalizing the latter), and also accepts a bare body with no prefix by
// assuming "ecash".
func DecodeCashAddr(addr string) (hash []byte, addrType int, err error) {
	lower := strings.ToLower(addr)

	prefix := MainnetPrefix
	body := lower
	if idx := strings.Index(lower, ":"); idx >= 0 {
		prefix = lower[:idx]
		body = lower[idx+1:]
	}

	if prefix != MainnetPrefix && prefix != legacyTokenPrefix {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: unsupported prefix %q", walleterrors.ErrInvalidInput, prefix)
	}

	data := make([]byte, len(body))
	for i, c := range body {
		if c > 127 || cashAddrCharsetRev[c] < 0 {
			return nil, 0, fmt.Errorf("decode cashaddr: %w: invalid character %q", walleterrors.ErrInvalidInput, c)
		}
		data[i] = byte(cashAddrCharsetRev[c])
	}
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: too short", walleterrors.ErrInvalidInput)
	}

	payload5 := data[:len(data)-8]
	checksum := data[len(data)-8:]

	checkInput := append(prefixExpand(prefix), payload5...)
	checkInput = append(checkInput, checksum...)
	if polymod(checkInput) != 0 {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: bad checksum", walleterrors.ErrInvalidInput)
	}

	payload, err := convertBits(payload5, 5, 8, false)
	if err != nil {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: %v", walleterrors.ErrInvalidInput, err)
	}
	if len(payload) < 1 {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: empty payload", walleterrors.ErrInvalidInput)
	}

	versionByte := payload[0]
	hashPart := payload[1:]
	sizeBits := versionByte & 0x07
	expectedLen := 20 + int(sizeBits)*4 // 0 -> 20 bytes per spec size table (only 160-bit supported here)
	if sizeBits != 0 || len(hashPart) != expectedLen {
		return nil, 0, fmt.Errorf("decode cashaddr: %w: unsupported hash size", walleterrors.ErrInvalidInput)
	}

	return hashPart, int((versionByte >> 3) & 0x0f), nil
}

// NormalizePrefix rewrites an "etoken:" address to its "ecash:" equivalent,
// since both denote the same payload. Addresses already on "ecash:" (or
// bare, assumed "ecash:") pass through unchanged in canonical form.
func NormalizePrefix(addr string) (string, error) {
	hash, addrType, err := DecodeCashAddr(addr)
	if err != nil {
		return "", err
	}
	return EncodeCashAddr(hash, addrType)
}
