package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// XECCoinType is the BIP-44 coin type registered for eCash.
const XECCoinType = 899

// DefaultPath is the first receiving address path used when the caller does
// not specify one.
const DefaultPath = "m/44'/899'/0'/0/0"

// PathSegment is one "idx" or "idx'" component of a derivation path.
type PathSegment struct {
	Index    uint32
	Hardened bool
}

// ParsePath parses a "m/44'/899'/0'/0/0" style path into its segments. The
// leading "m" is required; hardened segments carry a trailing apostrophe.
func ParsePath(path string) ([]PathSegment, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] != "m" {
		return nil, fmt.Errorf("parse path %q: %w: must start with \"m\"", path, walleterrors.ErrInvalidInput)
	}

	segments := make([]PathSegment, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h") || strings.HasSuffix(p, "H")
		numStr := p
		if hardened {
			numStr = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(numStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse path %q: %w: bad segment %q", path, walleterrors.ErrInvalidInput, p)
		}
		segments = append(segments, PathSegment{Index: uint32(n), Hardened: hardened})
	}
	return segments, nil
}

// DeriveFromPath walks master down the given path, skipping forward to the
// next index per BIP-32 whenever a derived child key is invalid.
func DeriveFromPath(master *hdkeychain.ExtendedKey, path string) (*hdkeychain.ExtendedKey, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key := master
	for _, seg := range segments {
		childIndex := seg.Index
		if seg.Hardened {
			childIndex += hdkeychain.HardenedKeyStart
		}

		for {
			child, err := key.Derive(childIndex)
			if err == hdkeychain.ErrInvalidChild {
				childIndex++
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("derive path %q: %w: %v", path, walleterrors.ErrInvalidInput, err)
			}
			key = child
			break
		}
	}
	return key, nil
}
