// Package walleterrors defines the sentinel error kinds returned across the
// wallet library. Callers should use errors.Is against these values rather
// than matching on message substrings.
package walleterrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed addresses, mnemonics, WIFs, hex, or
	// out-of-range numeric arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds means the pure-XEC UTXOs available cannot cover
	// the requested target value plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoPureXecUtxos means every UTXO in the set bears a token attribute;
	// the caller must consolidate before a plain XEC spend is possible.
	ErrNoPureXecUtxos = errors.New("no pure XEC utxos available, consolidate first")

	// ErrInsufficientTokenBalance means the aggregate token atoms across
	// matching UTXOs is less than the requested amount.
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")

	// ErrUnknownToken means the indexer could not resolve a token_id.
	ErrUnknownToken = errors.New("unknown token")

	// ErrProtocolMismatch means a token_id's protocol differs from what the
	// requested operation expects.
	ErrProtocolMismatch = errors.New("token protocol mismatch")

	// ErrDustOutput means a non-data output below the dust limit would be
	// emitted.
	ErrDustOutput = errors.New("output below dust limit")

	// ErrOversizeOpReturn means an OP_RETURN payload exceeds the maximum
	// allowed size.
	ErrOversizeOpReturn = errors.New("OP_RETURN payload too large")

	// ErrWrongPassword means mnemonic decryption failed (bad password or
	// corrupt envelope).
	ErrWrongPassword = errors.New("wrong password")

	// ErrNetworkError means every configured indexer endpoint was
	// exhausted, or a request timed out.
	ErrNetworkError = errors.New("network error")

	// ErrBroadcastRejected means the indexer accepted the call but
	// rejected the transaction (double-spend, bad signature, conflict).
	ErrBroadcastRejected = errors.New("broadcast rejected")

	// ErrNotInitialized means an operation was attempted before the UTXO
	// store had been populated via Initialize.
	ErrNotInitialized = errors.New("wallet not initialized")
)

// Wrap annotates err with context while preserving errors.Is matching
// against kind.
func Wrap(kind error, context string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", context, kind)
	}
	return fmt.Errorf("%s: %w: %v", context, kind, cause)
}
