// Package indexer implements a failover-aware client for a Chronik-compatible
// eCash indexer: UTXO/balance/history lookups, raw transaction retrieval,
// token metadata, and broadcast, behind an endpoint pool with health
// tracking, a circuit breaker per endpoint, and a short-TTL response cache.
package indexer

import "math/big"

// Outpoint identifies a UTXO by its originating transaction and output index.
type Outpoint struct {
	TxID  string
	Index uint32
}

// TokenProtocol distinguishes the two eToken wire protocols a UTXO's token
// attribute may belong to.
type TokenProtocol string

const (
	ProtocolSLP TokenProtocol = "SLP"
	ProtocolALP TokenProtocol = "ALP"
)

// TokenAttribute describes the eToken payload carried by a UTXO, when present.
type TokenAttribute struct {
	TokenID  string
	Protocol TokenProtocol
	TokenType int
	Amount   *big.Int // atoms, arbitrary precision
}

// UTXO is one unspent transaction output as reported by the indexer.
type UTXO struct {
	Outpoint    Outpoint
	BlockHeight int64 // -1 means mempool/unconfirmed
	IsCoinbase  bool
	Value       int64 // satoshis
	Script      []byte
	Token       *TokenAttribute // nil for a pure-XEC UTXO
}

// IsConfirmed reports whether the UTXO has been mined.
func (u UTXO) IsConfirmed() bool { return u.BlockHeight != -1 }

// IsPureXEC reports whether the UTXO carries no token attribute.
func (u UTXO) IsPureXEC() bool { return u.Token == nil }

// Balance aggregates confirmed and unconfirmed satoshis for an address.
type Balance struct {
	Confirmed   int64
	Unconfirmed int64
}

// Total returns the sum of confirmed and unconfirmed balances.
func (b Balance) Total() int64 { return b.Confirmed + b.Unconfirmed }

// TxSummary is one entry in an address's transaction history.
type TxSummary struct {
	TxID        string
	BlockHeight int64
	Timestamp   int64
}

// HistoryOrder selects the sort order for GetTransactions.
type HistoryOrder string

const (
	OrderNewestFirst HistoryOrder = "newest"
	OrderOldestFirst HistoryOrder = "oldest"
)

// TxOutput is one output of a raw transaction, with spend status when known.
type TxOutput struct {
	Value  int64
	Script []byte
	Spent  bool
}

// RawTx is a transaction as returned by the indexer's tx lookup.
type RawTx struct {
	TxID        string
	BlockHeight int64
	Outputs     []TxOutput
}

// TokenMetadata describes a token_id as resolved by the indexer. Immutable
// once observed.
type TokenMetadata struct {
	TokenID       string
	Protocol      TokenProtocol
	Ticker        string
	Name          string
	Decimals      int
	URL           string
	AuthorityPubKey []byte // non-nil indicates a live mint baton
	FirstSeen     int64
}
