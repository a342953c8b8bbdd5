// Package utxo caches per-address UTXO sets fetched through an indexer
// client and exposes the filtered views transaction builders and the token
// engine are allowed to see.
package utxo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// SpendableOptions controls the filters applied by Store.SpendableXEC.
type SpendableOptions struct {
	IncludeUnconfirmed bool // default false
	ExcludeDustAttack  bool // default true
}

// DefaultSpendableOptions matches the spec's default filter posture.
func DefaultSpendableOptions() SpendableOptions {
	return SpendableOptions{IncludeUnconfirmed: false, ExcludeDustAttack: true}
}

// entry is the cached UTXO set for one address.
type entry struct {
	mu         sync.Mutex
	utxos      []indexer.UTXO
	fetchedAt  time.Time
	hash160    []byte
}

// Store fetches and caches per-address UTXO sets. Readers and writers for a
// given address are serialized through that address's own mutex; different
// addresses proceed independently.
type Store struct {
	client *indexer.Client
	ttl    time.Duration

	mu      sync.Mutex
	byAddr  map[string]*entry

	// dustAttackThreshold is the satoshi value at or below which a UTXO is
	// treated as a potential dust-attack tracking output and not offered as
	// spendable. 546 matches the network dust limit.
	dustAttackThreshold int64
}

// New constructs a Store backed by client, caching each address's UTXO set
// for ttl before a read is considered stale.
func New(client *indexer.Client, ttl time.Duration) *Store {
	return &Store{
		client:              client,
		ttl:                 ttl,
		byAddr:              make(map[string]*entry),
		dustAttackThreshold: 546,
	}
}

func (s *Store) entryFor(addrKey string, hash160 []byte) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byAddr[addrKey]
	if !ok {
		e = &entry{hash160: hash160}
		s.byAddr[addrKey] = e
	}
	return e
}

// Init primes the cache for an address, fetching its UTXO set if not
// already cached (or if force is true).
func (s *Store) Init(ctx context.Context, addrKey string, hash160 []byte, force bool) error {
	e := s.entryFor(addrKey, hash160)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !force && !e.fetchedAt.IsZero() && time.Since(e.fetchedAt) < s.ttl {
		return nil
	}
	return s.fetchLocked(ctx, e)
}

// Refresh forces a reload of an address's UTXO set.
func (s *Store) Refresh(ctx context.Context, addrKey string, hash160 []byte) error {
	e := s.entryFor(addrKey, hash160)
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.fetchLocked(ctx, e)
}

func (s *Store) fetchLocked(ctx context.Context, e *entry) error {
	utxos, err := s.client.GetUTXOs(ctx, e.hash160)
	if err != nil {
		return err
	}

	valid := make([]indexer.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if !validUTXO(u) {
			slog.Warn("dropping malformed utxo", "txid", u.Outpoint.TxID, "index", u.Outpoint.Index)
			continue
		}
		valid = append(valid, u)
	}

	e.utxos = valid
	e.fetchedAt = time.Now()
	return nil
}

func validUTXO(u indexer.UTXO) bool {
	if u.Outpoint.TxID == "" {
		return false
	}
	if u.Value <= 0 {
		return false
	}
	return true
}

// Balance derives confirmed/unconfirmed/total satoshi balances from the
// cached UTXO set. Confirmed is any UTXO with BlockHeight != -1.
func (s *Store) Balance(addrKey string) (indexer.Balance, error) {
	e, ok := s.get(addrKey)
	if !ok {
		return indexer.Balance{}, walleterrors.Wrap(walleterrors.ErrNotInitialized, "balance", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var bal indexer.Balance
	for _, u := range e.utxos {
		if u.IsConfirmed() {
			bal.Confirmed += u.Value
		} else {
			bal.Unconfirmed += u.Value
		}
	}
	return bal, nil
}

func (s *Store) get(addrKey string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byAddr[addrKey]
	return e, ok
}

// SpendableXEC returns pure-XEC UTXOs (no token attribute) passing the
// security filter. A transaction builder reached only through this
// accessor can never observe a token UTXO, preventing accidental burns.
func (s *Store) SpendableXEC(addrKey string, opts SpendableOptions) ([]indexer.UTXO, error) {
	e, ok := s.get(addrKey)
	if !ok {
		return nil, walleterrors.Wrap(walleterrors.ErrNotInitialized, "spendable xec", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	hasAny := len(e.utxos) > 0
	hasPureXEC := false

	out := make([]indexer.UTXO, 0, len(e.utxos))
	for _, u := range e.utxos {
		if !u.IsPureXEC() {
			continue
		}
		hasPureXEC = true

		if !opts.IncludeUnconfirmed && !u.IsConfirmed() {
			continue
		}
		if opts.ExcludeDustAttack && isDustAttack(u, s.dustAttackThreshold) {
			continue
		}
		out = append(out, u)
	}

	if hasAny && !hasPureXEC {
		return nil, walleterrors.Wrap(walleterrors.ErrNoPureXecUtxos, "spendable xec", nil)
	}
	return out, nil
}

// isDustAttack flags a known dust-attack pattern: a pure-XEC UTXO whose
// value sits at or below the network dust limit, which carries no economic
// value but can be used to link addresses on-chain.
func isDustAttack(u indexer.UTXO, threshold int64) bool {
	return u.Value <= threshold
}

// SpendableToken returns token UTXOs matching tokenID.
func (s *Store) SpendableToken(addrKey, tokenID string) ([]indexer.UTXO, error) {
	e, ok := s.get(addrKey)
	if !ok {
		return nil, walleterrors.Wrap(walleterrors.ErrNotInitialized, "spendable token", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]indexer.UTXO, 0)
	for _, u := range e.utxos {
		if u.Token != nil && u.Token.TokenID == tokenID {
			out = append(out, u)
		}
	}
	return out, nil
}

// All returns every cached UTXO for an address, unfiltered. Used by
// list_tokens.
func (s *Store) All(addrKey string) ([]indexer.UTXO, error) {
	e, ok := s.get(addrKey)
	if !ok {
		return nil, walleterrors.Wrap(walleterrors.ErrNotInitialized, "all utxos", nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]indexer.UTXO, len(e.utxos))
	copy(out, e.utxos)
	return out, nil
}

// Invalidate drops a cached entry, forcing the next Init/Refresh to fetch.
func (s *Store) Invalidate(addrKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byAddr, addrKey)
}
