// Package wallet is the library's public entry point: it derives a
// spending identity from a user secret, owns the UTXO store and indexer
// client, and exposes the XEC, token, and consolidation operations behind
// a single create-then-initialize lifecycle.
package wallet

import (
	"context"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/zh/minimal-xec-wallet/consolidate"
	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/keys"
	"github.com/zh/minimal-xec-wallet/token"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/utxo"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// Wallet is the facade: one spending identity, its UTXO store, and the
// operation engines layered over them. Create with New, then Initialize
// before calling any operation.
type Wallet struct {
	identity  *keys.Identity
	client    *indexer.Client
	store     *utxo.Store
	ownScript []byte
	feeRate   float64

	Tokens       *token.Engine
	Consolidator *consolidate.Planner

	initialized bool
}

type settings struct {
	passphrase string
	path       string
	network    keys.Network
	endpoints  []string
	feeRate    float64
	cacheTTL   time.Duration
}

// Option configures New.
type Option func(*settings)

// WithPassphrase sets the BIP-39 passphrase used when the secret is a
// mnemonic. Ignored for WIF and raw-key secrets.
func WithPassphrase(p string) Option { return func(s *settings) { s.passphrase = p } }

// WithDerivationPath overrides the default BIP-44 path used when the
// secret is a mnemonic.
func WithDerivationPath(path string) Option { return func(s *settings) { s.path = path } }

// WithNetwork selects mainnet or testnet address/WIF encoding.
func WithNetwork(n keys.Network) Option { return func(s *settings) { s.network = n } }

// WithEndpoints overrides the default indexer endpoint pool.
func WithEndpoints(endpoints []string) Option { return func(s *settings) { s.endpoints = endpoints } }

// WithFeeRate overrides the default satoshis-per-byte fee rate.
func WithFeeRate(rate float64) Option { return func(s *settings) { s.feeRate = rate } }

// WithCacheTTL overrides the default UTXO cache TTL.
func WithCacheTTL(ttl time.Duration) Option { return func(s *settings) { s.cacheTTL = ttl } }

// New derives a spending identity from secret (a BIP-39 mnemonic, a WIF
// key, or a 64-char hex-encoded raw private key) and returns synchronously
// with an empty UTXO store. Call Initialize before any operation.
func New(secret string, opts ...Option) (*Wallet, error) {
	cfg := settings{
		network:  keys.Mainnet,
		feeRate:  config.DefaultFeeRate,
		cacheTTL: config.DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.endpoints) == 0 {
		cfg.endpoints = config.DefaultChronikEndpoints
	}

	identity, err := deriveIdentity(secret, cfg)
	if err != nil {
		return nil, sanitize(err)
	}

	ownScript, err := txbuilder.P2PKHScript(identity.Hash160)
	if err != nil {
		return nil, sanitize(err)
	}

	client := indexer.New(cfg.endpoints, indexer.WithCacheTTL(cfg.cacheTTL))
	store := utxo.New(client, cfg.cacheTTL)

	w := &Wallet{
		identity:  identity,
		client:    client,
		store:     store,
		ownScript: ownScript,
		feeRate:   cfg.feeRate,
	}
	w.Tokens = token.New(client, store, identity, cfg.feeRate)
	w.Consolidator = consolidate.New(w, w)
	return w, nil
}

// NewFromEnv behaves like New but seeds its fee rate, cache TTL, and
// endpoint pool from environment configuration (see internal/config),
// letting a host application override them without recompiling. Explicit
// opts still take precedence over the environment.
func NewFromEnv(secret string, opts ...Option) (*Wallet, error) {
	envCfg, err := config.Load()
	if err != nil {
		return nil, sanitize(err)
	}

	net := keys.Mainnet
	if envCfg.Network == "testnet" {
		net = keys.Testnet
	}

	merged := append([]Option{
		WithNetwork(net),
		WithFeeRate(envCfg.FeeRateSatsPerByte),
		WithCacheTTL(time.Duration(envCfg.CacheTTLSeconds) * time.Second),
		WithEndpoints(envCfg.ChronikEndpoints),
	}, opts...)
	return New(secret, merged...)
}

func deriveIdentity(secret string, cfg settings) (*keys.Identity, error) {
	trimmed := strings.TrimSpace(secret)
	switch {
	case len(strings.Fields(trimmed)) >= 12:
		return keys.NewIdentityFromMnemonic(trimmed, cfg.passphrase, cfg.path, cfg.network)
	case looksLikeWIF(trimmed):
		return keys.NewIdentityFromWIF(trimmed)
	default:
		raw, err := decodeRawKeyHex(trimmed)
		if err != nil {
			return nil, err
		}
		return keys.NewIdentityFromRawKey(raw, cfg.network)
	}
}

func decodeRawKeyHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "secret: not a mnemonic, WIF, or 32-byte hex key", err)
	}
	return raw, nil
}

func looksLikeWIF(s string) bool {
	if len(s) < 51 || len(s) > 52 {
		return false
	}
	return s[0] == 'K' || s[0] == 'L' || s[0] == '5' || s[0] == '9' || s[0] == 'c'
}

// Initialize populates the UTXO store for the identity's address. Safe to
// call again to force a refresh.
func (w *Wallet) Initialize(ctx context.Context) error {
	if err := w.store.Init(ctx, w.identity.Address, w.identity.Hash160, true); err != nil {
		return sanitize(walleterrors.Wrap(walleterrors.ErrNetworkError, "initialize", err))
	}
	w.initialized = true
	return nil
}

func (w *Wallet) requireInitialized() error {
	if !w.initialized {
		return walleterrors.Wrap(walleterrors.ErrNotInitialized, "wallet", nil)
	}
	return nil
}

// Address returns the wallet's CashAddr address.
func (w *Wallet) Address() string { return w.identity.Address }

// Balance returns the cached confirmed/unconfirmed satoshi totals.
func (w *Wallet) Balance() (indexer.Balance, error) {
	if err := w.requireInitialized(); err != nil {
		return indexer.Balance{}, err
	}
	bal, err := w.store.Balance(w.identity.Address)
	if err != nil {
		return indexer.Balance{}, sanitize(err)
	}
	return bal, nil
}

// Refresh forces a cache refresh for this wallet's address.
func (w *Wallet) Refresh(ctx context.Context, addrKey string, hash160 []byte) error {
	if err := w.store.Refresh(ctx, addrKey, hash160); err != nil {
		return sanitize(walleterrors.Wrap(walleterrors.ErrNetworkError, "refresh", err))
	}
	return nil
}

// SpendableXEC satisfies consolidate.UTXOAccessor.
func (w *Wallet) SpendableXEC(addrKey string, opts utxo.SpendableOptions) ([]indexer.UTXO, error) {
	return w.store.SpendableXEC(addrKey, opts)
}

// Zero erases the identity's private key material. Call on shutdown.
func (w *Wallet) Zero() { w.identity.Zero() }

var (
	hexBlobPattern  = regexp.MustCompile(`[0-9a-fA-F]{64,}`)
	wifPattern      = regexp.MustCompile(`\b[KL5c9][1-9A-HJ-NP-Za-km-z]{50,51}\b`)
	addrBodyPattern = regexp.MustCompile(`ecash:[0-9a-zA-Z]+`)
)

// sanitize elides secret-shaped substrings (long hex blobs, WIF keys,
// CashAddr bodies) from an error's message before it reaches a caller.
func sanitize(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	msg = hexBlobPattern.ReplaceAllString(msg, "[elided]")
	msg = wifPattern.ReplaceAllString(msg, "[elided]")
	msg = addrBodyPattern.ReplaceAllString(msg, "ecash:[elided]")
	return &sanitizedError{msg: msg, cause: err}
}

// sanitizedError preserves errors.Is matching against the original
// sentinel while presenting a scrubbed message.
type sanitizedError struct {
	msg   string
	cause error
}

func (e *sanitizedError) Error() string { return e.msg }
func (e *sanitizedError) Unwrap() error { return e.cause }
