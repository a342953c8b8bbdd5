package indexer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// Client is a failover-aware client for a Chronik-compatible eCash indexer.
// It probes an ordered list of endpoints, tracks per-endpoint health with a
// circuit breaker, applies a short-TTL cache to per-address reads, and
// rate-limits each endpoint independently.
type Client struct {
	httpClient *http.Client
	endpoints  []*endpoint
	limiters   map[string]*endpointLimiter
	current    int
	mu         sync.Mutex

	balanceCache *ttlCache[Balance]
	utxoCache    *ttlCache[[]UTXO]
	tokenCache   *ttlCache[TokenMetadata]

	addressBatchSize int
	txBatchSize      int
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client (e.g. for custom
// timeouts or transport instrumentation).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCacheTTL overrides the default 30s per-address cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cl *Client) {
		cl.balanceCache = newTTLCache[Balance](ttl)
		cl.utxoCache = newTTLCache[[]UTXO](ttl)
	}
}

// New constructs a Client over the given ordered endpoint list. An empty
// list falls back to config.DefaultChronikEndpoints.
func New(endpoints []string, opts ...Option) *Client {
	if len(endpoints) == 0 {
		endpoints = config.DefaultChronikEndpoints
	}

	c := &Client{
		httpClient:       &http.Client{Timeout: config.DefaultRequestTimeout},
		limiters:         make(map[string]*endpointLimiter),
		balanceCache:     newTTLCache[Balance](config.DefaultCacheTTL),
		utxoCache:        newTTLCache[[]UTXO](config.DefaultCacheTTL),
		tokenCache:       newTTLCache[TokenMetadata](0), // tokens are immutable; TTL is raised to one year below
		addressBatchSize: config.DefaultAddressBatchSize,
		txBatchSize:      config.DefaultTxBatchSize,
	}
	c.tokenCache.ttl = 365 * 24 * time.Hour

	for _, url := range endpoints {
		url = strings.TrimSuffix(url, "/")
		c.endpoints = append(c.endpoints, newEndpoint(url, config.CircuitBreakerThreshold, config.CircuitBreakerCooldown))
		c.limiters[url] = newEndpointLimiter(url, config.DefaultEndpointRPS)
	}

	for _, opt := range opts {
		opt(c)
	}

	slog.Info("indexer client created", "endpoints", len(c.endpoints))
	return c
}

// nextIndex rotates the preferred starting endpoint across calls
// (round-robin) so load is spread evenly.
func (c *Client) nextIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.current
	c.current = (c.current + 1) % len(c.endpoints)
	return idx
}

// do executes fn against endpoints in failover order (preferred endpoint
// first, then the rest in ring order), skipping any whose circuit breaker
// is open, and returns a wrapped NetworkError once every endpoint has been
// tried.
func (c *Client) do(ctx context.Context, fn func(ctx context.Context, baseURL string) error) error {
	start := c.nextIndex()
	n := len(c.endpoints)

	var errs []error
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		ep := c.endpoints[idx]

		if !ep.breaker.Allow() {
			errs = append(errs, fmt.Errorf("%s: circuit open", ep.URL))
			continue
		}

		if limiter, ok := c.limiters[ep.URL]; ok {
			if err := limiter.Wait(ctx); err != nil {
				return walleterrors.Wrap(walleterrors.ErrNetworkError, "rate limiter wait cancelled", err)
			}
		}

		reqStart := time.Now()
		err := fn(ctx, ep.URL)
		latency := time.Since(reqStart)

		if err == nil {
			ep.recordSuccess(latency)
			return nil
		}

		// A permanent (non-5xx, non-429) HTTP error means the request itself
		// was rejected, not that the endpoint is unhealthy: surface it
		// immediately rather than treating it as a failover trigger.
		if perm, ok := err.(*permanentHTTPError); ok {
			ep.recordSuccess(latency)
			return perm
		}

		ep.recordFailure(err)
		slog.Warn("indexer endpoint failed", "endpoint", ep.URL, "circuit", ep.breaker.State(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", ep.URL, err))

		if ctx.Err() != nil {
			return walleterrors.Wrap(walleterrors.ErrNetworkError, "request cancelled", ctx.Err())
		}
	}

	combined := make([]string, len(errs))
	for i, e := range errs {
		combined[i] = e.Error()
	}
	return walleterrors.Wrap(walleterrors.ErrNetworkError, "all endpoints exhausted", fmt.Errorf("%s", strings.Join(combined, "; ")))
}

func (c *Client) getJSON(ctx context.Context, baseURL, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited: %s", string(body))
	}
	if resp.StatusCode >= 400 {
		return &permanentHTTPError{status: resp.StatusCode, body: string(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, baseURL, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited: %s", string(respBody))
	}
	if resp.StatusCode >= 400 {
		return &permanentHTTPError{status: resp.StatusCode, body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// permanentHTTPError marks a 4xx (other than 429) response as non-retryable.
type permanentHTTPError struct {
	status int
	body   string
}

func (e *permanentHTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

// --- wire DTOs -------------------------------------------------------------

type chronikUTXO struct {
	Outpoint struct {
		TxID  string `json:"txid"`
		OutIdx uint32 `json:"outIdx"`
	} `json:"outpoint"`
	BlockHeight int64  `json:"blockHeight"`
	IsCoinbase  bool   `json:"isCoinbase"`
	Value       string `json:"value"` // satoshis as decimal string, arbitrary precision on the wire
	Script      string `json:"script"`
	Token       *struct {
		TokenID  string `json:"tokenId"`
		TokenType struct {
			Protocol string `json:"protocol"`
			Number   int    `json:"number"`
		} `json:"tokenType"`
		Amount string `json:"amount"`
	} `json:"token"`
}

type chronikUTXOsResponse struct {
	UTXOs []chronikUTXO `json:"utxos"`
}

type chronikBalanceResponse struct {
	Confirmed   string `json:"confirmed"`
	Unconfirmed string `json:"unconfirmed"`
}

type chronikHistoryEntry struct {
	TxID        string `json:"txid"`
	BlockHeight int64  `json:"blockHeight"`
	Timestamp   int64  `json:"timestamp"`
}

type chronikHistoryResponse struct {
	Txs []chronikHistoryEntry `json:"txs"`
}

type chronikTxOutput struct {
	Value  string `json:"value"`
	Script string `json:"outputScript"`
	Spent  bool   `json:"spent"`
}

type chronikTxResponse struct {
	TxID        string            `json:"txid"`
	BlockHeight int64             `json:"blockHeight"`
	Outputs     []chronikTxOutput `json:"outputs"`
}

type chronikTokenResponse struct {
	TokenID  string `json:"tokenId"`
	Protocol string `json:"protocol"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	URL      string `json:"url"`
	Authority string `json:"authorityPubkey"`
	FirstSeen int64  `json:"firstSeen"`
}

type chronikBroadcastRequest struct {
	RawTx string `json:"rawTx"`
}

type chronikBroadcastResponse struct {
	TxID string `json:"txid"`
}

// parseSatoshi converts a wire decimal string into an int64, honoring the
// spec's big-int discipline: values must be handled as arbitrary precision
// on the wire and only narrowed when they fit the 53-bit safe integer range.
func parseSatoshi(s string) (int64, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, fmt.Errorf("malformed integer %q", s)
	}
	if n.BitLen() > config.SafeIntegerBits {
		return 0, fmt.Errorf("satoshi value %q exceeds %d-bit safe integer range", s, config.SafeIntegerBits)
	}
	return n.Int64(), nil
}

func p2pkhScriptPath(hash160 []byte) string {
	return "script/p2pkh/" + hex.EncodeToString(hash160)
}
