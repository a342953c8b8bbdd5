package indexer

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// GetBalance returns the confirmed and unconfirmed satoshi balance for a
// P2PKH hash160, serving from cache when fresh.
func (c *Client) GetBalance(ctx context.Context, hash160 []byte) (Balance, error) {
	key := hex.EncodeToString(hash160)
	if b, ok := c.balanceCache.Get(key); ok {
		return b, nil
	}

	var resp chronikBalanceResponse
	path := "/" + p2pkhScriptPath(hash160) + "/balance"
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.getJSON(ctx, baseURL, path, &resp)
	})
	if err != nil {
		return Balance{}, err
	}

	confirmed, err := parseSatoshi(resp.Confirmed)
	if err != nil {
		return Balance{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "parse balance", err)
	}
	unconfirmed, err := parseSatoshi(resp.Unconfirmed)
	if err != nil {
		return Balance{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "parse balance", err)
	}

	balance := Balance{Confirmed: confirmed, Unconfirmed: unconfirmed}
	c.balanceCache.Set(key, balance)
	return balance, nil
}

// GetUTXOs returns every UTXO locked to a P2PKH hash160, serving from cache
// when fresh.
func (c *Client) GetUTXOs(ctx context.Context, hash160 []byte) ([]UTXO, error) {
	key := hex.EncodeToString(hash160)
	if u, ok := c.utxoCache.Get(key); ok {
		return u, nil
	}

	var resp chronikUTXOsResponse
	path := "/" + p2pkhScriptPath(hash160) + "/utxos"
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.getJSON(ctx, baseURL, path, &resp)
	})
	if err != nil {
		return nil, err
	}

	utxos := make([]UTXO, 0, len(resp.UTXOs))
	for _, w := range resp.UTXOs {
		u, err := wireUTXOToUTXO(w)
		if err != nil {
			return nil, walleterrors.Wrap(walleterrors.ErrNetworkError, "decode utxo", err)
		}
		utxos = append(utxos, u)
	}

	c.utxoCache.Set(key, utxos)
	return utxos, nil
}

func wireUTXOToUTXO(w chronikUTXO) (UTXO, error) {
	value, err := parseSatoshi(w.Value)
	if err != nil {
		return UTXO{}, fmt.Errorf("utxo value: %w", err)
	}
	script, err := hex.DecodeString(w.Script)
	if err != nil {
		return UTXO{}, fmt.Errorf("utxo script: %w", err)
	}

	u := UTXO{
		Outpoint:    Outpoint{TxID: w.Outpoint.TxID, Index: w.Outpoint.OutIdx},
		BlockHeight: w.BlockHeight,
		IsCoinbase:  w.IsCoinbase,
		Value:       value,
		Script:      script,
	}

	if w.Token != nil {
		amount, ok := new(big.Int).SetString(w.Token.Amount, 10)
		if !ok {
			return UTXO{}, fmt.Errorf("token amount %q", w.Token.Amount)
		}
		u.Token = &TokenAttribute{
			TokenID:   w.Token.TokenID,
			Protocol:  TokenProtocol(strings.ToUpper(w.Token.TokenType.Protocol)),
			TokenType: w.Token.TokenType.Number,
			Amount:    amount,
		}
	}
	return u, nil
}

// GetUTXOsBatch fans out GetUTXOs across multiple hash160s, splitting the
// work into config.DefaultAddressBatchSize-sized groups dispatched in
// parallel within each group.
func (c *Client) GetUTXOsBatch(ctx context.Context, hash160s [][]byte) (map[string][]UTXO, error) {
	results := make(map[string][]UTXO, len(hash160s))
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(hash160s); start += c.addressBatchSize {
		end := start + c.addressBatchSize
		if end > len(hash160s) {
			end = len(hash160s)
		}
		group := hash160s[start:end]

		var wg sync.WaitGroup
		for _, h := range group {
			wg.Add(1)
			go func(h []byte) {
				defer wg.Done()
				utxos, err := c.GetUTXOs(ctx, h)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					return
				}
				results[hex.EncodeToString(h)] = utxos
			}(h)
		}
		wg.Wait()
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// GetTransactions returns an address's transaction history in the
// requested order.
func (c *Client) GetTransactions(ctx context.Context, hash160 []byte, order HistoryOrder) ([]TxSummary, error) {
	var resp chronikHistoryResponse
	path := "/" + p2pkhScriptPath(hash160) + "/history"
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.getJSON(ctx, baseURL, path, &resp)
	})
	if err != nil {
		return nil, err
	}

	out := make([]TxSummary, len(resp.Txs))
	for i, t := range resp.Txs {
		out[i] = TxSummary{TxID: t.TxID, BlockHeight: t.BlockHeight, Timestamp: t.Timestamp}
	}

	sort.Slice(out, func(i, j int) bool {
		if order == OrderOldestFirst {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

// GetTx returns a single raw transaction by id, with output spend status
// where the indexer reports it.
func (c *Client) GetTx(ctx context.Context, txid string) (RawTx, error) {
	var resp chronikTxResponse
	path := "/tx/" + txid
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.getJSON(ctx, baseURL, path, &resp)
	})
	if err != nil {
		return RawTx{}, err
	}

	outputs := make([]TxOutput, len(resp.Outputs))
	for i, o := range resp.Outputs {
		value, err := parseSatoshi(o.Value)
		if err != nil {
			return RawTx{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "parse tx output value", err)
		}
		script, err := hex.DecodeString(o.Script)
		if err != nil {
			return RawTx{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "decode tx output script", err)
		}
		outputs[i] = TxOutput{Value: value, Script: script, Spent: o.Spent}
	}

	return RawTx{TxID: resp.TxID, BlockHeight: resp.BlockHeight, Outputs: outputs}, nil
}

// GetTxBatch looks up multiple txids, walking them in groups of at most
// config.DefaultTxBatchSize with one GetTx request per txid; it stops at
// the first error.
func (c *Client) GetTxBatch(ctx context.Context, txids []string) (map[string]RawTx, error) {
	results := make(map[string]RawTx, len(txids))
	for start := 0; start < len(txids); start += c.txBatchSize {
		end := start + c.txBatchSize
		if end > len(txids) {
			end = len(txids)
		}
		for _, txid := range txids[start:end] {
			tx, err := c.GetTx(ctx, txid)
			if err != nil {
				return nil, err
			}
			results[txid] = tx
		}
	}
	return results, nil
}

// Broadcast submits a raw signed transaction (hex-encoded) and returns its
// txid. On success, the cache entries for the given spent addresses (their
// hash160 hex keys) are invalidated, since the UTXO set they describe is
// now stale.
func (c *Client) Broadcast(ctx context.Context, rawHex string, spentAddressKeys []string) (string, error) {
	var resp chronikBroadcastResponse
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.postJSON(ctx, baseURL, "/broadcastTx", chronikBroadcastRequest{RawTx: rawHex}, &resp)
	})
	if err != nil {
		if perm, ok := unwrapPermanentHTTPError(err); ok {
			return "", walleterrors.Wrap(walleterrors.ErrBroadcastRejected, "broadcast rejected", perm)
		}
		return "", err
	}

	for _, key := range spentAddressKeys {
		c.balanceCache.Invalidate(key)
		c.utxoCache.Invalidate(key)
	}
	return resp.TxID, nil
}

// TokenInfo resolves a token_id's immutable metadata, cached indefinitely
// once observed.
func (c *Client) TokenInfo(ctx context.Context, tokenID string) (TokenMetadata, error) {
	if meta, ok := c.tokenCache.Get(tokenID); ok {
		return meta, nil
	}

	var resp chronikTokenResponse
	err := c.do(ctx, func(ctx context.Context, baseURL string) error {
		return c.getJSON(ctx, baseURL, "/token/"+tokenID, &resp)
	})
	if err != nil {
		if perm, ok := unwrapPermanentHTTPError(err); ok {
			return TokenMetadata{}, walleterrors.Wrap(walleterrors.ErrUnknownToken, "resolve token", perm)
		}
		return TokenMetadata{}, err
	}

	var authority []byte
	if resp.Authority != "" {
		authority, err = hex.DecodeString(resp.Authority)
		if err != nil {
			return TokenMetadata{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "decode authority pubkey", err)
		}
	}

	meta := TokenMetadata{
		TokenID:         resp.TokenID,
		Protocol:        TokenProtocol(strings.ToUpper(resp.Protocol)),
		Ticker:          resp.Ticker,
		Name:            resp.Name,
		Decimals:        resp.Decimals,
		URL:             resp.URL,
		AuthorityPubKey: authority,
		FirstSeen:       resp.FirstSeen,
	}
	c.tokenCache.Set(tokenID, meta)
	return meta, nil
}

// GetXecUsd fetches the current XEC/USD rate from an external price feed.
// Callers MUST treat failures here as non-fatal to wallet operations.
func (c *Client) GetXecUsd(ctx context.Context) (float64, error) {
	var resp struct {
		Ecash struct {
			USD float64 `json:"usd"`
		} `json:"ecash"`
	}
	req := "https://api.coingecko.com/api/v3/simple/price?ids=ecash&vs_currencies=usd"
	err := c.getJSON(ctx, "", req, &resp)
	if err != nil {
		return 0, walleterrors.Wrap(walleterrors.ErrNetworkError, "fetch XEC/USD rate", err)
	}
	return resp.Ecash.USD, nil
}

func unwrapPermanentHTTPError(err error) (*permanentHTTPError, bool) {
	var perm *permanentHTTPError
	cause := err
	for cause != nil {
		if p, ok := cause.(*permanentHTTPError); ok {
			return p, true
		}
		u, ok := cause.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cause = u.Unwrap()
	}
	return perm, false
}
