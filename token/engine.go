package token

import (
	"context"
	"math/big"
	"sort"

	"github.com/zh/minimal-xec-wallet/coinselect"
	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/keys"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/utxo"
	"github.com/zh/minimal-xec-wallet/walleterrors"
	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// Recipient is one eToken SEND destination: an address and the atom
// quantity it receives.
type Recipient struct {
	Address string
	Atoms   uint64
}

// TokenEntry aggregates one token_id's holdings across an address's UTXO
// set, as returned by ListTokens.
type TokenEntry struct {
	TokenID   string
	Protocol  indexer.TokenProtocol
	Ticker    string
	Name      string
	Decimals  int
	Atoms     *big.Int
	UTXOCount int
}

// Engine routes SLP and ALP send/burn operations through a single facade,
// resolving the protocol from cached token metadata before composing the
// protocol-specific data output.
type Engine struct {
	client   *indexer.Client
	store    *utxo.Store
	identity *keys.Identity
	feeRate  float64
}

// New constructs a token Engine bound to a single spending identity.
func New(client *indexer.Client, store *utxo.Store, identity *keys.Identity, feeRate float64) *Engine {
	return &Engine{client: client, store: store, identity: identity, feeRate: feeRate}
}

// GetTokenData resolves a token_id's cached metadata.
func (e *Engine) GetTokenData(ctx context.Context, tokenID string) (indexer.TokenMetadata, error) {
	return e.client.TokenInfo(ctx, tokenID)
}

// GetTokenBalance sums the atoms held in tokenID-bearing UTXOs at address.
func (e *Engine) GetTokenBalance(addrKey, tokenID string) (*big.Int, error) {
	utxos, err := e.store.SpendableToken(addrKey, tokenID)
	if err != nil {
		return nil, err
	}
	return sumAtoms(utxos), nil
}

// ListTokens aggregates every distinct token_id held at addrKey.
func (e *Engine) ListTokens(ctx context.Context, addrKey string) ([]TokenEntry, error) {
	all, err := e.store.All(addrKey)
	if err != nil {
		return nil, err
	}

	byToken := make(map[string][]indexer.UTXO)
	for _, u := range all {
		if u.Token == nil {
			continue
		}
		byToken[u.Token.TokenID] = append(byToken[u.Token.TokenID], u)
	}

	entries := make([]TokenEntry, 0, len(byToken))
	for tokenID, utxos := range byToken {
		meta, err := e.client.TokenInfo(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, TokenEntry{
			TokenID:   tokenID,
			Protocol:  meta.Protocol,
			Ticker:    meta.Ticker,
			Name:      meta.Name,
			Decimals:  meta.Decimals,
			Atoms:     sumAtoms(utxos),
			UTXOCount: len(utxos),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].TokenID < entries[j].TokenID })
	return entries, nil
}

// SendTokens sends atoms to one or more recipients, emitting a token-change
// carrier back to the sender when the selected token UTXOs carry more
// atoms than requested.
func (e *Engine) SendTokens(ctx context.Context, addrKey, tokenID string, recipients []Recipient) (*txbuilder.Built, string, error) {
	if len(recipients) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrInvalidInput, "send tokens", nil)
	}

	var requested uint64
	for _, r := range recipients {
		requested += r.Atoms
	}

	meta, tokenUTXOs, selectedAtoms, err := e.selectTokens(ctx, addrKey, tokenID, requested)
	if err != nil {
		return nil, "", err
	}
	changeAtoms := selectedAtoms - requested

	amounts := make([]uint64, 0, len(recipients)+1)
	for _, r := range recipients {
		amounts = append(amounts, r.Atoms)
	}
	if changeAtoms > 0 {
		amounts = append(amounts, changeAtoms)
	}

	dataScript, err := buildDataOutput(meta.Protocol, tokenID, config.SLPSendType, config.ALPSendType, amounts)
	if err != nil {
		return nil, "", err
	}

	carrierAddrs := make([]string, 0, len(recipients)+1)
	for _, r := range recipients {
		carrierAddrs = append(carrierAddrs, r.Address)
	}
	if changeAtoms > 0 {
		carrierAddrs = append(carrierAddrs, e.identity.Address)
	}

	return e.assembleAndBroadcast(ctx, addrKey, tokenUTXOs, dataScript, carrierAddrs)
}

// BurnTokens destroys burnAtoms of tokenID, returning any remainder from
// the selected UTXOs as a change carrier back to the sender.
func (e *Engine) BurnTokens(ctx context.Context, addrKey, tokenID string, burnAtoms uint64) (*txbuilder.Built, string, error) {
	meta, tokenUTXOs, selectedAtoms, err := e.selectTokens(ctx, addrKey, tokenID, burnAtoms)
	if err != nil {
		return nil, "", err
	}
	changeAtoms := selectedAtoms - burnAtoms

	amounts := []uint64{burnAtoms}
	dataScript, err := buildDataOutput(meta.Protocol, tokenID, config.SLPBurnType, config.ALPBurnType, amounts)
	if err != nil {
		return nil, "", err
	}

	var carrierAddrs []string
	if changeAtoms > 0 {
		carrierAddrs = []string{e.identity.Address}
	}

	return e.assembleAndBroadcast(ctx, addrKey, tokenUTXOs, dataScript, carrierAddrs)
}

// BurnAllTokens spends every tokenID UTXO at addrKey, burning it in full
// with no carriers.
func (e *Engine) BurnAllTokens(ctx context.Context, addrKey, tokenID string) (*txbuilder.Built, string, error) {
	tokenUTXOs, err := e.store.SpendableToken(addrKey, tokenID)
	if err != nil {
		return nil, "", err
	}
	if len(tokenUTXOs) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrInsufficientTokenBalance, "burn all tokens", nil)
	}

	meta, err := e.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return nil, "", err
	}

	total := sumAtoms(tokenUTXOs)
	dataScript, err := buildDataOutput(meta.Protocol, tokenID, config.SLPBurnType, config.ALPBurnType, []uint64{total.Uint64()})
	if err != nil {
		return nil, "", err
	}

	return e.assembleAndBroadcast(ctx, addrKey, tokenUTXOs, dataScript, nil)
}

// selectTokens picks matching token UTXOs largest-atoms-first until the
// running sum covers requested, resolving the token's protocol along the
// way.
func (e *Engine) selectTokens(ctx context.Context, addrKey, tokenID string, requested uint64) (indexer.TokenMetadata, []indexer.UTXO, uint64, error) {
	meta, err := e.client.TokenInfo(ctx, tokenID)
	if err != nil {
		return indexer.TokenMetadata{}, nil, 0, err
	}

	candidates, err := e.store.SpendableToken(addrKey, tokenID)
	if err != nil {
		return indexer.TokenMetadata{}, nil, 0, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Token.Amount.Cmp(candidates[j].Token.Amount) > 0
	})

	var selected []indexer.UTXO
	var sum uint64
	for _, u := range candidates {
		selected = append(selected, u)
		sum += u.Token.Amount.Uint64()
		if sum >= requested {
			return meta, selected, sum, nil
		}
	}

	return indexer.TokenMetadata{}, nil, 0, walleterrors.Wrap(walleterrors.ErrInsufficientTokenBalance, "select token utxos", nil)
}

// assembleAndBroadcast funds the token spend with pure-XEC inputs, builds
// the carrier and change outputs, signs, and broadcasts.
func (e *Engine) assembleAndBroadcast(ctx context.Context, addrKey string, tokenUTXOs []indexer.UTXO, dataScript []byte, carrierAddrs []string) (*txbuilder.Built, string, error) {
	carrierValue := int64(len(carrierAddrs)) * config.DustLimitSats

	xecCandidates, err := e.store.SpendableXEC(addrKey, utxo.DefaultSpendableOptions())
	if err != nil {
		return nil, "", err
	}

	// numRecipientOutputs covers the data output plus every carrier; coin
	// selection adds one more for its own XEC change output.
	numOutputs := 1 + len(carrierAddrs)
	selection, err := coinselect.Select(xecCandidates, max64(carrierValue, 1), e.feeRate, numOutputs)
	if err != nil {
		return nil, "", err
	}

	inputs := make([]txbuilder.Input, 0, len(tokenUTXOs)+len(selection.Selected))
	for _, u := range tokenUTXOs {
		inputs = append(inputs, txbuilder.Input{
			TxID: u.Outpoint.TxID, Vout: u.Outpoint.Index, Value: u.Value,
			PKScript: u.Script, PrivKey: e.identity.ECPrivKey(),
		})
	}
	for _, u := range selection.Selected {
		inputs = append(inputs, txbuilder.Input{
			TxID: u.Outpoint.TxID, Vout: u.Outpoint.Index, Value: u.Value,
			PKScript: u.Script, PrivKey: e.identity.ECPrivKey(),
		})
	}

	outputs := make([]txbuilder.Output, 0, 2+len(carrierAddrs))
	outputs = append(outputs, txbuilder.Output{Value: 0, Script: dataScript})
	for _, addr := range carrierAddrs {
		script, err := addressScript(addr)
		if err != nil {
			return nil, "", err
		}
		outputs = append(outputs, txbuilder.Output{Value: config.DustLimitSats, Script: script})
	}
	if selection.HasChange {
		changeScript, err := addressScript(e.identity.Address)
		if err != nil {
			return nil, "", err
		}
		outputs = append(outputs, txbuilder.Output{Value: selection.Change, Script: changeScript})
	}

	built, err := txbuilder.BuildAndSign(inputs, outputs)
	if err != nil {
		return nil, "", err
	}

	txid, err := e.client.Broadcast(ctx, built.TxHex, []string{addrKey})
	if err != nil {
		return nil, "", err
	}
	e.store.Invalidate(addrKey)
	return built, txid, nil
}

func buildDataOutput(protocol indexer.TokenProtocol, tokenID string, slpType string, alpType byte, amounts []uint64) ([]byte, error) {
	idBytes, err := tokenIDBytes(tokenID)
	if err != nil {
		return nil, err
	}

	switch protocol {
	case indexer.ProtocolSLP:
		return buildSLP(idBytes, slpType, amounts)
	case indexer.ProtocolALP:
		section, err := alpSection(idBytes, alpType, amounts)
		if err != nil {
			return nil, err
		}
		return wrapEMPP(section)
	default:
		return nil, walleterrors.Wrap(walleterrors.ErrProtocolMismatch, "build data output", nil)
	}
}

func addressScript(addr string) ([]byte, error) {
	hash, _, err := xeccrypto.DecodeCashAddr(addr)
	if err != nil {
		return nil, err
	}
	return txbuilder.P2PKHScript(hash)
}

func sumAtoms(utxos []indexer.UTXO) *big.Int {
	sum := new(big.Int)
	for _, u := range utxos {
		if u.Token != nil {
			sum.Add(sum, u.Token.Amount)
		}
	}
	return sum
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
