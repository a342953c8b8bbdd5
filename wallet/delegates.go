package wallet

import (
	"context"
	"math/big"

	"github.com/zh/minimal-xec-wallet/consolidate"
	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/token"
	"github.com/zh/minimal-xec-wallet/txbuilder"
)

// GetTokenData resolves a token_id's cached metadata.
func (w *Wallet) GetTokenData(ctx context.Context, tokenID string) (indexer.TokenMetadata, error) {
	if err := w.requireInitialized(); err != nil {
		return indexer.TokenMetadata{}, err
	}
	meta, err := w.Tokens.GetTokenData(ctx, tokenID)
	if err != nil {
		return indexer.TokenMetadata{}, sanitize(err)
	}
	return meta, nil
}

// GetTokenBalance sums the atoms this wallet holds for tokenID.
func (w *Wallet) GetTokenBalance(tokenID string) (*big.Int, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	atoms, err := w.Tokens.GetTokenBalance(w.identity.Address, tokenID)
	if err != nil {
		return nil, sanitize(err)
	}
	return atoms, nil
}

// ListTokens aggregates every distinct token_id this wallet holds.
func (w *Wallet) ListTokens(ctx context.Context) ([]token.TokenEntry, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	entries, err := w.Tokens.ListTokens(ctx, w.identity.Address)
	if err != nil {
		return nil, sanitize(err)
	}
	return entries, nil
}

// SendTokens sends eToken atoms to one or more recipients.
func (w *Wallet) SendTokens(ctx context.Context, tokenID string, recipients []token.Recipient) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	built, txid, err := w.Tokens.SendTokens(ctx, w.identity.Address, tokenID, recipients)
	if err != nil {
		return nil, "", sanitize(err)
	}
	return built, txid, nil
}

// BurnTokens destroys a specific atom quantity of tokenID.
func (w *Wallet) BurnTokens(ctx context.Context, tokenID string, atoms uint64) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	built, txid, err := w.Tokens.BurnTokens(ctx, w.identity.Address, tokenID, atoms)
	if err != nil {
		return nil, "", sanitize(err)
	}
	return built, txid, nil
}

// BurnAllTokens destroys every UTXO this wallet holds for tokenID.
func (w *Wallet) BurnAllTokens(ctx context.Context, tokenID string) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	built, txid, err := w.Tokens.BurnAllTokens(ctx, w.identity.Address, tokenID)
	if err != nil {
		return nil, "", sanitize(err)
	}
	return built, txid, nil
}

// AnalyzeConsolidation reports the wallet's UTXO fragmentation and whether
// consolidating is worth it under opts.
func (w *Wallet) AnalyzeConsolidation(opts consolidate.Options) (consolidate.Analysis, error) {
	if err := w.requireInitialized(); err != nil {
		return consolidate.Analysis{}, err
	}
	analysis, err := w.Consolidator.Analyze(w.identity.Address, opts)
	if err != nil {
		return consolidate.Analysis{}, sanitize(err)
	}
	return analysis, nil
}

// StartConsolidation runs analyze -> plan -> (unless opts.DryRun) execute.
func (w *Wallet) StartConsolidation(ctx context.Context, opts consolidate.Options) (*consolidate.ExecutionResult, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, err
	}
	result, err := w.Consolidator.Start(ctx, w.identity.Address, w.identity.Hash160, opts)
	if err != nil {
		return nil, sanitize(err)
	}
	return result, nil
}
