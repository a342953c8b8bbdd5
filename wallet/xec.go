package wallet

import (
	"context"
	"encoding/hex"

	"github.com/zh/minimal-xec-wallet/coinselect"
	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/utxo"
	"github.com/zh/minimal-xec-wallet/walleterrors"
	"github.com/zh/minimal-xec-wallet/xeccrypto"
)

// Recipient is a single (address, satoshis) payment line.
type Recipient struct {
	Address string
	Sats    int64
}

// SendXEC builds a plain-payments transaction to one or more recipients,
// drawing only from pure-XEC UTXOs, and broadcasts it.
func (w *Wallet) SendXEC(ctx context.Context, recipients []Recipient, satsPerByte float64) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	if len(recipients) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrInvalidInput, "send_xec: recipients", nil)
	}

	var target int64
	outputs := make([]txbuilder.Output, 0, len(recipients)+1)
	for _, r := range recipients {
		script, err := addressScript(r.Address)
		if err != nil {
			return nil, "", err
		}
		if r.Sats < config.DustLimitSats {
			return nil, "", walleterrors.Wrap(walleterrors.ErrDustOutput, "send_xec: recipient amount", nil)
		}
		outputs = append(outputs, txbuilder.Output{Value: r.Sats, Script: script})
		target += r.Sats
	}

	candidates, err := w.store.SpendableXEC(w.identity.Address, utxo.DefaultSpendableOptions())
	if err != nil {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNetworkError, "send_xec: fetch utxos", err)
	}
	if len(candidates) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNoPureXecUtxos, "send_xec", nil)
	}

	selection, err := coinselect.Select(candidates, target, satsPerByte, len(recipients))
	if err != nil {
		return nil, "", err
	}
	if selection.HasChange {
		outputs = append(outputs, txbuilder.Output{Value: selection.Change, Script: w.ownScript})
	}

	built, err := w.signAndBroadcast(ctx, selection.Selected, outputs)
	if err != nil {
		return nil, "", err
	}
	return built, built.TxID, nil
}

// SendAllXEC sweeps every spendable pure-XEC UTXO to a single destination,
// minus the fee for a one-input-class, one-output transaction.
func (w *Wallet) SendAllXEC(ctx context.Context, toAddr string, satsPerByte float64) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	destScript, err := addressScript(toAddr)
	if err != nil {
		return nil, "", err
	}

	candidates, err := w.store.SpendableXEC(w.identity.Address, utxo.DefaultSpendableOptions())
	if err != nil {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNetworkError, "send_all_xec: fetch utxos", err)
	}
	if len(candidates) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNoPureXecUtxos, "send_all_xec", nil)
	}

	var total int64
	for _, u := range candidates {
		total += u.Value
	}
	fee := coinselect.EstimateFee(len(candidates), 1, satsPerByte)
	out := total - fee
	if out < config.DustLimitSats {
		return nil, "", walleterrors.Wrap(walleterrors.ErrDustOutput, "send_all_xec: sweep amount", nil)
	}

	built, err := w.signAndBroadcast(ctx, candidates, []txbuilder.Output{{Value: out, Script: destScript}})
	if err != nil {
		return nil, "", err
	}
	return built, built.TxID, nil
}

// SendExact spends exactly inputs (no coin selection) to destAddr minus the
// fee, satisfying the consolidate.XECSender interface.
func (w *Wallet) SendExact(ctx context.Context, addrKey string, inputs []indexer.UTXO, destAddr string) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	destScript, err := addressScript(destAddr)
	if err != nil {
		return nil, "", err
	}
	var total int64
	for _, u := range inputs {
		total += u.Value
	}
	fee := coinselect.EstimateFee(len(inputs), 1, w.feeRate)
	out := total - fee
	if out < config.DustLimitSats {
		return nil, "", walleterrors.Wrap(walleterrors.ErrDustOutput, "send_exact: output amount", nil)
	}
	built, err := w.signAndBroadcast(ctx, inputs, []txbuilder.Output{{Value: out, Script: destScript}})
	if err != nil {
		return nil, "", err
	}
	return built, built.TxID, nil
}

// SendOpReturn commits an arbitrary data payload with an optional set of
// value-bearing companion outputs.
func (w *Wallet) SendOpReturn(ctx context.Context, message []byte, prefixHex string, extra []Recipient, satsPerByte float64) (*txbuilder.Built, string, error) {
	if err := w.requireInitialized(); err != nil {
		return nil, "", err
	}
	if prefixHex == "" {
		prefixHex = config.DefaultMemoPrefix
	}
	prefix, err := hex.DecodeString(prefixHex)
	if err != nil {
		return nil, "", walleterrors.Wrap(walleterrors.ErrInvalidInput, "send_op_return: prefix", err)
	}
	if err := txbuilder.ValidateOpReturnMessageSize(prefix, message); err != nil {
		return nil, "", err
	}

	dataScript, err := txbuilder.OpReturnScript(prefix, message)
	if err != nil {
		return nil, "", err
	}

	outputs := make([]txbuilder.Output, 0, len(extra)+2)
	outputs = append(outputs, txbuilder.Output{Value: 0, Script: dataScript})

	var target int64
	for _, r := range extra {
		script, err := addressScript(r.Address)
		if err != nil {
			return nil, "", err
		}
		if r.Sats < config.DustLimitSats {
			return nil, "", walleterrors.Wrap(walleterrors.ErrDustOutput, "send_op_return: recipient amount", nil)
		}
		outputs = append(outputs, txbuilder.Output{Value: r.Sats, Script: script})
		target += r.Sats
	}

	candidates, err := w.store.SpendableXEC(w.identity.Address, utxo.DefaultSpendableOptions())
	if err != nil {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNetworkError, "send_op_return: fetch utxos", err)
	}
	if len(candidates) == 0 {
		return nil, "", walleterrors.Wrap(walleterrors.ErrNoPureXecUtxos, "send_op_return", nil)
	}

	selection, err := coinselect.Select(candidates, maxInt64(target, 1), satsPerByte, len(extra))
	if err != nil {
		return nil, "", err
	}
	if selection.HasChange {
		outputs = append(outputs, txbuilder.Output{Value: selection.Change, Script: w.ownScript})
	}

	built, err := w.signAndBroadcast(ctx, selection.Selected, outputs)
	if err != nil {
		return nil, "", err
	}
	return built, built.TxID, nil
}

// signAndBroadcast assembles txbuilder inputs from the given UTXOs (each
// signed with a fresh copy of the wallet's own key), builds and signs the
// transaction, broadcasts it, and invalidates the sender's UTXO cache.
func (w *Wallet) signAndBroadcast(ctx context.Context, selected []indexer.UTXO, outputs []txbuilder.Output) (*txbuilder.Built, error) {
	inputs := make([]txbuilder.Input, len(selected))
	for i, u := range selected {
		inputs[i] = txbuilder.Input{
			TxID:     u.Outpoint.TxID,
			Vout:     u.Outpoint.Index,
			Value:    u.Value,
			PKScript: u.Script,
			PrivKey:  w.identity.ECPrivKey(),
		}
	}

	built, err := txbuilder.BuildAndSign(inputs, outputs)
	if err != nil {
		return nil, err
	}

	txid, err := w.client.Broadcast(ctx, built.TxHex, []string{w.identity.Address})
	if err != nil {
		// Broadcast already classifies the failure as BroadcastRejected or NetworkError.
		return nil, err
	}
	built.TxID = txid

	w.store.Invalidate(w.identity.Address)
	return built, nil
}

func addressScript(addr string) ([]byte, error) {
	hash, addrType, err := xeccrypto.DecodeCashAddr(addr)
	if err != nil {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "address", err)
	}
	if addrType != xeccrypto.CashAddrTypeP2PKH {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "address: only P2PKH recipients are supported", nil)
	}
	return txbuilder.P2PKHScript(hash)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
