// Package coinselect picks which UTXOs fund a spend, using a greedy
// largest-first strategy with a single-UTXO tie-break to minimize fees and
// avoid fragmenting the wallet unnecessarily.
package coinselect

import (
	"math"
	"sort"

	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// Result is the outcome of a successful selection.
type Result struct {
	Selected       []indexer.UTXO
	TotalInput     int64
	EstimatedFee   int64
	Change         int64 // 0 when the change output was dropped as dust
	HasChange      bool
}

// EstimateFee computes the P2PKH-shaped fee for a transaction with the
// given input and output counts: ceil((inputs*148 + outputs*34 + 10) *
// satsPerByte).
func EstimateFee(numInputs, numOutputs int, satsPerByte float64) int64 {
	vbytes := numInputs*config.P2PKHInputVBytes + numOutputs*config.P2PKHOutputVBytes + config.BaseTxVBytes
	return int64(math.Ceil(float64(vbytes) * satsPerByte))
}

// Select picks UTXOs from candidates to cover targetValue plus fees, for a
// transaction that will emit numRecipientOutputs recipient outputs (not
// counting change).
func Select(candidates []indexer.UTXO, targetValue int64, satsPerByte float64, numRecipientOutputs int) (*Result, error) {
	if targetValue <= 0 {
		return nil, walleterrors.Wrap(walleterrors.ErrInvalidInput, "coin selection", nil)
	}

	sorted := make([]indexer.UTXO, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	if result := selectSingle(sorted, targetValue, satsPerByte, numRecipientOutputs); result != nil {
		return result, nil
	}
	return selectGreedy(sorted, targetValue, satsPerByte, numRecipientOutputs)
}

// selectSingle scans for the smallest single UTXO that alone covers
// target+fee, preferring it over a multi-input selection since it carries
// a strictly lower fee and causes no further UTXO fragmentation.
func selectSingle(sortedDesc []indexer.UTXO, targetValue int64, satsPerByte float64, numRecipientOutputs int) *Result {
	var best *indexer.UTXO
	var bestResult *Result

	for i := range sortedDesc {
		u := sortedDesc[i]
		feeWithChange := EstimateFee(1, numRecipientOutputs+1, satsPerByte)
		change := u.Value - targetValue - feeWithChange
		if change < 0 {
			continue
		}

		if best == nil || u.Value < best.Value {
			uCopy := u
			best = &uCopy
			bestResult = finalizeResult([]indexer.UTXO{u}, targetValue, satsPerByte, numRecipientOutputs)
		}
	}
	return bestResult
}

// selectGreedy walks candidates largest-first, accumulating inputs until
// the running total covers target+fee (fee recomputed each iteration since
// it depends on the input count).
func selectGreedy(sortedDesc []indexer.UTXO, targetValue int64, satsPerByte float64, numRecipientOutputs int) (*Result, error) {
	var selected []indexer.UTXO
	var total int64

	for _, u := range sortedDesc {
		selected = append(selected, u)
		total += u.Value

		fee := EstimateFee(len(selected), numRecipientOutputs+1, satsPerByte)
		if total >= targetValue+fee {
			return finalizeResult(selected, targetValue, satsPerByte, numRecipientOutputs), nil
		}
	}

	return nil, walleterrors.Wrap(walleterrors.ErrInsufficientFunds, "coin selection", nil)
}

// finalizeResult recomputes the final fee for the chosen input set and
// decides whether a change output survives the dust limit.
func finalizeResult(selected []indexer.UTXO, targetValue int64, satsPerByte float64, numRecipientOutputs int) *Result {
	var total int64
	for _, u := range selected {
		total += u.Value
	}

	feeWithChange := EstimateFee(len(selected), numRecipientOutputs+1, satsPerByte)
	change := total - targetValue - feeWithChange

	if change >= config.DustLimitSats {
		return &Result{
			Selected:     selected,
			TotalInput:   total,
			EstimatedFee: feeWithChange,
			Change:       change,
			HasChange:    true,
		}
	}

	// Change would be dust: drop the change output and absorb the
	// remainder (change + the vbytes saved by omitting it) into the fee.
	return &Result{
		Selected:     selected,
		TotalInput:   total,
		EstimatedFee: total - targetValue,
		Change:       0,
		HasChange:    false,
	}
}
