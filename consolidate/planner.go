package consolidate

import (
	"context"
	"log/slog"
	"sort"

	"github.com/zh/minimal-xec-wallet/coinselect"
	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/internal/config"
	"github.com/zh/minimal-xec-wallet/utxo"
	"github.com/zh/minimal-xec-wallet/walleterrors"
)

// DefaultOptions returns the spec-mandated thresholds, overridable per call.
func DefaultOptions() Options {
	return Options{
		Threshold: config.DefaultConsolidationThresholdSats,
		MaxInputs: config.DefaultMaxConsolidationInputs,
		FeeRate:   config.DefaultFeeRate,
	}
}

// Planner analyzes a wallet's UTXO fragmentation and, when worthwhile,
// plans and executes consolidation transactions. It depends on the
// narrow UTXOAccessor/XECSender interfaces rather than a wallet facade
// so that the facade can depend on Planner without a cycle.
type Planner struct {
	accessor UTXOAccessor
	sender   XECSender
	log      *slog.Logger
}

// New builds a Planner over the given UTXO accessor and sender.
func New(accessor UTXOAccessor, sender XECSender) *Planner {
	return &Planner{accessor: accessor, sender: sender, log: slog.Default()}
}

// Analyze fetches the spendable pure-XEC UTXO set for addrKey and reports
// its size-band distribution and whether consolidation is worth doing.
func (p *Planner) Analyze(addrKey string, opts Options) (Analysis, error) {
	utxos, err := p.accessor.SpendableXEC(addrKey, utxo.SpendableOptions{IncludeUnconfirmed: true, ExcludeDustAttack: true})
	if err != nil {
		return Analysis{}, walleterrors.Wrap(walleterrors.ErrNetworkError, "consolidate: fetch utxos", err)
	}
	return analyze(utxos, opts), nil
}

func analyze(utxos []indexer.UTXO, opts Options) Analysis {
	a := Analysis{Count: len(utxos)}
	for _, u := range utxos {
		a.TotalValue += u.Value
		switch {
		case u.Value <= config.DustBandMaxSats:
			a.Bands.Dust++
		case u.Value <= config.SmallBandMaxSats:
			a.Bands.Small++
		case u.Value <= config.MediumBandMaxSats:
			a.Bands.Medium++
		default:
			a.Bands.Large++
		}
		if u.Value < opts.Threshold {
			a.BelowThreshold++
		}
	}

	batches := batchCount(a.Count, opts.MaxInputs)
	a.ProjectedCost = projectedCost(a.Count, batches, opts.FeeRate)

	nAfter := batches // one consolidated output survives per batch
	rawSavings := float64(a.Count-nAfter) * config.P2PKHInputVBytes * opts.FeeRate * float64(config.ExpectedFutureTxCount)
	a.ExpectedSavings = int64(rawSavings) - a.ProjectedCost

	a.ShouldConsolidate = a.Count >= config.MinUTXOsToConsider &&
		a.BelowThreshold >= config.MinUTXOsBelowThreshold &&
		a.ExpectedSavings > 0
	return a
}

func batchCount(n, maxInputs int) int {
	if n == 0 {
		return 0
	}
	if maxInputs <= 0 {
		maxInputs = config.DefaultMaxConsolidationInputs
	}
	return (n + maxInputs - 1) / maxInputs
}

func projectedCost(n, batches int, feeRate float64) int64 {
	if batches == 0 {
		return 0
	}
	perBatch := n / batches
	remainder := n % batches
	var total int64
	for i := 0; i < batches; i++ {
		size := perBatch
		if i < remainder {
			size++
		}
		total += coinselect.EstimateFee(size, 1, feeRate)
	}
	return total
}

// Plan fetches the current UTXO set and produces an ordered batch plan,
// without broadcasting anything. Batches whose output would fall below
// the dust limit are dropped.
func (p *Planner) Plan(addrKey string, opts Options) (*Plan, error) {
	analysis, err := p.Analyze(addrKey, opts)
	if err != nil {
		return nil, err
	}
	utxos, err := p.accessor.SpendableXEC(addrKey, utxo.SpendableOptions{IncludeUnconfirmed: true, ExcludeDustAttack: true})
	if err != nil {
		return nil, walleterrors.Wrap(walleterrors.ErrNetworkError, "consolidate: fetch utxos", err)
	}
	return &Plan{Analysis: analysis, Batches: plan(utxos, opts)}, nil
}

// plan sorts candidates ascending by value (smallest UTXOs, the ones
// costing the most to spend individually, go first) and slices them into
// fixed-size batches.
func plan(utxos []indexer.UTXO, opts Options) []Batch {
	sorted := make([]indexer.UTXO, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	maxInputs := opts.MaxInputs
	if maxInputs <= 0 {
		maxInputs = config.DefaultMaxConsolidationInputs
	}

	var batches []Batch
	for start := 0; start < len(sorted); start += maxInputs {
		end := start + maxInputs
		if end > len(sorted) {
			end = len(sorted)
		}
		group := sorted[start:end]

		var total int64
		for _, u := range group {
			total += u.Value
		}
		fee := coinselect.EstimateFee(len(group), 1, opts.FeeRate)
		out := total - fee
		if out < config.DustLimitSats {
			continue
		}
		batches = append(batches, Batch{Inputs: group, TotalInput: total, OutputValue: out, Fee: fee})
	}
	return batches
}

// Start plans (if necessary) and, unless opts.DryRun is set, executes the
// consolidation by broadcasting each batch sequentially to addrKey itself.
func (p *Planner) Start(ctx context.Context, addrKey string, hash160 []byte, opts Options) (*ExecutionResult, error) {
	plan, err := p.Plan(addrKey, opts)
	if err != nil {
		return nil, err
	}
	if opts.DryRun || len(plan.Batches) == 0 {
		return &ExecutionResult{Plan: plan}, nil
	}

	result := &ExecutionResult{Plan: plan}
	for i, batch := range plan.Batches {
		_, txid, err := p.sender.SendExact(ctx, addrKey, batch.Inputs, addrKey)
		if err != nil {
			return result, walleterrors.Wrap(walleterrors.ErrBroadcastRejected, "consolidate: batch send", err)
		}
		p.log.Info("consolidation batch broadcast", "batch", i, "inputs", len(batch.Inputs), "txid", txid)
		result.Results = append(result.Results, BatchResult{Batch: batch, TxID: txid})

		if opts.RequireConfirmed {
			if err := p.accessor.Refresh(ctx, addrKey, hash160); err != nil {
				return result, walleterrors.Wrap(walleterrors.ErrNetworkError, "consolidate: refresh after batch", err)
			}
		}
	}
	return result, nil
}
