// Package consolidate decides when a fragmented UTXO set is worth
// merging, batches the merge under an input-count cap, and executes the
// resulting transactions sequentially through a narrow sender interface
// (not the wallet facade itself, to avoid a planner/facade import cycle).
package consolidate

import (
	"context"

	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/utxo"
)

// UTXOAccessor is the narrow UTXO-store surface the planner needs.
type UTXOAccessor interface {
	SpendableXEC(addrKey string, opts utxo.SpendableOptions) ([]indexer.UTXO, error)
	Refresh(ctx context.Context, addrKey string, hash160 []byte) error
}

// XECSender builds, signs, and broadcasts a send-all transaction spending
// exactly inputs to destAddr. The consolidation planner never picks its
// own inputs via coin selection — a batch's membership is fixed by plan().
type XECSender interface {
	SendExact(ctx context.Context, addrKey string, inputs []indexer.UTXO, destAddr string) (*txbuilder.Built, string, error)
}

// Options tunes the analysis and batching thresholds. FeeRate is
// satoshis per byte.
type Options struct {
	Threshold        int64
	MaxInputs        int
	FeeRate          float64
	DryRun           bool
	RequireConfirmed bool // refetch the UTXO cache after each executed batch
}

// BandCounts tallies UTXOs by satoshi-value band.
type BandCounts struct {
	Dust   int
	Small  int
	Medium int
	Large  int
}

// Analysis is the result of analyze(): a distribution snapshot plus the
// consolidate/don't-consolidate decision and its supporting numbers.
type Analysis struct {
	Count             int
	TotalValue        int64
	Bands             BandCounts
	BelowThreshold    int
	ProjectedCost     int64
	ExpectedSavings   int64 // net of ProjectedCost; positive means worth consolidating
	ShouldConsolidate bool
}

// Batch is one planned consolidation transaction: a disjoint slice of the
// input UTXO set spent to a single change-free output.
type Batch struct {
	Inputs      []indexer.UTXO
	TotalInput  int64
	OutputValue int64
	Fee         int64
}

// Plan is the ordered set of batches analyze/plan produced.
type Plan struct {
	Analysis Analysis
	Batches  []Batch
}

// BatchResult records the outcome of executing one planned batch.
type BatchResult struct {
	Batch Batch
	TxID  string
}

// ExecutionResult is what Start returns: the plan that was computed, and
// (when not a dry run) the broadcast result of each executed batch.
type ExecutionResult struct {
	Plan    *Plan
	Results []BatchResult
}
