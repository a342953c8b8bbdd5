package consolidate

import (
	"context"
	"fmt"
	"testing"

	"github.com/zh/minimal-xec-wallet/indexer"
	"github.com/zh/minimal-xec-wallet/txbuilder"
	"github.com/zh/minimal-xec-wallet/utxo"
)

type fakeAccessor struct {
	utxos        []indexer.UTXO
	refreshCalls int
	refreshErr   error
}

func (f *fakeAccessor) SpendableXEC(addrKey string, opts utxo.SpendableOptions) ([]indexer.UTXO, error) {
	return f.utxos, nil
}

func (f *fakeAccessor) Refresh(ctx context.Context, addrKey string, hash160 []byte) error {
	f.refreshCalls++
	return f.refreshErr
}

type fakeSender struct {
	sent [][]indexer.UTXO
	err  error
}

func (f *fakeSender) SendExact(ctx context.Context, addrKey string, inputs []indexer.UTXO, destAddr string) (*txbuilder.Built, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	f.sent = append(f.sent, inputs)
	return &txbuilder.Built{TxHex: "deadbeef"}, fmt.Sprintf("tx%d", len(f.sent)), nil
}

func utxoOfValue(idx int, value int64) indexer.UTXO {
	return indexer.UTXO{
		Outpoint: indexer.Outpoint{TxID: fmt.Sprintf("%064d", idx), Index: 0},
		Value:    value,
	}
}

func TestAnalyzeRecommendsConsolidationForManySmallUtxos(t *testing.T) {
	var utxos []indexer.UTXO
	for i := 0; i < 20; i++ {
		utxos = append(utxos, utxoOfValue(i, 500))
	}
	accessor := &fakeAccessor{utxos: utxos}
	p := New(accessor, &fakeSender{})

	analysis, err := p.Analyze("addr", DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Count != 20 {
		t.Fatalf("count = %d, want 20", analysis.Count)
	}
	if analysis.Bands.Dust != 20 {
		t.Fatalf("dust band = %d, want 20", analysis.Bands.Dust)
	}
	if !analysis.ShouldConsolidate {
		t.Fatalf("expected ShouldConsolidate with 20 dust-band utxos, got analysis=%+v", analysis)
	}
}

func TestAnalyzeDeclinesForFewLargeUtxos(t *testing.T) {
	utxos := []indexer.UTXO{utxoOfValue(0, 5_000_000), utxoOfValue(1, 8_000_000)}
	accessor := &fakeAccessor{utxos: utxos}
	p := New(accessor, &fakeSender{})

	analysis, err := p.Analyze("addr", DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.ShouldConsolidate {
		t.Fatalf("expected no recommendation for 2 large utxos, got analysis=%+v", analysis)
	}
}

func TestPlanBatchesRespectMaxInputs(t *testing.T) {
	var utxos []indexer.UTXO
	for i := 0; i < 250; i++ {
		utxos = append(utxos, utxoOfValue(i, 2000))
	}
	accessor := &fakeAccessor{utxos: utxos}
	p := New(accessor, &fakeSender{})

	opts := DefaultOptions()
	opts.MaxInputs = 200
	plan, err := p.Plan("addr", opts)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(plan.Batches))
	}
	if len(plan.Batches[0].Inputs) != 200 {
		t.Fatalf("first batch = %d inputs, want 200", len(plan.Batches[0].Inputs))
	}
	if len(plan.Batches[1].Inputs) != 50 {
		t.Fatalf("second batch = %d inputs, want 50", len(plan.Batches[1].Inputs))
	}
}

func TestPlanDropsDustOutputBatches(t *testing.T) {
	// A single-input batch of 100 sats can never clear even a modest fee.
	utxos := []indexer.UTXO{utxoOfValue(0, 100)}
	accessor := &fakeAccessor{utxos: utxos}
	p := New(accessor, &fakeSender{})

	plan, err := p.Plan("addr", DefaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Batches) != 0 {
		t.Fatalf("expected dust batch to be dropped, got %d batches", len(plan.Batches))
	}
}

func TestStartDryRunDoesNotSend(t *testing.T) {
	var utxos []indexer.UTXO
	for i := 0; i < 10; i++ {
		utxos = append(utxos, utxoOfValue(i, 1000))
	}
	accessor := &fakeAccessor{utxos: utxos}
	sender := &fakeSender{}
	p := New(accessor, sender)

	opts := DefaultOptions()
	opts.DryRun = true
	result, err := p.Start(context.Background(), "addr", make([]byte, 20), opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("dry run must not call SendExact, got %d calls", len(sender.sent))
	}
	if len(result.Results) != 0 {
		t.Fatalf("dry run result must carry no BatchResults, got %d", len(result.Results))
	}
}

func TestStartExecutesEachBatchSequentially(t *testing.T) {
	var utxos []indexer.UTXO
	for i := 0; i < 250; i++ {
		utxos = append(utxos, utxoOfValue(i, 2000))
	}
	accessor := &fakeAccessor{utxos: utxos}
	sender := &fakeSender{}
	p := New(accessor, sender)

	opts := DefaultOptions()
	opts.MaxInputs = 200
	opts.RequireConfirmed = true

	result, err := p.Start(context.Background(), "addr", make([]byte, 20), opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("got %d batch results, want 2", len(result.Results))
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sender saw %d calls, want 2", len(sender.sent))
	}
	if accessor.refreshCalls != 2 {
		t.Fatalf("refresh called %d times, want 2 (once per batch)", accessor.refreshCalls)
	}
}

func TestStartStopsOnSendError(t *testing.T) {
	var utxos []indexer.UTXO
	for i := 0; i < 250; i++ {
		utxos = append(utxos, utxoOfValue(i, 2000))
	}
	accessor := &fakeAccessor{utxos: utxos}
	sender := &fakeSender{err: fmt.Errorf("boom")}
	p := New(accessor, sender)

	opts := DefaultOptions()
	opts.MaxInputs = 200

	_, err := p.Start(context.Background(), "addr", make([]byte, 20), opts)
	if err == nil {
		t.Fatal("expected error to propagate from SendExact")
	}
}
