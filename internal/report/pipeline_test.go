package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/hygiene"
	"github.com/costpilot/costpilot/internal/store"
)

type fakeCostSource struct {
	rows []analytics.RawCostRow
	err  error
}

func (f *fakeCostSource) CostRows(ctx context.Context, tr analytics.TimeRange) ([]analytics.RawCostRow, error) {
	return f.rows, f.err
}

type fakeBudgetSource struct {
	in  analytics.BudgetInput
	err error
}

func (f *fakeBudgetSource) Budget(ctx context.Context) (analytics.BudgetInput, error) {
	return f.in, f.err
}

type fakeInventorySource struct {
	inv hygiene.Inventory
	err error
}

func (f *fakeInventorySource) Inventory(ctx context.Context) (hygiene.Inventory, error) {
	return f.inv, f.err
}

type fakeReferenceSource struct {
	table map[string]store.ReferenceEntry
}

func (f *fakeReferenceSource) ReferenceTable(ctx context.Context) map[string]store.ReferenceEntry {
	return f.table
}

type fakeEventSource struct {
	events []analytics.ChangeEvent
}

func (f *fakeEventSource) ChangeEvents(ctx context.Context, day time.Time) ([]analytics.ChangeEvent, error) {
	return f.events, nil
}

// spikeRows produces three days of rows where day three triples, so the
// default thresholds report exactly one spike.
func spikeRows() []analytics.RawCostRow {
	return []analytics.RawCostRow{
		{Cost: 100.0, DateKey: "20250101", ServiceName: "Virtual Machines"},
		{Cost: 100.0, DateKey: "20250102", ServiceName: "Virtual Machines"},
		{Cost: 300.0, DateKey: "20250103", ServiceName: "Virtual Machines"},
	}
}

func TestBuildPrimaryFeedFailureIsFatal(t *testing.T) {
	p := &Pipeline{
		Cost:    &fakeCostSource{err: errors.New("auth failed")},
		Budgets: &fakeBudgetSource{in: analytics.BudgetInput{Amount: 1000}},
	}
	_, err := p.Build(context.Background(), "current month")
	if err == nil {
		t.Fatal("expected error when cost feed fails")
	}
	var feedErr *ErrCostFeedUnavailable
	if !errors.As(err, &feedErr) {
		t.Errorf("error should be ErrCostFeedUnavailable, got %T", err)
	}
}

func TestBuildNoCostSourceConfigured(t *testing.T) {
	p := &Pipeline{}
	if _, err := p.Build(context.Background(), "current month"); err == nil {
		t.Fatal("expected error with no cost source")
	}
}

func TestBuildEnrichmentFailuresDegrade(t *testing.T) {
	p := &Pipeline{
		Cost:    &fakeCostSource{rows: spikeRows()},
		Budgets: &fakeBudgetSource{err: errors.New("budget API down")},
		Inv:     &fakeInventorySource{err: errors.New("inventory API down")},
	}
	rep, err := p.Build(context.Background(), "current month")
	if err != nil {
		t.Fatalf("enrichment failures must not abort the report: %v", err)
	}
	if rep.TotalCost != 500 {
		t.Errorf("TotalCost = %v, want 500", rep.TotalCost)
	}
	if rep.Budget.Alert != "" {
		t.Errorf("failed budget fetch should yield no alert, got %q", rep.Budget.Alert)
	}
	if len(rep.Hygiene.UnusedPublicIPs) != 0 {
		t.Error("failed inventory fetch should yield empty hygiene findings")
	}
	if len(rep.Warnings) != 2 {
		t.Errorf("expected 2 warnings for the failed feeds, got %v", rep.Warnings)
	}
}

func TestBuildFullReport(t *testing.T) {
	p := &Pipeline{
		Cost:    &fakeCostSource{rows: spikeRows()},
		Budgets: &fakeBudgetSource{in: analytics.BudgetInput{Amount: 1000, CurrentSpend: 950, ForecastSpend: 1000}},
		Inv: &fakeInventorySource{inv: hygiene.Inventory{
			PublicIPs: []hygiene.PublicIP{{Name: "ip-floating"}},
		}},
		Reference: &fakeReferenceSource{table: map[string]store.ReferenceEntry{
			"Virtual Machines": {AverageCost: 400, Percentile50: 350, Percentile90: 600},
		}},
		Events: &fakeEventSource{events: []analytics.ChangeEvent{{
			EventTimestamp: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC),
			OperationName:  "Microsoft.Compute/virtualMachines/Write",
			ResourceName:   "web-01",
		}}},
	}

	rep, err := p.Build(context.Background(), "January 2025")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(rep.Spikes) != 1 {
		t.Fatalf("expected 1 spike descriptor, got %d", len(rep.Spikes))
	}
	if len(rep.RootCauses) != 1 {
		t.Fatalf("expected 1 root cause entry, got %d", len(rep.RootCauses))
	}
	if len(rep.RootCauses[0].Causes) != 1 {
		t.Errorf("expected the Write event as a cause, got %v", rep.RootCauses[0].Causes)
	}
	if rep.Budget.UtilizationPercentage != 95 {
		t.Errorf("UtilizationPercentage = %v, want 95", rep.Budget.UtilizationPercentage)
	}
	if rep.Budget.Alert == "" {
		t.Error("95% utilization should carry an alert")
	}
	if len(rep.Benchmarks) != 1 {
		t.Fatalf("expected 1 benchmark comparison, got %d", len(rep.Benchmarks))
	}
	if rep.Benchmarks[0].Severity != "high" {
		t.Errorf("500 vs avg 400 is +25%%, want high severity, got %q", rep.Benchmarks[0].Severity)
	}
	if len(rep.Hygiene.UnusedPublicIPs) != 1 {
		t.Error("floating IP should surface in hygiene findings")
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("no feed failed, want no warnings, got %v", rep.Warnings)
	}
}

func TestBuildTimeframeResolution(t *testing.T) {
	var gotTR analytics.TimeRange
	src := &trCapturingSource{}
	p := &Pipeline{Cost: src}
	if _, err := p.Build(context.Background(), "last 45 days"); err != nil {
		t.Fatalf("Build: %v", err)
	}
	gotTR = src.tr
	if gotTR.Timeframe != analytics.TimeframeCustom {
		t.Errorf("Timeframe = %q, want Custom", gotTR.Timeframe)
	}
	days := gotTR.End.Sub(gotTR.Start).Hours() / 24
	if days < 44.9 || days > 45.1 {
		t.Errorf("window = %.1f days, want 45", days)
	}
}

type trCapturingSource struct {
	tr analytics.TimeRange
}

func (s *trCapturingSource) CostRows(ctx context.Context, tr analytics.TimeRange) ([]analytics.RawCostRow, error) {
	s.tr = tr
	return nil, nil
}
