package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/benchmark"
	"github.com/costpilot/costpilot/internal/hygiene"
	"github.com/costpilot/costpilot/internal/metrics"
	"github.com/costpilot/costpilot/internal/store"
)

// CostSource is the primary billing feed. Its failure is fatal to the
// report: no report is fabricated without cost data.
type CostSource interface {
	CostRows(ctx context.Context, tr analytics.TimeRange) ([]analytics.RawCostRow, error)
}

// BudgetSource supplies the consumption budget, if one exists.
type BudgetSource interface {
	Budget(ctx context.Context) (analytics.BudgetInput, error)
}

// InventorySource supplies the resource inventory for hygiene analysis.
type InventorySource interface {
	Inventory(ctx context.Context) (hygiene.Inventory, error)
}

// ReferenceSource supplies the benchmark reference table.
type ReferenceSource interface {
	ReferenceTable(ctx context.Context) map[string]store.ReferenceEntry
}

// MultiCloudSource supplies cross-provider cost comparisons.
type MultiCloudSource interface {
	Compare(ctx context.Context, services []analytics.ServiceCost) []benchmark.MultiCloudComparison
}

// Options tunes the pipeline.
type Options struct {
	// FetchTimeout bounds each external fetch. Zero means 30s.
	FetchTimeout time.Duration
	// TopServiceCount caps the per-service ranking. Zero means 10.
	TopServiceCount int
	// SpikeThresholds used for detection; zero value means defaults.
	SpikeThresholds analytics.SpikeThresholds
	// HygieneThresholds for the inventory analyzer.
	HygieneThresholds hygiene.Thresholds
}

// Pipeline fetches external data concurrently and runs the analytics over
// it. Any source except Cost may be nil; the corresponding report sections
// come back explicitly empty.
type Pipeline struct {
	Cost       CostSource
	Events     analytics.ChangeEventSource
	Budgets    BudgetSource
	Inv        InventorySource
	Reference  ReferenceSource
	MultiCloud MultiCloudSource
	Opts       Options
}

// ErrCostFeedUnavailable wraps a primary cost feed failure so callers can
// distinguish it from internal errors.
type ErrCostFeedUnavailable struct {
	Err error
}

func (e *ErrCostFeedUnavailable) Error() string {
	return fmt.Sprintf("cost data fetch failed: %v", e.Err)
}

func (e *ErrCostFeedUnavailable) Unwrap() error { return e.Err }

// fetchResults collects the fan-out output. A nil error with zero value
// means the source was not configured.
type fetchResults struct {
	rows    []analytics.RawCostRow
	rowsErr error

	budget    analytics.BudgetInput
	budgetErr error

	inventory    hygiene.Inventory
	inventoryErr error
	hasInventory bool

	reference map[string]store.ReferenceEntry
}

// Build resolves the period, fans out the independent external reads,
// runs the analytics, and assembles the report.
func (p *Pipeline) Build(ctx context.Context, periodText string) (CostReport, error) {
	started := time.Now()
	tr := analytics.ResolveTimeframe(periodText, started)

	res := p.fanOut(ctx, tr)
	if res.rowsErr != nil {
		metrics.ReportsBuilt.WithLabelValues("error").Inc()
		metrics.FetchFailures.WithLabelValues("cost").Inc()
		return CostReport{}, &ErrCostFeedUnavailable{Err: res.rowsErr}
	}

	var warnings []string
	if res.budgetErr != nil {
		slog.Warn("report: budget fetch failed, continuing without budget", "error", res.budgetErr)
		metrics.FetchFailures.WithLabelValues("budget").Inc()
		warnings = append(warnings, "budget data unavailable")
		res.budget = analytics.BudgetInput{}
	}
	if res.inventoryErr != nil {
		slog.Warn("report: inventory fetch failed, continuing without hygiene findings", "error", res.inventoryErr)
		metrics.FetchFailures.WithLabelValues("inventory").Inc()
		warnings = append(warnings, "resource inventory unavailable")
		res.hasInventory = false
	}

	daily := analytics.AggregateDaily(res.rows)
	topN := p.Opts.TopServiceCount
	if topN <= 0 {
		topN = 10
	}
	topServices := analytics.TopServices(daily, topN)

	thresholds := p.Opts.SpikeThresholds
	if thresholds.RelativePct == 0 && thresholds.Absolute == 0 {
		thresholds = analytics.DefaultSpikeThresholds
	}
	spikes := analytics.DetectSpikes(daily, thresholds)
	metrics.SpikesDetected.Set(float64(len(spikes)))

	descriptors := make([]string, 0, len(spikes))
	for _, s := range spikes {
		descriptors = append(descriptors, analytics.FormatSpike(s))
	}

	var rootCauses []analytics.RootCauseEntry
	if p.Events != nil {
		rootCauses = analytics.CorrelateRootCauses(ctx, descriptors, p.Events)
	}

	budgetStatus := analytics.EvaluateBudget(res.budget)

	var comparisons []benchmark.Comparison
	if res.reference != nil {
		comparisons = benchmark.Compare(topServices, res.reference)
	}

	var multi []benchmark.MultiCloudComparison
	if p.MultiCloud != nil {
		multi = p.MultiCloud.Compare(ctx, topServices)
	}

	var findings *hygiene.Findings
	if res.hasInventory {
		f := hygiene.Analyze(res.inventory, p.Opts.HygieneThresholds)
		findings = &f
		metrics.HygieneMonthlyWasteUSD.Set(f.EstimatedMonthlyWaste)
	}

	rep := Assemble(Inputs{
		Period:      tr.Label,
		DailyCosts:  daily,
		TopServices: topServices,
		Spikes:      descriptors,
		Seasonality: analytics.AnalyzeSeasonality(daily),
		RootCauses:  rootCauses,
		Budget:      budgetStatus,
		Benchmarks:  comparisons,
		MultiCloud:  multi,
		Hygiene:     findings,
		Warnings:    warnings,
		Now:         started,
	})

	metrics.ReportTotalCostUSD.Set(rep.TotalCost)
	metrics.ReportBuildDuration.Observe(time.Since(started).Seconds())
	metrics.ReportsBuilt.WithLabelValues("ok").Inc()
	return rep, nil
}

// fanOut issues the independent external reads concurrently, each under its
// own timeout, and waits for all of them.
func (p *Pipeline) fanOut(ctx context.Context, tr analytics.TimeRange) fetchResults {
	timeout := p.Opts.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var res fetchResults
	var wg sync.WaitGroup

	fetch := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			fn(fctx)
		}()
	}

	if p.Cost != nil {
		fetch(func(fctx context.Context) {
			res.rows, res.rowsErr = p.Cost.CostRows(fctx, tr)
		})
	} else {
		res.rowsErr = fmt.Errorf("no cost source configured")
	}

	if p.Budgets != nil {
		fetch(func(fctx context.Context) {
			res.budget, res.budgetErr = p.Budgets.Budget(fctx)
		})
	}

	if p.Inv != nil {
		res.hasInventory = true
		fetch(func(fctx context.Context) {
			res.inventory, res.inventoryErr = p.Inv.Inventory(fctx)
		})
	}

	if p.Reference != nil {
		fetch(func(fctx context.Context) {
			res.reference = p.Reference.ReferenceTable(fctx)
		})
	}

	wg.Wait()
	return res
}
