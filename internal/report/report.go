// Package report assembles the fetched and computed pieces of a cost
// analysis into one response object, issuing the independent external
// fetches concurrently.
package report

import (
	"time"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/benchmark"
	"github.com/costpilot/costpilot/internal/hygiene"
)

// CostReport is the aggregate result for one reporting period. It is built
// fresh per request and never persisted. Every field is always present:
// missing enrichments surface as explicit empty values so consumers can
// read any field without nil checks.
type CostReport struct {
	Period      string    `json:"period"`
	GeneratedAt time.Time `json:"generatedAt"`
	Currency    string    `json:"currency"`

	TotalCost   float64                     `json:"totalCost"`
	TopServices []analytics.ServiceCost     `json:"topServices"`
	DailyCosts  []analytics.DailyCostRecord `json:"dailyCosts"`

	Spikes              []string                       `json:"spikes"`
	SeasonalityPatterns []analytics.SeasonalityPattern `json:"seasonalityPatterns"`
	RootCauses          []analytics.RootCauseEntry     `json:"rootCauses"`

	Budget analytics.BudgetStatus `json:"budget"`

	Benchmarks []benchmark.Comparison           `json:"benchmarks"`
	MultiCloud []benchmark.MultiCloudComparison `json:"multiCloud"`

	Hygiene hygiene.Findings `json:"hygiene"`

	// Warnings lists enrichment feeds that failed and were replaced with
	// empty defaults, so callers can tell "no findings" from "not fetched".
	Warnings []string `json:"warnings"`
}

// Inputs carries everything the assembler merges. Fetching and computation
// happen upstream; Assemble only normalizes.
type Inputs struct {
	Period      string
	Currency    string
	DailyCosts  []analytics.DailyCostRecord
	TopServices []analytics.ServiceCost
	Spikes      []string
	Seasonality []analytics.SeasonalityPattern
	RootCauses  []analytics.RootCauseEntry
	Budget      analytics.BudgetStatus
	Benchmarks  []benchmark.Comparison
	MultiCloud  []benchmark.MultiCloudComparison
	Hygiene     *hygiene.Findings
	Warnings    []string
	Now         time.Time
}

// Assemble merges the inputs into a CostReport, replacing every nil slice
// with an explicit empty one.
func Assemble(in Inputs) CostReport {
	r := CostReport{
		Period:              in.Period,
		GeneratedAt:         in.Now,
		Currency:            in.Currency,
		TotalCost:           analytics.TotalCost(in.DailyCosts),
		TopServices:         in.TopServices,
		DailyCosts:          in.DailyCosts,
		Spikes:              in.Spikes,
		SeasonalityPatterns: in.Seasonality,
		RootCauses:          in.RootCauses,
		Budget:              in.Budget,
		Benchmarks:          in.Benchmarks,
		MultiCloud:          in.MultiCloud,
		Hygiene:             hygiene.EmptyFindings(),
		Warnings:            in.Warnings,
	}
	if in.Hygiene != nil {
		r.Hygiene = *in.Hygiene
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	if r.TopServices == nil {
		r.TopServices = []analytics.ServiceCost{}
	}
	if r.DailyCosts == nil {
		r.DailyCosts = []analytics.DailyCostRecord{}
	}
	if r.Spikes == nil {
		r.Spikes = []string{}
	}
	if r.SeasonalityPatterns == nil {
		r.SeasonalityPatterns = []analytics.SeasonalityPattern{}
	}
	if r.RootCauses == nil {
		r.RootCauses = []analytics.RootCauseEntry{}
	}
	if r.Benchmarks == nil {
		r.Benchmarks = []benchmark.Comparison{}
	}
	if r.MultiCloud == nil {
		r.MultiCloud = []benchmark.MultiCloudComparison{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return r
}
