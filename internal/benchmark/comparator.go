// Package benchmark compares a tenant's per-service spend against external
// reference tables: an industry feed (with an embedded fallback) and
// cross-provider price estimates.
package benchmark

import (
	"fmt"
	"sort"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/store"
)

// Severity tiers for a benchmark variance.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Comparison is the result of comparing one service's spend against its
// reference entry.
type Comparison struct {
	ServiceName        string  `json:"serviceName"`
	ClientCost         float64 `json:"clientCost"`
	IndustryAverage    float64 `json:"industryAverage"`
	VariancePercentage float64 `json:"variancePercentage"`
	PotentialSavings   float64 `json:"potentialSavings"`
	Severity           string  `json:"severity"`
	Insight            string  `json:"insight"`
}

// Compare matches per-service costs against a reference table. Services
// absent from the table are omitted, not errored. Results are ordered by
// variance descending so the worst offenders lead.
func Compare(services []analytics.ServiceCost, table map[string]store.ReferenceEntry) []Comparison {
	var out []Comparison
	for _, svc := range services {
		ref, ok := table[svc.ServiceName]
		if !ok || ref.AverageCost <= 0 {
			continue
		}
		variance := (svc.Cost - ref.AverageCost) / ref.AverageCost * 100
		out = append(out, Comparison{
			ServiceName:        svc.ServiceName,
			ClientCost:         svc.Cost,
			IndustryAverage:    ref.AverageCost,
			VariancePercentage: variance,
			PotentialSavings:   svc.Cost - ref.Percentile50,
			Severity:           severityFor(variance),
			Insight:            insightFor(svc.ServiceName, variance, ref),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VariancePercentage > out[j].VariancePercentage
	})
	return out
}

func severityFor(variancePct float64) string {
	switch {
	case variancePct > 20:
		return SeverityHigh
	case variancePct > 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func insightFor(service string, variancePct float64, ref store.ReferenceEntry) string {
	if variancePct > 0 {
		return fmt.Sprintf("%s spend is %.1f%% above the industry average of $%.2f/month (median $%.2f)",
			service, variancePct, ref.AverageCost, ref.Percentile50)
	}
	return fmt.Sprintf("%s spend is %.1f%% below the industry average of $%.2f/month",
		service, -variancePct, ref.AverageCost)
}
