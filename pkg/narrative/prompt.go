package narrative

import (
	"fmt"
	"strings"

	"github.com/costpilot/costpilot/internal/report"
)

const narrativeSystemPrompt = `You are a FinOps analyst writing a cost report summary for an engineering leadership audience.

Guidelines:
1. Lead with the total spend and the single most important finding.
2. Be concrete: name services, dates, and dollar amounts from the data.
3. Explain cost spikes together with their likely root causes when available.
4. Treat multi-cloud comparison figures as rough estimates, never as exact quotes.
5. Keep it under 400 words. No preamble, no closing pleasantries.`

// buildReportPrompt renders the structured report as the user message.
func buildReportPrompt(rep report.CostReport) string {
	var b strings.Builder

	b.WriteString("## Cost Report Data\n\n")
	b.WriteString(fmt.Sprintf("**Period:** %s\n", rep.Period))
	b.WriteString(fmt.Sprintf("**Total cost:** $%.2f %s\n\n", rep.TotalCost, rep.Currency))

	if len(rep.TopServices) > 0 {
		b.WriteString("### Top services\n")
		for _, svc := range rep.TopServices {
			b.WriteString(fmt.Sprintf("- %s: $%.2f\n", svc.ServiceName, svc.Cost))
		}
		b.WriteString("\n")
	}

	if len(rep.Spikes) > 0 {
		b.WriteString("### Cost spikes\n")
		for _, s := range rep.Spikes {
			b.WriteString("- " + s + "\n")
		}
		b.WriteString("\n")
	}

	if len(rep.RootCauses) > 0 {
		b.WriteString("### Likely root causes\n")
		for _, rc := range rep.RootCauses {
			b.WriteString(fmt.Sprintf("- %s:\n", rc.SpikeDate))
			for _, cause := range rc.Causes {
				b.WriteString("  - " + cause + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(rep.SeasonalityPatterns) > 0 {
		b.WriteString("### Seasonality\n")
		for _, p := range rep.SeasonalityPatterns {
			b.WriteString(fmt.Sprintf("- [%s] %s (%.1f%% impact)\n", p.Kind, p.Description, p.ImpactPercentage))
		}
		b.WriteString("\n")
	}

	if rep.Budget.Amount > 0 {
		b.WriteString("### Budget\n")
		b.WriteString(fmt.Sprintf("- Amount: $%.2f, spent: $%.2f (%.2f%%), forecast: $%.2f\n",
			rep.Budget.Amount, rep.Budget.CurrentSpend, rep.Budget.UtilizationPercentage, rep.Budget.ForecastSpend))
		if rep.Budget.Alert != "" {
			b.WriteString("- Alert: " + rep.Budget.Alert + "\n")
		}
		b.WriteString("\n")
	}

	if len(rep.Benchmarks) > 0 {
		b.WriteString("### Industry benchmarks\n")
		for _, c := range rep.Benchmarks {
			b.WriteString(fmt.Sprintf("- %s: $%.2f vs avg $%.2f (%+.1f%%, %s severity)\n",
				c.ServiceName, c.ClientCost, c.IndustryAverage, c.VariancePercentage, c.Severity))
		}
		b.WriteString("\n")
	}

	if len(rep.MultiCloud) > 0 {
		b.WriteString("### Cross-provider estimates (illustrative)\n")
		for _, m := range rep.MultiCloud {
			b.WriteString(fmt.Sprintf("- %s: $%.2f vs %s at ~$%.2f/month\n",
				m.ServiceName, m.AzureCost, m.AWSEquivalent, m.AWSEstimate))
		}
		b.WriteString("\n")
	}

	if rep.Hygiene.EstimatedMonthlyWaste > 0 {
		b.WriteString("### Hygiene\n")
		b.WriteString(fmt.Sprintf("- Estimated monthly waste: $%.2f\n", rep.Hygiene.EstimatedMonthlyWaste))
		b.WriteString(fmt.Sprintf("- Unused public IPs: %d, orphaned NSGs: %d, idle load balancers: %d, underutilized VMs: %d\n",
			len(rep.Hygiene.UnusedPublicIPs), len(rep.Hygiene.OrphanedNSGs),
			len(rep.Hygiene.IdleLoadBalancers), len(rep.Hygiene.UnderutilizedVMs)))
		b.WriteString("\n")
	}

	if len(rep.Hygiene.NetworkFindings) > 0 {
		b.WriteString("### Network findings\n")
		for _, f := range rep.Hygiene.NetworkFindings {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", f.Severity, f.Description))
		}
		b.WriteString("\n")
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("### Data caveats\n")
		for _, w := range rep.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}

	return b.String()
}

// FormatSummary is the deterministic fallback narrative used when the LLM
// is disabled or unreachable.
func FormatSummary(rep report.CostReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cost report for %s: total spend $%.2f %s.", rep.Period, rep.TotalCost, rep.Currency))

	if len(rep.TopServices) > 0 {
		top := rep.TopServices[0]
		b.WriteString(fmt.Sprintf(" Largest service: %s at $%.2f.", top.ServiceName, top.Cost))
	}

	switch n := len(rep.Spikes); {
	case n == 1:
		b.WriteString(" 1 cost spike detected.")
	case n > 1:
		b.WriteString(fmt.Sprintf(" %d cost spikes detected.", n))
	}

	if rep.Budget.Alert != "" {
		b.WriteString(" " + rep.Budget.Alert)
	}

	if rep.Hygiene.EstimatedMonthlyWaste > 0 {
		b.WriteString(fmt.Sprintf(" Estimated avoidable monthly waste: $%.2f.", rep.Hygiene.EstimatedMonthlyWaste))
	}

	if len(rep.Warnings) > 0 {
		b.WriteString(" Note: " + strings.Join(rep.Warnings, "; ") + ".")
	}

	return b.String()
}
