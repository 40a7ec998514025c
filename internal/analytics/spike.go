package analytics

// SpikeThresholds controls spike detection sensitivity. A day qualifies when
// its day-over-day increase meets either threshold.
type SpikeThresholds struct {
	RelativePct float64 // percentage increase vs the prior day
	Absolute    float64 // increase in currency units
}

// DefaultSpikeThresholds is the primary detection pass (5% or 50 units).
var DefaultSpikeThresholds = SpikeThresholds{RelativePct: 5, Absolute: 50}

// SummarySpikeThresholds is a coarser pass used for headline summaries,
// surfacing only the larger jumps.
var SummarySpikeThresholds = SpikeThresholds{RelativePct: 20, Absolute: 200}

// DetectSpikes scans the ordered daily series for day-over-day jumps. Every
// qualifying day is reported independently: no smoothing, no suppression of
// consecutive spikes. The percentage denominator is max(prev, 1) so a jump
// from zero stays finite and a sub-unit prior day does not inflate the
// percentage.
func DetectSpikes(records []DailyCostRecord, thresholds SpikeThresholds) []SpikeEvent {
	var spikes []SpikeEvent

	for i := 1; i < len(records); i++ {
		prev := records[i-1].TotalCost
		cur := records[i].TotalCost

		denom := prev
		if denom < 1 {
			denom = 1
		}
		pctIncrease := (cur - prev) / denom * 100
		absIncrease := cur - prev

		if pctIncrease < thresholds.RelativePct && absIncrease < thresholds.Absolute {
			continue
		}

		spikes = append(spikes, SpikeEvent{
			Date:               records[i].Date,
			PreviousCost:       prev,
			CurrentCost:        cur,
			PercentageIncrease: pctIncrease,
			AbsoluteIncrease:   absIncrease,
			AffectedServices:   positiveServices(records[i].ServiceBreakdown),
		})
	}

	return spikes
}

// positiveServices filters a breakdown to services that actually cost
// something on the spike day.
func positiveServices(breakdown []ServiceCost) []ServiceCost {
	var out []ServiceCost
	for _, sc := range breakdown {
		if sc.Cost > 0 {
			out = append(out, sc)
		}
	}
	return out
}
