package analytics

import "fmt"

// seasonalityFactor is the threshold multiplier: a bucket whose total
// exceeds the average by more than 20% yields a pattern entry.
const seasonalityFactor = 1.2

// monthlyDivisor is fixed at 31 regardless of how many distinct days of the
// month actually appear in the series. This is a deliberate approximation:
// changing it would shift every reported percentage and the alert text
// derived from them downstream.
const monthlyDivisor = 31

// AnalyzeSeasonality runs two independent passes over the daily series:
// day-of-week buckets (average = sum/7) and day-of-month buckets
// (average = sum/31). Buckets more than 20% above the average become
// pattern entries.
// An empty series yields no patterns.
func AnalyzeSeasonality(records []DailyCostRecord) []SeasonalityPattern {
	if len(records) == 0 {
		return nil
	}

	var patterns []SeasonalityPattern
	patterns = append(patterns, weeklyPatterns(records)...)
	patterns = append(patterns, monthlyPatterns(records)...)
	return patterns
}

func weeklyPatterns(records []DailyCostRecord) []SeasonalityPattern {
	var buckets [7]float64
	total := 0.0
	for _, rec := range records {
		buckets[int(rec.Date.Weekday())] += rec.TotalCost
		total += rec.TotalCost
	}
	avg := total / 7
	if avg == 0 {
		return nil
	}

	var patterns []SeasonalityPattern
	for dow, sum := range buckets {
		if sum > avg*seasonalityFactor {
			pctAbove := (sum - avg) / avg * 100
			patterns = append(patterns, SeasonalityPattern{
				Kind:             PatternWeekly,
				Description:      fmt.Sprintf("Costs on %ss run %.1f%% above the weekly average", weekdayName(dow), pctAbove),
				ImpactPercentage: pctAbove,
			})
		}
	}
	return patterns
}

func monthlyPatterns(records []DailyCostRecord) []SeasonalityPattern {
	var buckets [32]float64 // index 1..31
	total := 0.0
	for _, rec := range records {
		buckets[rec.Date.Day()] += rec.TotalCost
		total += rec.TotalCost
	}
	avg := total / monthlyDivisor
	if avg == 0 {
		return nil
	}

	var patterns []SeasonalityPattern
	for day := 1; day <= 31; day++ {
		if buckets[day] > avg*seasonalityFactor {
			pctAbove := (buckets[day] - avg) / avg * 100
			patterns = append(patterns, SeasonalityPattern{
				Kind:             PatternMonthly,
				Description:      fmt.Sprintf("Day %d of the month runs %.1f%% above the monthly average", day, pctAbove),
				ImpactPercentage: pctAbove,
			})
		}
	}
	return patterns
}

func weekdayName(dow int) string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	return names[dow]
}
