package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is applied to breakdown entries when the feed does not
// carry a currency code per row.
const DefaultCurrency = "USD"

// AggregateDaily groups raw billing rows into one record per calendar date,
// ordered by date ascending. No row is dropped: rows with unparsable costs
// contribute zero, and rows with unparsable date keys are bucketed under the
// zero date so they remain visible in the output rather than vanishing.
func AggregateDaily(rows []RawCostRow) []DailyCostRecord {
	byDate := make(map[time.Time]*DailyCostRecord)

	for _, row := range rows {
		date, _ := parseDateKey(row.DateKey)
		rec, ok := byDate[date]
		if !ok {
			rec = &DailyCostRecord{Date: date}
			byDate[date] = rec
		}
		cost := ParseCost(row.Cost)
		rec.TotalCost += cost
		rec.ServiceBreakdown = append(rec.ServiceBreakdown, ServiceCost{
			ServiceName: row.ServiceName,
			Cost:        cost,
			Currency:    DefaultCurrency,
		})
	}

	records := make([]DailyCostRecord, 0, len(byDate))
	for _, rec := range byDate {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}

// ParseCost converts a cost value that may be a JSON number or a string
// carrying currency symbols ("$1,234.56") into a float64. Unparsable input
// yields 0 rather than an error: one malformed row must never fail the
// whole report.
func ParseCost(v any) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case float32:
		return float64(c)
	case int:
		return float64(c)
	case int64:
		return float64(c)
	case string:
		cleaned := stripNonNumeric(c)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// stripNonNumeric keeps digits, the decimal point, and a leading minus sign.
func stripNonNumeric(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseDateKey parses an 8-digit YYYYMMDD key.
func parseDateKey(key string) (time.Time, bool) {
	t, err := time.Parse("20060102", key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TopServices returns the n highest-cost services across the whole series,
// summed per service, descending. Services with zero total are excluded.
func TopServices(records []DailyCostRecord, n int) []ServiceCost {
	totals := make(map[string]float64)
	for _, rec := range records {
		for _, sc := range rec.ServiceBreakdown {
			totals[sc.ServiceName] += sc.Cost
		}
	}

	services := make([]ServiceCost, 0, len(totals))
	for name, cost := range totals {
		if cost > 0 {
			services = append(services, ServiceCost{ServiceName: name, Cost: cost, Currency: DefaultCurrency})
		}
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].Cost != services[j].Cost {
			return services[i].Cost > services[j].Cost
		}
		return services[i].ServiceName < services[j].ServiceName
	})
	if n > 0 && len(services) > n {
		services = services[:n]
	}
	return services
}

// TotalCost sums the whole series.
func TotalCost(records []DailyCostRecord) float64 {
	total := 0.0
	for _, rec := range records {
		total += rec.TotalCost
	}
	return total
}
