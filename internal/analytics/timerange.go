package analytics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a named, non-custom reporting window understood by the
// cost feed without explicit dates.
type Timeframe string

const (
	TimeframeCustom      Timeframe = "Custom"
	TimeframeMonthToDate Timeframe = "MonthToDate"
	TimeframeYearToDate  Timeframe = "YearToDate"
)

// TimeRange is a resolved reporting period: either a named timeframe or an
// explicit start/end date pair (inclusive).
type TimeRange struct {
	Timeframe Timeframe
	Start     time.Time
	End       time.Time
	Label     string
}

var (
	monthYearRe = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
	lastNDaysRe = regexp.MustCompile(`last\s+(\d+)\s+days?`)

	monthIndex = map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June,
		"july": time.July, "august": time.August, "september": time.September,
		"october": time.October, "november": time.November, "december": time.December,
	}
)

// ResolveTimeframe maps a free-text period description to a concrete
// reporting window. Matching is case-insensitive and never fails: anything
// unrecognized falls through to current month-to-date.
//
// Priority order: explicit "<month> <year>", then "last N days", then the
// fixed vocabulary ("last month", "last 3 months", "last 6 months",
// "year to date", "current month").
func ResolveTimeframe(text string, now time.Time) TimeRange {
	lower := strings.ToLower(strings.TrimSpace(text))

	if m := monthYearRe.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[2])
		month := monthIndex[m[1]]
		start := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, -1)
		return TimeRange{
			Timeframe: TimeframeCustom,
			Start:     start,
			End:       end,
			Label:     fmt.Sprintf("%s %d", start.Month(), year),
		}
	}

	if m := lastNDaysRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return TimeRange{
			Timeframe: TimeframeCustom,
			Start:     now.AddDate(0, 0, -n),
			End:       now,
			Label:     fmt.Sprintf("last %d days", n),
		}
	}

	switch {
	case strings.Contains(lower, "last month"):
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := firstOfThis.AddDate(0, -1, 0)
		return TimeRange{Timeframe: TimeframeCustom, Start: start, End: firstOfThis.AddDate(0, 0, -1), Label: "last month"}
	case strings.Contains(lower, "last 3 months"):
		return TimeRange{Timeframe: TimeframeCustom, Start: now.AddDate(0, -3, 0), End: now, Label: "last 3 months"}
	case strings.Contains(lower, "last 6 months"):
		return TimeRange{Timeframe: TimeframeCustom, Start: now.AddDate(0, -6, 0), End: now, Label: "last 6 months"}
	case strings.Contains(lower, "year to date"):
		return TimeRange{Timeframe: TimeframeYearToDate, Label: "year to date"}
	case strings.Contains(lower, "current month"):
		return TimeRange{Timeframe: TimeframeMonthToDate, Label: "current month"}
	}

	return TimeRange{Timeframe: TimeframeMonthToDate, Label: "current month"}
}

// Bounds returns the concrete start/end dates of the range, materializing
// named timeframes against now. Used by collaborators that need explicit
// dates (the activity feed, hygiene lookback).
func (r TimeRange) Bounds(now time.Time) (time.Time, time.Time) {
	switch r.Timeframe {
	case TimeframeYearToDate:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), now
	case TimeframeMonthToDate:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now
	default:
		return r.Start, r.End
	}
}
