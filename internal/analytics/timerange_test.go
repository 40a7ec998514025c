package analytics

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestResolveTimeframe_MonthYear(t *testing.T) {
	got := ResolveTimeframe("show me costs for January 2025", testNow)

	if got.Timeframe != TimeframeCustom {
		t.Fatalf("Timeframe = %q, want custom", got.Timeframe)
	}
	wantStart := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !got.Start.Equal(wantStart) || !got.End.Equal(wantEnd) {
		t.Errorf("range = [%v, %v], want [%v, %v]", got.Start, got.End, wantStart, wantEnd)
	}
}

func TestResolveTimeframe_LastNDays(t *testing.T) {
	got := ResolveTimeframe("last 45 days", testNow)

	if got.Timeframe != TimeframeCustom {
		t.Fatalf("Timeframe = %q, want custom", got.Timeframe)
	}
	if !got.End.Equal(testNow) {
		t.Errorf("End = %v, want %v", got.End, testNow)
	}
	if days := got.End.Sub(got.Start).Hours() / 24; days != 45 {
		t.Errorf("window = %.0f days, want 45", days)
	}
}

func TestResolveTimeframe_Vocabulary(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFrame Timeframe
	}{
		{"year to date", "year to date", TimeframeYearToDate},
		{"current month", "current month", TimeframeMonthToDate},
		{"last month", "last month", TimeframeCustom},
		{"last 3 months", "last 3 months", TimeframeCustom},
		{"last 6 months", "last 6 months", TimeframeCustom},
		{"case insensitive", "YEAR TO DATE", TimeframeYearToDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTimeframe(tt.text, testNow)
			if got.Timeframe != tt.wantFrame {
				t.Errorf("ResolveTimeframe(%q).Timeframe = %q, want %q", tt.text, got.Timeframe, tt.wantFrame)
			}
		})
	}
}

func TestResolveTimeframe_LastMonthBounds(t *testing.T) {
	got := ResolveTimeframe("last month", testNow)

	wantStart := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	if !got.Start.Equal(wantStart) || !got.End.Equal(wantEnd) {
		t.Errorf("range = [%v, %v], want [%v, %v]", got.Start, got.End, wantStart, wantEnd)
	}
}

func TestResolveTimeframe_DefaultOnUnrecognized(t *testing.T) {
	for _, text := range []string{"", "whatever", "next year", "last days"} {
		got := ResolveTimeframe(text, testNow)
		if got.Timeframe != TimeframeMonthToDate {
			t.Errorf("ResolveTimeframe(%q).Timeframe = %q, want month-to-date default", text, got.Timeframe)
		}
	}
}

func TestTimeRangeBounds_Named(t *testing.T) {
	start, end := TimeRange{Timeframe: TimeframeYearToDate}.Bounds(testNow)
	if start.Month() != time.January || start.Day() != 1 || start.Year() != 2025 {
		t.Errorf("year-to-date start = %v, want 2025-01-01", start)
	}
	if !end.Equal(testNow) {
		t.Errorf("year-to-date end = %v, want now", end)
	}

	start, _ = TimeRange{Timeframe: TimeframeMonthToDate}.Bounds(testNow)
	if start.Month() != time.June || start.Day() != 1 {
		t.Errorf("month-to-date start = %v, want 2025-06-01", start)
	}
}
