package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// causeOperationMarkers are the substrings that mark an operation as
// growth-causing. Matching is case-sensitive on purpose: deletions and
// read-only operations are excluded from root-cause narratives because they
// cannot explain a cost increase.
var causeOperationMarkers = []string{"Write", "Create", "Update"}

var spikeDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ChangeEventSource supplies infrastructure change events for the 24h window
// starting at day 00:00.
type ChangeEventSource interface {
	ChangeEvents(ctx context.Context, day time.Time) ([]ChangeEvent, error)
}

// FormatSpike renders a spike as the human-readable descriptor carried in
// the report. The embedded ISO date is what root-cause correlation later
// parses back out.
func FormatSpike(s SpikeEvent) string {
	return fmt.Sprintf("Cost spike on %s: $%.2f, up %.1f%% ($%.2f) from $%.2f the previous day",
		s.Date.Format("2006-01-02"), s.CurrentCost, s.PercentageIncrease, s.AbsoluteIncrease, s.PreviousCost)
}

// ExtractSpikeDate pulls the ISO date out of a spike descriptor.
func ExtractSpikeDate(description string) (time.Time, bool) {
	m := spikeDateRe.FindString(description)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CorrelateRootCauses maps each spike descriptor to the mutating change
// events recorded on its day. Descriptors without a parseable date are
// excluded from the output. A failed event fetch degrades that entry to an
// empty cause list instead of failing the report.
func CorrelateRootCauses(ctx context.Context, descriptions []string, source ChangeEventSource) []RootCauseEntry {
	var entries []RootCauseEntry

	for _, desc := range descriptions {
		day, ok := ExtractSpikeDate(desc)
		if !ok {
			continue
		}

		entry := RootCauseEntry{
			SpikeDate:        day.Format("2006-01-02"),
			SpikeDescription: desc,
			Causes:           []string{},
		}

		events, err := source.ChangeEvents(ctx, day)
		if err != nil {
			slog.Warn("root cause: change event fetch failed", "date", entry.SpikeDate, "error", err)
			entries = append(entries, entry)
			continue
		}

		entry.Causes = FilterCauseEvents(events)
		entries = append(entries, entry)
	}

	return entries
}

// FilterCauseEvents keeps events whose operation name contains one of the
// growth-causing markers and renders each as a cause string, preserving
// feed order.
func FilterCauseEvents(events []ChangeEvent) []string {
	causes := []string{}
	for _, ev := range events {
		if !isCauseOperation(ev.OperationName) {
			continue
		}
		causes = append(causes, fmt.Sprintf("%s on %s %q in resource group %s at %s",
			ev.OperationName, ev.ResourceType, ev.ResourceName, ev.ResourceGroup,
			ev.EventTimestamp.Format(time.RFC3339)))
	}
	return causes
}

func isCauseOperation(operation string) bool {
	for _, marker := range causeOperationMarkers {
		if strings.Contains(operation, marker) {
			return true
		}
	}
	return false
}
