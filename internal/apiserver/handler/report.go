package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/costpilot/costpilot/internal/report"
)

// ReportBuilder builds a cost report for a free-text period description.
type ReportBuilder interface {
	Build(ctx context.Context, periodText string) (report.CostReport, error)
}

// NarrativeGenerator renders a report as analyst prose.
type NarrativeGenerator interface {
	Generate(ctx context.Context, rep report.CostReport) string
}

// ReportHandler serves the full report and its individual sections.
type ReportHandler struct {
	builder   ReportBuilder
	narrative NarrativeGenerator
}

func NewReportHandler(builder ReportBuilder, narrative NarrativeGenerator) *ReportHandler {
	return &ReportHandler{builder: builder, narrative: narrative}
}

// build runs the pipeline for the request's period parameter. The free-text
// resolver never fails, so a missing or junk period falls through to the
// current month.
func (h *ReportHandler) build(w http.ResponseWriter, r *http.Request) (report.CostReport, bool) {
	rep, err := h.builder.Build(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		var feedErr *report.ErrCostFeedUnavailable
		if errors.As(err, &feedErr) {
			writeError(w, http.StatusBadGateway, feedErr.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return report.CostReport{}, false
	}
	return rep, true
}

// Get serves GET /api/v1/report: the full report, with narrative text when
// a generator is configured.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	resp := struct {
		report.CostReport
		Narrative string `json:"narrative,omitempty"`
	}{CostReport: rep}
	if h.narrative != nil {
		resp.Narrative = h.narrative.Generate(r.Context(), rep)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSpikes serves GET /api/v1/cost/spikes.
func (h *ReportHandler) GetSpikes(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":     rep.Period,
		"spikes":     rep.Spikes,
		"rootCauses": rep.RootCauses,
	})
}

// GetSeasonality serves GET /api/v1/cost/seasonality.
func (h *ReportHandler) GetSeasonality(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":   rep.Period,
		"patterns": rep.SeasonalityPatterns,
	})
}

// GetBenchmarks serves GET /api/v1/cost/benchmarks.
func (h *ReportHandler) GetBenchmarks(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":     rep.Period,
		"benchmarks": rep.Benchmarks,
		"multiCloud": rep.MultiCloud,
	})
}

// GetBudget serves GET /api/v1/budget/status.
func (h *ReportHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Budget)
}

// GetHygiene serves GET /api/v1/hygiene.
func (h *ReportHandler) GetHygiene(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Hygiene)
}
