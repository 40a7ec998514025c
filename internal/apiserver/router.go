package apiserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/costpilot/costpilot/internal/apiserver/handler"
)

// NewRouter creates the API router with all endpoints.
func NewRouter(builder handler.ReportBuilder, narrative handler.NarrativeGenerator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	reportHandler := handler.NewReportHandler(builder, narrative)
	healthHandler := handler.NewHealthHandler()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/report", reportHandler.Get)

		r.Get("/cost/spikes", reportHandler.GetSpikes)
		r.Get("/cost/seasonality", reportHandler.GetSeasonality)
		r.Get("/cost/benchmarks", reportHandler.GetBenchmarks)

		r.Get("/budget/status", reportHandler.GetBudget)
		r.Get("/hygiene", reportHandler.GetHygiene)

		r.Get("/healthz", healthHandler.Get)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
