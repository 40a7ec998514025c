// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report pipeline metrics
	ReportBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "costpilot",
		Name:      "report_build_duration_seconds",
		Help:      "End-to-end cost report build latency",
		Buckets:   prometheus.DefBuckets,
	})

	ReportsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costpilot",
		Name:      "reports_built_total",
		Help:      "Total cost reports built",
	}, []string{"result"}) // "ok", "error"

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costpilot",
		Name:      "fetch_failures_total",
		Help:      "External feed fetch failures by feed name",
	}, []string{"feed"})

	// Analytics metrics
	SpikesDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "costpilot",
		Name:      "spikes_detected",
		Help:      "Cost spikes detected in the most recent report",
	})

	ReportTotalCostUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "costpilot",
		Name:      "report_total_cost_usd",
		Help:      "Total cost in the most recent report in USD",
	})

	HygieneMonthlyWasteUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "costpilot",
		Name:      "hygiene_monthly_waste_usd",
		Help:      "Estimated monthly waste from hygiene findings in USD",
	})

	// Benchmark refresh metrics
	BenchmarkRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costpilot",
		Name:      "benchmark_refreshes_total",
		Help:      "Background benchmark reference refreshes",
	}, []string{"result"})

	// Narrative metrics
	NarrativeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costpilot",
		Name:      "narrative_requests_total",
		Help:      "Narrative generation attempts",
	}, []string{"result"}) // "ok", "fallback", "disabled"
)
