package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/costpilot/costpilot/internal/analytics"
	"github.com/costpilot/costpilot/internal/apiserver"
	"github.com/costpilot/costpilot/internal/azure"
	"github.com/costpilot/costpilot/internal/benchmark"
	"github.com/costpilot/costpilot/internal/config"
	"github.com/costpilot/costpilot/internal/hygiene"
	"github.com/costpilot/costpilot/internal/metrics"
	"github.com/costpilot/costpilot/internal/report"
	"github.com/costpilot/costpilot/internal/store"
	"github.com/costpilot/costpilot/pkg/narrative"
)

func main() {
	var configFile string
	var once bool
	var period string

	flag.StringVar(&configFile, "config", "/etc/costpilot/config.yaml", "Path to config file")
	flag.BoolVar(&once, "once", false, "Build a single report, print it as JSON and exit")
	flag.StringVar(&period, "period", "", "Reporting period for -once (e.g. \"last 30 days\", \"January 2025\")")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		slog.Warn("Config file not loaded, falling back to defaults/env", "path", configFile, "error", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.ValidateDetailed(); err != nil {
		slog.Error("Invalid configuration", "configFile", configFile, "error", err)
		os.Exit(1)
	}

	// The SDK reads the key from the environment; export a file-configured
	// key so both paths end up in the same place.
	if cfg.Narrative.APIKey != "" {
		os.Setenv("ANTHROPIC_API_KEY", cfg.Narrative.APIKey)
	}

	slog.Info("Starting CostPilot",
		"subscription", cfg.Azure.SubscriptionID,
		"apiServer", cfg.APIServer.Enabled,
		"multiCloud", cfg.Benchmark.MultiCloud,
	)

	// Open SQLite for reference-data caching (nil-safe: without it every
	// lookup goes to the live feeds or the embedded fallbacks).
	var sqlDBRef *sql.DB
	if cfg.Database.Path != "" {
		appDB, dbErr := store.Open(store.Config{Path: cfg.Database.Path})
		if dbErr != nil {
			slog.Warn("Database open failed, continuing without persistent cache", "error", dbErr)
		} else {
			defer appDB.Close()
			sqlDBRef = appDB.RawDB()
			slog.Info("Database opened", "path", cfg.Database.Path)
		}
	}
	refCache := store.NewReferenceCache(sqlDBRef)

	azClient, err := azure.NewClient(azure.Credentials{
		SubscriptionID:     cfg.Azure.SubscriptionID,
		TenantID:           cfg.Azure.TenantID,
		ClientID:           cfg.Azure.ClientID,
		ClientSecret:       cfg.Azure.ClientSecret,
		ManagementEndpoint: cfg.Azure.ManagementEndpoint,
		LoginEndpoint:      cfg.Azure.LoginEndpoint,
	})
	if err != nil {
		slog.Error("Unable to create Azure client", "error", err)
		os.Exit(1)
	}

	refClient := benchmark.NewReferenceClient(cfg.Benchmark.Endpoint, cfg.Benchmark.APIKey, refCache)

	pipeline := &report.Pipeline{
		Cost:      azClient,
		Events:    azClient,
		Budgets:   azClient,
		Inv:       azClient,
		Reference: refClient,
		Opts: report.Options{
			FetchTimeout:    cfg.Report.FetchTimeout,
			TopServiceCount: cfg.Report.TopServiceCount,
			SpikeThresholds: analytics.SpikeThresholds{
				RelativePct: cfg.Report.SpikeRelativePct,
				Absolute:    cfg.Report.SpikeAbsolute,
			},
			HygieneThresholds: hygiene.Thresholds{
				IdleCPUPercent: cfg.Hygiene.IdleCPUPercent,
			},
		},
	}
	if cfg.Benchmark.MultiCloud {
		pipeline.MultiCloud = benchmark.NewMultiCloudEstimator(store.NewRateCache(sqlDBRef))
	}

	gen := narrative.NewGenerator(narrative.Config{
		Enabled: cfg.Narrative.Enabled,
		Model:   cfg.Narrative.Model,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		runOnce(ctx, pipeline, gen, period)
		return
	}

	// Background refresh of the benchmark reference table.
	if cfg.Benchmark.RefreshSchedule != "" {
		c := cron.New()
		_, cronErr := c.AddFunc(cfg.Benchmark.RefreshSchedule, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := refClient.Refresh(refreshCtx); err != nil {
				metrics.BenchmarkRefreshes.WithLabelValues("error").Inc()
				slog.Warn("Benchmark reference refresh failed", "error", err)
				return
			}
			metrics.BenchmarkRefreshes.WithLabelValues("ok").Inc()
		})
		if cronErr != nil {
			slog.Error("Invalid benchmark refresh schedule", "schedule", cfg.Benchmark.RefreshSchedule, "error", cronErr)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
	}

	if !cfg.APIServer.Enabled {
		slog.Info("API server disabled, nothing to serve; use -once for a one-shot report")
		<-ctx.Done()
		return
	}

	srv := apiserver.NewServer(cfg, pipeline, gen)

	go func() {
		slog.Info("API server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

func runOnce(ctx context.Context, pipeline *report.Pipeline, gen *narrative.Generator, period string) {
	rep, err := pipeline.Build(ctx, period)
	if err != nil {
		slog.Error("Report build failed", "error", err)
		os.Exit(1)
	}

	out := struct {
		report.CostReport
		Narrative string `json:"narrative,omitempty"`
	}{CostReport: rep, Narrative: gen.Generate(ctx, rep)}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("Encoding report failed", "error", err)
		os.Exit(1)
	}
}
