package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError collects multiple validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateDetailed performs comprehensive config validation, collecting
// every problem instead of stopping at the first one.
func ValidateDetailed(cfg *Config) *ValidationError {
	ve := &ValidationError{}

	// Azure credentials
	if cfg.Azure.SubscriptionID == "" {
		ve.Add("azure.subscriptionId is required")
	}
	if cfg.Azure.ClientID != "" && (cfg.Azure.ClientSecret == "" || cfg.Azure.TenantID == "") {
		ve.Add("azure.clientId is set but clientSecret or tenantId is missing")
	}

	// Report pipeline
	if cfg.Report.FetchTimeout <= 0 {
		ve.Add("report.fetchTimeout must be positive")
	}
	if cfg.Report.FetchTimeout > 5*time.Minute {
		ve.Add("report.fetchTimeout should not exceed 5m; slow feeds must fail, not hang the report")
	}
	if cfg.Report.TopServiceCount < 1 {
		ve.Add("report.topServiceCount must be >= 1")
	}
	if cfg.Report.SpikeRelativePct < 0 {
		ve.Add("report.spikeRelativePct must be >= 0")
	}
	if cfg.Report.SpikeAbsolute < 0 {
		ve.Add("report.spikeAbsolute must be >= 0")
	}

	// Hygiene
	if cfg.Hygiene.IdleCPUPercent < 0 || cfg.Hygiene.IdleCPUPercent > 100 {
		ve.Add("hygiene.idleCpuPercent must be between 0 and 100")
	}

	// Benchmark feed
	if cfg.Benchmark.APIKey != "" && cfg.Benchmark.Endpoint == "" {
		ve.Add("benchmark.apiKey is set but endpoint is empty")
	}

	// Narrative
	if cfg.Narrative.Enabled {
		if cfg.Narrative.APIKey == "" {
			ve.Add("narrative.apiKey is required when narrative is enabled")
		}
		if cfg.Narrative.Model == "" {
			ve.Add("narrative.model is required when narrative is enabled")
		}
	}

	// API server
	if cfg.APIServer.Enabled && cfg.APIServer.Address == "" {
		ve.Add("apiServer.address is required when enabled")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateDetailed runs the collecting validator on the receiver. It returns
// a plain error so a nil *ValidationError never leaks into a non-nil error
// interface at the call site.
func (c *Config) ValidateDetailed() error {
	if ve := ValidateDetailed(c); ve != nil && ve.HasErrors() {
		return ve
	}
	return nil
}
