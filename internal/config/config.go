// Package config holds the service configuration: YAML file overlaid on
// documented defaults, with environment overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for CostPilot.
type Config struct {
	Azure     AzureConfig     `yaml:"azure"`
	Report    ReportConfig    `yaml:"report"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Hygiene   HygieneConfig   `yaml:"hygiene"`
	Narrative NarrativeConfig `yaml:"narrative"`
	APIServer APIServerConfig `yaml:"apiServer"`
	Database  DatabaseConfig  `yaml:"database"`
}

// AzureConfig identifies the tenant and how to authenticate against ARM.
// Credentials left empty here are read from the standard AZURE_* environment
// variables; with neither present the client uses managed identity.
type AzureConfig struct {
	SubscriptionID string `yaml:"subscriptionId"`
	TenantID       string `yaml:"tenantId"`
	ClientID       string `yaml:"clientId"`
	ClientSecret   string `yaml:"clientSecret"`
	// Endpoint overrides for sovereign clouds or a local mock; empty means
	// the public-cloud defaults.
	ManagementEndpoint string `yaml:"managementEndpoint"`
	LoginEndpoint      string `yaml:"loginEndpoint"`
}

type ReportConfig struct {
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
	TopServiceCount int           `yaml:"topServiceCount"`
	// Spike detection thresholds: a day is a spike when it exceeds the
	// previous day by spikeRelativePct percent OR spikeAbsolute units.
	SpikeRelativePct float64 `yaml:"spikeRelativePct"`
	SpikeAbsolute    float64 `yaml:"spikeAbsolute"`
}

type BenchmarkConfig struct {
	// Endpoint and APIKey configure the external reference feed. Without a
	// key the embedded fallback table is used.
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	// RefreshSchedule is a cron expression for the background reference
	// refresh. Empty disables the schedule.
	RefreshSchedule string `yaml:"refreshSchedule"`
	// MultiCloud enables cross-provider estimates via the AWS Pricing API.
	MultiCloud bool `yaml:"multiCloud"`
}

type HygieneConfig struct {
	IdleCPUPercent float64 `yaml:"idleCpuPercent"`
}

type NarrativeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

type APIServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Report: ReportConfig{
			FetchTimeout:     30 * time.Second,
			TopServiceCount:  10,
			SpikeRelativePct: 5,
			SpikeAbsolute:    50,
		},
		Benchmark: BenchmarkConfig{
			RefreshSchedule: "0 3 * * *", // daily at 03:00
		},
		Hygiene: HygieneConfig{
			IdleCPUPercent: 5,
		},
		Narrative: NarrativeConfig{
			Model: "claude-sonnet-4-20250514",
		},
		APIServer: APIServerConfig{
			Enabled: true,
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Path: "/var/lib/costpilot/costpilot.db",
		},
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFromFile loads config from a YAML file, overlaying on defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides fills in empty credential fields from environment
// variables, matching how the platform injects secrets.
func (c *Config) applyEnvOverrides() {
	if c.Azure.SubscriptionID == "" {
		c.Azure.SubscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	if c.Azure.TenantID == "" {
		c.Azure.TenantID = os.Getenv("AZURE_TENANT_ID")
	}
	if c.Azure.ClientID == "" {
		c.Azure.ClientID = os.Getenv("AZURE_CLIENT_ID")
	}
	if c.Azure.ClientSecret == "" {
		c.Azure.ClientSecret = os.Getenv("AZURE_CLIENT_SECRET")
	}
	if c.Benchmark.APIKey == "" {
		c.Benchmark.APIKey = os.Getenv("BENCHMARK_API_KEY")
	}
	if c.Narrative.APIKey == "" {
		c.Narrative.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Azure.SubscriptionID == "" {
		return fmt.Errorf("azure subscriptionId is required: set in config file or AZURE_SUBSCRIPTION_ID env var")
	}

	if c.Report.FetchTimeout <= 0 {
		return fmt.Errorf("fetchTimeout must be positive, got %s", c.Report.FetchTimeout)
	}
	if c.Report.TopServiceCount <= 0 {
		return fmt.Errorf("topServiceCount must be positive, got %d", c.Report.TopServiceCount)
	}
	if c.Report.SpikeRelativePct < 0 || c.Report.SpikeAbsolute < 0 {
		return fmt.Errorf("spike thresholds must be non-negative, got %.1f%% / %.1f",
			c.Report.SpikeRelativePct, c.Report.SpikeAbsolute)
	}

	if c.Hygiene.IdleCPUPercent < 0 || c.Hygiene.IdleCPUPercent > 100 {
		return fmt.Errorf("idleCpuPercent must be between 0 and 100, got %.1f", c.Hygiene.IdleCPUPercent)
	}

	if c.Benchmark.APIKey != "" && c.Benchmark.Endpoint == "" {
		return fmt.Errorf("benchmark apiKey is set but endpoint is empty")
	}

	if c.Narrative.Enabled && c.Narrative.APIKey == "" {
		return fmt.Errorf("narrative is enabled but no API key is set: set in config file or ANTHROPIC_API_KEY env var")
	}

	if c.APIServer.Enabled && c.APIServer.Address == "" {
		return fmt.Errorf("apiServer address is required when enabled")
	}

	return nil
}
