package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Report.FetchTimeout != 30*time.Second {
		t.Errorf("Report.FetchTimeout = %v, want %v", cfg.Report.FetchTimeout, 30*time.Second)
	}
	if cfg.Report.TopServiceCount != 10 {
		t.Errorf("Report.TopServiceCount = %d, want 10", cfg.Report.TopServiceCount)
	}
	if cfg.Report.SpikeRelativePct != 5 {
		t.Errorf("Report.SpikeRelativePct = %v, want 5", cfg.Report.SpikeRelativePct)
	}
	if cfg.Report.SpikeAbsolute != 50 {
		t.Errorf("Report.SpikeAbsolute = %v, want 50", cfg.Report.SpikeAbsolute)
	}
	if cfg.Hygiene.IdleCPUPercent != 5 {
		t.Errorf("Hygiene.IdleCPUPercent = %v, want 5", cfg.Hygiene.IdleCPUPercent)
	}
	if cfg.Benchmark.RefreshSchedule == "" {
		t.Error("Benchmark.RefreshSchedule should default to a daily schedule")
	}
	if cfg.Narrative.Enabled {
		t.Error("Narrative.Enabled should default to false")
	}
	if !cfg.APIServer.Enabled {
		t.Error("APIServer.Enabled should default to true")
	}
	if cfg.APIServer.Address != ":8080" {
		t.Errorf("APIServer.Address = %q, want :8080", cfg.APIServer.Address)
	}
}

func TestDefaultConfig_Validate_ReturnsNil(t *testing.T) {
	cfg := DefaultConfig()
	// DefaultConfig does not set the subscription, so set it for validation.
	cfg.Azure.SubscriptionID = "sub-123"
	cfg.Benchmark.APIKey = "" // ignore any ambient BENCHMARK_API_KEY

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() returned error: %v", err)
	}
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlContent := []byte(`azure:
  subscriptionId: sub-from-file
report:
  topServiceCount: 5
narrative:
  enabled: true
  apiKey: nar-key
`)
	if err := os.WriteFile(path, yamlContent, 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile(%q) returned error: %v", path, err)
	}

	if cfg.Azure.SubscriptionID != "sub-from-file" {
		t.Errorf("Azure.SubscriptionID = %q, want sub-from-file", cfg.Azure.SubscriptionID)
	}
	if cfg.Report.TopServiceCount != 5 {
		t.Errorf("Report.TopServiceCount = %d, want 5", cfg.Report.TopServiceCount)
	}
	if !cfg.Narrative.Enabled {
		t.Error("Narrative.Enabled = false, want true")
	}
}

func TestLoadFromFile_MergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")

	// Only set a few fields; the rest should come from defaults.
	yamlContent := []byte(`azure:
  subscriptionId: sub-123
`)
	if err := os.WriteFile(path, yamlContent, 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile(%q) returned error: %v", path, err)
	}

	if cfg.Azure.SubscriptionID != "sub-123" {
		t.Errorf("Azure.SubscriptionID = %q, want sub-123", cfg.Azure.SubscriptionID)
	}
	// Default fields should still be present.
	if cfg.Report.FetchTimeout != 30*time.Second {
		t.Errorf("Report.FetchTimeout = %v, want default %v", cfg.Report.FetchTimeout, 30*time.Second)
	}
	if cfg.Report.SpikeRelativePct != 5 {
		t.Errorf("Report.SpikeRelativePct = %v, want default 5", cfg.Report.SpikeRelativePct)
	}
	if cfg.APIServer.Address != ":8080" {
		t.Errorf("APIServer.Address = %q, want default :8080", cfg.APIServer.Address)
	}
}

func TestLoadFromFile_InvalidPath(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("LoadFromFile with invalid path expected error, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	badContent := []byte(`azure: [invalid
  yaml: {{broken
`)
	if err := os.WriteFile(path, badContent, 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatal("LoadFromFile with invalid YAML expected error, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AZURE_SUBSCRIPTION_ID", "env-sub")
	t.Setenv("AZURE_TENANT_ID", "env-tenant")
	t.Setenv("BENCHMARK_API_KEY", "env-bench")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg := DefaultConfig()
	if cfg.Azure.SubscriptionID != "env-sub" {
		t.Errorf("Azure.SubscriptionID = %q, want env-sub", cfg.Azure.SubscriptionID)
	}
	if cfg.Azure.TenantID != "env-tenant" {
		t.Errorf("Azure.TenantID = %q, want env-tenant", cfg.Azure.TenantID)
	}
	if cfg.Benchmark.APIKey != "env-bench" {
		t.Errorf("Benchmark.APIKey = %q, want env-bench", cfg.Benchmark.APIKey)
	}
	if cfg.Narrative.APIKey != "env-anthropic" {
		t.Errorf("Narrative.APIKey = %q, want env-anthropic", cfg.Narrative.APIKey)
	}
}

func TestApplyEnvOverrides_FileWins(t *testing.T) {
	t.Setenv("AZURE_SUBSCRIPTION_ID", "env-sub")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("azure:\n  subscriptionId: file-sub\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Azure.SubscriptionID != "file-sub" {
		t.Errorf("Azure.SubscriptionID = %q, file value should win over env", cfg.Azure.SubscriptionID)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Azure.SubscriptionID = "sub-123"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing subscription", func(c *Config) { c.Azure.SubscriptionID = "" }, "subscriptionId"},
		{"zero fetch timeout", func(c *Config) { c.Report.FetchTimeout = 0 }, "fetchTimeout"},
		{"zero top services", func(c *Config) { c.Report.TopServiceCount = 0 }, "topServiceCount"},
		{"negative spike threshold", func(c *Config) { c.Report.SpikeRelativePct = -1 }, "spike"},
		{"out of range cpu threshold", func(c *Config) { c.Hygiene.IdleCPUPercent = 150 }, "idleCpuPercent"},
		{"benchmark key without endpoint", func(c *Config) { c.Benchmark.APIKey = "k" }, "endpoint"},
		{"narrative without key", func(c *Config) { c.Narrative.Enabled = true; c.Narrative.APIKey = "" }, "narrative"},
		{"server without address", func(c *Config) { c.APIServer.Address = "" }, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidateDetailed_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Azure.SubscriptionID = ""
	cfg.Report.FetchTimeout = 0
	cfg.Report.TopServiceCount = 0

	ve := ValidateDetailed(cfg)
	if ve == nil {
		t.Fatal("expected validation errors")
	}
	if len(ve.Errors) < 3 {
		t.Errorf("expected at least 3 collected errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
}

func TestValidateDetailed_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Azure.SubscriptionID = "sub-123"
	cfg.Benchmark.APIKey = ""
	if ve := ValidateDetailed(cfg); ve != nil {
		t.Errorf("valid config should pass detailed validation, got %v", ve)
	}
}

func TestValidateDetailed_Method(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Azure.SubscriptionID = "sub-123"
	cfg.Benchmark.APIKey = ""
	// The method must return an untyped nil, not a nil *ValidationError
	// wrapped in a non-nil error interface.
	if err := cfg.ValidateDetailed(); err != nil {
		t.Errorf("valid config: err = %v, want nil", err)
	}

	cfg.Azure.SubscriptionID = ""
	if err := cfg.ValidateDetailed(); err == nil {
		t.Error("expected an error for a config without a subscription ID")
	}
}
