// Package narrative turns a structured cost report into readable analyst
// prose using the Anthropic Messages API. It is optional: disabled or
// failing narrative generation degrades to a deterministic formatted
// summary and never blocks the report.
package narrative

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/costpilot/costpilot/internal/metrics"
	"github.com/costpilot/costpilot/internal/report"
)

const (
	DefaultModel   = "claude-sonnet-4-20250514"
	DefaultTimeout = 30 * time.Second
)

// Generator produces the narrative for a cost report.
type Generator struct {
	client  *anthropic.Client
	model   string
	enabled bool
	timeout time.Duration
}

// Config holds narrative generator configuration.
type Config struct {
	Enabled bool
	Model   string
	Timeout time.Duration
}

// NewGenerator creates a narrative generator. With Enabled false the
// generator always answers with the deterministic summary.
func NewGenerator(cfg Config) *Generator {
	if !cfg.Enabled {
		return &Generator{enabled: false}
	}

	client := anthropic.NewClient()

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Generator{
		client:  &client,
		model:   model,
		enabled: true,
		timeout: timeout,
	}
}

// Generate returns narrative text for the report. Safe on a nil receiver.
// Any API failure falls back to the deterministic summary; the error path
// never propagates to the caller.
func (g *Generator) Generate(ctx context.Context, rep report.CostReport) string {
	if g == nil || !g.enabled {
		metrics.NarrativeRequests.WithLabelValues("disabled").Inc()
		return FormatSummary(rep)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(2048),
		System: []anthropic.TextBlockParam{
			{Text: narrativeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildReportPrompt(rep))),
		},
	})
	if err != nil {
		metrics.NarrativeRequests.WithLabelValues("fallback").Inc()
		return FormatSummary(rep)
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		metrics.NarrativeRequests.WithLabelValues("fallback").Inc()
		return FormatSummary(rep)
	}

	metrics.NarrativeRequests.WithLabelValues("ok").Inc()
	return resp.Content[0].Text
}
