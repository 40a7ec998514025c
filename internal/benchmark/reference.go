package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/costpilot/costpilot/internal/store"
)

// fallbackReference covers the common Azure services so benchmark output is
// useful even when no external feed is configured. Figures are monthly USD
// for a mid-size tenant and may become stale; when the live feed is
// available (the normal case with an API key), these are NOT used.
var fallbackReference = map[string]store.ReferenceEntry{
	"Virtual Machines":         {AverageCost: 3200, Percentile50: 2600, Percentile90: 5400},
	"Storage":                  {AverageCost: 850, Percentile50: 700, Percentile90: 1500},
	"Azure SQL Database":       {AverageCost: 1900, Percentile50: 1500, Percentile90: 3600},
	"App Service":              {AverageCost: 1100, Percentile50: 900, Percentile90: 2100},
	"Azure Kubernetes Service": {AverageCost: 2400, Percentile50: 1950, Percentile90: 4300},
	"Bandwidth":                {AverageCost: 450, Percentile50: 350, Percentile90: 900},
	"Load Balancer":            {AverageCost: 280, Percentile50: 230, Percentile90: 520},
}

const referenceSource = "industry"

// ReferenceClient fetches the industry benchmark reference table from an
// external feed, with the embedded fallback table and a two-layer cache
// behind it.
type ReferenceClient struct {
	endpoint string
	apiKey   string
	cache    *store.ReferenceCache
	client   *http.Client
}

// NewReferenceClient builds a reference client. An empty apiKey disables the
// external feed; the fallback table is used instead. cache may be nil.
func NewReferenceClient(endpoint, apiKey string, cache *store.ReferenceCache) *ReferenceClient {
	return &ReferenceClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		cache:    cache,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// ReferenceTable returns the benchmark reference table. Resolution order:
// cache, live feed (when an API key is configured), embedded fallback.
// Never fails; a feed error degrades to the fallback.
func (c *ReferenceClient) ReferenceTable(ctx context.Context) map[string]store.ReferenceEntry {
	if c == nil {
		return fallbackReference
	}
	if table, ok := c.cache.Get(referenceSource); ok {
		return table
	}
	if c.apiKey == "" || c.endpoint == "" {
		return fallbackReference
	}

	table, err := c.fetchFeed(ctx)
	if err != nil {
		slog.Warn("benchmark: reference feed fetch failed, using fallback table", "error", err)
		return fallbackReference
	}
	if removed := store.SanitizeReferences(table); removed > 0 {
		slog.Warn("benchmark: dropped invalid reference entries from feed", "count", removed)
	}
	if len(table) == 0 {
		return fallbackReference
	}
	c.cache.Put(referenceSource, table)
	return table
}

// Refresh forces a live feed fetch and cache update, for the background
// refresh schedule. No-op without an API key.
func (c *ReferenceClient) Refresh(ctx context.Context) error {
	if c == nil || c.apiKey == "" || c.endpoint == "" {
		return nil
	}
	table, err := c.fetchFeed(ctx)
	if err != nil {
		return err
	}
	store.SanitizeReferences(table)
	if len(table) == 0 {
		return fmt.Errorf("reference feed returned no usable entries")
	}
	c.cache.Put(referenceSource, table)
	return nil
}

func (c *ReferenceClient) fetchFeed(ctx context.Context) (map[string]store.ReferenceEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building reference feed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling reference feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference feed returned status %d", resp.StatusCode)
	}

	var payload struct {
		Services []struct {
			Name         string  `json:"name"`
			AverageCost  float64 `json:"averageCost"`
			Percentile50 float64 `json:"percentile50"`
			Percentile90 float64 `json:"percentile90"`
		} `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding reference feed response: %w", err)
	}

	table := make(map[string]store.ReferenceEntry, len(payload.Services))
	for _, s := range payload.Services {
		if s.Name == "" {
			continue
		}
		table[s.Name] = store.ReferenceEntry{
			AverageCost:  s.AverageCost,
			Percentile50: s.Percentile50,
			Percentile90: s.Percentile90,
		}
	}
	return table, nil
}
