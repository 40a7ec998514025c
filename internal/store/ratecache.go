package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"
)

// Sanity bounds for hourly instance rates. Quotes outside these bounds are
// rejected so bad pricing API data cannot skew the cross-provider estimates.
const (
	minValidRate = 0.001
	maxValidRate = 200.0
)

// ValidateRate returns true if an hourly rate falls within sane bounds.
func ValidateRate(rate float64) bool {
	return rate >= minValidRate && rate <= maxValidRate
}

// SanitizeRates filters a rate map in place, removing entries with invalid
// rates. Returns the number of entries removed.
func SanitizeRates(rates map[string]float64) int {
	removed := 0
	for k, v := range rates {
		if !ValidateRate(v) {
			delete(rates, k)
			removed++
		}
	}
	return removed
}

const (
	defaultRateCacheTTL = 24 * time.Hour
	memoryRateCacheTTL  = 1 * time.Hour
)

// RateCache provides a two-layer cache (in-memory + SQLite) for hourly
// instance rates keyed by provider and region. All methods are nil-safe: if
// the underlying *sql.DB is nil the cache operates purely in-memory.
type RateCache struct {
	db  *sql.DB
	ttl time.Duration

	mu      sync.RWMutex
	mem     map[string]map[string]float64 // "provider:region" -> instance type -> hourly rate
	memTime map[string]time.Time          // "provider:region" -> last updated
}

// NewRateCache creates a RateCache backed by the given database. If db is
// nil, the cache works in-memory only.
func NewRateCache(db *sql.DB) *RateCache {
	return &RateCache{
		db:      db,
		ttl:     defaultRateCacheTTL,
		mem:     make(map[string]map[string]float64),
		memTime: make(map[string]time.Time),
	}
}

func rateKey(provider, region string) string {
	return provider + ":" + region
}

// Get returns cached rates for a provider and region. It checks the
// in-memory cache first (1h TTL), then SQLite (24h TTL). Returns nil, false
// on miss.
func (c *RateCache) Get(provider, region string) (map[string]float64, bool) {
	if c == nil {
		return nil, false
	}
	key := rateKey(provider, region)

	c.mu.RLock()
	if rates, ok := c.mem[key]; ok && time.Since(c.memTime[key]) < memoryRateCacheTTL {
		c.mu.RUnlock()
		return copyRates(rates), true
	}
	c.mu.RUnlock()

	if c.db == nil {
		return nil, false
	}

	cutoff := time.Now().Add(-c.ttl).Unix()
	rows, err := c.db.Query(
		"SELECT instance_type, price_per_hour FROM rate_cache WHERE provider = ? AND region = ? AND updated_at >= ?",
		provider, region, cutoff,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var it string
		var rate float64
		if err := rows.Scan(&it, &rate); err != nil {
			continue
		}
		rates[it] = rate
	}
	if len(rates) == 0 {
		return nil, false
	}

	c.mu.Lock()
	c.mem[key] = copyRates(rates)
	c.memTime[key] = time.Now()
	c.mu.Unlock()

	return rates, true
}

// Put stores rates in both cache layers.
func (c *RateCache) Put(provider, region string, rates map[string]float64) {
	if c == nil || len(rates) == 0 {
		return
	}
	key := rateKey(provider, region)

	c.mu.Lock()
	c.mem[key] = copyRates(rates)
	c.memTime[key] = time.Now()
	c.mu.Unlock()

	if c.db == nil {
		return
	}

	now := time.Now().Unix()
	for it, rate := range rates {
		if _, err := c.db.Exec(
			`INSERT INTO rate_cache (provider, region, instance_type, price_per_hour, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(provider, region, instance_type) DO UPDATE SET
			   price_per_hour = excluded.price_per_hour,
			   updated_at = excluded.updated_at`,
			provider, region, it, rate, now,
		); err != nil {
			fmt.Fprintf(os.Stderr, "ratecache: persist %s/%s/%s failed: %v\n", provider, region, it, err)
		}
	}
}

func copyRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
