package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"
)

// ReferenceEntry is one cached benchmark reference row: what a comparable
// tenant spends on a service per month.
type ReferenceEntry struct {
	AverageCost  float64
	Percentile50 float64
	Percentile90 float64
}

// ValidateReference returns true if a reference entry has sane values.
// Entries with a non-positive average would make the variance computation
// divide by zero or produce nonsense percentages.
func ValidateReference(e ReferenceEntry) bool {
	return e.AverageCost > 0 && e.Percentile50 >= 0 && e.Percentile90 >= e.Percentile50
}

// SanitizeReferences filters a reference table in place, removing invalid
// entries. Returns the number of entries removed.
func SanitizeReferences(table map[string]ReferenceEntry) int {
	removed := 0
	for k, v := range table {
		if !ValidateReference(v) {
			delete(table, k)
			removed++
		}
	}
	return removed
}

const (
	defaultRefCacheTTL = 24 * time.Hour
	memoryRefCacheTTL  = 1 * time.Hour
)

// ReferenceCache provides a two-layer cache (in-memory + SQLite) for
// benchmark reference tables. All methods are nil-safe: if the underlying
// *sql.DB is nil the cache operates purely in-memory.
type ReferenceCache struct {
	db  *sql.DB
	ttl time.Duration

	mu      sync.RWMutex
	mem     map[string]map[string]ReferenceEntry // source -> service -> entry
	memTime map[string]time.Time                 // source -> last updated
}

// NewReferenceCache creates a ReferenceCache backed by the given database.
// If db is nil, the cache works in-memory only.
func NewReferenceCache(db *sql.DB) *ReferenceCache {
	return &ReferenceCache{
		db:      db,
		ttl:     defaultRefCacheTTL,
		mem:     make(map[string]map[string]ReferenceEntry),
		memTime: make(map[string]time.Time),
	}
}

// Get returns the cached reference table for a source. It checks the
// in-memory cache first (1h TTL), then SQLite (24h TTL). Returns nil, false
// on miss.
func (c *ReferenceCache) Get(source string) (map[string]ReferenceEntry, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	if table, ok := c.mem[source]; ok && time.Since(c.memTime[source]) < memoryRefCacheTTL {
		c.mu.RUnlock()
		return copyTable(table), true
	}
	c.mu.RUnlock()

	if c.db == nil {
		return nil, false
	}

	cutoff := time.Now().Add(-c.ttl).Unix()
	rows, err := c.db.Query(
		"SELECT service, average_cost, percentile_50, percentile_90 FROM benchmark_reference WHERE source = ? AND updated_at >= ?",
		source, cutoff,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	table := make(map[string]ReferenceEntry)
	for rows.Next() {
		var service string
		var e ReferenceEntry
		if err := rows.Scan(&service, &e.AverageCost, &e.Percentile50, &e.Percentile90); err != nil {
			continue
		}
		table[service] = e
	}
	if len(table) == 0 {
		return nil, false
	}

	c.mu.Lock()
	c.mem[source] = copyTable(table)
	c.memTime[source] = time.Now()
	c.mu.Unlock()

	return table, true
}

// Put stores a reference table in both cache layers.
func (c *ReferenceCache) Put(source string, table map[string]ReferenceEntry) {
	if c == nil || len(table) == 0 {
		return
	}

	c.mu.Lock()
	c.mem[source] = copyTable(table)
	c.memTime[source] = time.Now()
	c.mu.Unlock()

	if c.db == nil {
		return
	}

	now := time.Now().Unix()
	for service, e := range table {
		if _, err := c.db.Exec(
			`INSERT INTO benchmark_reference (source, service, average_cost, percentile_50, percentile_90, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(source, service) DO UPDATE SET
			   average_cost = excluded.average_cost,
			   percentile_50 = excluded.percentile_50,
			   percentile_90 = excluded.percentile_90,
			   updated_at = excluded.updated_at`,
			source, service, e.AverageCost, e.Percentile50, e.Percentile90, now,
		); err != nil {
			fmt.Fprintf(os.Stderr, "refcache: persist %s/%s failed: %v\n", source, service, err)
		}
	}
}

func copyTable(in map[string]ReferenceEntry) map[string]ReferenceEntry {
	out := make(map[string]ReferenceEntry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
