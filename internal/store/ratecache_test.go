package store

import "testing"

func TestRateCacheRoundTrip(t *testing.T) {
	db := testDB(t)
	cache := NewRateCache(db.RawDB())

	cache.Put("aws", "us-east-1", map[string]float64{"m5.large": 0.096, "r5.large": 0.126})

	got, ok := cache.Get("aws", "us-east-1")
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got["m5.large"] != 0.096 {
		t.Errorf("m5.large = %v, want 0.096", got["m5.large"])
	}
	if _, ok := cache.Get("aws", "eu-west-1"); ok {
		t.Error("expected miss for a different region")
	}
}

func TestRateCacheSQLiteLayer(t *testing.T) {
	db := testDB(t)

	writer := NewRateCache(db.RawDB())
	writer.Put("aws", "us-east-1", map[string]float64{"t3.medium": 0.0416})

	// A fresh cache has an empty memory layer and must fall through to SQLite.
	reader := NewRateCache(db.RawDB())
	got, ok := reader.Get("aws", "us-east-1")
	if !ok {
		t.Fatal("expected SQLite hit from fresh cache")
	}
	if got["t3.medium"] != 0.0416 {
		t.Errorf("t3.medium = %v, want 0.0416", got["t3.medium"])
	}
}

func TestRateCacheNilSafe(t *testing.T) {
	var cache *RateCache
	cache.Put("aws", "us-east-1", map[string]float64{"m5.large": 0.096})
	if _, ok := cache.Get("aws", "us-east-1"); ok {
		t.Error("nil cache should always miss")
	}

	memOnly := NewRateCache(nil)
	memOnly.Put("aws", "us-east-1", map[string]float64{"m5.large": 0.096})
	if _, ok := memOnly.Get("aws", "us-east-1"); !ok {
		t.Error("memory-only cache should hit after Put")
	}
}

func TestSanitizeRates(t *testing.T) {
	rates := map[string]float64{
		"m5.large":  0.096,
		"zero":      0,
		"negative":  -1,
		"absurd":    5000,
		"m5.xlarge": 0.192,
	}
	removed := SanitizeRates(rates)
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(rates) != 2 {
		t.Errorf("surviving entries = %d, want 2", len(rates))
	}
}
