package imsclient

import (
	"testing"
	"time"
)

var (
	defaultPair  = Credentials{ClientID: "default-id", ClientSecret: "default-secret"}
	overridePair = Credentials{ClientID: "caller-id", ClientSecret: "caller-secret"}
)

// fixedClock pins the cache clock so expiry boundaries are deterministic.
func fixedClock(cache *MemoryTokenCache, at time.Time) *time.Time {
	now := at
	cache.now = func() time.Time { return now }
	return &now
}

func TestMemoryTokenCacheDefaultPair(t *testing.T) {
	cache := NewMemoryTokenCache(defaultPair, 0)
	now := fixedClock(cache, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if _, ok := cache.GetValid(defaultPair); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Store(defaultPair, "token-1", time.Hour)

	token, ok := cache.GetValid(defaultPair)
	if !ok {
		t.Fatal("expected cache hit for default pair")
	}
	if token != "token-1" {
		t.Errorf("expected token-1, got %s", token)
	}

	// Valid strictly before expiry minus the 5-minute leeway.
	*now = now.Add(54 * time.Minute)
	if _, ok := cache.GetValid(defaultPair); !ok {
		t.Error("expected hit just before the leeway boundary")
	}

	// At the boundary (now + leeway == expiry) the token is a miss.
	*now = now.Add(time.Minute)
	if _, ok := cache.GetValid(defaultPair); ok {
		t.Error("expected miss at the leeway boundary")
	}

	// And past it.
	*now = now.Add(time.Hour)
	if _, ok := cache.GetValid(defaultPair); ok {
		t.Error("expected miss after expiry")
	}
}

func TestMemoryTokenCacheOverridePairAlwaysMisses(t *testing.T) {
	cache := NewMemoryTokenCache(defaultPair, 0)
	fixedClock(cache, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	cache.Store(defaultPair, "default-token", time.Hour)

	if _, ok := cache.GetValid(overridePair); ok {
		t.Error("override pair must always miss")
	}

	// Storing for an override pair is a no-op and must not disturb the
	// default-pair token.
	cache.Store(overridePair, "override-token", time.Hour)

	token, ok := cache.GetValid(defaultPair)
	if !ok {
		t.Fatal("default-pair token should still be cached")
	}
	if token != "default-token" {
		t.Errorf("default-pair token was overwritten: got %s", token)
	}
	if _, ok := cache.GetValid(overridePair); ok {
		t.Error("override pair must miss even right after Store")
	}
}

func TestMemoryTokenCacheOverwrite(t *testing.T) {
	cache := NewMemoryTokenCache(defaultPair, 0)
	fixedClock(cache, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	cache.Store(defaultPair, "token-1", time.Hour)
	cache.Store(defaultPair, "token-2", 2*time.Hour)

	token, ok := cache.GetValid(defaultPair)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if token != "token-2" {
		t.Errorf("expected the refreshed token, got %s", token)
	}
}

func TestMemoryTokenCacheCustomLeeway(t *testing.T) {
	cache := NewMemoryTokenCache(defaultPair, 30*time.Minute)
	now := fixedClock(cache, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	cache.Store(defaultPair, "token-1", time.Hour)

	*now = now.Add(29 * time.Minute)
	if _, ok := cache.GetValid(defaultPair); !ok {
		t.Error("expected hit before the custom leeway window")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := cache.GetValid(defaultPair); ok {
		t.Error("expected miss inside the custom leeway window")
	}
}
