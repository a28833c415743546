package services

import (
	"context"
	"testing"
	"time"
)

func TestCacheRoundTripInMemory(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute)

	type entry struct {
		UserID  int `json:"user_id"`
		TotalXp int `json:"total_xp"`
	}

	var out entry
	if cache.Get(ctx, "leaderboard:alltime:1", &out) {
		t.Fatalf("empty cache must miss")
	}

	cache.Set(ctx, "leaderboard:alltime:1", entry{UserID: 7, TotalXp: 1200})
	if !cache.Get(ctx, "leaderboard:alltime:1", &out) {
		t.Fatalf("cached key must hit")
	}
	if out.UserID != 7 || out.TotalXp != 1200 {
		t.Fatalf("round trip: got %+v", out)
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats: got hits=%d misses=%d want 1/1", hits, misses)
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute)
	cache.Set(ctx, "leaderboard:week:202636:1", []int{1, 2, 3})

	// Force the entry past its deadline instead of sleeping.
	cache.mu.Lock()
	e := cache.entries["leaderboard:week:202636:1"]
	e.expiresAt = time.Now().Add(-time.Second)
	cache.entries["leaderboard:week:202636:1"] = e
	cache.mu.Unlock()

	var out []int
	if cache.Get(ctx, "leaderboard:week:202636:1", &out) {
		t.Fatalf("expired entry must miss")
	}
}

func TestCacheInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute)
	cache.Set(ctx, "leaderboard:alltime:1", 1)
	cache.Set(ctx, "leaderboard:week:202636:1", 2)
	cache.Set(ctx, "ranks:table", 3)

	if err := cache.InvalidatePattern(ctx, "leaderboard:*"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	var out int
	if cache.Get(ctx, "leaderboard:alltime:1", &out) {
		t.Fatalf("leaderboard keys must be gone")
	}
	if cache.Get(ctx, "leaderboard:week:202636:1", &out) {
		t.Fatalf("weekly leaderboard keys must be gone")
	}
	if !cache.Get(ctx, "ranks:table", &out) || out != 3 {
		t.Fatalf("unrelated keys must survive invalidation")
	}
}

func TestCacheNilReceiverIsInert(t *testing.T) {
	ctx := context.Background()
	var cache *CacheService

	cache.Set(ctx, "k", 1)
	var out int
	if cache.Get(ctx, "k", &out) {
		t.Fatalf("nil cache must always miss")
	}
	if err := cache.InvalidatePattern(ctx, "*"); err != nil {
		t.Fatalf("nil cache invalidate: %v", err)
	}
	if cache.Backend() != "disabled" {
		t.Fatalf("nil cache backend: got %q", cache.Backend())
	}
}
