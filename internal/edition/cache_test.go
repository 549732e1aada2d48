package edition

import (
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	c := NewCache[string](time.Hour)
	key := CacheKey{Generation: 1, Kind: "text", Witness: "A"}

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put(key, "testo")
	got, ok := c.Get(key)
	if !ok || got != "testo" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "testo", got, ok)
	}

	forced := key
	forced.Force = true
	if _, ok := c.Get(forced); ok {
		t.Error("forced and plain renders must not share an entry")
	}
}

func TestCache_ExpiredEntriesMiss(t *testing.T) {
	c := NewCache[int](10 * time.Millisecond)
	key := CacheKey{Generation: 1, Kind: "html", Witness: "A"}
	c.Put(key, 1)
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	c.Cleanup(0)
	if c.Len() != 0 {
		t.Errorf("expected cleanup to remove expired entry, %d left", c.Len())
	}
}

func TestCache_CleanupDropsOldGenerations(t *testing.T) {
	c := NewCache[int](time.Hour)
	c.Put(CacheKey{Generation: 1, Kind: "text", Witness: "A"}, 1)
	c.Put(CacheKey{Generation: 2, Kind: "text", Witness: "A"}, 2)
	c.Put(CacheKey{Generation: 3, Kind: "text", Witness: "A"}, 3)

	c.Cleanup(2)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(CacheKey{Generation: 1, Kind: "text", Witness: "A"}); ok {
		t.Error("generation 1 should be gone")
	}
}
