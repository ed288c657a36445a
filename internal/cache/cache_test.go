package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("abc123", "<h1>Hi</h1>")

	got, ok := c.Get("abc123")
	if !ok {
		t.Fatal("expected cached value")
	}
	if got != "<h1>Hi</h1>" {
		t.Errorf("Get = %q, want %q", got, "<h1>Hi</h1>")
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheExpiration(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("expected short entry to be expired")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Errorf("Get(long) = %d, %v; want 2, true", v, ok)
	}
	if n := len(c.entries); n != 1 {
		t.Errorf("%d entries stored, want 1 after lazy eviction", n)
	}
}

func TestCacheGetKeepsConcurrentRefresh(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[int](time.Minute)
	c.Set("k", 1)
	now = now.Add(2 * time.Minute)

	// The refresh lands between Get's read and its eviction.
	refresh := true
	c.now = func() time.Time {
		if refresh {
			refresh = false
			c.SetWithTTL("k", 2, time.Hour)
		}
		return now
	}

	if _, ok := c.Get("k"); ok {
		t.Error("expected the stale read to miss")
	}
	if v, ok := c.Get("k"); !ok || v != 2 {
		t.Errorf("Get(k) = %d, %v; want the refreshed value 2", v, ok)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int](time.Nanosecond)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i%2 == 0 {
					c.SetWithTTL("k", j, time.Hour)
				} else {
					c.Get("k")
				}
			}
		}(i)
	}
	wg.Wait()
	if _, ok := c.Get("k"); !ok {
		t.Error("long-lived entry was evicted")
	}
}

func TestCachePrune(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[int](time.Second)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	now = now.Add(time.Minute)
	if removed := c.Prune(); removed != 2 {
		t.Errorf("Prune removed %d, want 2", removed)
	}

	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
	if n := len(c.entries); n != 1 {
		t.Errorf("%d entries stored, want 1", n)
	}
}
