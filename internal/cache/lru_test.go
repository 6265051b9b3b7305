package cache

import (
	"testing"
	"time"
)

func newTestCache(maxSize int, ttl time.Duration, now *time.Time) *LRUCache[string] {
	c := NewLRUCache[string](maxSize, ttl)
	c.now = func() time.Time { return *now }
	return c
}

func TestLRUCache_GetSet(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestCache(2, time.Minute, &now)

	c.Set("a", "1")
	c.Set("b", "2")
	if got, ok := c.Get("a"); !ok || got != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, true", got, ok)
	}

	// a was used last, so b is evicted
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Set("a", "updated")
	if got, _ := c.Get("a"); got != "updated" {
		t.Errorf("Get(a) = %q, want updated", got)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestCache(10, time.Minute, &now)

	c.Set("a", "1")
	now = now.Add(30 * time.Second)
	c.Set("b", "2")
	now = now.Add(30 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a should be expired exactly at its TTL")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Errorf("CleanExpired() = %d, want 0 (a already dropped on read)", removed)
	}

	now = now.Add(time.Minute)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestCache(10, time.Minute, &now)

	c.Set("u1:month", "x")
	c.Set("u1:year", "y")
	c.Set("u10:month", "z")

	if removed := c.DeletePrefix("u1:"); removed != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", removed)
	}
	if _, ok := c.Get("u10:month"); !ok {
		t.Error("u10:month must survive invalidation of u1")
	}

	c.Delete("u10:month")
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Second))
	m.Stop()
	m.Stop()
}
