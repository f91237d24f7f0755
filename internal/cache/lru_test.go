package cache

import (
	"testing"
	"time"

	"ledgerdash/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_SlidingExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("s", 1)

	clock.t = clock.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("expected hit before ttl")
	}
	clock.t = clock.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("hit should have extended expiry")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
}

func TestLRUCache_GetOrCreate(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	builds := 0
	build := func() int { builds++; return 7 }

	v, existed := c.GetOrCreate("k", build)
	if v != 7 || existed {
		t.Fatalf("first call = (%d, %v)", v, existed)
	}
	v, existed = c.GetOrCreate("k", build)
	if v != 7 || !existed || builds != 1 {
		t.Fatalf("second call = (%d, %v), builds=%d", v, existed, builds)
	}
}

func TestManager_CleanNow(t *testing.T) {
	m := NewManager(log.Discard())
	m.Register("a", CleanerFunc(func() int { return 2 }))
	m.Register("b", CleanerFunc(func() int { return 3 }))

	if n := m.CleanNow(); n != 5 {
		t.Fatalf("CleanNow = %d, want 5", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
