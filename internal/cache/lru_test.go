package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("expected a")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.t = clk.t.Add(2 * time.Minute)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be expired")
	}
	if n := c.CleanExpired(); n != 1 { // a already removed by Get
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}
}

func TestLRUStats(t *testing.T) {
	c, clk := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b
	c.Get("b")
	clk.t = clk.t.Add(2 * time.Minute)
	c.Get("a")
	c.CleanExpired()

	want := Stats{Entries: 0, Capacity: 2, Hits: 1, Misses: 2, Evictions: 1, Expirations: 2}
	if got := c.Stats(); got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
}

func TestManagerSweep(t *testing.T) {
	a, clk := newTestCache(10, time.Minute)
	b := NewLRUCache[int](10, time.Minute)
	b.now = clk.now
	a.Set("x", 1)
	b.Set("y", 2)
	clk.t = clk.t.Add(time.Hour)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("sweep removed %d, want 2", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
}

func TestLoaderCachesAndCollapses(t *testing.T) {
	l := NewLoader(NewLRUCache[int](10, time.Minute))

	var calls int32
	release := make(chan struct{})
	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _, err := l.Get("k", load); err != nil || v != 7 {
				t.Errorf("Get = %v, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("load called %d times, want 1", n)
	}
	if v, hit, _ := l.Get("k", load); !hit || v != 7 {
		t.Fatalf("expected cache hit, got %v hit=%v", v, hit)
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	l := NewLoader(NewLRUCache[int](10, time.Minute))
	boom := errors.New("boom")
	if _, _, err := l.Get("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	v, hit, err := l.Get("k", func() (int, error) { return 3, nil })
	if err != nil || hit || v != 3 {
		t.Fatalf("unexpected second get %v hit=%v err=%v", v, hit, err)
	}
}
