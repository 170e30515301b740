package utils

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
	if !s.Contains("https://example.com/1") {
		t.Error("Contains should report the added URL")
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(context.Background(), func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	start := time.Now()
	for i := 0; i < 3; i++ {
		pool.Submit(context.Background(), func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	// Three jobs with a burst of one need at least two full intervals.
	min := 2 * time.Duration(rateLimitMs) * time.Millisecond
	if elapsed := time.Since(start); elapsed < min-10*time.Millisecond {
		t.Errorf("3 rate-limited jobs finished in %v; want >= %v", elapsed, min)
	}
	if len(timestamps) != 3 {
		t.Errorf("ran %d jobs, want 3", len(timestamps))
	}
}

func TestMapPoolStopsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// One token up front, then one per second: only the first item can start
	// before the deadline.
	pool := NewWorkerPool(1, 1000)
	start := time.Now()
	got := MapPool(ctx, pool, []int{1, 2, 3, 4, 5}, func(n int) (int, bool) {
		return n, true
	})

	if len(got) != 1 {
		t.Errorf("ran %d jobs, want 1", len(got))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("MapPool took %v after the deadline; want prompt return", elapsed)
	}
}

func TestSubmitSkipsCancelledJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(2, 10)
	var ran int64
	for i := 0; i < 4; i++ {
		pool.Submit(ctx, func() { atomic.AddInt64(&ran, 1) })
	}
	pool.Wait()

	if ran != 0 {
		t.Errorf("ran %d jobs after cancellation, want 0", ran)
	}
}

func TestMapMultiset(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	double := func(i int) (int, bool) { return i * 2, true }

	for _, limit := range []int{1, 3, 6, 100} {
		got := Map(items, limit, double)
		sort.Ints(got)

		want := []int{2, 4, 6, 8, 10}
		if len(got) != len(want) {
			t.Fatalf("limit %d: got %v, want %v", limit, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("limit %d: got %v, want %v", limit, got, want)
				break
			}
		}
	}
}

func TestMapDropsNotOK(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	evens := Map(items, 3, func(i int) (int, bool) { return i, i%2 == 0 })
	sort.Ints(evens)

	if len(evens) != 3 || evens[0] != 2 || evens[1] != 4 || evens[2] != 6 {
		t.Errorf("got %v, want [2 4 6]", evens)
	}
}

func TestMapRespectsLimit(t *testing.T) {
	const limit = 3
	var inflight, peak int64

	items := make([]int, 20)
	Map(items, limit, func(int) (struct{}, bool) {
		n := atomic.AddInt64(&inflight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
		return struct{}{}, true
	})

	if peak > limit {
		t.Errorf("peak concurrency %d exceeds limit %d", peak, limit)
	}
	if inflight != 0 {
		t.Errorf("%d workers still in flight after Map returned", inflight)
	}
}

func TestMapEmptyAndZeroLimit(t *testing.T) {
	if got := Map([]int{}, 6, func(i int) (int, bool) { return i, true }); len(got) != 0 {
		t.Errorf("empty input: got %v", got)
	}
	if got := Map([]int{7}, 0, func(i int) (int, bool) { return i, true }); len(got) != 1 || got[0] != 7 {
		t.Errorf("zero limit should still run: got %v", got)
	}
}
