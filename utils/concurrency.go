package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool runs jobs on at most maxWorkers goroutines, optionally spacing
// job starts by a minimum interval.
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
	limiter    *rate.Limiter
	wg         sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A rateLimitMs of 0 disables spacing.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	wp := &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
	if rateLimitMs > 0 {
		wp.limiter = rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1)
	}
	return wp
}

// Size returns the concurrency ceiling.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

// Submit blocks until a slot is free, then runs job on its own goroutine.
// The job is skipped when ctx ends before it gets a slot or its rate token.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) {
	if ctx.Err() != nil {
		return
	}
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return
	}
	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if wp.limiter != nil {
			if err := wp.limiter.Wait(ctx); err != nil {
				return
			}
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Map applies worker to every item with at most limit calls in flight and
// returns the results for which worker reported ok. Output order is not
// specified. Map returns only after every dispatched call has finished.
func Map[T, R any](items []T, limit int, worker func(T) (R, bool)) []R {
	return MapPool(context.Background(), NewWorkerPool(limit, 0), items, worker)
}

// MapPool is Map on a caller-supplied pool. Items not yet started when ctx
// ends are skipped. The pool must not be shared with concurrent MapPool calls.
func MapPool[T, R any](ctx context.Context, pool *WorkerPool, items []T, worker func(T) (R, bool)) []R {
	var mu sync.Mutex
	results := make([]R, 0, len(items))

	for _, item := range items {
		it := item
		pool.Submit(ctx, func() {
			r, ok := worker(it)
			if !ok {
				return
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		})
	}
	pool.Wait()

	return results
}

// URLSet is a thread-safe set for tracking visited URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been visited.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
