package scheduler

import "sync"

// semaphore bounds how many operations run simultaneously for one
// (provider, model) pair, independently of the provider's rate limit.
//
// Waiters are resumed strictly in arrival order. Release hands the freed
// slot directly to the earliest waiter under the same lock that adjusts
// the active count, so no later Acquire can steal the slot in between.
type semaphore struct {
	active  int
	limit   int
	waiting []chan struct{}

	mu sync.Mutex
}

func newSemaphore(limit int) *semaphore {
	if limit < 1 {
		limit = 1
	}
	return &semaphore{limit: limit}
}

// Acquire claims a slot, blocking until one is available. The fast path
// increments active and returns without ever parking the goroutine.
func (s *semaphore) Acquire() {
	s.mu.Lock()
	if s.active < s.limit {
		s.active++
		s.mu.Unlock()
		return
	}

	ready := make(chan struct{})
	s.waiting = append(s.waiting, ready)
	s.mu.Unlock()

	// The releasing goroutine has already re-incremented active on our
	// behalf by the time this channel closes.
	<-ready
}

// Release frees a slot. If anyone is waiting, the slot transfers to the
// earliest waiter atomically with the active-count bookkeeping.
func (s *semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active--
	if len(s.waiting) > 0 {
		ready := s.waiting[0]
		s.waiting = s.waiting[1:]
		s.active++
		close(ready)
	}
}

// Snapshot returns the current active count and the configured limit.
func (s *semaphore) Snapshot() (active, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.limit
}
