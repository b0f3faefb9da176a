package scheduler

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FrenchMajesty/throttle-run/rate_limit"
	"github.com/FrenchMajesty/throttle-run/utils/logger"
	"github.com/FrenchMajesty/throttle-run/utils/priority_queue"
	"github.com/google/uuid"
)

const defaultPollInterval = 100 * time.Millisecond

// providerState bundles everything the scheduler owns for one provider:
// its token bucket, its pending-task queue, the drain marker, and the
// lifetime counters surfaced in stats.
type providerState struct {
	name   string
	bucket *rate_limit.TokenBucket
	queue  *priority_queue.PriorityQueue[*Task]

	// drain is nil while idle. Exactly one drain loop may hold the
	// marker at a time; concurrent Acquire calls enqueue and rely on it.
	drain *drainHandle

	launched  int
	completed int
	failed    int
}

// Scheduler is the admission controller for outbound vendor requests. It
// owns a token bucket and priority queue per provider plus a lazily built
// semaphore per (provider, model) pair, and coordinates one drain loop per
// provider that admits tasks as tokens become available.
//
// Build one with New and share it by reference; there is no package-level
// instance.
type Scheduler struct {
	providers   map[string]*providerState
	concurrency map[string]int
	semaphores  map[string]*semaphore

	mu        sync.Mutex
	logger    logger.Logger
	eventChan chan *Event
	stopped   atomic.Bool

	uniqueID     string
	pollInterval time.Duration
}

// Options configures a Scheduler instance.
type Options struct {
	// Logger receives operational log lines. Defaults to stdout.
	Logger logger.Logger

	// PollInterval caps how long a drain loop sleeps between token
	// checks. Defaults to 100ms; the loop wakes earlier when the bucket
	// can predict the next token.
	PollInterval time.Duration

	// EventBufferSize sizes the observability channel. Defaults to 1000.
	EventBufferSize int
}

// New creates a Scheduler. Configure must be called before any Acquire or
// TryAcquire.
func New(opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logger.NewStdoutLogger()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = 1000
	}

	return &Scheduler{
		providers:    make(map[string]*providerState),
		semaphores:   make(map[string]*semaphore),
		logger:       opts.Logger,
		eventChan:    make(chan *Event, opts.EventBufferSize),
		uniqueID:     uuid.New().String()[:6],
		pollInterval: opts.PollInterval,
	}
}

// Configure discards all prior state and initializes a fresh bucket and
// empty queue per provider key in rateLimits. modelConcurrency entries are
// keyed "provider" or "provider:model" and resolve lazily when a model is
// first seen; absent both, a model's concurrency defaults to 1.
func (s *Scheduler) Configure(rateLimits map[string]rate_limit.RateLimit, modelConcurrency map[string]int) {
	s.mu.Lock()

	s.stopDrainsLocked()

	s.providers = make(map[string]*providerState, len(rateLimits))
	for name, limit := range rateLimits {
		s.providers[name] = &providerState{
			name:   name,
			bucket: rate_limit.NewTokenBucket(limit),
			queue:  priority_queue.NewPriorityQueue[*Task](),
		}
	}

	s.concurrency = make(map[string]int, len(modelConcurrency))
	for key, limit := range modelConcurrency {
		s.concurrency[key] = limit
	}
	s.semaphores = make(map[string]*semaphore)

	count := len(s.providers)
	s.mu.Unlock()

	s.logger.Printf("Scheduler %s: Configured %d providers, %d concurrency entries",
		s.uniqueID, count, len(modelConcurrency))
}

// Acquire enqueues op for the given provider and returns a future that
// settles when that specific task completes. Tasks execute in descending
// priority order, FIFO among equal priorities. Fails immediately when the
// provider key was not configured.
func (s *Scheduler) Acquire(provider string, priority int, op Operation) (*Task, error) {
	return s.acquire(provider, "", priority, op)
}

// AcquireForModel is Acquire with a per-model concurrency bound: the
// operation is wrapped with acquire/release on the (provider, model)
// semaphore, created on first use of that pair.
func (s *Scheduler) AcquireForModel(provider, model string, priority int, op Operation) (*Task, error) {
	return s.acquire(provider, model, priority, op)
}

func (s *Scheduler) acquire(provider, model string, priority int, op Operation) (*Task, error) {
	s.mu.Lock()
	p, ok := s.providers[provider]
	if !ok {
		configured := s.providerKeysLocked()
		s.mu.Unlock()
		return nil, &UnconfiguredProviderError{Provider: provider, Configured: configured}
	}

	runOp := op
	if model != "" {
		sem := s.semaphoreForLocked(provider, model)
		runOp = func() (any, error) {
			sem.Acquire()
			defer sem.Release()
			return op()
		}
	}

	task := newTask(provider, model, priority, runOp)
	queueLen := p.queue.Push(&priority_queue.QueueItem[*Task]{
		Item:     task,
		Priority: priority,
	})
	s.ensureDrainLocked(p)
	s.mu.Unlock()

	data := map[string]any{
		"provider":   provider,
		"priority":   priority,
		"queue_size": queueLen,
	}
	if model != "" {
		data["model"] = model
	}
	s.emitEvent(EventTaskEnqueued, task.ID, data)

	return task, nil
}

// TryAcquire runs op immediately and synchronously when a token is
// available right now, bypassing the queue and any semaphore. It returns
// false without enqueueing when the bucket is empty. An error from op is
// logged and swallowed; the call still returns false, indistinguishable
// from "no token available".
func (s *Scheduler) TryAcquire(provider string, op Operation) (bool, error) {
	s.mu.Lock()
	p, ok := s.providers[provider]
	if !ok {
		configured := s.providerKeysLocked()
		s.mu.Unlock()
		return false, &UnconfiguredProviderError{Provider: provider, Configured: configured}
	}
	bucket := p.bucket
	s.mu.Unlock()

	if !bucket.TryConsume() {
		return false, nil
	}

	s.mu.Lock()
	p.launched++
	s.mu.Unlock()

	if err := s.runImmediate(op); err != nil {
		s.logger.Printf("Scheduler %s: TryAcquire operation failed for provider %s: %v",
			s.uniqueID, provider, err)
		s.recordOutcome(p, false)
		return false, nil
	}

	s.recordOutcome(p, true)
	return true, nil
}

// Reset clears every bucket, queue, processing marker, and semaphore.
// Tasks still pending in queues are not rejected; settling them is the
// caller's responsibility if needed.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.stopDrainsLocked()
	s.providers = make(map[string]*providerState)
	s.concurrency = nil
	s.semaphores = make(map[string]*semaphore)
	s.mu.Unlock()

	s.logger.Printf("Scheduler %s: Reset all provider state", s.uniqueID)
}

// ClearQueue empties pending queues. With cancelRunning false it only
// touches providers that are not currently draining, silently dropping
// their queued tasks. With cancelRunning true it also rejects every
// not-yet-started task with ErrQueueCleared and clears the processing
// marker of draining providers as a best-effort cancellation signal; an
// operation already executing keeps running and settles normally.
func (s *Scheduler) ClearQueue(cancelRunning bool) ClearQueueResult {
	result := ClearQueueResult{
		CancelledProviders: []string{},
		Providers:          make(map[string]QueueStatus),
	}
	var cancelled []*Task

	s.mu.Lock()
	for name, p := range s.providers {
		draining := p.drain != nil

		switch {
		case cancelRunning:
			tasks := p.queue.Drain()
			result.ClearedTasks += len(tasks)
			cancelled = append(cancelled, tasks...)
			if draining {
				close(p.drain.stop)
				p.drain = nil
				result.CancelledProviders = append(result.CancelledProviders, name)
			}
		case !draining:
			result.ClearedTasks += len(p.queue.Drain())
		}

		result.Providers[name] = QueueStatus{
			QueueLength:  p.queue.Size(),
			IsProcessing: p.drain != nil,
		}
	}
	s.mu.Unlock()

	sort.Strings(result.CancelledProviders)

	for _, task := range cancelled {
		task.settle(Result{Err: ErrQueueCleared})
		s.emitEvent(EventTaskCancelled, task.ID, map[string]any{
			"provider": task.provider,
		})
	}

	if result.ClearedTasks > 0 || len(result.CancelledProviders) > 0 {
		s.emitEvent(EventQueueCleared, uuid.Nil, map[string]any{
			"cleared_tasks":       result.ClearedTasks,
			"cancelled_providers": result.CancelledProviders,
		})
		s.logger.Printf("Scheduler %s: Cleared %d queued tasks (%d providers cancelled)",
			s.uniqueID, result.ClearedTasks, len(result.CancelledProviders))
	}

	return result
}

// Stop halts all drain loops and closes the logger. Operations already
// in flight settle their own futures; events emitted afterwards are
// dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopDrainsLocked()
	s.mu.Unlock()
	s.stopped.Store(true)

	s.logger.Printf("Scheduler %s: Stopped", s.uniqueID)
	s.logger.Close()
}

// providerKeysLocked returns the configured provider keys sorted for
// stable error messages. Caller must hold the mutex.
func (s *Scheduler) providerKeysLocked() []string {
	keys := make([]string, 0, len(s.providers))
	for name := range s.providers {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// semaphoreForLocked returns the semaphore for a (provider, model) pair,
// creating it on first use. The limit resolves from an explicit
// "provider:model" entry, then a provider-level entry, then 1.
// Caller must hold the mutex.
func (s *Scheduler) semaphoreForLocked(provider, model string) *semaphore {
	key := provider + ":" + model
	if sem, ok := s.semaphores[key]; ok {
		return sem
	}

	limit := 1
	if l, ok := s.concurrency[key]; ok {
		limit = l
	} else if l, ok := s.concurrency[provider]; ok {
		limit = l
	}

	sem := newSemaphore(limit)
	s.semaphores[key] = sem
	return sem
}

// ensureDrainLocked starts a drain loop for the provider unless one is
// already running. Caller must hold the mutex.
func (s *Scheduler) ensureDrainLocked(p *providerState) {
	if p.drain != nil {
		return
	}
	handle := &drainHandle{stop: make(chan struct{})}
	p.drain = handle
	go s.drainProvider(p, handle)
}

// stopDrainsLocked cancels every running drain loop and clears the
// processing markers. Caller must hold the mutex.
func (s *Scheduler) stopDrainsLocked() {
	for _, p := range s.providers {
		if p.drain != nil {
			close(p.drain.stop)
			p.drain = nil
		}
	}
}
