package scheduler

import (
	"fmt"
	"time"

	"github.com/FrenchMajesty/throttle-run/rate_limit"
)

// drainHandle is the processing marker for one provider. A drain loop owns
// the marker for its whole lifetime; ClearQueue and Reset cancel a loop by
// closing stop and detaching the marker.
type drainHandle struct {
	stop chan struct{}
}

// drainProvider consumes the provider's queue in priority order, spending
// one bucket token per task. Each admitted task runs in its own goroutine
// so wrapped network calls overlap; the per-model semaphore inside the
// wrapped operation bounds that overlap.
//
// The loop exits when the queue empties (clearing the marker so the next
// Acquire starts a fresh loop) or when its handle is detached.
func (s *Scheduler) drainProvider(p *providerState, handle *drainHandle) {
	for {
		s.mu.Lock()
		if p.drain != handle {
			// Cancelled by ClearQueue or Reset
			s.mu.Unlock()
			return
		}

		task, ok := p.queue.Pop()
		if !ok {
			p.drain = nil
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if !s.waitForToken(p.bucket, handle.stop) {
			// Cancelled while waiting; the popped task never started
			task.settle(Result{Err: ErrQueueCleared})
			s.emitEvent(EventTaskCancelled, task.ID, map[string]any{
				"provider": task.provider,
			})
			return
		}

		select {
		case <-handle.stop:
			// Cancelled between the token grant and the launch
			task.settle(Result{Err: ErrQueueCleared})
			s.emitEvent(EventTaskCancelled, task.ID, map[string]any{
				"provider": task.provider,
			})
			return
		default:
		}

		s.mu.Lock()
		p.launched++
		s.mu.Unlock()

		go s.runTask(p, task)
	}
}

// waitForToken blocks until it consumes a token or the drain is cancelled.
// It sleeps for the bucket's predicted next-token delay, capped at the
// poll interval, so an idle provider adds at most one interval of latency.
func (s *Scheduler) waitForToken(bucket *rate_limit.TokenBucket, stop <-chan struct{}) bool {
	for {
		if bucket.TryConsume() {
			return true
		}

		delay := bucket.NextTokenDelay()
		if delay <= 0 || delay > s.pollInterval {
			delay = s.pollInterval
		}

		select {
		case <-stop:
			return false
		case <-time.After(delay):
		}
	}
}

// runTask executes one task's operation and settles its future. A failure
// or panic rejects only this task; the drain loop keeps going regardless.
func (s *Scheduler) runTask(p *providerState, task *Task) {
	start := time.Now()

	data := map[string]any{"provider": task.provider}
	if task.model != "" {
		data["model"] = task.model
	}
	s.emitEvent(EventTaskStarted, task.ID, data)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in task operation: %v", r)
			task.settle(Result{Err: err})
			s.recordOutcome(p, false)
			s.emitEvent(EventTaskFailed, task.ID, map[string]any{
				"provider": task.provider,
				"error":    err.Error(),
				"duration": time.Since(start).String(),
			})
		}
	}()

	value, err := task.op()
	if err != nil {
		task.settle(Result{Err: err})
		s.recordOutcome(p, false)
		s.emitEvent(EventTaskFailed, task.ID, map[string]any{
			"provider": task.provider,
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return
	}

	task.settle(Result{Value: value})
	s.recordOutcome(p, true)
	s.emitEvent(EventTaskCompleted, task.ID, map[string]any{
		"provider": task.provider,
		"duration": time.Since(start).String(),
	})
}

// runImmediate executes a TryAcquire operation inline, converting a panic
// into an error so the caller can log and swallow it.
func (s *Scheduler) runImmediate(op Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in operation: %v", r)
		}
	}()

	_, err = op()
	return err
}

// recordOutcome updates the provider's lifetime counters.
func (s *Scheduler) recordOutcome(p *providerState, succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if succeeded {
		p.completed++
	} else {
		p.failed++
	}
}
