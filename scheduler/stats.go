package scheduler

import "strings"

// ModelStats reports one (provider, model) semaphore's occupancy.
type ModelStats struct {
	Active int
	Max    int
}

// ProviderStats is a read-only snapshot of one provider's state.
type ProviderStats struct {
	Tokens       float64
	Limit        int
	QueueLength  int
	IsProcessing bool

	// Lifetime counters since the last Configure/Reset
	Launched  int
	Completed int
	Failed    int

	// Per-model semaphore occupancy, present only for models already
	// seen by AcquireForModel
	Models map[string]ModelStats
}

// SchedulerStats aggregates per-provider snapshots.
type SchedulerStats struct {
	Providers   map[string]ProviderStats
	TotalQueued int
}

// QueueStatus is the per-provider entry in a ClearQueueResult.
type QueueStatus struct {
	QueueLength  int
	IsProcessing bool
}

// ClearQueueResult reports what ClearQueue did.
type ClearQueueResult struct {
	ClearedTasks       int
	CancelledProviders []string
	Providers          map[string]QueueStatus
}

// GetStats returns a snapshot of every provider. Reading token counts
// refills the buckets for elapsed time but mutates nothing else.
func (s *Scheduler) GetStats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SchedulerStats{
		Providers: make(map[string]ProviderStats, len(s.providers)),
	}

	for name, p := range s.providers {
		tokens, limit := p.bucket.Snapshot()
		queueLength := p.queue.Size()

		var models map[string]ModelStats
		prefix := name + ":"
		for key, sem := range s.semaphores {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if models == nil {
				models = make(map[string]ModelStats)
			}
			active, max := sem.Snapshot()
			models[strings.TrimPrefix(key, prefix)] = ModelStats{Active: active, Max: max}
		}

		stats.Providers[name] = ProviderStats{
			Tokens:       tokens,
			Limit:        limit,
			QueueLength:  queueLength,
			IsProcessing: p.drain != nil,
			Launched:     p.launched,
			Completed:    p.completed,
			Failed:       p.failed,
			Models:       models,
		}
		stats.TotalQueued += queueLength
	}

	return stats
}
