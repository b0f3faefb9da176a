package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation is the unit of work submitted to the scheduler, typically a
// closure around one vendor API call. The scheduler never inspects the
// value; it only routes it to the task's future.
type Operation func() (any, error)

// Result carries the outcome of one task's operation.
type Result struct {
	Value any
	Err   error
}

// Task is the future handed back by Acquire. It settles exactly once:
// with the operation's result, its error, or a cancellation error when the
// queue is cleared before the task starts.
type Task struct {
	ID uuid.UUID

	provider   string
	model      string
	priority   int
	enqueuedAt time.Time
	op         Operation

	resultChan chan Result
	settleOnce sync.Once
}

func newTask(provider, model string, priority int, op Operation) *Task {
	return &Task{
		ID:         uuid.New(),
		provider:   provider,
		model:      model,
		priority:   priority,
		enqueuedAt: time.Now(),
		op:         op,
		resultChan: make(chan Result, 1),
	}
}

// Wait blocks until the task settles and returns its result.
func (t *Task) Wait() Result {
	return <-t.resultChan
}

// Provider returns the provider key the task was enqueued under
func (t *Task) Provider() string {
	return t.provider
}

// Model returns the model tag, or empty when the task carries none
func (t *Task) Model() string {
	return t.model
}

// Priority returns the priority the task was enqueued with
func (t *Task) Priority() int {
	return t.priority
}

// EnqueuedAt returns when the task entered the queue
func (t *Task) EnqueuedAt() time.Time {
	return t.enqueuedAt
}

// settle resolves the future. Subsequent calls are no-ops, which keeps
// cancellation and completion from double-settling the same task.
func (t *Task) settle(result Result) {
	t.settleOnce.Do(func() {
		t.resultChan <- result
	})
}
