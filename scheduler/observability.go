package scheduler

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// Task lifecycle events
	EventTaskEnqueued  EventType = "task_enqueued"
	EventTaskStarted   EventType = "task_started"
	EventTaskCompleted EventType = "task_completed"
	EventTaskFailed    EventType = "task_failed"
	EventTaskCancelled EventType = "task_cancelled"

	// Queue-level events
	EventQueueCleared EventType = "queue_cleared"
)

type Event struct {
	Type      EventType      `json:"type"`
	TaskID    string         `json:"task_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Events returns the event channel for external listeners, such as a
// stats display driving a cancel button.
func (s *Scheduler) Events() <-chan *Event {
	return s.eventChan
}

// emitEvent sends an event to the event channel (non-blocking)
func (s *Scheduler) emitEvent(eventType EventType, taskID uuid.UUID, data map[string]any) {
	if s.stopped.Load() {
		return
	}

	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	if taskID != uuid.Nil {
		event.TaskID = taskID.String()
	}

	select {
	case s.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, drop event to avoid blocking
	}
}
