package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQueueCleared settles tasks that were still queued when
// ClearQueue(true) ran. Callers can distinguish "my task never started"
// from "my task ran and failed" with errors.Is.
var ErrQueueCleared = errors.New("task rejected: queue cleared before execution")

// UnconfiguredProviderError is returned by Acquire and TryAcquire when the
// provider key was not part of the last Configure call.
type UnconfiguredProviderError struct {
	Provider   string
	Configured []string
}

func (e *UnconfiguredProviderError) Error() string {
	if len(e.Configured) == 0 {
		return fmt.Sprintf("provider %q is not configured (no providers configured, call Configure first)", e.Provider)
	}
	return fmt.Sprintf("provider %q is not configured (configured providers: %s)",
		e.Provider, strings.Join(e.Configured, ", "))
}
