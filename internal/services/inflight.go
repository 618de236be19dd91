package services

import (
	"fmt"
	"sync"

	"github.com/caffeinepub/ace8win-3/internal/models"
)

// ErrAlreadyInFlight refuses a duplicate submission while the first one is
// still running. The equivalent of a disabled submit button.
type ErrAlreadyInFlight struct {
	Action string
}

func (e *ErrAlreadyInFlight) Error() string {
	return fmt.Sprintf("%s is already in progress", e.Action)
}

// InFlightTracker marks a (principal, action) pair as in flight from upload
// start to remote-call completion. The returned done func must be deferred so
// that completion, success or failure, always clears the mark; no path may
// leave a submission permanently "in progress".
type InFlightTracker struct {
	mu     sync.Mutex
	active map[string]bool
}

func NewInFlightTracker() *InFlightTracker {
	return &InFlightTracker{active: make(map[string]bool)}
}

func (t *InFlightTracker) Begin(principal models.Principal, action string) (func(), error) {
	key := string(principal) + "|" + action
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[key] {
		return nil, &ErrAlreadyInFlight{Action: action}
	}
	t.active[key] = true
	var once sync.Once
	done := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, key)
			t.mu.Unlock()
		})
	}
	return done, nil
}

func (t *InFlightTracker) InFlight(principal models.Principal, action string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[string(principal)+"|"+action]
}
