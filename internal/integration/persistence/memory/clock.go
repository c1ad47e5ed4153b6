package memory

import (
	"sync"
	"time"

	"github.com/care-plan/backend/internal/application/adapter"
)

// Clock is a settable adapter.Clock for tests: "today" is whatever the
// test says it is.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock fixed at the given time.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

var _ adapter.Clock = (*Clock)(nil)

// Now returns the configured time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
