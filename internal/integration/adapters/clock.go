// Package adapters provides integration-layer implementations of
// application service interfaces.
package adapters

import (
	"time"

	"github.com/care-plan/backend/internal/application/adapter"
)

// systemClock is the production adapter.Clock backed by the wall clock.
type systemClock struct{}

// NewSystemClock creates the wall-clock Clock implementation.
func NewSystemClock() adapter.Clock {
	return systemClock{}
}

// Now returns the current UTC time.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
