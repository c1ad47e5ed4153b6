// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "time"

// Clock supplies the current time. Status resolution and rollover
// eligibility depend on "today", so the source is injected rather than
// read from the wall clock directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
