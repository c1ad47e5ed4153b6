// Package occurrence contains occurrence-related use cases.
package occurrence

import (
	"time"

	"github.com/care-plan/backend/internal/domain/entity"
)

// ResolveStatus derives the display status of an occurrence from its
// stored status and the current date. It is pure and is recomputed on
// every read, never cached: "overdue" is a function of the wall-clock
// date, not of stored state.
func ResolveStatus(occurrence *entity.Occurrence, today time.Time) entity.DisplayStatus {
	if occurrence.IsCompleted() {
		return entity.DisplayStatusCompleted
	}
	if entity.NormalizeDate(occurrence.Date).Before(entity.NormalizeDate(today)) {
		return entity.DisplayStatusOverdue
	}
	return entity.DisplayStatusPending
}
