// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// BudgetSummaryCache is an optional read cache for budget summaries.
// Writes to a budget year must invalidate its cached summary in the same
// flow; the cache is never a second source of truth.
type BudgetSummaryCache interface {
	// Get retrieves a cached summary; the second return value reports a hit.
	Get(ctx context.Context, clientID uuid.UUID, year int) (*entity.BudgetSummary, bool, error)

	// Set stores a summary.
	Set(ctx context.Context, clientID uuid.UUID, year int, summary *entity.BudgetSummary) error

	// Invalidate drops the cached summary for a budget year.
	Invalidate(ctx context.Context, clientID uuid.UUID, year int) error
}
