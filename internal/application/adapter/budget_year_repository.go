// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// BudgetYearRepository defines the interface for budget-year persistence
// operations. Identity is (clientID, year) and is enforced by a
// uniqueness constraint at the storage layer.
type BudgetYearRepository interface {
	// Create inserts a new budget year.
	Create(ctx context.Context, year *entity.BudgetYear) error

	// FindByClientAndYear retrieves a client's budget year, or
	// ErrBudgetYearNotFound.
	FindByClientAndYear(ctx context.Context, clientID uuid.UUID, year int) (*entity.BudgetYear, error)

	// FindByClient retrieves all budget years for a client, most recent
	// first.
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.BudgetYear, error)

	// Mutate loads the budget year for (clientID, year), creating an empty
	// one when absent, applies fn to it, and saves it back under the
	// document's optimistic version. Version conflicts are retried a
	// bounded number of times with backoff; exhaustion surfaces
	// ErrConcurrencyConflict. An error from fn aborts the mutation and
	// leaves stored state unchanged.
	Mutate(ctx context.Context, clientID uuid.UUID, year int, fn func(*entity.BudgetYear) error) (*entity.BudgetYear, error)
}
