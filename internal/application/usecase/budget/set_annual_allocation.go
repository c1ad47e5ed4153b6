// Package budget contains budget aggregation use cases.
package budget

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// SetAnnualAllocationInput represents the input for an annual envelope edit.
type SetAnnualAllocationInput struct {
	ClientID uuid.UUID
	Year     int
	Amount   entity.Money
}

// SetAnnualAllocationOutput represents the output of an annual envelope edit.
type SetAnnualAllocationOutput struct {
	Year *entity.BudgetYear
}

// SetAnnualAllocationUseCase sets the annual allocated envelope for a
// budget year. The cached surplus is refreshed in the same mutation.
type SetAnnualAllocationUseCase struct {
	budgetRepo adapter.BudgetYearRepository
	cache      adapter.BudgetSummaryCache
}

// NewSetAnnualAllocationUseCase creates a new SetAnnualAllocationUseCase instance.
// The cache is optional and may be nil.
func NewSetAnnualAllocationUseCase(budgetRepo adapter.BudgetYearRepository, cache adapter.BudgetSummaryCache) *SetAnnualAllocationUseCase {
	return &SetAnnualAllocationUseCase{
		budgetRepo: budgetRepo,
		cache:      cache,
	}
}

// Execute performs the annual envelope edit.
func (uc *SetAnnualAllocationUseCase) Execute(ctx context.Context, input SetAnnualAllocationInput) (*SetAnnualAllocationOutput, error) {
	if input.Amount < 0 {
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeNegativeAllocation,
			fmt.Sprintf("annual allocation amount %d is negative", input.Amount),
			domainerror.ErrNegativeAllocation,
		)
	}

	year, err := uc.budgetRepo.Mutate(ctx, input.ClientID, input.Year, func(b *entity.BudgetYear) error {
		b.AnnualAllocated = input.Amount
		b.RecomputeTotals()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, input.ClientID, input.Year); err != nil {
			slog.Warn("Failed to invalidate budget summary cache",
				"client_id", input.ClientID,
				"year", input.Year,
				"error", err,
			)
		}
	}
	return &SetAnnualAllocationOutput{Year: year}, nil
}
