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

// GetBudgetSummaryInput represents the input for a budget summary read.
type GetBudgetSummaryInput struct {
	ClientID uuid.UUID
	Year     int
}

// GetBudgetSummaryOutput represents the output of a budget summary read.
type GetBudgetSummaryOutput struct {
	Summary *entity.BudgetSummary
}

// GetBudgetSummaryUseCase builds the read model for one budget year:
// the nested document plus derived surplus and per-category overspend
// flags. Overspend is a reportable condition, not an error.
type GetBudgetSummaryUseCase struct {
	budgetRepo adapter.BudgetYearRepository
	cache      adapter.BudgetSummaryCache
}

// NewGetBudgetSummaryUseCase creates a new GetBudgetSummaryUseCase instance.
// The cache is optional and may be nil.
func NewGetBudgetSummaryUseCase(budgetRepo adapter.BudgetYearRepository, cache adapter.BudgetSummaryCache) *GetBudgetSummaryUseCase {
	return &GetBudgetSummaryUseCase{
		budgetRepo: budgetRepo,
		cache:      cache,
	}
}

// Execute performs the budget summary read.
func (uc *GetBudgetSummaryUseCase) Execute(ctx context.Context, input GetBudgetSummaryInput) (*GetBudgetSummaryOutput, error) {
	if uc.cache != nil {
		cached, hit, err := uc.cache.Get(ctx, input.ClientID, input.Year)
		if err != nil {
			slog.Warn("Budget summary cache read failed",
				"client_id", input.ClientID,
				"year", input.Year,
				"error", err,
			)
		} else if hit {
			return &GetBudgetSummaryOutput{Summary: cached}, nil
		}
	}

	year, err := uc.budgetRepo.FindByClientAndYear(ctx, input.ClientID, input.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget year: %w", err)
	}

	// A drift between cached totals and leaf sums means a writer bypassed
	// the rollup. Surface it; silently repairing would hide a real bug.
	if year.RollupDrift() {
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeRollupMismatch,
			fmt.Sprintf("budget year %d for client %s has drifted totals", input.Year, input.ClientID),
			domainerror.ErrRollupMismatch,
		)
	}

	summary := &entity.BudgetSummary{
		Year:    year,
		Surplus: year.AnnualAllocated + year.OpeningCarryover - year.Totals.Spent,
	}
	for _, cat := range year.Categories {
		summary.Categories = append(summary.Categories, entity.BudgetCategorySummary{
			Category:  cat,
			Overspent: cat.Spent > cat.Allocated,
		})
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, input.ClientID, input.Year, summary); err != nil {
			slog.Warn("Budget summary cache write failed",
				"client_id", input.ClientID,
				"year", input.Year,
				"error", err,
			)
		}
	}
	return &GetBudgetSummaryOutput{Summary: summary}, nil
}
