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

// ApplySpendDeltaInput represents the input for a spend mutation.
// Delta is in minor units and may be negative for corrections.
type ApplySpendDeltaInput struct {
	ClientID     uuid.UUID
	Year         int
	CategoryID   string
	CareItemSlug string
	ItemLabel    string
	Delta        entity.Money
}

// ApplySpendDeltaOutput represents the output of a spend mutation.
type ApplySpendDeltaOutput struct {
	Year *entity.BudgetYear
}

// ApplySpendDeltaUseCase adds a spend delta to a budget item and
// recomputes the category and year rollups in the same mutation. The
// leaves are the source of truth; totals is a derived index over them
// and is never updated independently.
type ApplySpendDeltaUseCase struct {
	budgetRepo adapter.BudgetYearRepository
	cache      adapter.BudgetSummaryCache
}

// NewApplySpendDeltaUseCase creates a new ApplySpendDeltaUseCase instance.
// The cache is optional and may be nil.
func NewApplySpendDeltaUseCase(budgetRepo adapter.BudgetYearRepository, cache adapter.BudgetSummaryCache) *ApplySpendDeltaUseCase {
	return &ApplySpendDeltaUseCase{
		budgetRepo: budgetRepo,
		cache:      cache,
	}
}

// Execute performs the spend mutation.
func (uc *ApplySpendDeltaUseCase) Execute(ctx context.Context, input ApplySpendDeltaInput) (*ApplySpendDeltaOutput, error) {
	slug := entity.NormalizeSlug(input.CareItemSlug)

	year, err := uc.budgetRepo.Mutate(ctx, input.ClientID, input.Year, func(b *entity.BudgetYear) error {
		category := b.FindCategory(input.CategoryID)
		if category == nil {
			// Spend may only land in a pre-declared category. Item entries
			// are auto-created; categories are not.
			return domainerror.NewBudgetError(
				domainerror.ErrCodeUnknownCategory,
				fmt.Sprintf("category %q is not declared for year %d", input.CategoryID, input.Year),
				domainerror.ErrUnknownCategory,
			)
		}

		item := category.FindItem(slug)
		if item == nil {
			category.Items = append(category.Items, entity.BudgetItem{
				CareItemSlug: slug,
				Label:        input.ItemLabel,
				Allocated:    0,
			})
			item = &category.Items[len(category.Items)-1]
		}

		if item.Spent+input.Delta < 0 {
			return domainerror.NewBudgetError(
				domainerror.ErrCodeNegativeSpendViolation,
				fmt.Sprintf("delta %d would drive item %q spent below zero", input.Delta, slug),
				domainerror.ErrNegativeSpendViolation,
			)
		}
		item.Spent += input.Delta

		b.RecomputeTotals()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateSummary(ctx, input.ClientID, input.Year)
	return &ApplySpendDeltaOutput{Year: year}, nil
}

// invalidateSummary drops the cached summary for a mutated year. A cache
// failure is logged, not surfaced: the store already holds the truth.
func (uc *ApplySpendDeltaUseCase) invalidateSummary(ctx context.Context, clientID uuid.UUID, year int) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, clientID, year); err != nil {
		slog.Warn("Failed to invalidate budget summary cache",
			"client_id", clientID,
			"year", year,
			"error", err,
		)
	}
}
