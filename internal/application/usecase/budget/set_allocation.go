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

// SetAllocationInput represents the input for an allocation edit. When
// CareItemSlug is empty the allocation applies at category granularity;
// category-level allocation is independent of the sum of its item
// allocations, so categories can be allocated in bulk before items are
// itemized.
type SetAllocationInput struct {
	ClientID     uuid.UUID
	Year         int
	CategoryID   string
	CategoryName string
	CareItemSlug string
	ItemLabel    string
	Amount       entity.Money
}

// SetAllocationOutput represents the output of an allocation edit.
type SetAllocationOutput struct {
	Year *entity.BudgetYear
}

// SetAllocationUseCase sets allocation at item or category granularity.
// Setting a category allocation declares the category when it does not
// exist yet; item-level allocation requires a declared category.
type SetAllocationUseCase struct {
	budgetRepo adapter.BudgetYearRepository
	cache      adapter.BudgetSummaryCache
}

// NewSetAllocationUseCase creates a new SetAllocationUseCase instance.
// The cache is optional and may be nil.
func NewSetAllocationUseCase(budgetRepo adapter.BudgetYearRepository, cache adapter.BudgetSummaryCache) *SetAllocationUseCase {
	return &SetAllocationUseCase{
		budgetRepo: budgetRepo,
		cache:      cache,
	}
}

// Execute performs the allocation edit.
func (uc *SetAllocationUseCase) Execute(ctx context.Context, input SetAllocationInput) (*SetAllocationOutput, error) {
	if input.Amount < 0 {
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeNegativeAllocation,
			fmt.Sprintf("allocation amount %d is negative", input.Amount),
			domainerror.ErrNegativeAllocation,
		)
	}
	slug := entity.NormalizeSlug(input.CareItemSlug)

	year, err := uc.budgetRepo.Mutate(ctx, input.ClientID, input.Year, func(b *entity.BudgetYear) error {
		category := b.FindCategory(input.CategoryID)

		if slug == "" {
			if category == nil {
				b.Categories = append(b.Categories, entity.BudgetCategory{
					CategoryID:   input.CategoryID,
					CategoryName: input.CategoryName,
				})
				category = &b.Categories[len(b.Categories)-1]
			}
			category.Allocated = input.Amount
			if input.CategoryName != "" {
				category.CategoryName = input.CategoryName
			}
			b.RecomputeTotals()
			return nil
		}

		if category == nil {
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
			})
			item = &category.Items[len(category.Items)-1]
		}
		item.Allocated = input.Amount
		if input.ItemLabel != "" {
			item.Label = input.ItemLabel
		}

		b.RecomputeTotals()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, input.ClientID, input.Year)
	return &SetAllocationOutput{Year: year}, nil
}

func (uc *SetAllocationUseCase) invalidate(ctx context.Context, clientID uuid.UUID, year int) {
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
