package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

func TestSetAllocationUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("category-level allocation declares the category", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAllocationUseCase(repo, nil)

		out, err := uc.Execute(ctx, SetAllocationInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "therapy",
			CategoryName: "Therapy",
			Amount:       30000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cat := out.Year.FindCategory("therapy")
		if cat == nil {
			t.Fatal("expected therapy category to be declared")
		}
		if cat.Allocated != 30000 || cat.CategoryName != "Therapy" {
			t.Errorf("expected 30000/Therapy, got %d/%s", cat.Allocated, cat.CategoryName)
		}
		if out.Year.Totals.Allocated != 30000 {
			t.Errorf("expected totals allocated 30000, got %d", out.Year.Totals.Allocated)
		}
	})

	t.Run("item-level allocation requires a declared category", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAllocationUseCase(repo, nil)

		_, err := uc.Execute(ctx, SetAllocationInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "therapy",
			CareItemSlug: "physio",
			Amount:       5000,
		})
		if !errors.Is(err, domainerror.ErrUnknownCategory) {
			t.Fatalf("expected ErrUnknownCategory, got %v", err)
		}
	})

	t.Run("item allocation is independent of the category bulk figure", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAllocationUseCase(repo, nil)

		if _, err := uc.Execute(ctx, SetAllocationInput{
			ClientID: clientID, Year: 2025, CategoryID: "therapy", CategoryName: "Therapy", Amount: 30000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := uc.Execute(ctx, SetAllocationInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "therapy",
			CareItemSlug: "Physio",
			ItemLabel:    "Physiotherapy",
			Amount:       5000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cat := out.Year.FindCategory("therapy")
		item := cat.FindItem("physio")
		if item == nil {
			t.Fatal("expected physio item, slug lookup must be case-insensitive")
		}
		if item.Allocated != 5000 {
			t.Errorf("expected item allocation 5000, got %d", item.Allocated)
		}
		if cat.Allocated != 30000 {
			t.Errorf("item allocation must not disturb the category figure, got %d", cat.Allocated)
		}
	})

	t.Run("re-setting an allocation overwrites rather than accumulates", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAllocationUseCase(repo, nil)

		if _, err := uc.Execute(ctx, SetAllocationInput{
			ClientID: clientID, Year: 2025, CategoryID: "therapy", CategoryName: "Therapy", Amount: 30000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := uc.Execute(ctx, SetAllocationInput{
			ClientID: clientID, Year: 2025, CategoryID: "therapy", Amount: 20000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cat := out.Year.FindCategory("therapy"); cat.Allocated != 20000 {
			t.Errorf("expected 20000, got %d", cat.Allocated)
		}
	})

	t.Run("negative allocation is rejected", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAllocationUseCase(repo, nil)

		_, err := uc.Execute(ctx, SetAllocationInput{
			ClientID: clientID, Year: 2025, CategoryID: "therapy", Amount: -1,
		})
		if !errors.Is(err, domainerror.ErrNegativeAllocation) {
			t.Errorf("expected ErrNegativeAllocation, got %v", err)
		}
	})
}

func TestSetAnnualAllocationUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the annual envelope and refreshes the surplus", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAnnualAllocationUseCase(repo, nil)

		out, err := uc.Execute(ctx, SetAnnualAllocationInput{ClientID: clientID, Year: 2025, Amount: 120000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Year.AnnualAllocated != 120000 {
			t.Errorf("expected 120000, got %d", out.Year.AnnualAllocated)
		}
		if out.Year.Surplus != 120000 {
			t.Errorf("expected surplus 120000 with no spend, got %d", out.Year.Surplus)
		}
	})

	t.Run("negative envelope is rejected", func(t *testing.T) {
		clientID := uuid.New()
		repo := memory.NewBudgetYearRepository()
		uc := NewSetAnnualAllocationUseCase(repo, nil)

		_, err := uc.Execute(ctx, SetAnnualAllocationInput{ClientID: clientID, Year: 2025, Amount: -50})
		if !errors.Is(err, domainerror.ErrNegativeAllocation) {
			t.Errorf("expected ErrNegativeAllocation, got %v", err)
		}
	})
}
