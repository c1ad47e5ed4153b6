package budget

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

func newBudgetFixture(t *testing.T, clientID uuid.UUID) (*memory.BudgetYearRepository, *ApplySpendDeltaUseCase) {
	t.Helper()

	repo := memory.NewBudgetYearRepository()
	if _, err := NewSetAnnualAllocationUseCase(repo, nil).Execute(context.Background(), SetAnnualAllocationInput{
		ClientID: clientID,
		Year:     2025,
		Amount:   60000,
	}); err != nil {
		t.Fatalf("failed to seed annual allocation: %v", err)
	}
	setAllocation := NewSetAllocationUseCase(repo, nil)
	if _, err := setAllocation.Execute(context.Background(), SetAllocationInput{
		ClientID:     clientID,
		Year:         2025,
		CategoryID:   "appointments",
		CategoryName: "Appointments",
		Amount:       60000,
	}); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return repo, NewApplySpendDeltaUseCase(repo, nil)
}

func assertRollupConsistent(t *testing.T, year *entity.BudgetYear) {
	t.Helper()

	var totalSpent, totalAllocated entity.Money
	for _, cat := range year.Categories {
		var catSpent entity.Money
		for _, item := range cat.Items {
			if item.Spent < 0 {
				t.Errorf("item %q spent is negative: %d", item.CareItemSlug, item.Spent)
			}
			catSpent += item.Spent
		}
		if cat.Spent != catSpent {
			t.Errorf("category %q spent %d != item sum %d", cat.CategoryID, cat.Spent, catSpent)
		}
		totalSpent += cat.Spent
		totalAllocated += cat.Allocated
	}
	if year.Totals.Spent != totalSpent {
		t.Errorf("totals spent %d != category sum %d", year.Totals.Spent, totalSpent)
	}
	if year.Totals.Allocated != totalAllocated {
		t.Errorf("totals allocated %d != category sum %d", year.Totals.Allocated, totalAllocated)
	}
}

func TestApplySpendDeltaUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("spend rolls up through item, category, and totals", func(t *testing.T) {
		clientID := uuid.New()
		_, uc := newBudgetFixture(t, clientID)

		out, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "appointments",
			CareItemSlug: "dental-appt",
			ItemLabel:    "Dental Appointment",
			Delta:        12000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		item := out.Year.FindCategory("appointments").FindItem("dental-appt")
		if item.Spent != 12000 {
			t.Errorf("expected item spent 12000, got %d", item.Spent)
		}
		if item.Allocated != 0 {
			t.Errorf("auto-created item must have zero allocation, got %d", item.Allocated)
		}
		assertRollupConsistent(t, out.Year)
		if out.Year.Surplus != 48000 {
			t.Errorf("expected surplus 48000, got %d", out.Year.Surplus)
		}
	})

	t.Run("spend against an undeclared category is rejected", func(t *testing.T) {
		clientID := uuid.New()
		repo, uc := newBudgetFixture(t, clientID)

		_, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "transport",
			CareItemSlug: "taxi",
			Delta:        500,
		})
		if !errors.Is(err, domainerror.ErrUnknownCategory) {
			t.Fatalf("expected ErrUnknownCategory, got %v", err)
		}

		year, err := repo.FindByClientAndYear(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("failed to load budget year: %v", err)
		}
		if year.Totals.Spent != 0 {
			t.Errorf("rejected spend must leave state unchanged, got %d", year.Totals.Spent)
		}
	})

	t.Run("a delta that would go negative is rejected and state is unchanged", func(t *testing.T) {
		clientID := uuid.New()
		repo, uc := newBudgetFixture(t, clientID)

		if _, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "appointments",
			CareItemSlug: "dental-appt",
			Delta:        5000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID:     clientID,
			Year:         2025,
			CategoryID:   "appointments",
			CareItemSlug: "dental-appt",
			Delta:        -6000,
		})
		if !errors.Is(err, domainerror.ErrNegativeSpendViolation) {
			t.Fatalf("expected ErrNegativeSpendViolation, got %v", err)
		}

		year, err := repo.FindByClientAndYear(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("failed to load budget year: %v", err)
		}
		if item := year.FindCategory("appointments").FindItem("dental-appt"); item.Spent != 5000 {
			t.Errorf("expected spend unchanged at 5000, got %d", item.Spent)
		}
		assertRollupConsistent(t, year)
	})

	t.Run("negative correction within bounds is allowed", func(t *testing.T) {
		clientID := uuid.New()
		_, uc := newBudgetFixture(t, clientID)

		if _, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 5000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: -2000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item := out.Year.FindCategory("appointments").FindItem("dental-appt"); item.Spent != 3000 {
			t.Errorf("expected 3000, got %d", item.Spent)
		}
		assertRollupConsistent(t, out.Year)
	})

	t.Run("overspend is allowed and reportable, not an error", func(t *testing.T) {
		clientID := uuid.New()
		_, uc := newBudgetFixture(t, clientID)

		out, err := uc.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 99000,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Year.Surplus != 60000-99000 {
			t.Errorf("expected negative surplus %d, got %d", 60000-99000, out.Year.Surplus)
		}
	})

	t.Run("concurrent deltas reconcile exactly", func(t *testing.T) {
		clientID := uuid.New()
		repo, uc := newBudgetFixture(t, clientID)

		const writers = 25
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				if _, err := uc.Execute(ctx, ApplySpendDeltaInput{
					ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 100,
				}); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		year, err := repo.FindByClientAndYear(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("failed to load budget year: %v", err)
		}
		if year.Totals.Spent != writers*100 {
			t.Errorf("expected %d, got %d: a delta was lost", writers*100, year.Totals.Spent)
		}
		assertRollupConsistent(t, year)
	})
}
