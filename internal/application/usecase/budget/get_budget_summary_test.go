package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

type summaryCacheKey struct {
	clientID uuid.UUID
	year     int
}

// fakeSummaryCache records cache traffic so tests can assert on the
// read-through and invalidation flows without a redis instance.
type fakeSummaryCache struct {
	entries map[summaryCacheKey]*entity.BudgetSummary
	gets    int
	sets    int
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[summaryCacheKey]*entity.BudgetSummary)}
}

func (c *fakeSummaryCache) Get(_ context.Context, clientID uuid.UUID, year int) (*entity.BudgetSummary, bool, error) {
	c.gets++
	summary, ok := c.entries[summaryCacheKey{clientID: clientID, year: year}]
	return summary, ok, nil
}

func (c *fakeSummaryCache) Set(_ context.Context, clientID uuid.UUID, year int, summary *entity.BudgetSummary) error {
	c.sets++
	c.entries[summaryCacheKey{clientID: clientID, year: year}] = summary
	return nil
}

func (c *fakeSummaryCache) Invalidate(_ context.Context, clientID uuid.UUID, year int) error {
	delete(c.entries, summaryCacheKey{clientID: clientID, year: year})
	return nil
}

func TestGetBudgetSummaryUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("reports surplus and flags overspent categories", func(t *testing.T) {
		clientID := uuid.New()
		repo, applySpend := newBudgetFixture(t, clientID)
		uc := NewGetBudgetSummaryUseCase(repo, nil)

		if _, err := applySpend.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 75000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Summary.Surplus != 60000-75000 {
			t.Errorf("expected surplus %d, got %d", 60000-75000, out.Summary.Surplus)
		}
		if len(out.Summary.Categories) != 1 {
			t.Fatalf("expected 1 category, got %d", len(out.Summary.Categories))
		}
		if !out.Summary.Categories[0].Overspent {
			t.Error("expected appointments to be flagged overspent")
		}
	})

	t.Run("within-allocation spend is not flagged", func(t *testing.T) {
		clientID := uuid.New()
		repo, applySpend := newBudgetFixture(t, clientID)
		uc := NewGetBudgetSummaryUseCase(repo, nil)

		if _, err := applySpend.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 12000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Summary.Categories[0].Overspent {
			t.Error("expected no overspend flag at 12000 of 60000")
		}
	})

	t.Run("unknown year fails with not found", func(t *testing.T) {
		repo := memory.NewBudgetYearRepository()
		uc := NewGetBudgetSummaryUseCase(repo, nil)

		_, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: uuid.New(), Year: 2025})
		if !errors.Is(err, domainerror.ErrBudgetYearNotFound) {
			t.Errorf("expected ErrBudgetYearNotFound, got %v", err)
		}
	})

	t.Run("drifted rollup is surfaced, never repaired", func(t *testing.T) {
		clientID := uuid.New()
		repo, applySpend := newBudgetFixture(t, clientID)
		uc := NewGetBudgetSummaryUseCase(repo, nil)

		if _, err := applySpend.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 12000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Corrupt the cached totals behind the rollup's back.
		if _, err := repo.Mutate(ctx, clientID, 2025, func(b *entity.BudgetYear) error {
			b.Totals.Spent += 1
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if !errors.Is(err, domainerror.ErrRollupMismatch) {
			t.Errorf("expected ErrRollupMismatch, got %v", err)
		}
	})

	t.Run("second read is served from the cache", func(t *testing.T) {
		clientID := uuid.New()
		repo, _ := newBudgetFixture(t, clientID)
		cache := newFakeSummaryCache()
		uc := NewGetBudgetSummaryUseCase(repo, cache)

		first, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cache.sets != 1 {
			t.Errorf("expected one cache fill, got %d", cache.sets)
		}
		if first.Summary.Surplus != second.Summary.Surplus {
			t.Errorf("cached summary diverged: %d vs %d", first.Summary.Surplus, second.Summary.Surplus)
		}
	})

	t.Run("a write invalidates the cached summary", func(t *testing.T) {
		clientID := uuid.New()
		repo, _ := newBudgetFixture(t, clientID)
		cache := newFakeSummaryCache()
		uc := NewGetBudgetSummaryUseCase(repo, cache)
		applySpend := NewApplySpendDeltaUseCase(repo, cache)

		if _, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := applySpend.Execute(ctx, ApplySpendDeltaInput{
			ClientID: clientID, Year: 2025, CategoryID: "appointments", CareItemSlug: "dental-appt", Delta: 12000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, err := uc.Execute(ctx, GetBudgetSummaryInput{ClientID: clientID, Year: 2025})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Summary.Surplus != 48000 {
			t.Errorf("expected fresh surplus 48000 after invalidation, got %d", out.Summary.Surplus)
		}
	})
}
