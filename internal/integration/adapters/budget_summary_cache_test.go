package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/care-plan/backend/internal/domain/entity"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *budgetSummaryCache) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, &budgetSummaryCache{client: client, ttl: time.Minute}
}

func sampleSummary(clientID uuid.UUID, year int) *entity.BudgetSummary {
	budgetYear := entity.NewBudgetYear(clientID, year)
	budgetYear.AnnualAllocated = 60000
	budgetYear.Categories = []entity.BudgetCategory{
		{
			CategoryID:   "appointments",
			CategoryName: "Appointments",
			Allocated:    60000,
			Items: []entity.BudgetItem{
				{CareItemSlug: "dental-appt", Label: "Dental Appointment", Spent: 12000},
			},
		},
	}
	budgetYear.RecomputeTotals()

	return &entity.BudgetSummary{
		Year:    budgetYear,
		Surplus: budgetYear.Surplus,
		Categories: []entity.BudgetCategorySummary{
			{Category: budgetYear.Categories[0], Overspent: false},
		},
	}
}

func TestBudgetSummaryCache(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("miss before any write", func(t *testing.T) {
		_, cache := newTestCache(t)

		_, hit, err := cache.Get(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hit {
			t.Error("expected a cache miss")
		}
	})

	t.Run("set then get round-trips the summary", func(t *testing.T) {
		_, cache := newTestCache(t)
		summary := sampleSummary(clientID, 2025)

		if err := cache.Set(ctx, clientID, 2025, summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, hit, err := cache.Get(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hit {
			t.Fatal("expected a cache hit")
		}
		if got.Surplus != summary.Surplus {
			t.Errorf("expected surplus %d, got %d", summary.Surplus, got.Surplus)
		}
		if len(got.Categories) != 1 || got.Categories[0].Category.CategoryID != "appointments" {
			t.Errorf("unexpected categories: %+v", got.Categories)
		}
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		_, cache := newTestCache(t)

		if err := cache.Set(ctx, clientID, 2025, sampleSummary(clientID, 2025)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cache.Invalidate(ctx, clientID, 2025); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, hit, err := cache.Get(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hit {
			t.Error("expected a miss after invalidation")
		}
	})

	t.Run("entries expire after the backstop TTL", func(t *testing.T) {
		server, cache := newTestCache(t)

		if err := cache.Set(ctx, clientID, 2025, sampleSummary(clientID, 2025)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		server.FastForward(2 * time.Minute)

		_, hit, err := cache.Get(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hit {
			t.Error("expected a miss after TTL expiry")
		}
	})

	t.Run("years are cached independently", func(t *testing.T) {
		_, cache := newTestCache(t)

		if err := cache.Set(ctx, clientID, 2024, sampleSummary(clientID, 2024)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cache.Set(ctx, clientID, 2025, sampleSummary(clientID, 2025)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cache.Invalidate(ctx, clientID, 2024); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, hit, err := cache.Get(ctx, clientID, 2025)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hit {
			t.Error("expected 2025 to survive 2024 invalidation")
		}
	})
}
