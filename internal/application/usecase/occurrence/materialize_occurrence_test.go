package occurrence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

func seedCatalog(t *testing.T, clientID uuid.UUID) *memory.CareItemCatalog {
	t.Helper()

	catalog := memory.NewCareItemCatalog()
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	catalog.Put(entity.NewCareItem(clientID, "dental-appt", "Dental Appointment", "appointments", entity.RecurrenceRule{
		Count:     3,
		Unit:      entity.RecurrenceUnitMonth,
		StartDate: &start,
	}))
	return catalog
}

func TestMaterializeOccurrenceUseCase(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	date := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)

	t.Run("creates a Due occurrence on first call", func(t *testing.T) {
		repo := memory.NewOccurrenceRepository()
		uc := NewMaterializeOccurrenceUseCase(repo, seedCatalog(t, clientID))

		out, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "dental-appt", Date: date})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Created {
			t.Error("expected Created to be true")
		}
		if out.Occurrence.Status != entity.OccurrenceStatusDue {
			t.Errorf("expected status due, got %s", out.Occurrence.Status)
		}
		if out.Occurrence.DateKey != "2025-04-15" {
			t.Errorf("expected date key 2025-04-15, got %s", out.Occurrence.DateKey)
		}
	})

	t.Run("second call returns the same occurrence without creating", func(t *testing.T) {
		repo := memory.NewOccurrenceRepository()
		uc := NewMaterializeOccurrenceUseCase(repo, seedCatalog(t, clientID))

		first, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "dental-appt", Date: date})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "dental-appt", Date: date})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Created {
			t.Error("expected Created to be false on repeat")
		}
		if first.Occurrence.ID != second.Occurrence.ID {
			t.Errorf("expected same occurrence id, got %s and %s", first.Occurrence.ID, second.Occurrence.ID)
		}
	})

	t.Run("slug identity is case-insensitive", func(t *testing.T) {
		repo := memory.NewOccurrenceRepository()
		uc := NewMaterializeOccurrenceUseCase(repo, seedCatalog(t, clientID))

		first, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "Dental-Appt", Date: date})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "DENTAL-APPT", Date: date})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Occurrence.ID != second.Occurrence.ID {
			t.Error("expected case variants to resolve to the same occurrence")
		}
		if first.Occurrence.CareItemSlug != "dental-appt" {
			t.Errorf("expected normalized slug, got %q", first.Occurrence.CareItemSlug)
		}
	})

	t.Run("rejects dates past the rule range end", func(t *testing.T) {
		repo := memory.NewOccurrenceRepository()
		catalog := memory.NewCareItemCatalog()
		end := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		catalog.Put(entity.NewCareItem(clientID, "bounded-item", "Bounded", "appointments", entity.RecurrenceRule{
			Count:    1,
			Unit:     entity.RecurrenceUnitMonth,
			RangeEnd: &end,
		}))
		uc := NewMaterializeOccurrenceUseCase(repo, catalog)

		_, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "bounded-item", Date: date})
		if !errors.Is(err, domainerror.ErrOccurrencePastRangeEnd) {
			t.Errorf("expected ErrOccurrencePastRangeEnd, got %v", err)
		}
	})

	t.Run("concurrent materialization produces exactly one occurrence", func(t *testing.T) {
		repo := memory.NewOccurrenceRepository()
		uc := NewMaterializeOccurrenceUseCase(repo, seedCatalog(t, clientID))

		const carers = 16
		ids := make([]uuid.UUID, carers)
		var wg sync.WaitGroup
		wg.Add(carers)
		for i := 0; i < carers; i++ {
			go func(i int) {
				defer wg.Done()
				out, err := uc.Execute(ctx, MaterializeOccurrenceInput{ClientID: clientID, CareItemSlug: "dental-appt", Date: date})
				if err != nil {
					t.Errorf("goroutine %d: unexpected error: %v", i, err)
					return
				}
				ids[i] = out.Occurrence.ID
			}(i)
		}
		wg.Wait()

		for i := 1; i < carers; i++ {
			if ids[i] != ids[0] {
				t.Fatalf("goroutine %d got a different occurrence id", i)
			}
		}
	})
}
