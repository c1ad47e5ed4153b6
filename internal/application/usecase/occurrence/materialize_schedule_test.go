package occurrence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
	"github.com/care-plan/backend/internal/integration/persistence/memory"
)

func TestMaterializeScheduleUseCase(t *testing.T) {
	ctx := context.Background()

	newSweep := func(t *testing.T, clientID uuid.UUID, catalog *memory.CareItemCatalog, today time.Time) (*MaterializeScheduleUseCase, *memory.OccurrenceRepository) {
		t.Helper()
		repo := memory.NewOccurrenceRepository()
		materialize := NewMaterializeOccurrenceUseCase(repo, catalog)
		clock := memory.NewClock(today)
		return NewMaterializeScheduleUseCase(catalog, repo, materialize, clock), repo
	}

	t.Run("materializes due dates from the rule start up to the horizon", func(t *testing.T) {
		clientID := uuid.New()
		catalog := memory.NewCareItemCatalog()
		start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		catalog.Put(entity.NewCareItem(clientID, "physio", "Physiotherapy", "therapy", entity.RecurrenceRule{
			Count:     1,
			Unit:      entity.RecurrenceUnitMonth,
			StartDate: &start,
		}))
		today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		sweep, _ := newSweep(t, clientID, catalog, today)

		out, err := sweep.Execute(ctx, MaterializeScheduleInput{
			ClientID: clientID,
			Horizon:  time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Feb 1, Mar 1, Apr 1.
		if len(out.Entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(out.Entries))
		}
		if out.Entries[0].Status != entity.DisplayStatusOverdue {
			t.Errorf("expected Feb occurrence overdue, got %s", out.Entries[0].Status)
		}
		if out.Entries[2].Status != entity.DisplayStatusPending {
			t.Errorf("expected Apr occurrence pending, got %s", out.Entries[2].Status)
		}
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		clientID := uuid.New()
		catalog := memory.NewCareItemCatalog()
		start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		catalog.Put(entity.NewCareItem(clientID, "physio", "Physiotherapy", "therapy", entity.RecurrenceRule{
			Count:     1,
			Unit:      entity.RecurrenceUnitMonth,
			StartDate: &start,
		}))
		today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		sweep, _ := newSweep(t, clientID, catalog, today)
		horizon := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

		first, err := sweep.Execute(ctx, MaterializeScheduleInput{ClientID: clientID, Horizon: horizon})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := sweep.Execute(ctx, MaterializeScheduleInput{ClientID: clientID, Horizon: horizon})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Entries) != len(second.Entries) {
			t.Errorf("expected stable entry count, got %d then %d", len(first.Entries), len(second.Entries))
		}
	})

	t.Run("anchors on the last completion", func(t *testing.T) {
		clientID := uuid.New()
		catalog := memory.NewCareItemCatalog()
		start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		catalog.Put(entity.NewCareItem(clientID, "dental-appt", "Dental Appointment", "appointments", entity.RecurrenceRule{
			Count:     3,
			Unit:      entity.RecurrenceUnitMonth,
			StartDate: &start,
		}))
		today := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		sweep, repo := newSweep(t, clientID, catalog, today)

		// Completed on Jan 15; the next due is Apr 15.
		completed := entity.NewOccurrence(clientID, "dental-appt", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
		if err := repo.Create(ctx, completed); err != nil {
			t.Fatalf("failed to seed occurrence: %v", err)
		}
		if _, err := repo.MarkCompleted(ctx, completed.ID, completed.Date, nil); err != nil {
			t.Fatalf("failed to complete occurrence: %v", err)
		}

		out, err := sweep.Execute(ctx, MaterializeScheduleInput{
			ClientID: clientID,
			Horizon:  time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var found bool
		for _, entry := range out.Entries {
			if entry.Occurrence.DateKey == "2025-04-15" && entry.Occurrence.Status == entity.OccurrenceStatusDue {
				found = true
			}
		}
		if !found {
			t.Error("expected a due occurrence on 2025-04-15")
		}
	})

	t.Run("items with unsatisfiable rules are skipped, not fatal", func(t *testing.T) {
		clientID := uuid.New()
		catalog := memory.NewCareItemCatalog()
		start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		catalog.Put(entity.NewCareItem(clientID, "physio", "Physiotherapy", "therapy", entity.RecurrenceRule{
			Count:     1,
			Unit:      entity.RecurrenceUnitMonth,
			StartDate: &start,
		}))
		// No start date and no history: unsatisfiable.
		catalog.Put(entity.NewCareItem(clientID, "orphan-item", "Orphan", "therapy", entity.RecurrenceRule{
			Count: 1,
			Unit:  entity.RecurrenceUnitWeek,
		}))
		today := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
		sweep, _ := newSweep(t, clientID, catalog, today)

		out, err := sweep.Execute(ctx, MaterializeScheduleInput{
			ClientID: clientID,
			Horizon:  time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Skipped) != 1 || out.Skipped[0].CareItemSlug != "orphan-item" {
			t.Errorf("expected orphan-item to be skipped, got %+v", out.Skipped)
		}
		if len(out.Entries) == 0 {
			t.Error("expected the satisfiable item to still be scheduled")
		}
	})
}
