// Package occurrence contains occurrence-related use cases.
package occurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/application/usecase/recurrence"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// MaterializeScheduleInput represents the input for a schedule sweep.
// Horizon bounds how far into the future occurrences are materialized;
// zero means today.
type MaterializeScheduleInput struct {
	ClientID uuid.UUID
	Horizon  time.Time
}

// ScheduleEntry is one occurrence with its derived display status.
type ScheduleEntry struct {
	Occurrence *entity.Occurrence
	Status     entity.DisplayStatus
}

// SkippedItem is a catalog item the sweep could not schedule, with the
// reason. An unsatisfiable rule on one item must not break the whole
// schedule view.
type SkippedItem struct {
	CareItemSlug string
	Reason       error
}

// MaterializeScheduleOutput represents the output of a schedule sweep.
type MaterializeScheduleOutput struct {
	Entries []ScheduleEntry
	Skipped []SkippedItem
}

// MaterializeScheduleUseCase walks a client's care item catalog,
// computes due dates from each item's completion history, and
// materializes the occurrences up to the horizon. Materialization is
// caller-driven: this runs on schedule-view load or on an external
// periodic trigger, never from a background daemon.
type MaterializeScheduleUseCase struct {
	catalog        adapter.CareItemCatalog
	occurrenceRepo adapter.OccurrenceRepository
	materialize    *MaterializeOccurrenceUseCase
	clock          adapter.Clock
}

// NewMaterializeScheduleUseCase creates a new MaterializeScheduleUseCase instance.
func NewMaterializeScheduleUseCase(
	catalog adapter.CareItemCatalog,
	occurrenceRepo adapter.OccurrenceRepository,
	materialize *MaterializeOccurrenceUseCase,
	clock adapter.Clock,
) *MaterializeScheduleUseCase {
	return &MaterializeScheduleUseCase{
		catalog:        catalog,
		occurrenceRepo: occurrenceRepo,
		materialize:    materialize,
		clock:          clock,
	}
}

// Execute performs the schedule sweep.
func (uc *MaterializeScheduleUseCase) Execute(ctx context.Context, input MaterializeScheduleInput) (*MaterializeScheduleOutput, error) {
	today := entity.NormalizeDate(uc.clock.Now())
	horizon := entity.NormalizeDate(input.Horizon)
	if horizon.Before(today) {
		horizon = today
	}

	items, err := uc.catalog.ListByClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list care items: %w", err)
	}

	output := &MaterializeScheduleOutput{}
	for _, item := range items {
		if err := uc.sweepItem(ctx, input.ClientID, item, horizon); err != nil {
			if errors.Is(err, domainerror.ErrIncompleteRule) {
				slog.Warn("Skipping care item with unsatisfiable rule",
					"client_id", input.ClientID,
					"care_item_slug", item.Slug,
				)
				output.Skipped = append(output.Skipped, SkippedItem{CareItemSlug: item.Slug, Reason: err})
				continue
			}
			return nil, fmt.Errorf("failed to sweep care item %q: %w", item.Slug, err)
		}
	}

	// The schedule view shows everything from the year start through the
	// horizon with freshly resolved statuses.
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	occurrences, err := uc.occurrenceRepo.FindByClientAndRange(ctx, input.ClientID, yearStart, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	for _, occ := range occurrences {
		output.Entries = append(output.Entries, ScheduleEntry{
			Occurrence: occ,
			Status:     ResolveStatus(occ, today),
		})
	}

	return output, nil
}

// sweepItem materializes every due date of one care item up to the horizon.
func (uc *MaterializeScheduleUseCase) sweepItem(ctx context.Context, clientID uuid.UUID, item *entity.CareItem, horizon time.Time) error {
	last, err := uc.occurrenceRepo.FindLastCompleted(ctx, clientID, item.Slug)
	if err != nil {
		return fmt.Errorf("failed to load completion history: %w", err)
	}

	var lastCompleted *time.Time
	if last != nil {
		lastCompleted = &last.Date
	}
	anchor, err := recurrence.Anchor(lastCompleted, item.Rule)
	if err != nil {
		return err
	}

	dueDates, err := recurrence.DueDatesUntil(anchor, item.Rule, horizon)
	if err != nil {
		return err
	}

	for _, due := range dueDates {
		if _, err := uc.materialize.Execute(ctx, MaterializeOccurrenceInput{
			ClientID:     clientID,
			CareItemSlug: item.Slug,
			Date:         due,
		}); err != nil {
			return err
		}
	}
	return nil
}
