// Package occurrence contains occurrence-related use cases.
package occurrence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/application/usecase/budget"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// RecordCompletionInput represents the input for completion recording.
// AllowRecompletion makes a repeated completion with the same cost an
// idempotent no-op instead of an error.
type RecordCompletionInput struct {
	OccurrenceID      uuid.UUID
	CompletionDate    time.Time
	Cost              *entity.Money
	AllowRecompletion bool
}

// RecordCompletionOutput represents the output of completion recording.
type RecordCompletionOutput struct {
	Occurrence *entity.Occurrence
}

// RecordCompletionUseCase transitions an occurrence to Completed and,
// when the completion carries a cost, applies the spend delta to the
// matching budget category and item.
type RecordCompletionUseCase struct {
	occurrenceRepo  adapter.OccurrenceRepository
	catalog         adapter.CareItemCatalog
	applySpendDelta *budget.ApplySpendDeltaUseCase
}

// NewRecordCompletionUseCase creates a new RecordCompletionUseCase instance.
func NewRecordCompletionUseCase(
	occurrenceRepo adapter.OccurrenceRepository,
	catalog adapter.CareItemCatalog,
	applySpendDelta *budget.ApplySpendDeltaUseCase,
) *RecordCompletionUseCase {
	return &RecordCompletionUseCase{
		occurrenceRepo:  occurrenceRepo,
		catalog:         catalog,
		applySpendDelta: applySpendDelta,
	}
}

// Execute performs the completion recording.
func (uc *RecordCompletionUseCase) Execute(ctx context.Context, input RecordCompletionInput) (*RecordCompletionOutput, error) {
	occ, err := uc.occurrenceRepo.FindByID(ctx, input.OccurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence: %w", err)
	}

	if occ.IsCompleted() {
		return uc.resolveRepeatedCompletion(occ, input)
	}

	completedAt := entity.NormalizeDate(input.CompletionDate)

	// The charge lands before the status flip. A failed charge leaves
	// the occurrence due, so the same request can be retried once the
	// budget problem is fixed; the reverse order would strand a
	// completed occurrence whose cost never reached the budget.
	charged := input.Cost != nil && *input.Cost != 0
	var item *entity.CareItem
	if charged {
		item, err = uc.catalog.FindBySlug(ctx, occ.ClientID, occ.CareItemSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up care item %q for spend: %w", occ.CareItemSlug, err)
		}

		_, err = uc.applySpendDelta.Execute(ctx, budget.ApplySpendDeltaInput{
			ClientID:     occ.ClientID,
			Year:         completedAt.Year(),
			CategoryID:   item.CategoryID,
			CareItemSlug: occ.CareItemSlug,
			ItemLabel:    item.Label,
			Delta:        *input.Cost,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply spend delta for occurrence %s: %w", occ.ID, err)
		}
	}

	applied, err := uc.occurrenceRepo.MarkCompleted(ctx, occ.ID, completedAt, input.Cost)
	if err != nil {
		if charged {
			uc.revertCharge(ctx, occ, item, completedAt.Year(), *input.Cost)
		}
		return nil, fmt.Errorf("failed to mark occurrence completed: %w", err)
	}
	if !applied {
		// Another carer completed it between our read and write. Their
		// completion carries its own charge, so ours comes back out.
		if charged {
			uc.revertCharge(ctx, occ, item, completedAt.Year(), *input.Cost)
		}
		current, fetchErr := uc.occurrenceRepo.FindByID(ctx, occ.ID)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to re-fetch occurrence after lost completion race: %w", fetchErr)
		}
		return uc.resolveRepeatedCompletion(current, input)
	}

	updated, err := uc.occurrenceRepo.FindByID(ctx, occ.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload completed occurrence: %w", err)
	}
	return &RecordCompletionOutput{Occurrence: updated}, nil
}

// revertCharge backs a spend delta out of the budget when the status
// flip that should have followed it did not happen.
func (uc *RecordCompletionUseCase) revertCharge(ctx context.Context, occ *entity.Occurrence, item *entity.CareItem, year int, cost entity.Money) {
	if _, err := uc.applySpendDelta.Execute(ctx, budget.ApplySpendDeltaInput{
		ClientID:     occ.ClientID,
		Year:         year,
		CategoryID:   item.CategoryID,
		CareItemSlug: occ.CareItemSlug,
		ItemLabel:    item.Label,
		Delta:        -cost,
	}); err != nil {
		slog.Error("Failed to revert spend delta after completion failure",
			"occurrence_id", occ.ID,
			"client_id", occ.ClientID,
			"year", year,
			"error", err,
		)
	}
}

// resolveRepeatedCompletion decides what a completion against an
// already-completed occurrence means: an error, an idempotent no-op, or
// a rejected conflicting re-charge.
func (uc *RecordCompletionUseCase) resolveRepeatedCompletion(occ *entity.Occurrence, input RecordCompletionInput) (*RecordCompletionOutput, error) {
	if !input.AllowRecompletion {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeAlreadyCompleted,
			fmt.Sprintf("occurrence %s is already completed", occ.ID),
			domainerror.ErrAlreadyCompleted,
		)
	}
	if !sameCost(occ.CompletionCost, input.Cost) {
		// Re-completion with a different cost would double-charge the
		// budget; reject it instead of silently applying either amount.
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeConflictingCompletion,
			fmt.Sprintf("occurrence %s was completed with a different cost", occ.ID),
			domainerror.ErrConflictingCompletion,
		)
	}
	return &RecordCompletionOutput{Occurrence: occ}, nil
}

// sameCost compares optional completion costs; nil equals nil only.
func sameCost(recorded, requested *entity.Money) bool {
	if recorded == nil || requested == nil {
		return recorded == nil && requested == nil
	}
	return *recorded == *requested
}
