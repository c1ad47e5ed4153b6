// Package occurrence contains occurrence-related use cases.
package occurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// MaterializeOccurrenceInput represents the input for occurrence materialization.
type MaterializeOccurrenceInput struct {
	ClientID     uuid.UUID
	CareItemSlug string
	Date         time.Time
}

// MaterializeOccurrenceOutput represents the output of occurrence materialization.
type MaterializeOccurrenceOutput struct {
	Occurrence *entity.Occurrence
	Created    bool
}

// MaterializeOccurrenceUseCase handles idempotent get-or-create of an
// occurrence. Re-running materialization for the same identity is a
// no-op, never a duplicate or an error.
type MaterializeOccurrenceUseCase struct {
	occurrenceRepo adapter.OccurrenceRepository
	catalog        adapter.CareItemCatalog
}

// NewMaterializeOccurrenceUseCase creates a new MaterializeOccurrenceUseCase instance.
func NewMaterializeOccurrenceUseCase(
	occurrenceRepo adapter.OccurrenceRepository,
	catalog adapter.CareItemCatalog,
) *MaterializeOccurrenceUseCase {
	return &MaterializeOccurrenceUseCase{
		occurrenceRepo: occurrenceRepo,
		catalog:        catalog,
	}
}

// Execute performs the materialization.
func (uc *MaterializeOccurrenceUseCase) Execute(ctx context.Context, input MaterializeOccurrenceInput) (*MaterializeOccurrenceOutput, error) {
	slug := entity.NormalizeSlug(input.CareItemSlug)
	dateKey := entity.DateKey(input.Date)

	// The occurrence must not outrun the rule's range end.
	item, err := uc.catalog.FindBySlug(ctx, input.ClientID, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to look up care item %q: %w", slug, err)
	}
	if item.Rule.RangeEnd != nil && entity.NormalizeDate(input.Date).After(entity.NormalizeDate(*item.Rule.RangeEnd)) {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrencePastRangeEnd,
			fmt.Sprintf("date %s is past the rule's range end", dateKey),
			domainerror.ErrOccurrencePastRangeEnd,
		)
	}

	existing, err := uc.occurrenceRepo.FindByIdentity(ctx, input.ClientID, slug, dateKey)
	if err != nil && !errors.Is(err, domainerror.ErrOccurrenceNotFound) {
		return nil, fmt.Errorf("failed to check occurrence identity: %w", err)
	}
	if existing != nil {
		return &MaterializeOccurrenceOutput{Occurrence: existing, Created: false}, nil
	}

	created := entity.NewOccurrence(input.ClientID, slug, input.Date)
	if err := uc.occurrenceRepo.Create(ctx, created); err != nil {
		// A concurrent materialization won the race. The identity now
		// exists, so re-fetch it instead of surfacing the violation.
		if errors.Is(err, domainerror.ErrDuplicateOccurrence) {
			winner, fetchErr := uc.occurrenceRepo.FindByIdentity(ctx, input.ClientID, slug, dateKey)
			if fetchErr != nil {
				return nil, fmt.Errorf("failed to re-fetch occurrence after duplicate insert: %w", fetchErr)
			}
			return &MaterializeOccurrenceOutput{Occurrence: winner, Created: false}, nil
		}
		return nil, fmt.Errorf("failed to create occurrence: %w", err)
	}

	return &MaterializeOccurrenceOutput{Occurrence: created, Created: true}, nil
}
