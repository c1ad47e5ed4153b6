// Package occurrence contains occurrence-related use cases.
package occurrence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// AppendCommentInput represents the input for appending a comment.
type AppendCommentInput struct {
	OccurrenceID uuid.UUID
	Text         string
}

// AppendFileInput represents the input for appending a file reference.
type AppendFileInput struct {
	OccurrenceID uuid.UUID
	FileRef      string
}

// AppendEntryOutput represents the output of an append: the occurrence
// with its full, ordered logs.
type AppendEntryOutput struct {
	Occurrence *entity.Occurrence
}

// AppendEntryUseCase appends comments and file references to an
// occurrence. Appends are atomic inserts, not read-modify-writes of the
// whole log, so concurrent appends from different carers are all
// retained in insertion order.
type AppendEntryUseCase struct {
	occurrenceRepo adapter.OccurrenceRepository
}

// NewAppendEntryUseCase creates a new AppendEntryUseCase instance.
func NewAppendEntryUseCase(occurrenceRepo adapter.OccurrenceRepository) *AppendEntryUseCase {
	return &AppendEntryUseCase{
		occurrenceRepo: occurrenceRepo,
	}
}

// AppendComment appends a comment to the occurrence's log.
func (uc *AppendEntryUseCase) AppendComment(ctx context.Context, input AppendCommentInput) (*AppendEntryOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeEmptyAppendEntry,
			"comment text must not be empty",
			domainerror.ErrEmptyAppendEntry,
		)
	}

	// Existence check up front so a bad ID fails as not-found, not as a
	// dangling child row.
	occ, err := uc.occurrenceRepo.FindByID(ctx, input.OccurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence: %w", err)
	}

	comment := &entity.OccurrenceComment{
		ID:           uuid.New(),
		OccurrenceID: occ.ID,
		Text:         input.Text,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.occurrenceRepo.AppendComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}

	return uc.reload(ctx, occ.ID)
}

// AppendFile appends a file reference to the occurrence's log.
func (uc *AppendEntryUseCase) AppendFile(ctx context.Context, input AppendFileInput) (*AppendEntryOutput, error) {
	if strings.TrimSpace(input.FileRef) == "" {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeEmptyAppendEntry,
			"file reference must not be empty",
			domainerror.ErrEmptyAppendEntry,
		)
	}

	occ, err := uc.occurrenceRepo.FindByID(ctx, input.OccurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence: %w", err)
	}

	file := &entity.OccurrenceFile{
		ID:           uuid.New(),
		OccurrenceID: occ.ID,
		FileRef:      input.FileRef,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.occurrenceRepo.AppendFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to append file: %w", err)
	}

	return uc.reload(ctx, occ.ID)
}

func (uc *AppendEntryUseCase) reload(ctx context.Context, id uuid.UUID) (*AppendEntryOutput, error) {
	updated, err := uc.occurrenceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload occurrence: %w", err)
	}
	return &AppendEntryOutput{Occurrence: updated}, nil
}
