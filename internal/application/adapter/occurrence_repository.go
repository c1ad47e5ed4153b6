// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// OccurrenceRepository defines the interface for occurrence persistence
// operations. Identity is (clientID, careItemSlug, dateKey) and is
// enforced by a uniqueness constraint at the storage layer.
type OccurrenceRepository interface {
	// Create inserts a new occurrence. When an occurrence with the same
	// identity already exists it returns ErrDuplicateOccurrence so the
	// caller can re-fetch instead of erroring.
	Create(ctx context.Context, occurrence *entity.Occurrence) error

	// FindByID retrieves an occurrence, including its comment and file
	// logs, by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Occurrence, error)

	// FindByIdentity retrieves an occurrence by its identity triple.
	// The slug must already be normalized.
	FindByIdentity(ctx context.Context, clientID uuid.UUID, careItemSlug, dateKey string) (*entity.Occurrence, error)

	// FindByClientAndRange retrieves a client's occurrences within a date
	// range, ordered by date.
	FindByClientAndRange(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*entity.Occurrence, error)

	// FindLastCompleted retrieves the most recent completed occurrence of
	// a care item for a client, or nil when none exists.
	FindLastCompleted(ctx context.Context, clientID uuid.UUID, careItemSlug string) (*entity.Occurrence, error)

	// MarkCompleted transitions an occurrence from Due to Completed with a
	// conditional update. It reports whether the transition was applied;
	// false means the occurrence was already completed by another writer.
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, cost *entity.Money) (bool, error)

	// AppendComment appends a comment as an atomic insert. Concurrent
	// appends from different carers are all retained.
	AppendComment(ctx context.Context, comment *entity.OccurrenceComment) error

	// AppendFile appends a file reference as an atomic insert.
	AppendFile(ctx context.Context, file *entity.OccurrenceFile) error

	// DeleteByCareItem removes all occurrences of a care item for a
	// client. Only administrative removal of the parent care item may
	// delete occurrences.
	DeleteByCareItem(ctx context.Context, clientID uuid.UUID, careItemSlug string) error
}
