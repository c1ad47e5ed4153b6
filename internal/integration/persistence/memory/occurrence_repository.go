// Package memory provides in-memory implementations of the storage
// ports for tests and local development. The core only ever talks to
// the injected interfaces, never to shared mutable state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// occurrenceKey is the identity triple enforced unique by the store.
type occurrenceKey struct {
	clientID uuid.UUID
	slug     string
	dateKey  string
}

// OccurrenceRepository is an in-memory adapter.OccurrenceRepository.
// A mutex plays the role of the database's uniqueness constraint and
// atomic append primitives.
type OccurrenceRepository struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*entity.Occurrence
	byIdentity map[occurrenceKey]uuid.UUID
}

// NewOccurrenceRepository creates a new in-memory occurrence repository.
func NewOccurrenceRepository() *OccurrenceRepository {
	return &OccurrenceRepository{
		byID:       make(map[uuid.UUID]*entity.Occurrence),
		byIdentity: make(map[occurrenceKey]uuid.UUID),
	}
}

var _ adapter.OccurrenceRepository = (*OccurrenceRepository)(nil)

func identityOf(o *entity.Occurrence) occurrenceKey {
	return occurrenceKey{clientID: o.ClientID, slug: o.CareItemSlug, dateKey: o.DateKey}
}

// Create inserts a new occurrence, enforcing identity uniqueness.
func (r *OccurrenceRepository) Create(_ context.Context, occurrence *entity.Occurrence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityOf(occurrence)
	if _, exists := r.byIdentity[key]; exists {
		return domainerror.NewOccurrenceError(
			domainerror.ErrCodeDuplicateOccurrence,
			fmt.Sprintf("occurrence %s/%s/%s already exists", occurrence.ClientID, occurrence.CareItemSlug, occurrence.DateKey),
			domainerror.ErrDuplicateOccurrence,
		)
	}

	clone := cloneOccurrence(occurrence)
	r.byID[clone.ID] = clone
	r.byIdentity[key] = clone.ID
	return nil
}

// FindByID retrieves an occurrence by ID.
func (r *OccurrenceRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.byID[id]
	if !ok {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrenceNotFound,
			fmt.Sprintf("occurrence %s not found", id),
			domainerror.ErrOccurrenceNotFound,
		)
	}
	return cloneOccurrence(occ), nil
}

// FindByIdentity retrieves an occurrence by its identity triple.
func (r *OccurrenceRepository) FindByIdentity(_ context.Context, clientID uuid.UUID, careItemSlug, dateKey string) (*entity.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byIdentity[occurrenceKey{clientID: clientID, slug: careItemSlug, dateKey: dateKey}]
	if !ok {
		return nil, domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrenceNotFound,
			fmt.Sprintf("occurrence %s/%s/%s not found", clientID, careItemSlug, dateKey),
			domainerror.ErrOccurrenceNotFound,
		)
	}
	return cloneOccurrence(r.byID[id]), nil
}

// FindByClientAndRange retrieves a client's occurrences within a date range.
func (r *OccurrenceRepository) FindByClientAndRange(_ context.Context, clientID uuid.UUID, from, to time.Time) ([]*entity.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Occurrence
	for _, occ := range r.byID {
		if occ.ClientID != clientID {
			continue
		}
		if occ.Date.Before(from) || occ.Date.After(to) {
			continue
		}
		result = append(result, cloneOccurrence(occ))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].CareItemSlug < result[j].CareItemSlug
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// FindLastCompleted retrieves the most recent completed occurrence of a
// care item, or nil.
func (r *OccurrenceRepository) FindLastCompleted(_ context.Context, clientID uuid.UUID, careItemSlug string) (*entity.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *entity.Occurrence
	for _, occ := range r.byID {
		if occ.ClientID != clientID || occ.CareItemSlug != careItemSlug || !occ.IsCompleted() {
			continue
		}
		if latest == nil || occ.Date.After(latest.Date) {
			latest = occ
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneOccurrence(latest), nil
}

// MarkCompleted transitions Due to Completed; returns false when the
// occurrence was already completed.
func (r *OccurrenceRepository) MarkCompleted(_ context.Context, id uuid.UUID, completedAt time.Time, cost *entity.Money) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.byID[id]
	if !ok {
		return false, domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrenceNotFound,
			fmt.Sprintf("occurrence %s not found", id),
			domainerror.ErrOccurrenceNotFound,
		)
	}
	if occ.Status == entity.OccurrenceStatusCompleted {
		return false, nil
	}

	occ.Status = entity.OccurrenceStatusCompleted
	at := completedAt
	occ.CompletedAt = &at
	if cost != nil {
		c := *cost
		occ.CompletionCost = &c
	}
	occ.UpdatedAt = time.Now().UTC()
	return true, nil
}

// AppendComment appends a comment under the lock; both sides of a
// concurrent append are retained.
func (r *OccurrenceRepository) AppendComment(_ context.Context, comment *entity.OccurrenceComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.byID[comment.OccurrenceID]
	if !ok {
		return domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrenceNotFound,
			fmt.Sprintf("occurrence %s not found", comment.OccurrenceID),
			domainerror.ErrOccurrenceNotFound,
		)
	}
	occ.Comments = append(occ.Comments, *comment)
	occ.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendFile appends a file reference under the lock.
func (r *OccurrenceRepository) AppendFile(_ context.Context, file *entity.OccurrenceFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, ok := r.byID[file.OccurrenceID]
	if !ok {
		return domainerror.NewOccurrenceError(
			domainerror.ErrCodeOccurrenceNotFound,
			fmt.Sprintf("occurrence %s not found", file.OccurrenceID),
			domainerror.ErrOccurrenceNotFound,
		)
	}
	occ.Files = append(occ.Files, *file)
	occ.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteByCareItem removes all occurrences of a care item for a client.
func (r *OccurrenceRepository) DeleteByCareItem(_ context.Context, clientID uuid.UUID, careItemSlug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, occ := range r.byID {
		if occ.ClientID == clientID && occ.CareItemSlug == careItemSlug {
			delete(r.byIdentity, identityOf(occ))
			delete(r.byID, id)
		}
	}
	return nil
}

// cloneOccurrence copies an occurrence so callers never share store-owned state.
func cloneOccurrence(o *entity.Occurrence) *entity.Occurrence {
	clone := *o
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		clone.CompletedAt = &at
	}
	if o.CompletionCost != nil {
		cost := *o.CompletionCost
		clone.CompletionCost = &cost
	}
	clone.Comments = append([]entity.OccurrenceComment(nil), o.Comments...)
	clone.Files = append([]entity.OccurrenceFile(nil), o.Files...)
	return &clone
}
