// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// CareItemCatalog is the read-only lookup of care item templates. The
// core does not own template definitions; it only resolves a slug to the
// current recurrence rule and budget category.
type CareItemCatalog interface {
	// FindBySlug retrieves a client's care item by normalized slug, or
	// ErrCareItemNotFound.
	FindBySlug(ctx context.Context, clientID uuid.UUID, slug string) (*entity.CareItem, error)

	// ListByClient retrieves all active care items for a client.
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.CareItem, error)
}
