package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

type catalogKey struct {
	clientID uuid.UUID
	slug     string
}

// CareItemCatalog is an in-memory adapter.CareItemCatalog, seeded
// directly by tests.
type CareItemCatalog struct {
	mu    sync.Mutex
	items map[catalogKey]*entity.CareItem
}

// NewCareItemCatalog creates a new in-memory care item catalog.
func NewCareItemCatalog() *CareItemCatalog {
	return &CareItemCatalog{
		items: make(map[catalogKey]*entity.CareItem),
	}
}

var _ adapter.CareItemCatalog = (*CareItemCatalog)(nil)

// Put seeds or replaces a care item.
func (c *CareItemCatalog) Put(item *entity.CareItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *item
	copied.Slug = entity.NormalizeSlug(item.Slug)
	c.items[catalogKey{clientID: item.ClientID, slug: copied.Slug}] = &copied
}

// FindBySlug retrieves a client's care item by normalized slug.
func (c *CareItemCatalog) FindBySlug(_ context.Context, clientID uuid.UUID, slug string) (*entity.CareItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[catalogKey{clientID: clientID, slug: entity.NormalizeSlug(slug)}]
	if !ok {
		return nil, domainerror.NewStorageError(
			domainerror.ErrCodeCareItemNotFound,
			fmt.Sprintf("care item %q not found for client %s", slug, clientID),
			domainerror.ErrCareItemNotFound,
		)
	}
	copied := *item
	return &copied, nil
}

// ListByClient retrieves all active care items for a client.
func (c *CareItemCatalog) ListByClient(_ context.Context, clientID uuid.UUID) ([]*entity.CareItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []*entity.CareItem
	for key, item := range c.items {
		if key.clientID == clientID && item.Active {
			copied := *item
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}
