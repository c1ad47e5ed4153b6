// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/model"
)

// careItemRepository implements the adapter.CareItemCatalog interface.
// The core reads templates; it never writes them.
type careItemRepository struct {
	db *gorm.DB
}

// NewCareItemRepository creates a new care item catalog instance.
func NewCareItemRepository(db *gorm.DB) adapter.CareItemCatalog {
	return &careItemRepository{
		db: db,
	}
}

// FindBySlug retrieves a client's care item by normalized slug.
func (r *careItemRepository) FindBySlug(ctx context.Context, clientID uuid.UUID, slug string) (*entity.CareItem, error) {
	var itemModel model.CareItemModel
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND slug = ?", clientID, entity.NormalizeSlug(slug)).
		First(&itemModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewStorageError(
				domainerror.ErrCodeCareItemNotFound,
				fmt.Sprintf("care item %q not found for client %s", slug, clientID),
				domainerror.ErrCareItemNotFound,
			)
		}
		return nil, translateStorageErr("find care item", result.Error)
	}
	return itemModel.ToEntity(), nil
}

// ListByClient retrieves all active care items for a client.
func (r *careItemRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.CareItem, error) {
	var itemModels []model.CareItemModel
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("slug ASC").
		Find(&itemModels)
	if result.Error != nil {
		return nil, translateStorageErr("list care items", result.Error)
	}

	items := make([]*entity.CareItem, 0, len(itemModels))
	for i := range itemModels {
		items = append(items, itemModels[i].ToEntity())
	}
	return items, nil
}
