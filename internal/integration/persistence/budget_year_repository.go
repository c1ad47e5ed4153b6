// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/persistence/model"
)

const (
	// mutateMaxAttempts bounds the optimistic-concurrency retry loop.
	mutateMaxAttempts = 5
	// mutateBackoffBase is the delay before the first retry; it doubles
	// per attempt.
	mutateBackoffBase = 20 * time.Millisecond
)

// budgetYearRepository implements the adapter.BudgetYearRepository interface.
type budgetYearRepository struct {
	db *gorm.DB
}

// NewBudgetYearRepository creates a new budget year repository instance.
func NewBudgetYearRepository(db *gorm.DB) adapter.BudgetYearRepository {
	return &budgetYearRepository{
		db: db,
	}
}

// Create inserts a new budget year.
func (r *budgetYearRepository) Create(ctx context.Context, year *entity.BudgetYear) error {
	yearModel, err := model.BudgetYearFromEntity(year)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Create(yearModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domainerror.NewBudgetError(
				domainerror.ErrCodeYearAlreadyRolled,
				fmt.Sprintf("budget year %d already exists for client %s", year.Year, year.ClientID),
				domainerror.ErrYearAlreadyRolled,
			)
		}
		return translateStorageErr("create budget year", result.Error)
	}
	return nil
}

// FindByClientAndYear retrieves a client's budget year.
func (r *budgetYearRepository) FindByClientAndYear(ctx context.Context, clientID uuid.UUID, year int) (*entity.BudgetYear, error) {
	var yearModel model.BudgetYearModel
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND year = ?", clientID, year).
		First(&yearModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewBudgetError(
				domainerror.ErrCodeBudgetYearNotFound,
				fmt.Sprintf("budget year %d not found for client %s", year, clientID),
				domainerror.ErrBudgetYearNotFound,
			)
		}
		return nil, translateStorageErr("find budget year", result.Error)
	}
	return yearModel.ToEntity()
}

// FindByClient retrieves all budget years for a client, most recent first.
func (r *budgetYearRepository) FindByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.BudgetYear, error) {
	var yearModels []model.BudgetYearModel
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("year DESC").
		Find(&yearModels)
	if result.Error != nil {
		return nil, translateStorageErr("list budget years", result.Error)
	}

	years := make([]*entity.BudgetYear, 0, len(yearModels))
	for i := range yearModels {
		year, err := yearModels[i].ToEntity()
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, nil
}

// Mutate applies fn to the budget year document under an optimistic
// version check. The whole document is one row, so a version-guarded
// UPDATE serializes concurrent writers; losers reload and retry with
// backoff, and exhaustion surfaces the retryable conflict error. Lost
// updates would break the totals-equal-leaf-sums invariant, so plain
// last-write-wins is not acceptable here.
func (r *budgetYearRepository) Mutate(ctx context.Context, clientID uuid.UUID, year int, fn func(*entity.BudgetYear) error) (*entity.BudgetYear, error) {
	backoff := mutateBackoffBase

	for attempt := 1; attempt <= mutateMaxAttempts; attempt++ {
		current, err := r.FindByClientAndYear(ctx, clientID, year)
		if err != nil {
			if !errors.Is(err, domainerror.ErrBudgetYearNotFound) {
				return nil, err
			}
			// First budget activity for this client/year creates the document.
			current = entity.NewBudgetYear(clientID, year)
		}

		if err := fn(current); err != nil {
			return nil, err
		}
		current.UpdatedAt = time.Now().UTC()

		applied, err := r.save(ctx, current)
		if err != nil {
			return nil, err
		}
		if applied {
			current.Version++
			return current, nil
		}

		// Version conflict: another writer got in first. Reload and retry.
		select {
		case <-ctx.Done():
			return nil, translateStorageErr("mutate budget year", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, domainerror.NewStorageError(
		domainerror.ErrCodeConcurrencyConflict,
		fmt.Sprintf("budget year %d for client %s: retries exhausted", year, clientID),
		domainerror.ErrConcurrencyConflict,
	)
}

// save writes the document back, guarded by its version. It reports
// whether the write was applied.
func (r *budgetYearRepository) save(ctx context.Context, year *entity.BudgetYear) (bool, error) {
	yearModel, err := model.BudgetYearFromEntity(year)
	if err != nil {
		return false, err
	}

	if year.Version == 0 {
		// Fresh document: insert, treating a concurrent insert as a
		// conflict to retry.
		yearModel.Version = 1
		result := r.db.WithContext(ctx).Create(yearModel)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return false, nil
			}
			return false, translateStorageErr("insert budget year", result.Error)
		}
		return true, nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.BudgetYearModel{}).
		Where("id = ? AND version = ?", yearModel.ID, year.Version).
		Updates(map[string]interface{}{
			"annual_allocated_cents":  yearModel.AnnualAllocatedCents,
			"opening_carryover_cents": yearModel.OpeningCarryoverCents,
			"rolled_from_year":        yearModel.RolledFromYear,
			"surplus_cents":           yearModel.SurplusCents,
			"categories":              yearModel.Categories,
			"total_allocated_cents":   yearModel.TotalAllocatedCents,
			"total_spent_cents":       yearModel.TotalSpentCents,
			"version":                 year.Version + 1,
			"updated_at":              yearModel.UpdatedAt,
		})
	if result.Error != nil {
		return false, translateStorageErr("update budget year", result.Error)
	}
	return result.RowsAffected > 0, nil
}
