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

// occurrenceRepository implements the adapter.OccurrenceRepository interface.
type occurrenceRepository struct {
	db *gorm.DB
}

// NewOccurrenceRepository creates a new occurrence repository instance.
func NewOccurrenceRepository(db *gorm.DB) adapter.OccurrenceRepository {
	return &occurrenceRepository{
		db: db,
	}
}

// Create inserts a new occurrence. The unique index on
// (client_id, care_item_slug, date_key) turns a concurrent duplicate
// into ErrDuplicateOccurrence for the caller to re-fetch.
func (r *occurrenceRepository) Create(ctx context.Context, occurrence *entity.Occurrence) error {
	occurrenceModel := model.OccurrenceFromEntity(occurrence)
	result := r.db.WithContext(ctx).Create(occurrenceModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domainerror.NewOccurrenceError(
				domainerror.ErrCodeDuplicateOccurrence,
				fmt.Sprintf("occurrence %s/%s/%s already exists", occurrence.ClientID, occurrence.CareItemSlug, occurrence.DateKey),
				domainerror.ErrDuplicateOccurrence,
			)
		}
		return translateStorageErr("create occurrence", result.Error)
	}
	return nil
}

// FindByID retrieves an occurrence with its ordered logs.
func (r *occurrenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Occurrence, error) {
	var occurrenceModel model.OccurrenceModel
	result := r.preloadLogs(r.db.WithContext(ctx)).Where("id = ?", id).First(&occurrenceModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewOccurrenceError(
				domainerror.ErrCodeOccurrenceNotFound,
				fmt.Sprintf("occurrence %s not found", id),
				domainerror.ErrOccurrenceNotFound,
			)
		}
		return nil, translateStorageErr("find occurrence", result.Error)
	}
	return occurrenceModel.ToEntity()
}

// FindByIdentity retrieves an occurrence by its identity triple.
func (r *occurrenceRepository) FindByIdentity(ctx context.Context, clientID uuid.UUID, careItemSlug, dateKey string) (*entity.Occurrence, error) {
	var occurrenceModel model.OccurrenceModel
	result := r.preloadLogs(r.db.WithContext(ctx)).
		Where("client_id = ? AND care_item_slug = ? AND date_key = ?", clientID, careItemSlug, dateKey).
		First(&occurrenceModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewOccurrenceError(
				domainerror.ErrCodeOccurrenceNotFound,
				fmt.Sprintf("occurrence %s/%s/%s not found", clientID, careItemSlug, dateKey),
				domainerror.ErrOccurrenceNotFound,
			)
		}
		return nil, translateStorageErr("find occurrence by identity", result.Error)
	}
	return occurrenceModel.ToEntity()
}

// FindByClientAndRange retrieves a client's occurrences within a date
// range, ordered by date.
func (r *occurrenceRepository) FindByClientAndRange(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*entity.Occurrence, error) {
	var occurrenceModels []model.OccurrenceModel
	result := r.preloadLogs(r.db.WithContext(ctx)).
		Where("client_id = ? AND date >= ? AND date <= ?", clientID, entity.NormalizeDate(from), entity.NormalizeDate(to)).
		Order("date ASC, care_item_slug ASC").
		Find(&occurrenceModels)
	if result.Error != nil {
		return nil, translateStorageErr("list occurrences", result.Error)
	}

	occurrences := make([]*entity.Occurrence, 0, len(occurrenceModels))
	for i := range occurrenceModels {
		occ, err := occurrenceModels[i].ToEntity()
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

// FindLastCompleted retrieves the most recent completed occurrence of a
// care item for a client, or nil when none exists.
func (r *occurrenceRepository) FindLastCompleted(ctx context.Context, clientID uuid.UUID, careItemSlug string) (*entity.Occurrence, error) {
	var occurrenceModel model.OccurrenceModel
	result := r.db.WithContext(ctx).
		Where("client_id = ? AND care_item_slug = ? AND status = ?", clientID, careItemSlug, string(entity.OccurrenceStatusCompleted)).
		Order("date DESC").
		First(&occurrenceModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateStorageErr("find last completed occurrence", result.Error)
	}
	return occurrenceModel.ToEntity()
}

// MarkCompleted transitions Due to Completed with a conditional update,
// so two carers racing on the same occurrence cannot both win.
func (r *occurrenceRepository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, cost *entity.Money) (bool, error) {
	updates := map[string]interface{}{
		"status":       string(entity.OccurrenceStatusCompleted),
		"completed_at": completedAt,
		"updated_at":   time.Now().UTC(),
	}
	if cost != nil {
		updates["completion_cost_cents"] = int64(*cost)
	}

	result := r.db.WithContext(ctx).
		Model(&model.OccurrenceModel{}).
		Where("id = ? AND status = ?", id, string(entity.OccurrenceStatusDue)).
		Updates(updates)
	if result.Error != nil {
		return false, translateStorageErr("mark occurrence completed", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either already completed or missing; distinguish for the caller.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.OccurrenceModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, translateStorageErr("check occurrence existence", err)
		}
		if count == 0 {
			return false, domainerror.NewOccurrenceError(
				domainerror.ErrCodeOccurrenceNotFound,
				fmt.Sprintf("occurrence %s not found", id),
				domainerror.ErrOccurrenceNotFound,
			)
		}
		return false, nil
	}
	return true, nil
}

// AppendComment appends a comment as a single atomic insert.
func (r *occurrenceRepository) AppendComment(ctx context.Context, comment *entity.OccurrenceComment) error {
	commentModel := &model.OccurrenceCommentModel{
		ID:           comment.ID,
		OccurrenceID: comment.OccurrenceID,
		Text:         comment.Text,
		CreatedAt:    comment.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(commentModel).Error; err != nil {
		return translateStorageErr("append comment", err)
	}
	return nil
}

// AppendFile appends a file reference as a single atomic insert.
func (r *occurrenceRepository) AppendFile(ctx context.Context, file *entity.OccurrenceFile) error {
	fileModel := &model.OccurrenceFileModel{
		ID:           file.ID,
		OccurrenceID: file.OccurrenceID,
		FileRef:      file.FileRef,
		CreatedAt:    file.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(fileModel).Error; err != nil {
		return translateStorageErr("append file", err)
	}
	return nil
}

// DeleteByCareItem removes all occurrences of a care item for a client,
// including their logs. Only administrative removal of the parent care
// item reaches this path.
func (r *occurrenceRepository) DeleteByCareItem(ctx context.Context, clientID uuid.UUID, careItemSlug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&model.OccurrenceModel{}).
			Select("id").
			Where("client_id = ? AND care_item_slug = ?", clientID, careItemSlug)

		if err := tx.Where("occurrence_id IN (?)", ids).Delete(&model.OccurrenceCommentModel{}).Error; err != nil {
			return translateStorageErr("delete occurrence comments", err)
		}
		if err := tx.Where("occurrence_id IN (?)", ids).Delete(&model.OccurrenceFileModel{}).Error; err != nil {
			return translateStorageErr("delete occurrence files", err)
		}
		if err := tx.Where("client_id = ? AND care_item_slug = ?", clientID, careItemSlug).Delete(&model.OccurrenceModel{}).Error; err != nil {
			return translateStorageErr("delete occurrences", err)
		}
		return nil
	})
}

// preloadLogs attaches the ordered comment and file logs.
func (r *occurrenceRepository) preloadLogs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
}
