// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// CareItemModel represents the care_items table in the database.
type CareItemModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_care_item_client_slug"`
	Slug            string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_care_item_client_slug"`
	Label           string     `gorm:"type:varchar(255);not null"`
	CategoryID      string     `gorm:"type:varchar(100);not null"`
	RecurrenceCount int        `gorm:"not null"`
	RecurrenceUnit  string     `gorm:"type:varchar(10);not null"`
	StartDate       *time.Time `gorm:"type:date"`
	RangeEnd        *time.Time `gorm:"type:date"`
	Active          bool       `gorm:"not null;default:true"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the CareItemModel.
func (CareItemModel) TableName() string {
	return "care_items"
}

// ToEntity converts a CareItemModel to a domain CareItem entity.
func (m *CareItemModel) ToEntity() *entity.CareItem {
	return &entity.CareItem{
		ID:         m.ID,
		ClientID:   m.ClientID,
		Slug:       m.Slug,
		Label:      m.Label,
		CategoryID: m.CategoryID,
		Rule: entity.RecurrenceRule{
			Count:     m.RecurrenceCount,
			Unit:      entity.RecurrenceUnit(m.RecurrenceUnit),
			StartDate: m.StartDate,
			RangeEnd:  m.RangeEnd,
		},
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CareItemFromEntity creates a CareItemModel from a domain CareItem entity.
func CareItemFromEntity(item *entity.CareItem) *CareItemModel {
	return &CareItemModel{
		ID:              item.ID,
		ClientID:        item.ClientID,
		Slug:            entity.NormalizeSlug(item.Slug),
		Label:           item.Label,
		CategoryID:      item.CategoryID,
		RecurrenceCount: item.Rule.Count,
		RecurrenceUnit:  string(item.Rule.Unit),
		StartDate:       item.Rule.StartDate,
		RangeEnd:        item.Rule.RangeEnd,
		Active:          item.Active,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}
