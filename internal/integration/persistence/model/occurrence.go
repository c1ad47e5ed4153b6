// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// OccurrenceModel represents the occurrences table in the database.
// The composite unique index on (client_id, care_item_slug, date_key) is
// the correctness guard for idempotent materialization, not an
// optimization.
type OccurrenceModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_occurrence_identity;index:idx_occurrence_client_date,priority:1"`
	CareItemSlug        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_occurrence_identity"`
	DateKey             string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_occurrence_identity"`
	Date                time.Time  `gorm:"type:date;not null;index:idx_occurrence_client_date,priority:2"`
	Status              string     `gorm:"type:varchar(20);not null;default:'due'"`
	CompletedAt         *time.Time `gorm:"type:date"`
	CompletionCostCents *int64     `gorm:"type:bigint"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`

	// Append-only logs, ordered by creation (not loaded by default, use Preload)
	Comments []OccurrenceCommentModel `gorm:"foreignKey:OccurrenceID;references:ID"`
	Files    []OccurrenceFileModel    `gorm:"foreignKey:OccurrenceID;references:ID"`
}

// TableName returns the table name for the OccurrenceModel.
func (OccurrenceModel) TableName() string {
	return "occurrences"
}

// OccurrenceCommentModel represents the occurrence_comments table. Rows
// are insert-only; a comment append never rewrites the whole log.
type OccurrenceCommentModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurrenceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Seq          int64     `gorm:"autoIncrement"`
	Text         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the OccurrenceCommentModel.
func (OccurrenceCommentModel) TableName() string {
	return "occurrence_comments"
}

// OccurrenceFileModel represents the occurrence_files table. Rows are
// insert-only.
type OccurrenceFileModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurrenceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Seq          int64     `gorm:"autoIncrement"`
	FileRef      string    `gorm:"type:varchar(500);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the OccurrenceFileModel.
func (OccurrenceFileModel) TableName() string {
	return "occurrence_files"
}

// ToEntity converts an OccurrenceModel to a domain Occurrence entity.
func (m *OccurrenceModel) ToEntity() (*entity.Occurrence, error) {
	status, ok := entity.ParseOccurrenceStatus(m.Status)
	if !ok {
		return nil, entityStatusError(m.ID, m.Status)
	}

	occ := &entity.Occurrence{
		ID:           m.ID,
		ClientID:     m.ClientID,
		CareItemSlug: m.CareItemSlug,
		Date:         entity.NormalizeDate(m.Date),
		DateKey:      m.DateKey,
		Status:       status,
		CompletedAt:  m.CompletedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.CompletionCostCents != nil {
		cost := entity.Money(*m.CompletionCostCents)
		occ.CompletionCost = &cost
	}
	for _, c := range m.Comments {
		occ.Comments = append(occ.Comments, entity.OccurrenceComment{
			ID:           c.ID,
			OccurrenceID: c.OccurrenceID,
			Text:         c.Text,
			CreatedAt:    c.CreatedAt,
		})
	}
	for _, f := range m.Files {
		occ.Files = append(occ.Files, entity.OccurrenceFile{
			ID:           f.ID,
			OccurrenceID: f.OccurrenceID,
			FileRef:      f.FileRef,
			CreatedAt:    f.CreatedAt,
		})
	}
	return occ, nil
}

// OccurrenceFromEntity creates an OccurrenceModel from a domain
// Occurrence entity. The logs are persisted through their own append
// operations, never through the parent row.
func OccurrenceFromEntity(occurrence *entity.Occurrence) *OccurrenceModel {
	m := &OccurrenceModel{
		ID:           occurrence.ID,
		ClientID:     occurrence.ClientID,
		CareItemSlug: occurrence.CareItemSlug,
		DateKey:      occurrence.DateKey,
		Date:         occurrence.Date,
		Status:       string(occurrence.Status),
		CompletedAt:  occurrence.CompletedAt,
		CreatedAt:    occurrence.CreatedAt,
		UpdatedAt:    occurrence.UpdatedAt,
	}
	if occurrence.CompletionCost != nil {
		cents := int64(*occurrence.CompletionCost)
		m.CompletionCostCents = &cents
	}
	return m
}
