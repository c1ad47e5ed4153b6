// Package model defines database models for persistence layer.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/domain/entity"
)

// BudgetYearModel represents the budget_years table in the database.
// The nested category tree is stored as one JSON document so a mutation
// is a single-row read-modify-write guarded by the optimistic Version
// column. All money columns are integer minor units.
type BudgetYearModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_budget_client_year"`
	Year                  int       `gorm:"not null;uniqueIndex:idx_budget_client_year"`
	AnnualAllocatedCents  int64     `gorm:"type:bigint;not null;default:0"`
	OpeningCarryoverCents int64     `gorm:"type:bigint;not null;default:0"`
	RolledFromYear        *int      `gorm:"type:integer"`
	SurplusCents          int64     `gorm:"type:bigint;not null;default:0"`
	Categories            []byte    `gorm:"type:jsonb"`
	TotalAllocatedCents   int64     `gorm:"type:bigint;not null;default:0"`
	TotalSpentCents       int64     `gorm:"type:bigint;not null;default:0"`
	Version               int64     `gorm:"not null;default:0"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for the BudgetYearModel.
func (BudgetYearModel) TableName() string {
	return "budget_years"
}

// budgetCategoryDoc is the JSON shape of one category inside the
// Categories column.
type budgetCategoryDoc struct {
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	AllocatedCents int64           `json:"allocated_cents"`
	SpentCents     int64           `json:"spent_cents"`
	Items          []budgetItemDoc `json:"items"`
}

// budgetItemDoc is the JSON shape of one item inside a category.
type budgetItemDoc struct {
	CareItemSlug   string `json:"care_item_slug"`
	Label          string `json:"label"`
	AllocatedCents int64  `json:"allocated_cents"`
	SpentCents     int64  `json:"spent_cents"`
}

// ToEntity converts a BudgetYearModel to a domain BudgetYear entity.
func (m *BudgetYearModel) ToEntity() (*entity.BudgetYear, error) {
	year := &entity.BudgetYear{
		ID:               m.ID,
		ClientID:         m.ClientID,
		Year:             m.Year,
		AnnualAllocated:  entity.Money(m.AnnualAllocatedCents),
		OpeningCarryover: entity.Money(m.OpeningCarryoverCents),
		RolledFromYear:   m.RolledFromYear,
		Surplus:          entity.Money(m.SurplusCents),
		Totals: entity.BudgetTotals{
			Allocated: entity.Money(m.TotalAllocatedCents),
			Spent:     entity.Money(m.TotalSpentCents),
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if len(m.Categories) > 0 {
		var docs []budgetCategoryDoc
		if err := json.Unmarshal(m.Categories, &docs); err != nil {
			return nil, fmt.Errorf("failed to decode categories for budget year %s: %w", m.ID, err)
		}
		for _, doc := range docs {
			cat := entity.BudgetCategory{
				CategoryID:   doc.CategoryID,
				CategoryName: doc.CategoryName,
				Allocated:    entity.Money(doc.AllocatedCents),
				Spent:        entity.Money(doc.SpentCents),
			}
			for _, item := range doc.Items {
				cat.Items = append(cat.Items, entity.BudgetItem{
					CareItemSlug: item.CareItemSlug,
					Label:        item.Label,
					Allocated:    entity.Money(item.AllocatedCents),
					Spent:        entity.Money(item.SpentCents),
				})
			}
			year.Categories = append(year.Categories, cat)
		}
	}
	return year, nil
}

// BudgetYearFromEntity creates a BudgetYearModel from a domain
// BudgetYear entity.
func BudgetYearFromEntity(year *entity.BudgetYear) (*BudgetYearModel, error) {
	docs := make([]budgetCategoryDoc, 0, len(year.Categories))
	for _, cat := range year.Categories {
		doc := budgetCategoryDoc{
			CategoryID:     cat.CategoryID,
			CategoryName:   cat.CategoryName,
			AllocatedCents: int64(cat.Allocated),
			SpentCents:     int64(cat.Spent),
			Items:          make([]budgetItemDoc, 0, len(cat.Items)),
		}
		for _, item := range cat.Items {
			doc.Items = append(doc.Items, budgetItemDoc{
				CareItemSlug:   item.CareItemSlug,
				Label:          item.Label,
				AllocatedCents: int64(item.Allocated),
				SpentCents:     int64(item.Spent),
			})
		}
		docs = append(docs, doc)
	}

	encoded, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode categories for budget year %s: %w", year.ID, err)
	}

	return &BudgetYearModel{
		ID:                    year.ID,
		ClientID:              year.ClientID,
		Year:                  year.Year,
		AnnualAllocatedCents:  int64(year.AnnualAllocated),
		OpeningCarryoverCents: int64(year.OpeningCarryover),
		RolledFromYear:        year.RolledFromYear,
		SurplusCents:          int64(year.Surplus),
		Categories:            encoded,
		TotalAllocatedCents:   int64(year.Totals.Allocated),
		TotalSpentCents:       int64(year.Totals.Spent),
		Version:               year.Version,
		CreatedAt:             year.CreatedAt,
		UpdatedAt:             year.UpdatedAt,
	}, nil
}
