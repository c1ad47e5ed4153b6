// Package dto defines data transfer objects for API requests and responses.
package dto

import (
	"time"

	"github.com/care-plan/backend/internal/domain/entity"
)

// SetAllocationRequest represents the request body for an allocation
// edit. Omitting care_item_slug applies the amount at category
// granularity and declares the category when needed.
type SetAllocationRequest struct {
	CategoryID   string `json:"category_id" binding:"required"`
	CategoryName string `json:"category_name,omitempty"`
	CareItemSlug string `json:"care_item_slug,omitempty"`
	ItemLabel    string `json:"item_label,omitempty"`
	Amount       string `json:"amount" binding:"required"`
}

// SetAnnualAllocationRequest represents the request body for setting the
// annual envelope.
type SetAnnualAllocationRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RolloverRequest represents the request body for a year rollover.
type RolloverRequest struct {
	Force bool `json:"force,omitempty"`
}

// BudgetItemResponse represents a budget leaf in API responses.
type BudgetItemResponse struct {
	CareItemSlug string `json:"care_item_slug"`
	Label        string `json:"label,omitempty"`
	Allocated    string `json:"allocated"`
	Spent        string `json:"spent"`
}

// BudgetCategoryResponse represents a budget category in API responses.
type BudgetCategoryResponse struct {
	CategoryID   string               `json:"category_id"`
	CategoryName string               `json:"category_name,omitempty"`
	Allocated    string               `json:"allocated"`
	Spent        string               `json:"spent"`
	Overspent    bool                 `json:"overspent"`
	Items        []BudgetItemResponse `json:"items"`
}

// BudgetYearResponse represents a budget year document in API responses.
type BudgetYearResponse struct {
	ID               string                   `json:"id"`
	ClientID         string                   `json:"client_id"`
	Year             int                      `json:"year"`
	AnnualAllocated  string                   `json:"annual_allocated"`
	OpeningCarryover string                   `json:"opening_carryover"`
	RolledFromYear   *int                     `json:"rolled_from_year,omitempty"`
	Surplus          string                   `json:"surplus"`
	TotalAllocated   string                   `json:"total_allocated"`
	TotalSpent       string                   `json:"total_spent"`
	Categories       []BudgetCategoryResponse `json:"categories"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// BudgetSummaryResponse represents the budget summary read model.
type BudgetSummaryResponse struct {
	Year       int                      `json:"year"`
	Surplus    string                   `json:"surplus"`
	Categories []BudgetCategoryResponse `json:"categories"`
}

// ToBudgetYearResponse converts a domain BudgetYear entity to a
// BudgetYearResponse DTO. Overspend flags are recomputed here so every
// year rendering carries them.
func ToBudgetYearResponse(b *entity.BudgetYear) BudgetYearResponse {
	response := BudgetYearResponse{
		ID:               b.ID.String(),
		ClientID:         b.ClientID.String(),
		Year:             b.Year,
		AnnualAllocated:  FormatMoney(b.AnnualAllocated),
		OpeningCarryover: FormatMoney(b.OpeningCarryover),
		RolledFromYear:   b.RolledFromYear,
		Surplus:          FormatMoney(b.Surplus),
		TotalAllocated:   FormatMoney(b.Totals.Allocated),
		TotalSpent:       FormatMoney(b.Totals.Spent),
		Categories:       make([]BudgetCategoryResponse, len(b.Categories)),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	for i, cat := range b.Categories {
		response.Categories[i] = toBudgetCategoryResponse(cat, cat.Spent > cat.Allocated)
	}
	return response
}

// ToBudgetSummaryResponse converts a domain BudgetSummary to a
// BudgetSummaryResponse DTO.
func ToBudgetSummaryResponse(s *entity.BudgetSummary) BudgetSummaryResponse {
	response := BudgetSummaryResponse{
		Year:       s.Year.Year,
		Surplus:    FormatMoney(s.Surplus),
		Categories: make([]BudgetCategoryResponse, len(s.Categories)),
	}
	for i, cat := range s.Categories {
		response.Categories[i] = toBudgetCategoryResponse(cat.Category, cat.Overspent)
	}
	return response
}

func toBudgetCategoryResponse(cat entity.BudgetCategory, overspent bool) BudgetCategoryResponse {
	response := BudgetCategoryResponse{
		CategoryID:   cat.CategoryID,
		CategoryName: cat.CategoryName,
		Allocated:    FormatMoney(cat.Allocated),
		Spent:        FormatMoney(cat.Spent),
		Overspent:    overspent,
		Items:        make([]BudgetItemResponse, len(cat.Items)),
	}
	for i, item := range cat.Items {
		response.Items[i] = BudgetItemResponse{
			CareItemSlug: item.CareItemSlug,
			Label:        item.Label,
			Allocated:    FormatMoney(item.Allocated),
			Spent:        FormatMoney(item.Spent),
		}
	}
	return response
}
