// Package dto defines data transfer objects for API requests and responses.
package dto

import (
	"time"

	"github.com/care-plan/backend/internal/application/usecase/occurrence"
	"github.com/care-plan/backend/internal/domain/entity"
)

// MaterializeOccurrenceRequest represents the request body for ad-hoc
// occurrence materialization.
type MaterializeOccurrenceRequest struct {
	CareItemSlug string `json:"care_item_slug" binding:"required"`
	Date         string `json:"date" binding:"required"`
}

// CompleteOccurrenceRequest represents the request body for completion
// recording. Cost is a decimal string; omitting it records a completion
// with no budget impact.
type CompleteOccurrenceRequest struct {
	CompletionDate    string  `json:"completion_date" binding:"required"`
	Cost              *string `json:"cost,omitempty"`
	AllowRecompletion bool    `json:"allow_recompletion,omitempty"`
}

// AppendCommentRequest represents the request body for appending a comment.
type AppendCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AppendFileRequest represents the request body for appending a file reference.
type AppendFileRequest struct {
	FileRef string `json:"file_ref" binding:"required"`
}

// OccurrenceCommentResponse represents one comment log entry.
type OccurrenceCommentResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// OccurrenceFileResponse represents one file log entry.
type OccurrenceFileResponse struct {
	ID        string    `json:"id"`
	FileRef   string    `json:"file_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// OccurrenceResponse represents a single occurrence in API responses.
// Status is the stored lifecycle status; DisplayStatus, when present, is
// the date-derived presentation status.
type OccurrenceResponse struct {
	ID             string                      `json:"id"`
	ClientID       string                      `json:"client_id"`
	CareItemSlug   string                      `json:"care_item_slug"`
	Date           string                      `json:"date"`
	Status         string                      `json:"status"`
	DisplayStatus  string                      `json:"display_status,omitempty"`
	CompletedAt    *string                     `json:"completed_at,omitempty"`
	CompletionCost *string                     `json:"completion_cost,omitempty"`
	Comments       []OccurrenceCommentResponse `json:"comments"`
	Files          []OccurrenceFileResponse    `json:"files"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// ScheduleResponse represents the response for a schedule sweep: every
// occurrence from the year start through the horizon, plus the items the
// sweep could not schedule.
type ScheduleResponse struct {
	Entries []OccurrenceResponse  `json:"entries"`
	Skipped []SkippedItemResponse `json:"skipped,omitempty"`
}

// SkippedItemResponse names a care item the sweep skipped and why.
type SkippedItemResponse struct {
	CareItemSlug string `json:"care_item_slug"`
	Reason       string `json:"reason"`
}

// ToOccurrenceResponse converts a domain Occurrence entity to an
// OccurrenceResponse DTO.
func ToOccurrenceResponse(o *entity.Occurrence) OccurrenceResponse {
	response := OccurrenceResponse{
		ID:             o.ID.String(),
		ClientID:       o.ClientID.String(),
		CareItemSlug:   o.CareItemSlug,
		Date:           o.DateKey,
		Status:         string(o.Status),
		CompletionCost: FormatMoneyPtr(o.CompletionCost),
		Comments:       make([]OccurrenceCommentResponse, len(o.Comments)),
		Files:          make([]OccurrenceFileResponse, len(o.Files)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.CompletedAt != nil {
		dateStr := o.CompletedAt.Format(entity.DateKeyLayout)
		response.CompletedAt = &dateStr
	}
	for i, comment := range o.Comments {
		response.Comments[i] = OccurrenceCommentResponse{
			ID:        comment.ID.String(),
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}
	}
	for i, file := range o.Files {
		response.Files[i] = OccurrenceFileResponse{
			ID:        file.ID.String(),
			FileRef:   file.FileRef,
			CreatedAt: file.CreatedAt,
		}
	}
	return response
}

// ToScheduleResponse converts a schedule sweep output to a ScheduleResponse.
func ToScheduleResponse(output *occurrence.MaterializeScheduleOutput) ScheduleResponse {
	response := ScheduleResponse{
		Entries: make([]OccurrenceResponse, len(output.Entries)),
	}
	for i, entry := range output.Entries {
		occResponse := ToOccurrenceResponse(entry.Occurrence)
		occResponse.DisplayStatus = string(entry.Status)
		response.Entries[i] = occResponse
	}
	for _, skipped := range output.Skipped {
		response.Skipped = append(response.Skipped, SkippedItemResponse{
			CareItemSlug: skipped.CareItemSlug,
			Reason:       skipped.Reason.Error(),
		})
	}
	return response
}
