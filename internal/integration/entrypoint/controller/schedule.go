// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/usecase/occurrence"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/entrypoint/dto"
)

// ScheduleController handles schedule and occurrence endpoints.
type ScheduleController struct {
	sweepUseCase       *occurrence.MaterializeScheduleUseCase
	materializeUseCase *occurrence.MaterializeOccurrenceUseCase
	completeUseCase    *occurrence.RecordCompletionUseCase
	appendUseCase      *occurrence.AppendEntryUseCase
}

// NewScheduleController creates a new schedule controller instance.
func NewScheduleController(
	sweepUseCase *occurrence.MaterializeScheduleUseCase,
	materializeUseCase *occurrence.MaterializeOccurrenceUseCase,
	completeUseCase *occurrence.RecordCompletionUseCase,
	appendUseCase *occurrence.AppendEntryUseCase,
) *ScheduleController {
	return &ScheduleController{
		sweepUseCase:       sweepUseCase,
		materializeUseCase: materializeUseCase,
		completeUseCase:    completeUseCase,
		appendUseCase:      appendUseCase,
	}
}

// Sweep handles GET /clients/:client_id/schedule requests. Loading the
// schedule view is what drives materialization; an optional horizon
// query parameter extends it into the future.
func (c *ScheduleController) Sweep(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}

	input := occurrence.MaterializeScheduleInput{ClientID: clientID}
	if raw := ctx.Query("horizon"); raw != "" {
		horizon, err := time.Parse(entity.DateKeyLayout, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid horizon date, expected YYYY-MM-DD",
			})
			return
		}
		input.Horizon = horizon
	}

	output, err := c.sweepUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleOccurrenceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToScheduleResponse(output))
}

// Materialize handles POST /clients/:client_id/occurrences requests.
// Re-posting the same identity returns the existing occurrence.
func (c *ScheduleController) Materialize(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}

	var req dto.MaterializeOccurrenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	date, err := time.Parse(entity.DateKeyLayout, req.Date)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid date, expected YYYY-MM-DD",
		})
		return
	}

	output, err := c.materializeUseCase.Execute(ctx.Request.Context(), occurrence.MaterializeOccurrenceInput{
		ClientID:     clientID,
		CareItemSlug: req.CareItemSlug,
		Date:         date,
	})
	if err != nil {
		c.handleOccurrenceError(ctx, err)
		return
	}

	status := http.StatusOK
	if output.Created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.ToOccurrenceResponse(output.Occurrence))
}

// Complete handles POST /occurrences/:id/complete requests.
func (c *ScheduleController) Complete(ctx *gin.Context) {
	occurrenceID, ok := parseOccurrenceID(ctx)
	if !ok {
		return
	}

	var req dto.CompleteOccurrenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	completionDate, err := time.Parse(entity.DateKeyLayout, req.CompletionDate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid completion date, expected YYYY-MM-DD",
		})
		return
	}

	input := occurrence.RecordCompletionInput{
		OccurrenceID:      occurrenceID,
		CompletionDate:    completionDate,
		AllowRecompletion: req.AllowRecompletion,
	}
	if req.Cost != nil {
		cost, err := dto.ParseMoney(*req.Cost)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid cost: " + err.Error(),
			})
			return
		}
		input.Cost = &cost
	}

	output, err := c.completeUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleOccurrenceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToOccurrenceResponse(output.Occurrence))
}

// AppendComment handles POST /occurrences/:id/comments requests.
func (c *ScheduleController) AppendComment(ctx *gin.Context) {
	occurrenceID, ok := parseOccurrenceID(ctx)
	if !ok {
		return
	}

	var req dto.AppendCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	output, err := c.appendUseCase.AppendComment(ctx.Request.Context(), occurrence.AppendCommentInput{
		OccurrenceID: occurrenceID,
		Text:         req.Text,
	})
	if err != nil {
		c.handleOccurrenceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToOccurrenceResponse(output.Occurrence))
}

// AppendFile handles POST /occurrences/:id/files requests.
func (c *ScheduleController) AppendFile(ctx *gin.Context) {
	occurrenceID, ok := parseOccurrenceID(ctx)
	if !ok {
		return
	}

	var req dto.AppendFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	output, err := c.appendUseCase.AppendFile(ctx.Request.Context(), occurrence.AppendFileInput{
		OccurrenceID: occurrenceID,
		FileRef:      req.FileRef,
	})
	if err != nil {
		c.handleOccurrenceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToOccurrenceResponse(output.Occurrence))
}

// handleOccurrenceError maps domain errors to HTTP responses.
func (c *ScheduleController) handleOccurrenceError(ctx *gin.Context, err error) {
	var occErr *domainerror.OccurrenceError
	if errors.As(err, &occErr) {
		ctx.JSON(c.statusForOccurrenceCode(occErr.Code), dto.ErrorResponse{
			Error: occErr.Message,
			Code:  string(occErr.Code),
		})
		return
	}

	var recErr *domainerror.RecurrenceError
	if errors.As(err, &recErr) {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: recErr.Message,
			Code:  string(recErr.Code),
		})
		return
	}

	var budErr *domainerror.BudgetError
	if errors.As(err, &budErr) {
		ctx.JSON(statusForBudgetCode(budErr.Code), dto.ErrorResponse{
			Error: budErr.Message,
			Code:  string(budErr.Code),
		})
		return
	}

	var stoErr *domainerror.StorageError
	if errors.As(err, &stoErr) {
		ctx.JSON(statusForStorageCode(stoErr.Code), dto.ErrorResponse{
			Error: stoErr.Message,
			Code:  string(stoErr.Code),
		})
		return
	}

	if errors.Is(err, domainerror.ErrOccurrenceNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "Occurrence not found",
			Code:  string(domainerror.ErrCodeOccurrenceNotFound),
		})
		return
	}
	if errors.Is(err, domainerror.ErrCareItemNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "Care item not found",
			Code:  string(domainerror.ErrCodeCareItemNotFound),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusForOccurrenceCode maps occurrence error codes to HTTP status codes.
func (c *ScheduleController) statusForOccurrenceCode(code domainerror.OccurrenceErrorCode) int {
	switch code {
	case domainerror.ErrCodeOccurrenceNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeAlreadyCompleted,
		domainerror.ErrCodeConflictingCompletion,
		domainerror.ErrCodeDuplicateOccurrence:
		return http.StatusConflict
	case domainerror.ErrCodeEmptyAppendEntry,
		domainerror.ErrCodeInvalidOccurrenceStatus,
		domainerror.ErrCodeOccurrencePastRangeEnd:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusForStorageCode maps storage error codes to HTTP status codes.
func statusForStorageCode(code domainerror.StorageErrorCode) int {
	switch code {
	case domainerror.ErrCodeCareItemNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeConcurrencyConflict:
		return http.StatusConflict
	case domainerror.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseClientID parses the client_id path parameter, responding with a
// 400 on failure.
func parseClientID(ctx *gin.Context) (uuid.UUID, bool) {
	clientID, err := uuid.Parse(ctx.Param("client_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid client ID format",
		})
		return uuid.Nil, false
	}
	return clientID, true
}

// parseOccurrenceID parses the id path parameter, responding with a 400
// on failure.
func parseOccurrenceID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid occurrence ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}
