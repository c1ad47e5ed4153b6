// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/care-plan/backend/internal/application/usecase/budget"
	"github.com/care-plan/backend/internal/application/usecase/rollover"
	domainerror "github.com/care-plan/backend/internal/domain/error"
	"github.com/care-plan/backend/internal/integration/entrypoint/dto"
)

// BudgetController handles budget endpoints.
type BudgetController struct {
	summaryUseCase       *budget.GetBudgetSummaryUseCase
	setAllocationUseCase *budget.SetAllocationUseCase
	setAnnualUseCase     *budget.SetAnnualAllocationUseCase
	rolloverUseCase      *rollover.RolloverYearUseCase
}

// NewBudgetController creates a new budget controller instance.
func NewBudgetController(
	summaryUseCase *budget.GetBudgetSummaryUseCase,
	setAllocationUseCase *budget.SetAllocationUseCase,
	setAnnualUseCase *budget.SetAnnualAllocationUseCase,
	rolloverUseCase *rollover.RolloverYearUseCase,
) *BudgetController {
	return &BudgetController{
		summaryUseCase:       summaryUseCase,
		setAllocationUseCase: setAllocationUseCase,
		setAnnualUseCase:     setAnnualUseCase,
		rolloverUseCase:      rolloverUseCase,
	}
}

// GetSummary handles GET /clients/:client_id/budget/:year requests.
func (c *BudgetController) GetSummary(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}
	year, ok := parseYear(ctx)
	if !ok {
		return
	}

	output, err := c.summaryUseCase.Execute(ctx.Request.Context(), budget.GetBudgetSummaryInput{
		ClientID: clientID,
		Year:     year,
	})
	if err != nil {
		c.handleBudgetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBudgetSummaryResponse(output.Summary))
}

// SetAllocation handles PUT /clients/:client_id/budget/:year/allocations requests.
func (c *BudgetController) SetAllocation(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}
	year, ok := parseYear(ctx)
	if !ok {
		return
	}

	var req dto.SetAllocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	amount, err := dto.ParseMoney(req.Amount)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid amount: " + err.Error(),
		})
		return
	}

	output, err := c.setAllocationUseCase.Execute(ctx.Request.Context(), budget.SetAllocationInput{
		ClientID:     clientID,
		Year:         year,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		CareItemSlug: req.CareItemSlug,
		ItemLabel:    req.ItemLabel,
		Amount:       amount,
	})
	if err != nil {
		c.handleBudgetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBudgetYearResponse(output.Year))
}

// SetAnnualAllocation handles PUT /clients/:client_id/budget/:year/annual requests.
func (c *BudgetController) SetAnnualAllocation(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}
	year, ok := parseYear(ctx)
	if !ok {
		return
	}

	var req dto.SetAnnualAllocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
		})
		return
	}

	amount, err := dto.ParseMoney(req.Amount)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid amount: " + err.Error(),
		})
		return
	}

	output, err := c.setAnnualUseCase.Execute(ctx.Request.Context(), budget.SetAnnualAllocationInput{
		ClientID: clientID,
		Year:     year,
		Amount:   amount,
	})
	if err != nil {
		c.handleBudgetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBudgetYearResponse(output.Year))
}

// Rollover handles POST /clients/:client_id/budget/:year/rollover requests.
// The path year is the source year; the response is the seeded target year.
func (c *BudgetController) Rollover(ctx *gin.Context) {
	clientID, ok := parseClientID(ctx)
	if !ok {
		return
	}
	year, ok := parseYear(ctx)
	if !ok {
		return
	}

	// The body is optional; an absent body means default options.
	var req dto.RolloverRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	output, err := c.rolloverUseCase.Execute(ctx.Request.Context(), rollover.RolloverYearInput{
		ClientID: clientID,
		FromYear: year,
		Force:    req.Force,
	})
	if err != nil {
		c.handleBudgetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToBudgetYearResponse(output.Year))
}

// handleBudgetError maps budget and storage errors to HTTP responses.
func (c *BudgetController) handleBudgetError(ctx *gin.Context, err error) {
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

	if errors.Is(err, domainerror.ErrBudgetYearNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: "Budget year not found",
			Code:  string(domainerror.ErrCodeBudgetYearNotFound),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusForBudgetCode maps budget error codes to HTTP status codes.
func statusForBudgetCode(code domainerror.BudgetErrorCode) int {
	switch code {
	case domainerror.ErrCodeBudgetYearNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeUnknownCategory, domainerror.ErrCodeNegativeAllocation:
		return http.StatusBadRequest
	case domainerror.ErrCodeNegativeSpendViolation,
		domainerror.ErrCodeYearNotClosed,
		domainerror.ErrCodeYearAlreadyRolled:
		return http.StatusConflict
	case domainerror.ErrCodeRollupMismatch:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// parseYear parses the year path parameter, responding with a 400 on failure.
func parseYear(ctx *gin.Context) (int, bool) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid year",
		})
		return 0, false
	}
	return year, true
}
