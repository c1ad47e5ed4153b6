// Package rollover contains the year-boundary budget rollover use case.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/domain/entity"
	domainerror "github.com/care-plan/backend/internal/domain/error"
)

// Policy configures how a year's closing surplus becomes the next
// year's opening carryover. Under the default policy a deficit is
// clamped to zero; CarryDeficit lets a negative balance propagate
// (debt model).
type Policy struct {
	CarryDeficit bool
}

// RolloverYearInput represents the input for a year rollover. Force
// overrides the closed-year check for administrative corrections.
type RolloverYearInput struct {
	ClientID uuid.UUID
	FromYear int
	Force    bool
}

// RolloverYearOutput represents the output of a year rollover.
type RolloverYearOutput struct {
	Year *entity.BudgetYear
}

// RolloverYearUseCase seeds year N+1's opening carryover from year N's
// closing surplus. The new year starts with an empty category list;
// copying templates is an explicit separate operation.
type RolloverYearUseCase struct {
	budgetRepo adapter.BudgetYearRepository
	cache      adapter.BudgetSummaryCache
	clock      adapter.Clock
	policy     Policy
}

// NewRolloverYearUseCase creates a new RolloverYearUseCase instance.
// The cache is optional and may be nil.
func NewRolloverYearUseCase(
	budgetRepo adapter.BudgetYearRepository,
	cache adapter.BudgetSummaryCache,
	clock adapter.Clock,
	policy Policy,
) *RolloverYearUseCase {
	return &RolloverYearUseCase{
		budgetRepo: budgetRepo,
		cache:      cache,
		clock:      clock,
		policy:     policy,
	}
}

// Execute performs the year rollover.
func (uc *RolloverYearUseCase) Execute(ctx context.Context, input RolloverYearInput) (*RolloverYearOutput, error) {
	currentYear := uc.clock.Now().UTC().Year()
	if input.FromYear >= currentYear && !input.Force {
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeYearNotClosed,
			fmt.Sprintf("year %d has not fully elapsed", input.FromYear),
			domainerror.ErrYearNotClosed,
		)
	}

	fromYear, err := uc.budgetRepo.FindByClientAndYear(ctx, input.ClientID, input.FromYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load source year: %w", err)
	}

	toYearNumber := input.FromYear + 1
	if _, err := uc.budgetRepo.FindByClientAndYear(ctx, input.ClientID, toYearNumber); err == nil {
		// Rolling into an existing year would overwrite its opening
		// balance; the caller must resolve this explicitly.
		return nil, domainerror.NewBudgetError(
			domainerror.ErrCodeYearAlreadyRolled,
			fmt.Sprintf("budget year %d already exists for client %s", toYearNumber, input.ClientID),
			domainerror.ErrYearAlreadyRolled,
		)
	} else if !errors.Is(err, domainerror.ErrBudgetYearNotFound) {
		return nil, fmt.Errorf("failed to check target year: %w", err)
	}

	// Recompute from the source document rather than trusting the cached
	// surplus field.
	surplus := fromYear.AnnualAllocated + fromYear.OpeningCarryover - fromYear.Totals.Spent
	carryover := surplus
	if carryover < 0 && !uc.policy.CarryDeficit {
		carryover = 0
	}

	toYear := entity.NewBudgetYear(input.ClientID, toYearNumber)
	toYear.OpeningCarryover = carryover
	toYear.RolledFromYear = &input.FromYear
	toYear.RecomputeTotals()

	if err := uc.budgetRepo.Create(ctx, toYear); err != nil {
		return nil, fmt.Errorf("failed to create rolled-over year: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, input.ClientID, toYearNumber); err != nil {
			slog.Warn("Failed to invalidate budget summary cache",
				"client_id", input.ClientID,
				"year", toYearNumber,
				"error", err,
			)
		}
	}

	slog.Info("Budget year rolled over",
		"client_id", input.ClientID,
		"from_year", input.FromYear,
		"to_year", toYearNumber,
		"carryover", carryover,
	)
	return &RolloverYearOutput{Year: toYear}, nil
}
