// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/care-plan/backend/config"
	"github.com/care-plan/backend/internal/application/adapter"
	"github.com/care-plan/backend/internal/application/usecase/budget"
	"github.com/care-plan/backend/internal/application/usecase/occurrence"
	"github.com/care-plan/backend/internal/application/usecase/rollover"
	"github.com/care-plan/backend/internal/infra/server/router"
	"github.com/care-plan/backend/internal/integration/adapters"
	"github.com/care-plan/backend/internal/integration/entrypoint/controller"
	"github.com/care-plan/backend/internal/integration/entrypoint/middleware"
	"github.com/care-plan/backend/internal/integration/persistence"
)

// Injector holds all application dependencies.
type Injector struct {
	Config *config.Config
	DB     *gorm.DB
	Router *router.Router
}

// NewInjector creates a new dependency injector with all dependencies
// wired. The redis client is optional; without it budget summaries are
// always read from the store.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Injector {
	// Create repositories
	occurrenceRepo := persistence.NewOccurrenceRepository(db)
	budgetRepo := persistence.NewBudgetYearRepository(db)
	catalog := persistence.NewCareItemRepository(db)

	// Create adapters/services
	clock := adapters.NewSystemClock()
	var summaryCache adapter.BudgetSummaryCache
	if redisClient != nil {
		summaryCache = adapters.NewBudgetSummaryCache(redisClient, cfg.Redis.SummaryTTL)
	}

	// Create budget use cases
	applySpendDeltaUseCase := budget.NewApplySpendDeltaUseCase(budgetRepo, summaryCache)
	setAllocationUseCase := budget.NewSetAllocationUseCase(budgetRepo, summaryCache)
	setAnnualUseCase := budget.NewSetAnnualAllocationUseCase(budgetRepo, summaryCache)
	summaryUseCase := budget.NewGetBudgetSummaryUseCase(budgetRepo, summaryCache)
	rolloverUseCase := rollover.NewRolloverYearUseCase(budgetRepo, summaryCache, clock, rollover.Policy{
		CarryDeficit: cfg.Rollover.CarryDeficit,
	})

	// Create occurrence use cases
	materializeUseCase := occurrence.NewMaterializeOccurrenceUseCase(occurrenceRepo, catalog)
	sweepUseCase := occurrence.NewMaterializeScheduleUseCase(catalog, occurrenceRepo, materializeUseCase, clock)
	completeUseCase := occurrence.NewRecordCompletionUseCase(occurrenceRepo, catalog, applySpendDeltaUseCase)
	appendUseCase := occurrence.NewAppendEntryUseCase(occurrenceRepo)

	// Create controllers
	healthController := controller.NewHealthController(
		func() bool {
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}
			return sqlDB.Ping() == nil
		},
		cacheHealthChecker(redisClient),
	)
	scheduleController := controller.NewScheduleController(
		sweepUseCase,
		materializeUseCase,
		completeUseCase,
		appendUseCase,
	)
	budgetController := controller.NewBudgetController(
		summaryUseCase,
		setAllocationUseCase,
		setAnnualUseCase,
		rolloverUseCase,
	)

	// Create middleware
	// Use higher rate limits for test environments to prevent flaky tests
	var rateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "test" {
		rateLimiter = middleware.NewRateLimiterWithConfig(10000, 1*time.Minute)
	} else {
		rateLimiter = middleware.NewRateLimiter()
	}

	r := router.NewRouter(healthController, scheduleController, budgetController, rateLimiter)

	return &Injector{
		Config: cfg,
		DB:     db,
		Router: r,
	}
}

// cacheHealthChecker builds a ping check for the optional redis client.
func cacheHealthChecker(client *redis.Client) func() bool {
	if client == nil {
		return nil
	}
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err() == nil
	}
}
