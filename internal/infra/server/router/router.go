// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/care-plan/backend/internal/integration/entrypoint/controller"
	"github.com/care-plan/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine             *gin.Engine
	healthController   *controller.HealthController
	scheduleController *controller.ScheduleController
	budgetController   *controller.BudgetController
	rateLimiter        *middleware.RateLimiter
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	scheduleController *controller.ScheduleController,
	budgetController *controller.BudgetController,
	rateLimiter *middleware.RateLimiter,
) *Router {
	return &Router{
		healthController:   healthController,
		scheduleController: scheduleController,
		budgetController:   budgetController,
		rateLimiter:        rateLimiter,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Schedule and occurrence routes
		if r.scheduleController != nil {
			clients := v1.Group("/clients/:client_id")
			{
				clients.GET("/schedule", r.scheduleController.Sweep)
				clients.POST("/occurrences", r.limited(), r.scheduleController.Materialize)
			}

			occurrences := v1.Group("/occurrences/:id")
			{
				occurrences.POST("/complete", r.limited(), r.scheduleController.Complete)
				occurrences.POST("/comments", r.limited(), r.scheduleController.AppendComment)
				occurrences.POST("/files", r.limited(), r.scheduleController.AppendFile)
			}
		}

		// Budget routes
		if r.budgetController != nil {
			budget := v1.Group("/clients/:client_id/budget/:year")
			{
				budget.GET("", r.budgetController.GetSummary)
				budget.PUT("/allocations", r.limited(), r.budgetController.SetAllocation)
				budget.PUT("/annual", r.limited(), r.budgetController.SetAnnualAllocation)
				budget.POST("/rollover", r.limited(), r.budgetController.Rollover)
			}
		}
	}
}

// limited wraps a route with the mutation rate limiter when configured.
func (r *Router) limited() gin.HandlerFunc {
	if r.rateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimiter.Middleware()
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
