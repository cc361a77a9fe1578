package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/api/handlers"
	"github.com/inboxpilot/warmstack/api/middleware"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(repos, s.LifecycleService, s.Orchestrator)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-WARMSTACK-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TenantValidationMiddleware())
	api.Use(middleware.CustomContextMiddleware("warmstack")) // Add custom context for all /v1/* endpoints
	api.Use(middleware.TracingMiddleware())                  // Add tracing for all /v1/* endpoints
	{
		// Domain lifecycle endpoints
		domains := api.Group("/domains")
		{
			domains.POST("", apiHandlers.Domains.RegisterNewDomain())
			domains.GET("/:domain", apiHandlers.Domains.GetDomain())
			domains.POST("/:domain/transition", apiHandlers.Domains.TransitionDomain())
			domains.POST("/:domain/rewarm", apiHandlers.Domains.ReWarmDomain())
			domains.GET("/:domain/rotation", apiHandlers.Domains.RotationEligibility())
		}

		// Placement test endpoints
		tests := api.Group("/tests")
		{
			tests.POST("", apiHandlers.Tests.SubmitTest())
			tests.GET("/:id", apiHandlers.Tests.GetTest())
			tests.GET("/:id/results", apiHandlers.Tests.PollResults())
		}

		// Scheduled test registry
		schedule := api.Group("/schedule")
		{
			schedule.DELETE("/:id", apiHandlers.Tests.CancelScheduledTest())
		}
	}
}
