package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobsetu/jobsetu-api/internal/config"
	"github.com/jobsetu/jobsetu-api/internal/handler"
	"github.com/jobsetu/jobsetu-api/internal/middleware"
	"github.com/jobsetu/jobsetu-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	JobHandler          *handler.JobHandler
	AssessmentHandler   *handler.AssessmentHandler
	AttemptHandler      *handler.AttemptHandler
	ApplicationHandler  *handler.ApplicationHandler
	PaymentHandler      *handler.PaymentHandler
	PlacementHandler    *handler.PlacementHandler
	NotificationHandler *handler.NotificationHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtProtected := middleware.JWTProtected(cfg.JWTSecret)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.JobHandler != nil {
		deps.JobHandler.Register(api.Group("/jobs"))
	}

	if deps.AssessmentHandler != nil {
		assessments := api.Group("/assessments", jwtProtected)
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.AttemptHandler != nil {
		attempts := api.Group("", jwtProtected, middleware.RequireRole("candidate"))
		deps.AttemptHandler.Register(attempts)
	}

	if deps.PaymentHandler != nil {
		payments := api.Group("/payment", jwtProtected, middleware.RequireRole("candidate"))
		deps.PaymentHandler.Register(payments)
	}

	if deps.ApplicationHandler != nil {
		applications := api.Group("/applications", jwtProtected, middleware.RequireRole("candidate"))
		deps.ApplicationHandler.Register(applications)
	}

	if deps.PlacementHandler != nil {
		placements := api.Group("/placements", jwtProtected, middleware.RequireRole("placement"))
		deps.PlacementHandler.Register(placements)
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtProtected)
		deps.NotificationHandler.Register(notifications)
	}
}
