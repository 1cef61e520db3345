package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sarthi-labs/hireflow-api/internal/config"
	"github.com/sarthi-labs/hireflow-api/internal/handler"
	"github.com/sarthi-labs/hireflow-api/internal/middleware"
	"github.com/sarthi-labs/hireflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DriveHandler      *handler.DriveHandler
	SubmissionHandler *handler.SubmissionHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.DriveHandler != nil {
		drives := app.Group("/api/v1/drives", jwtMiddleware)
		deps.DriveHandler.Register(drives)

		management := app.Group("/api/v1/drives", jwtMiddleware,
			middleware.RequireRole("recruiter", "admin"))
		deps.DriveHandler.RegisterManagement(management)
	}

	if deps.SubmissionHandler != nil {
		// Grading runs code on every request; rate limit per user.
		submissions := app.Group("/api/v1/submissions", jwtMiddleware,
			middleware.RateLimit("submissions", 30, time.Minute))
		deps.SubmissionHandler.Register(submissions)
	}
}
