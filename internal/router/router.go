package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/handler"
	"github.com/noah-isme/scholar-ledger-api/internal/middleware"
	"github.com/noah-isme/scholar-ledger-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SettingsHandler *handler.SettingsHandler
	ClassHandler    *handler.ClassHandler
	StudentHandler  *handler.StudentHandler
	ScoreHandler    *handler.ScoreHandler
	ReportHandler   *handler.ReportHandler
	BursaryHandler  *handler.BursaryHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
	HealthChecks    []handler.HealthDependency
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", jwtMiddleware, middleware.RequireIdentity())
	staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTeacher, middleware.RoleBursar)

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(v2.Group("/settings", staff))
	}

	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(v2.Group("/classes", staff))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(v2.Group("/students", staff))
	}

	// Score entry
	if deps.ScoreHandler != nil {
		scores := v2.Group("/scores", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTeacher))
		deps.ScoreHandler.Register(scores)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(v2.Group("/reports", staff))
	}

	// Bursary writes share one limiter per staff member
	if deps.BursaryHandler != nil {
		bursary := v2.Group("/bursary",
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleBursar),
			middleware.RateLimit("bursary", cfg.RateLimitMax, cfg.RateLimitWindow),
		)
		deps.BursaryHandler.Register(bursary)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(v2.Group("/activity", middleware.RequireRole(middleware.RoleAdmin)))
	}
}
