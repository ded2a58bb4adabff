package main

import (
	"github.com/gofiber/fiber/v2"

	"github.com/490273789/llmops-api/internal/middleware"
)

// registerRoutes registers all HTTP routes. Unmatched requests end in
// middleware.NotFound so they are rendered like any other failure.
func registerRoutes(app *fiber.App, deps *Dependencies) {
	// Health check routes (no auth, no rate limit)
	deps.HealthHandler.RegisterRoutes(app)

	var requireAccount []fiber.Handler
	if deps.Authenticator != nil {
		app.Use(deps.Authenticator.Optional())
		requireAccount = append(requireAccount, deps.Authenticator.Require())
	}
	if deps.Limiter != nil {
		app.Use(middleware.RateLimit(deps.Limiter, middleware.DefaultRateLimitConfig(deps.Logger)))
	}

	deps.AppsHandler.RegisterRoutes(app, requireAccount...)
	deps.PromptsHandler.RegisterRoutes(app)

	app.Use(middleware.NotFound)
}
