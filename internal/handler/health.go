package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/490273789/llmops-api/internal/pkg/response"
)

// Pinger is a dependency the health checks probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks    map[string]Pinger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. Nil checks are skipped, so
// optional dependencies can be passed unconditionally.
func NewHealthHandler(checks map[string]Pinger, version string) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{
		checks:    active,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus represents health check status
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = "unhealthy: " + err.Error()
			continue
		}
		status.Checks[name] = "healthy"
	}

	if status.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.New(response.CodeFail, "unhealthy", status))
	}
	return response.SuccessJSON(c, status)
}

// Liveness handles GET /livez - basic liveness probe
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return response.SuccessJSON(c, fiber.Map{
		"status": "alive",
	})
}

// Readiness handles GET /readyz - readiness probe
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(response.New(response.CodeFail, "not ready", fiber.Map{
				"status": "not ready",
				"reason": name + " unavailable",
			}))
		}
	}

	return response.SuccessJSON(c, fiber.Map{
		"status": "ready",
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *fiber.Ctx) error {
	return response.SuccessJSON(c, fiber.Map{
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
	})
}

// RegisterRoutes registers health check and metrics routes
func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/livez", h.Liveness)
	app.Get("/readyz", h.Readiness)
	app.Get("/version", h.Version)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
