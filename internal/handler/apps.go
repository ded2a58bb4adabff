package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/dto"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/pagination"
	"github.com/490273789/llmops-api/internal/pkg/response"
)

// AppService defines the app operations used by AppsHandler
type AppService interface {
	CreateApp(ctx context.Context, accountID uuid.UUID, input *domain.AppInput) (*domain.App, error)
	GetApp(ctx context.Context, accountID, id uuid.UUID) (*domain.App, error)
	UpdateApp(ctx context.Context, accountID, id uuid.UUID, input *domain.AppUpdateInput) (*domain.App, error)
	DeleteApp(ctx context.Context, accountID, id uuid.UUID) (*domain.App, error)
	ListApps(ctx context.Context, accountID uuid.UUID, limit int, after string) (*pagination.Page[domain.App], error)
}

// AppsHandler handles app endpoints. Failures are returned to the error
// handler and never rendered here.
type AppsHandler struct {
	service AppService
}

// NewAppsHandler creates a new apps handler
func NewAppsHandler(service AppService) *AppsHandler {
	return &AppsHandler{service: service}
}

// Create handles POST /app
func (h *AppsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	app, err := h.service.CreateApp(c.UserContext(), accountID(c), req.ToInput())
	if err != nil {
		return err
	}

	return response.JSON(c, response.New(response.CodeSuccess, fmt.Sprintf("应用已成功创建，应用Id为%s", app.ID), app))
}

// List handles GET /app
func (h *AppsHandler) List(c *fiber.Ctx) error {
	page, err := h.service.ListApps(c.UserContext(), accountID(c), parseQueryInt(c, "limit", 0), c.Query("cursor"))
	if err != nil {
		return err
	}

	return response.SuccessJSON(c, page)
}

// Get handles GET /app/:id
func (h *AppsHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	app, err := h.service.GetApp(c.UserContext(), accountID(c), id)
	if err != nil {
		return err
	}

	return response.JSON(c, response.New(response.CodeSuccess, fmt.Sprintf("应用name为%s", app.Name), app))
}

// Update handles POST /app/:id
func (h *AppsHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateAppRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	app, err := h.service.UpdateApp(c.UserContext(), accountID(c), id, req.ToInput())
	if err != nil {
		return err
	}

	return response.JSON(c, response.New(response.CodeSuccess, fmt.Sprintf("更新后名字是%s", app.Name), app))
}

// Delete handles POST /app/:id/delete
func (h *AppsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	app, err := h.service.DeleteApp(c.UserContext(), accountID(c), id)
	if err != nil {
		return err
	}

	return response.SuccessMessage(c, fmt.Sprintf("删除成功，删除id为%s", app.ID))
}

// Ping handles GET /ping. It always raises a fail failure, which makes it a
// probe for the error handler rather than for liveness (see /livez).
func (h *AppsHandler) Ping(c *fiber.Ctx) error {
	return apperrors.Fail("数据未找到")
}

// RegisterRoutes registers app routes. writeGuards run before the update and
// delete handlers.
func (h *AppsHandler) RegisterRoutes(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/ping", h.Ping)

	router.Post("/app", h.Create)
	router.Get("/app", h.List)
	router.Get("/app/:id", h.Get)
	guarded := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, writeGuards...), handler)
	}
	router.Post("/app/:id", guarded(h.Update)...)
	router.Post("/app/:id/delete", guarded(h.Delete)...)
}
