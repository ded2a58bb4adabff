package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/490273789/llmops-api/internal/dto"
	"github.com/490273789/llmops-api/internal/pkg/prompt"
	"github.com/490273789/llmops-api/internal/pkg/response"
	"github.com/490273789/llmops-api/internal/service"
)

// PromptService defines the prompt operations used by PromptsHandler
type PromptService interface {
	List(ctx context.Context) []prompt.LibraryEntry
	Compile(ctx context.Context, input *service.CompileInput) (*service.CompiledPrompt, error)
}

// PromptsHandler handles prompt template endpoints
type PromptsHandler struct {
	service PromptService
}

// NewPromptsHandler creates a new prompts handler
func NewPromptsHandler(service PromptService) *PromptsHandler {
	return &PromptsHandler{service: service}
}

// List handles GET /prompts
func (h *PromptsHandler) List(c *fiber.Ctx) error {
	return response.SuccessJSON(c, fiber.Map{
		"prompts": h.service.List(c.UserContext()),
	})
}

// Compile handles POST /prompts/compile
func (h *PromptsHandler) Compile(c *fiber.Ctx) error {
	var req dto.CompilePromptRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return err
	}

	compiled, err := h.service.Compile(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return response.SuccessJSON(c, compiled)
}

// RegisterRoutes registers prompt routes
func (h *PromptsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/prompts", h.List)
	router.Post("/prompts/compile", h.Compile)
}
