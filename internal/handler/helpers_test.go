package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/middleware"
	"github.com/490273789/llmops-api/internal/pkg/response"
)

var testAuth = middleware.NewAuthenticator(config.AuthConfig{
	Enabled:   true,
	JWTSecret: "handler-test-secret",
	Issuer:    "llmops",
})

// newTestApp builds an app wired like the server: optional authentication,
// the fault translator as error handler and a terminal not found handler
func newTestApp(register func(router fiber.Router)) *fiber.App {
	translator := middleware.NewFaultTranslator(middleware.FaultTranslatorConfig{})
	app := fiber.New(fiber.Config{ErrorHandler: translator.Handle})
	app.Use(testAuth.Optional())
	register(app)
	app.Use(middleware.NotFound)
	return app
}

type envelope struct {
	Code    response.Code   `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doRequest sends body as JSON, authenticated as accountID unless it is uuid.Nil
func doRequest(t *testing.T, app *fiber.App, method, path string, body any, accountID uuid.UUID) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accountID != uuid.Nil {
		token, err := testAuth.Issue(accountID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}
