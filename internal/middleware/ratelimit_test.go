package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/pkg/response"
)

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Decision), args.Error(1)
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(1, 2)
	ctx := context.Background()

	d, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Second)

	d, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "keys are limited independently")
}

func TestLocalLimiter_Prune(t *testing.T) {
	l := NewLocalLimiter(100, 1)
	l.maxKeys = 2

	now := time.Now()
	l.get("old", now.Add(-time.Hour))
	l.get("recent", now)
	l.get("new", now)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "old")
	assert.Contains(t, l.buckets, "recent")
	assert.Contains(t, l.buckets, "new")
}

func rateLimitApp(limiter Limiter) *fiber.App {
	return newTestApp(false, zap.NewNop(), func(app *fiber.App) {
		app.Use(RateLimit(limiter, DefaultRateLimitConfig(zap.NewNop())))
		app.Get("/ping", func(c *fiber.Ctx) error {
			return response.SuccessMessage(c, "pong")
		})
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed request sets headers", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.AnythingOfType("string")).
			Return(Decision{Allowed: true, Limit: 10, Remaining: 9}, nil)
		app := rateLimitApp(limiter)

		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)

		assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
		limiter.AssertExpectations(t)
	})

	t.Run("denied request raises fail with retry data", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.Anything).
			Return(Decision{Allowed: false, Limit: 10, RetryAfter: 1500 * time.Millisecond}, nil)
		app := rateLimitApp(limiter)

		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, "2", resp.Header.Get("Retry-After"))

		_, body := doRequest(t, app, "GET", "/ping")
		env := decodeEnvelope(t, body)
		assert.Equal(t, "fail", env["code"])
		assert.Equal(t, map[string]any{"retry_after": float64(2)}, env["data"])
	})

	t.Run("backend errors fail open", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.Anything).
			Return(Decision{}, errors.New("redis: connection refused"))
		app := rateLimitApp(limiter)

		_, body := doRequest(t, app, "GET", "/ping")
		env := decodeEnvelope(t, body)
		assert.Equal(t, "success", env["code"])
	})

	t.Run("keys on client ip when anonymous", func(t *testing.T) {
		limiter := new(MockLimiter)
		limiter.On("Allow", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "ip:")
		})).
			Return(Decision{Allowed: true, Limit: 1}, nil)
		app := rateLimitApp(limiter)

		_, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		limiter.AssertExpectations(t)
	})
}
