package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newMiddlewareApp(logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return WriteError(c, logger, metrics, err)
		},
	})
	RegisterMiddlewares(app, logger, metrics, time.Second)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string) (int, errorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	metrics := observability.NewMetrics()
	app := newMiddlewareApp(logger, metrics)

	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("client has open work", map[string]any{"active_tasks": 2})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("db exploded")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("nil map")
	})
	app.Get("/deadline", func(c *fiber.Ctx) error {
		if _, ok := c.UserContext().Deadline(); !ok {
			return errors.New("no deadline on request context")
		}
		return c.SendStatus(http.StatusNoContent)
	})

	status, body := call(t, app, http.MethodGet, "/conflict")
	if status != http.StatusConflict || body.Error.Code != "CONFLICT" || body.Error.Details["active_tasks"] != float64(2) {
		t.Fatalf("conflict: %d %+v", status, body)
	}

	status, body = call(t, app, http.MethodGet, "/boom")
	if status != http.StatusInternalServerError || body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("boom: %d %+v", status, body)
	}
	if body.Error.Message == "db exploded" {
		t.Fatal("internal error text must not leak")
	}

	status, body = call(t, app, http.MethodGet, "/panic")
	if status != http.StatusInternalServerError || body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("panic: %d %+v", status, body)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatal("panic was not logged")
	}

	status, body = call(t, app, http.MethodGet, "/missing")
	if status != http.StatusNotFound || body.Error.Code != "NOT_FOUND" {
		t.Fatalf("missing: %d %+v", status, body)
	}

	if status, _ := call(t, app, http.MethodGet, "/deadline"); status != http.StatusNoContent {
		t.Fatalf("deadline: %d", status)
	}

	if logs.FilterMessage("request").Len() != 5 {
		t.Fatalf("request log lines = %d", logs.FilterMessage("request").Len())
	}
	if len(metrics.Snapshot().Errors) != 4 {
		t.Fatalf("errors recorded = %+v", metrics.Snapshot().Errors)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, errors.New("connection refused")
}

func TestRateLimitFailsOpen(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	app := newMiddlewareApp(logger, nil)
	app.Post("/auth/login", RateLimit(failingLimiter{}, "public", logger), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		if status, _ := call(t, app, http.MethodPost, "/auth/login"); status != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, status)
		}
	}
	if logs.FilterMessage("rate limiter unavailable").Len() != 3 {
		t.Fatal("limiter failures should be logged")
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	app := newMiddlewareApp(zap.NewNop(), nil)
	limiter := ratelimit.NewMemoryLimiter(nil, 1, time.Minute)
	app.Post("/public/leads", RateLimit(limiter, "public", zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})

	if status, _ := call(t, app, http.MethodPost, "/public/leads"); status != http.StatusCreated {
		t.Fatalf("first request: %d", status)
	}
	status, body := call(t, app, http.MethodPost, "/public/leads")
	if status != http.StatusTooManyRequests || body.Error.Code != "RATE_LIMITED" {
		t.Fatalf("second request: %d %+v", status, body)
	}
}
