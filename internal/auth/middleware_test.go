package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

func newTestApp(tm *TokenManager, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) {
				return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
			}
			return c.Status(http.StatusInternalServerError).SendString(err.Error())
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/protected", mw.Handle, guard, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(string(principal.Role))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm, clk := newTestManager()
	staffToken, _, _ := tm.GenerateAccessToken("u-staff", "s@example.com", domain.RoleStaff)
	clientToken, _, _ := tm.GenerateAccessToken("u-client", "c@example.com", domain.RoleClient)
	refreshToken, _, _ := tm.GenerateRefreshToken("u-staff", "s@example.com")
	expiring, _, _ := tm.GenerateAccessToken("u-staff", "s@example.com", domain.RoleStaff)

	app := newTestApp(tm, RequireRoles(domain.RoleAdmin, domain.RoleStaff))

	tests := []struct {
		name    string
		header  string
		advance time.Duration
		status  int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "staff allowed", header: "Bearer " + staffToken, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + staffToken, status: http.StatusOK},
		{name: "client forbidden", header: "Bearer " + clientToken, status: http.StatusForbidden},
		{name: "refresh token rejected", header: "Bearer " + refreshToken, status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expiring, advance: time.Hour, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.advance > 0 {
				clk.Advance(tt.advance)
			}
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestRequireRolesWithoutRolesAllowsAnyPrincipal(t *testing.T) {
	tm, _ := newTestManager()
	app := newTestApp(tm, RequireRoles())
	token, _, _ := tm.GenerateAccessToken("u-client", "c@example.com", domain.RoleClient)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
