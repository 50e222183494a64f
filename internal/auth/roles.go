package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// RequireRoles ensures the principal holds one of the allowed roles. Roles
// are compared in canonical ROLE_ form so "admin" and "ROLE_ADMIN" match.
// With no roles any authenticated caller passes.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[NormalizeRoleClaim(string(role))] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[NormalizeRoleClaim(string(principal.Role))]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
