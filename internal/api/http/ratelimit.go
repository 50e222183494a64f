package http

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/ratelimit"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// RateLimit counts requests per path and client IP under name. Limiter
// errors let the request through: an unreachable Redis must not take login
// down.
func RateLimit(limiter ratelimit.Limiter, name string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		decision, err := limiter.Allow(c.UserContext(), name+":"+c.Path()+":"+c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
			return c.Next()
		}
		if !decision.Allowed {
			return apperrors.NewRateLimited(int(math.Ceil(decision.RetryAfter.Seconds())))
		}
		return c.Next()
	}
}
