package public

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/usage_dashboard/internal/app"
	"github.com/ncecere/usage_dashboard/internal/httpserver/httputil"
	"github.com/ncecere/usage_dashboard/internal/limits"
)

// rateLimit enforces the per-client requests-per-minute budget. Redis failures
// let the request through.
func rateLimit(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limiter := container.RateLimiter
		if !limiter.Enabled() {
			return c.Next()
		}

		decision, err := limiter.Allow(userContext(c), "ip:"+c.IP())
		switch {
		case errors.Is(err, limits.ErrLimitExceeded):
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(decision.ResetIn.Seconds())+1))
			setLimitHeaders(c, decision)
			return httputil.WriteError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		case err != nil:
			logger(container).Warn("rate limiter unavailable", "error", err)
			return c.Next()
		}
		setLimitHeaders(c, decision)
		return c.Next()
	}
}

func logger(container *app.Container) *slog.Logger {
	if container != nil && container.Logger != nil {
		return container.Logger
	}
	return slog.Default()
}

func setLimitHeaders(c *fiber.Ctx, d limits.Decision) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
}

func userContext(c *fiber.Ctx) context.Context {
	if c == nil {
		return context.Background()
	}
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}
