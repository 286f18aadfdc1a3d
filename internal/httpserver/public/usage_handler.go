package public

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/usage_dashboard/internal/app"
	"github.com/ncecere/usage_dashboard/internal/httpserver/httputil"
	"github.com/ncecere/usage_dashboard/internal/sortspec"
	usageservice "github.com/ncecere/usage_dashboard/internal/services/usage"
)

type usageHandler struct {
	container *app.Container
}

// list handles GET /usage?sort=col:dir,...
func (h *usageHandler) list(c *fiber.Ctx) error {
	spec := sortspec.Parse(c.Query("sort"))
	records, err := h.container.UsageService.Usage(userContext(c), spec)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{"usage": records})
}

func (h *usageHandler) daily(c *fiber.Ctx) error {
	buckets, err := h.container.UsageService.Daily(userContext(c))
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{"daily": buckets})
}

func (h *usageHandler) dashboard(c *fiber.Ctx) error {
	spec := sortspec.Parse(c.Query("sort"))
	dash, err := h.container.UsageService.Dashboard(userContext(c), spec)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(dash)
}

// sort handles GET /usage/sort?sort=...&toggle=column and returns the state
// after one header activation. Without toggle it only normalizes sort.
func (h *usageHandler) sort(c *fiber.Ctx) error {
	spec := sortspec.Parse(c.Query("sort"))
	if raw := c.Query("toggle"); raw != "" {
		col, err := sortspec.ParseColumn(raw)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		}
		spec = spec.Toggle(col)
	}
	return c.JSON(usageservice.NewSortView(spec))
}

func (h *usageHandler) logger() *slog.Logger {
	if h.container.Logger != nil {
		return h.container.Logger
	}
	return slog.Default()
}

func (h *usageHandler) writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usageservice.ErrUpstreamUnavailable):
		h.logger().Error("usage upstream failed", "error", err, "request_id", httputil.RequestID(c))
		return httputil.WriteError(c, fiber.StatusBadGateway, "usage data is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return httputil.WriteError(c, fiber.StatusGatewayTimeout, "usage request timed out")
	case errors.Is(err, context.Canceled):
		return httputil.WriteError(c, fiber.StatusServiceUnavailable, "request canceled")
	default:
		h.logger().Error("usage request failed", "error", err)
		return httputil.WriteError(c, fiber.StatusInternalServerError, "")
	}
}
