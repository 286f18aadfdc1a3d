package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ncecere/usage_dashboard/internal/app"
)

// Register wires up the usage dashboard API routes.
func Register(app *fiber.App, container *app.Container) {
	group := app.Group("/usage", rateLimit(container))
	handler := &usageHandler{container: container}
	group.Get("/", handler.list)
	group.Get("/daily", handler.daily)
	group.Get("/dashboard", handler.dashboard)
	group.Get("/sort", handler.sort)
}
