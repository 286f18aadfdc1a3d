package httputil

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// WriteError writes {"error": msg}. The request id is echoed when the
// requestid middleware assigned one so clients can quote it.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	body := fiber.Map{"error": msg}
	if id := RequestID(c); id != "" {
		body["request_id"] = id
	}
	return c.Status(status).JSON(body)
}

// RequestID returns the id set by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
