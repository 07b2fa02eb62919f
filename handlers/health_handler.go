package handlers

import "github.com/gofiber/fiber/v2"

// Health reports liveness along with the live websocket load.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"websocket": h.Hub.Stats(),
	})
}
