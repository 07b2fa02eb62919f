package routes

import (
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/gofiber/fiber/v2"
)

// Register mounts every API route and the health check on app.
func Register(app *fiber.App, h *handlers.Handler) {
	SlotRoutes(app, h)
	CallRoutes(app, h)
	MessagingRoutes(app, h)

	app.Get("/health", h.Health)
}
