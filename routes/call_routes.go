package routes

import (
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/gofiber/fiber/v2"
)

func CallRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	tutorCalls := api.Group("/tutor/calls", middleware.Protected(), middleware.TutorRequired())
	tutorCalls.Post("", h.CreateCall)

	calls := api.Group("/calls", middleware.Protected())
	calls.Get("/pending", h.PendingCall)
	calls.Get("/:roomId", h.GetCall)
	calls.Post("/:roomId/end", h.EndCall)
}
