package routes

import (
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/gofiber/fiber/v2"
)

func SlotRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	tutorSlots := api.Group("/tutor/slots", middleware.Protected(), middleware.TutorRequired())
	tutorSlots.Post("", h.PublishSlot)
	tutorSlots.Get("", h.ListMySlots)
	tutorSlots.Delete("/:slotId", h.DeleteSlot)

	courses := api.Group("/courses", middleware.Protected())
	courses.Get("/:courseId/slots", h.ListCourseSlots)

	slots := api.Group("/slots", middleware.Protected(), middleware.StudentRequired())
	slots.Post("/:slotId/book", h.BookSlot)
	slots.Delete("/:slotId/book", h.UnbookSlot)
}
