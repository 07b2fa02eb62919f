package handlers

import (
	"time"

	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PublishSlotRequest struct {
	CourseID  string    `json:"course_id" validate:"required,uuid"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

func (h *Handler) PublishSlot(c *fiber.Ctx) error {
	tutorID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req PublishSlotRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	courseID, _ := uuid.Parse(req.CourseID)

	slot, err := h.Slots.Publish(c.UserContext(), tutorID, courseID, req.StartTime, req.EndTime)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

func (h *Handler) ListMySlots(c *fiber.Ctx) error {
	tutorID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	slots, err := h.Slots.ListByTutor(c.UserContext(), tutorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slots)
}

func (h *Handler) DeleteSlot(c *fiber.Ctx) error {
	tutorID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	slotID, ok := uuidParam(c, "slotId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot ID"})
	}

	if err := h.Slots.Delete(c.UserContext(), slotID, tutorID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Slot deleted successfully"})
}

// ListCourseSlots returns the course's slots by start time. Expired slots are
// only included with include_expired=true.
func (h *Handler) ListCourseSlots(c *fiber.Ctx) error {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}
	opts := services.ListOptions{IncludeExpired: c.QueryBool("include_expired", false)}

	slots, err := services.Collect(h.Slots.List(c.UserContext(), courseID, opts))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slots)
}

func (h *Handler) BookSlot(c *fiber.Ctx) error {
	studentID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	slotID, ok := uuidParam(c, "slotId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot ID"})
	}

	slot, err := h.Slots.Book(c.UserContext(), slotID, studentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slot)
}

func (h *Handler) UnbookSlot(c *fiber.Ctx) error {
	studentID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	slotID, ok := uuidParam(c, "slotId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot ID"})
	}

	slot, err := h.Slots.Unbook(c.UserContext(), slotID, studentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(slot)
}
