package handlers

import (
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateCallRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
}

// CreateCall issues (or returns the live) call invitation for a student.
func (h *Handler) CreateCall(c *fiber.Ctx) error {
	tutorID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateCallRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	studentID, _ := uuid.Parse(req.StudentID)
	courseID, _ := uuid.Parse(req.CourseID)

	inv, err := h.Calls.CreateInvitation(c.UserContext(), studentID, tutorID, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// PendingCall is the student's poll target. invitation is null until a tutor
// starts a call for the course.
func (h *Handler) PendingCall(c *fiber.Ctx) error {
	studentID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	courseID, err := uuid.Parse(c.Query("course_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "course_id query parameter is required"})
	}

	inv, err := h.Calls.Peek(c.UserContext(), studentID, courseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"invitation":         inv,
		"poll_after_seconds": int(h.PollInterval.Seconds()),
	})
}

// GetCall checks that a call room can still be joined by the caller.
func (h *Handler) GetCall(c *fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}

	inv, err := h.Calls.Get(c.UserContext(), c.Params("roomId"))
	if err != nil {
		return respondError(c, err)
	}
	if inv.StudentID != userID && inv.TutorID != userID {
		return respondError(c, services.ErrForbidden)
	}
	return c.JSON(inv)
}

func (h *Handler) EndCall(c *fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Calls.EndBy(c.UserContext(), c.Params("roomId"), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Call ended"})
}
