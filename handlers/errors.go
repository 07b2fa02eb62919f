package handlers

import (
	"errors"
	"log"

	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/gofiber/fiber/v2"
)

// statusOf maps service errors to HTTP statuses. Everything except
// ErrUnavailable is terminal for the caller.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrEmptyBody),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidRoom):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyBooked),
		errors.Is(err, services.ErrNotBooked),
		errors.Is(err, services.ErrNotJoined):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrExpired),
		errors.Is(err, services.ErrInvitationGone):
		return fiber.StatusGone
	case errors.Is(err, services.ErrNotBooker),
		errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotParticipant):
		return fiber.StatusForbidden
	case errors.Is(err, middleware.ErrInvalidClaims):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
	}
	if code == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(code).JSON(fiber.Map{"error": "Service temporarily unavailable, please retry"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
