package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidRange, fiber.StatusBadRequest},
		{services.ErrEmptyBody, fiber.StatusBadRequest},
		{services.ErrInvalidRoom, fiber.StatusBadRequest},
		{services.ErrNotFound, fiber.StatusNotFound},
		{services.ErrAlreadyBooked, fiber.StatusConflict},
		{services.ErrNotBooked, fiber.StatusConflict},
		{services.ErrExpired, fiber.StatusGone},
		{services.ErrInvitationGone, fiber.StatusGone},
		{services.ErrNotBooker, fiber.StatusForbidden},
		{services.ErrForbidden, fiber.StatusForbidden},
		{services.ErrNotParticipant, fiber.StatusForbidden},
		{middleware.ErrInvalidClaims, fiber.StatusUnauthorized},
		{fmt.Errorf("%w: book slot: disk I/O error", services.ErrUnavailable), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusOf(tc.err))
		})
	}
}
