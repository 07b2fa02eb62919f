package services

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/anjiri1684/tutor_live/models"
)

var (
	ErrInvalidRange   = errors.New("start time must be in the future and before end time")
	ErrAlreadyBooked  = errors.New("slot is already booked")
	ErrExpired        = errors.New("slot has already ended")
	ErrNotBooker      = errors.New("slot is booked by another student")
	ErrNotBooked      = errors.New("slot is not booked")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("storage unavailable")
	ErrEmptyBody      = errors.New("message body is empty")
	ErrNotParticipant = errors.New("not a participant of this room")
	ErrInvalidRole    = errors.New("invalid sender role")
	ErrInvalidRoom    = models.ErrInvalidRoomKey
	ErrInvitationGone = errors.New("invitation no longer available")
	ErrNotJoined      = errors.New("not joined to a room")
)

var domainErrors = []error{
	ErrInvalidRange, ErrAlreadyBooked, ErrExpired, ErrNotBooker, ErrNotBooked,
	ErrForbidden, ErrNotFound, ErrUnavailable, ErrEmptyBody, ErrNotParticipant,
	ErrInvalidRole, ErrInvalidRoom, ErrInvitationGone, ErrNotJoined,
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// classify passes domain errors through and wraps anything else as ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	return unavailable(op, err)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Collect drains a lazy sequence, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
