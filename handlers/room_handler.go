package handlers

import (
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/models"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ResolveRoomRequest struct {
	PeerID string `json:"peer_id" validate:"required,uuid"`
}

// ResolveRoom returns the conversation with peer_id, creating it on first use.
func (h *Handler) ResolveRoom(c *fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ResolveRoomRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	peerID, _ := uuid.Parse(req.PeerID)

	room, err := h.Conversations.Resolve(c.UserContext(), userID, peerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

func (h *Handler) ListRooms(c *fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	rooms, err := h.Conversations.Rooms(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rooms)
}

// Unread returns the badge flag and, when it is set, the per-room counts.
func (h *Handler) Unread(c *fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return respondError(c, err)
	}
	unread, err := h.Conversations.UnreadExists(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	counts := map[string]int64{}
	if unread {
		if counts, err = h.Conversations.UnreadCounts(c.UserContext(), userID); err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(fiber.Map{"unread": unread, "rooms": counts})
}

// roomFor resolves the roomId path parameter for a participant.
func roomFor(c *fiber.Ctx) (uuid.UUID, models.RoomKey, error) {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return uuid.Nil, models.RoomKey{}, err
	}
	key, err := models.ParseRoomKey(c.Params("roomId"))
	if err != nil {
		return uuid.Nil, models.RoomKey{}, services.ErrInvalidRoom
	}
	if !key.Has(userID) {
		return uuid.Nil, models.RoomKey{}, services.ErrNotParticipant
	}
	return userID, key, nil
}

func (h *Handler) RoomMessages(c *fiber.Ctx) error {
	_, key, err := roomFor(c)
	if err != nil {
		return respondError(c, err)
	}
	messages, err := h.Conversations.History(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

func (h *Handler) MarkRoomRead(c *fiber.Ctx) error {
	userID, key, err := roomFor(c)
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.Conversations.MarkRead(c.UserContext(), key, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"marked": n})
}
