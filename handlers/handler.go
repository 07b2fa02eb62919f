package handlers

import (
	"time"

	"github.com/anjiri1684/tutor_live/services"
	"github.com/anjiri1684/tutor_live/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

const DefaultPollInterval = 5 * time.Second

// Handler serves the REST and websocket surface of the live engagement
// services.
type Handler struct {
	Slots         *services.SlotStore
	Calls         *services.CallService
	Conversations *services.ConversationStore
	Hub           *websocket.Hub
	PollInterval  time.Duration
}

func New(slots *services.SlotStore, calls *services.CallService, conversations *services.ConversationStore, hub *websocket.Hub, poll time.Duration) *Handler {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Handler{
		Slots:         slots,
		Calls:         calls,
		Conversations: conversations,
		Hub:           hub,
		PollInterval:  poll,
	}
}

func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
