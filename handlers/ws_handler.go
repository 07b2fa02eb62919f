package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// ServeWs authenticates the first frame, then feeds every inbound event to
// the hub until the connection closes. Once connected, only the hub writes.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	var authMsg websocket.Event
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != websocket.EventAuth {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"type": websocket.EventError, "error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := middleware.ParseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"type": websocket.EventError, "error": "Invalid token"})
		c.Close()
		return
	}
	userID, role, err := middleware.ClaimsIdentity(claims)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"type": websocket.EventError, "error": "Invalid user ID or role"})
		c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := h.Hub.Connect(ctx, c, userID, role)
	defer func() {
		cancel()
		h.Hub.Disconnect(client)
		// fiber recycles c when ServeWs returns.
		<-client.Stopped()
	}()

	for {
		var ev websocket.Event
		if err := c.ReadJSON(&ev); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", userID, err)
			} else if client.State() != websocket.StateClosed {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			return
		}
		if err := h.Hub.Handle(ctx, client, ev); err != nil {
			if errors.Is(err, websocket.ErrClosed) {
				return
			}
			log.Printf("WebSocket event %q from client %s failed: %v", ev.Type, userID, err)
		}
	}
}
