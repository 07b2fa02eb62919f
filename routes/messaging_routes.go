package routes

import (
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	rooms := api.Group("/rooms", middleware.Protected())
	rooms.Post("", h.ResolveRoom)
	rooms.Get("", h.ListRooms)
	rooms.Get("/unread", h.Unread)
	rooms.Get("/:roomId/messages", h.RoomMessages)
	rooms.Post("/:roomId/read", h.MarkRoomRead)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(h.ServeWs))
}
