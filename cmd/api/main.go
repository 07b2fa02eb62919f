package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/tutor_live/configs"
	"github.com/anjiri1684/tutor_live/database"
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/anjiri1684/tutor_live/jobs"
	"github.com/anjiri1684/tutor_live/middleware"
	"github.com/anjiri1684/tutor_live/routes"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/anjiri1684/tutor_live/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	database.ConnectDB()
	database.Migrate()

	slots := services.NewSlotStore(database.DB)
	calls := services.NewCallService(database.DB, slots, config.Duration("CALL_INVITATION_TTL", services.DefaultInvitationTTL))
	conversations := services.NewConversationStore(database.DB)

	hub := websocket.NewHub(conversations, calls, websocket.Options{
		Shards:     config.Int("ROOM_SHARDS", websocket.DefaultShards),
		SendBuffer: config.Int("WS_SEND_BUFFER", websocket.DefaultSendBuffer),
	})
	calls.SetNotifier(hub)

	scheduler, err := jobs.NewScheduler(calls, slots, jobs.Schedules{
		InvitationReaper: config.String("CALL_REAPER_SCHEDULE", jobs.DefaultReaperSchedule),
		SlotReport:       jobs.DefaultReportSchedule,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	log.Println("✅ Invitation reaper and slot report jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Tutor Live",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.String("CORS_ORIGINS", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization, Retry-After",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/v1", middleware.RateLimiter(config.Int("RATE_LIMIT_MAX", 120)))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Tutor Live API",
		})
	})

	h := handlers.New(slots, calls, conversations, hub, config.Duration("POLL_INTERVAL", handlers.DefaultPollInterval))
	routes.Register(app, h)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")
		<-scheduler.Stop().Done()
		hub.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()

	port := config.String("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
