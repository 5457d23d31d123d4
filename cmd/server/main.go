package main

import (
	"log"
	"os"
	"time"

	"megacity/pkg/backend"
	"megacity/pkg/cache"
	"megacity/pkg/handlers"
	"megacity/pkg/hub"
	"megacity/pkg/middleware"
	"megacity/pkg/models"
	"megacity/pkg/server"
	"megacity/pkg/services"
	"megacity/pkg/session"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func main() {
	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8080"
	}
	api := backend.New(backendURL)
	log.Printf("[STORE] Backend API: %s", backendURL)

	log.Println("[STORE] Connecting to Redis...")
	redis := cache.New()
	defer redis.Close()
	log.Println("[STORE] Redis connected")

	sessions := session.NewStore(redis)
	wsHub := hub.New()
	catalog := services.NewCatalog(api, redis)

	auth := handlers.NewAuth(api, sessions, wsHub)
	fleet := handlers.NewFleet(catalog)
	booking := handlers.NewBooking(api, catalog, sessions, redis, wsHub)
	bookings := handlers.NewBookings(api, sessions, wsHub)
	admin := handlers.NewAdmin(api, catalog, sessions, wsHub)
	driver := handlers.NewDriver(api, sessions, wsHub)

	app := server.NewApp("megacity")

	authGroup := app.Group("/auth")
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.Login)

	authGroup.Post("/signup", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.Signup)

	authGroup.Get("/session", auth.Session)
	authGroup.Post("/logout", middleware.RequireAuth(sessions), auth.Logout)

	app.Get("/fleet", fleet.List)
	app.Post("/drivers/apply", driver.Apply)

	bookingGroup := app.Group("/booking", middleware.RequireRole(sessions, models.RoleCustomer))
	bookingGroup.Get("/", booking.Show)
	bookingGroup.Post("/select", booking.Select)
	bookingGroup.Put("/details", booking.Details)
	bookingGroup.Post("/change-vehicle", booking.ChangeVehicle)
	bookingGroup.Post("/submit", booking.Submit)

	myBookings := app.Group("/bookings", middleware.RequireRole(sessions, models.RoleCustomer))
	myBookings.Get("/", bookings.Mine)
	myBookings.Post("/:id/cancel", bookings.Cancel)

	adminGroup := app.Group("/admin", middleware.RequireRole(sessions, models.RoleAdmin))
	adminGroup.Get("/bookings", admin.Bookings)
	adminGroup.Get("/customers", admin.Customers)
	adminGroup.Get("/customers/:id", admin.Customer)
	adminGroup.Get("/cars", admin.Cars)
	adminGroup.Post("/cars", admin.CreateCar)
	adminGroup.Put("/cars/:id", admin.UpdateCar)
	adminGroup.Delete("/cars/:id", admin.DeleteCar)
	adminGroup.Get("/drivers", admin.Drivers)

	driverGroup := app.Group("/driver", middleware.RequireRole(sessions, models.RoleDriver))
	driverGroup.Get("/me", driver.Me)
	driverGroup.Put("/availability", driver.SetAvailability)

	app.Get("/hub/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"clients": wsHub.ClientCount()})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		sess := sessions.Current(c)
		c.Locals("user_id", sess.UserID)
		c.Locals("user_role", string(sess.Role))
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		role, _ := c.Locals("user_role").(string)
		wsHub.HandleClientConn(c, userID, models.Role(role))
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	addr := "0.0.0.0:" + port
	log.Printf("[STORE] Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("[STORE] Failed to start: %v", err)
	}
}
