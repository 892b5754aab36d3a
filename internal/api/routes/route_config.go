package routes

import (
	"Rongsokin-Backend/domain"
	"Rongsokin-Backend/internal/api/handlers"
	"Rongsokin-Backend/internal/middleware"
	"Rongsokin-Backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App                *fiber.App
	UserHandler        handlers.UserHandler
	PickupHandler      handlers.PickupHandler
	TransactionHandler handlers.TransactionHandler
	PaymentHandler     handlers.PaymentHandler
	Middleware         middleware.Middleware
	JWTService         jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Pickups()
	c.Transactions()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Post("/send_verify", c.UserHandler.SendVerificationEmail)
		user.Get("/verify", c.UserHandler.VerifyEmail)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		user.Patch("/update", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateUser)
	}
}

func (c *Config) Pickups() {
	pickups := c.App.Group("/api/v1/pickups", c.Middleware.AuthMiddleware(c.JWTService))

	// shared routes
	pickups.Get("", c.PickupHandler.GetUserPickups)
	pickups.Get("/statistics", c.PickupHandler.GetPickupStatistics)

	// household routes
	pickups.Post("", c.Middleware.RoleMiddleware(domain.RoleHousehold), c.PickupHandler.CreatePickup)

	// collector routes
	pickups.Get("/nearby", c.Middleware.RoleMiddleware(domain.RoleCollector), c.PickupHandler.GetNearbyPickups)
	pickups.Post("/:id/accept", c.Middleware.RoleMiddleware(domain.RoleCollector), c.PickupHandler.AcceptPickup)
	pickups.Post("/:id/start", c.Middleware.RoleMiddleware(domain.RoleCollector), c.PickupHandler.StartPickup)
	pickups.Post("/:id/complete", c.Middleware.RoleMiddleware(domain.RoleCollector), c.PickupHandler.CompletePickup)

	// cancel is role-dispatched inside the service
	pickups.Post("/:id/cancel", c.PickupHandler.CancelPickup)
	pickups.Get("/:id", c.PickupHandler.GetPickupByID)
}

func (c *Config) Transactions() {
	transactions := c.App.Group("/api/v1/transactions", c.Middleware.AuthMiddleware(c.JWTService))

	transactions.Get("", c.TransactionHandler.GetUserTransactions)
	transactions.Get("/:id", c.TransactionHandler.GetTransactionByID)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong, its works"})
	})
	c.App.Post("/webhook/midtrans", c.PaymentHandler.MidtransWebhookHandler)
}
