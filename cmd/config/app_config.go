package config

import (
	"Rongsokin-Backend/internal/api/handlers"
	"Rongsokin-Backend/internal/api/routes"
	"Rongsokin-Backend/internal/middleware"
	"Rongsokin-Backend/internal/utils"
	"Rongsokin-Backend/internal/utils/storage"
	"Rongsokin-Backend/pkg/jwt"
	"Rongsokin-Backend/pkg/notification"
	"Rongsokin-Backend/pkg/payment"
	"Rongsokin-Backend/pkg/pickup"
	"Rongsokin-Backend/pkg/transaction"
	"Rongsokin-Backend/pkg/user"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	notifier := notification.NewMailNotifier()

	// Repository
	userRepository := user.NewUserRepository(db)
	pickupRepository := pickup.NewPickupRepository(db)
	transactionRepository := transaction.NewTransactionRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	paymentService := payment.NewPaymentService(transactionRepository)
	pickupService := pickup.NewPickupService(pickupRepository, paymentService, notifier, s3)
	transactionService := transaction.NewTransactionService(transactionRepository)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	pickupHandler := handlers.NewPickupHandler(pickupService, validator)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// routes
	routesConfig := routes.Config{
		App:                app,
		UserHandler:        userHandler,
		PickupHandler:      pickupHandler,
		TransactionHandler: transactionHandler,
		PaymentHandler:     paymentHandler,
		Middleware:         middlewares,
		JWTService:         jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
