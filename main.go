package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/inawohq/inawo-backend/database"
	"github.com/inawohq/inawo-backend/internal/jobs"
	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/routes"
	"github.com/inawohq/inawo-backend/internal/services"
	"github.com/inawohq/inawo-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Vendor{},
			&models.ChatSession{},
			&models.ChatMessage{},
			&models.Order{},
			&models.Sale{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	// Initialize the AI client (required - the assistant is the product)
	aiClient, err := services.NewAIClient()
	if err != nil {
		log.Fatal("Failed to initialize AI client:", err)
	}
	log.Println("✅ AI client initialized")

	// Core services
	authService := services.NewAuthService()
	resolver := services.NewSessionResolver(store)
	engine := services.NewConversationEngine(store, aiClient)
	extractor := services.NewExtractor(store, aiClient)
	dispatcher := services.NewDispatcher(store, resolver, engine, extractor)

	// WhatsApp channel (optional - boots without it for local testing)
	whatsappService, err := services.NewWhatsAppService()
	if err != nil {
		log.Printf("⚠️  WhatsApp not configured: %v", err)
		whatsappService = nil
	} else {
		dispatcher.RegisterSender(models.ChannelWhatsApp, whatsappService)
		log.Println("✅ WhatsApp service initialized")
	}

	// Telegram channel (optional)
	telegramService, err := services.NewTelegramService(dispatcher)
	if err != nil {
		log.Printf("⚠️  Telegram not configured: %v", err)
		telegramService = nil
	} else {
		dispatcher.RegisterSender(models.ChannelTelegram, telegramService)
		dispatcher.SetAlerter(telegramService)
		telegramService.Start()
	}

	// Payment reminder sweeps
	reminderJob := jobs.NewReminderJob(store, dispatcher)
	reminderJob.Start()

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Inawo Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"whatsapp": whatsappService != nil,
				"telegram": telegramService != nil,
			},
		})
	})

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Inawo Backend API",
			"version": "1.0.0",
			"status":  "healthy",
			"storage": getStorageType(),
			"channels": fiber.Map{
				"whatsapp": whatsappService != nil,
				"telegram": telegramService != nil,
			},
		})
	})

	routes.SetupRoutes(app, store, authService, resolver, dispatcher, whatsappService)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		reminderJob.Stop()
		if telegramService != nil {
			telegramService.Stop()
		}
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Inawo Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
