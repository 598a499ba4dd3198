package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/handlers"
	"github.com/inawohq/inawo-backend/internal/middleware"
	"github.com/inawohq/inawo-backend/internal/services"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, auth *services.AuthService,
	resolver *services.SessionResolver, dispatcher *services.Dispatcher,
	whatsapp *services.WhatsAppService) {

	authHandler := handlers.NewAuthHandler(store, auth)
	vendorHandler := handlers.NewVendorHandler(store, resolver)
	orderHandler := handlers.NewOrderHandler(store)

	// Public auth routes
	app.Post("/signup", authHandler.Signup)
	app.Post("/login", authHandler.Login)

	// ========== WEBHOOK ROUTES ==========
	if whatsapp != nil {
		whatsappHandler := handlers.NewWhatsAppHandler(dispatcher, whatsapp)
		webhooks := app.Group("/webhook")
		webhooks.Get("/whatsapp", whatsappHandler.Verify)
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
	}

	// ========== VENDOR ROUTES (authenticated) ==========
	vendor := app.Group("/api/vendor", middleware.RequireVendor(auth))
	vendor.Get("/me", vendorHandler.Me)
	vendor.Put("/profile", vendorHandler.UpdateProfile)
	vendor.Post("/knowledge", vendorHandler.UploadKnowledge)
	vendor.Put("/stock", vendorHandler.UpdateStock)
	vendor.Get("/sessions", vendorHandler.Sessions)
	vendor.Put("/sessions/:customer/pause", vendorHandler.PauseSession)
	vendor.Get("/orders", orderHandler.List)
	vendor.Put("/orders/:id/cancel", orderHandler.Cancel)
	vendor.Get("/sales", orderHandler.Sales)
	vendor.Get("/stats", orderHandler.Stats)
}
