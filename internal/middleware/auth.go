package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/services"
)

// VendorIDKey is where the authenticated vendor id lands in fiber locals
const VendorIDKey = "vendorID"

// RequireVendor validates the Authorization header and stashes the vendor id
// for downstream handlers
func RequireVendor(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		vendorID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(VendorIDKey, vendorID)
		return c.Next()
	}
}

// VendorID reads the authenticated vendor id set by RequireVendor
func VendorID(c *fiber.Ctx) uint {
	id, _ := c.Locals(VendorIDKey).(uint)
	return id
}
