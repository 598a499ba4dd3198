package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/services"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// AuthHandler handles vendor signup and login
type AuthHandler struct {
	store storage.Store
	auth  *services.AuthService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(store storage.Store, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{store: store, auth: auth}
}

// Signup registers a new vendor
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var payload models.VendorSignup
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid signup payload",
		})
	}
	if payload.Email == "" || payload.Password == "" || payload.BusinessName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email, password and business_name are required",
		})
	}

	hash, err := h.auth.HashPassword(payload.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not process password",
		})
	}

	vendor, err := h.store.CreateVendor(&models.Vendor{
		Email:        payload.Email,
		BusinessName: payload.BusinessName,
		PhoneNumber:  payload.PhoneNumber,
		Category:     payload.Category,
		PasswordHash: hash,
		ReferralCode: services.NewReferralCode(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		log.Printf("❌ Vendor signup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create vendor",
		})
	}

	log.Printf("🎉 New vendor registered: %s (%s)", vendor.BusinessName, vendor.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Vendor created successfully",
		"vendor_id":     vendor.ID,
		"referral_code": vendor.ReferralCode,
	})
}

// Login exchanges credentials for an access token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var payload models.VendorLogin
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid login payload",
		})
	}

	vendor, err := h.store.GetVendorByEmail(payload.Email)
	if err != nil || !h.auth.VerifyPassword(payload.Password, vendor.PasswordHash) {
		// Auth failures are surfaced as rejections, never retried internally
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.auth.CreateToken(vendor.ID, vendor.Email)
	if err != nil {
		log.Printf("❌ Token issue failed for %s: %v", vendor.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not issue token",
		})
	}

	return c.JSON(fiber.Map{
		"access_token":  token,
		"token_type":    "bearer",
		"business_name": vendor.BusinessName,
	})
}
