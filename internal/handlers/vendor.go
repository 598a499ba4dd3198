package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/middleware"
	"github.com/inawohq/inawo-backend/internal/services"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// VendorHandler serves the authenticated vendor management API
type VendorHandler struct {
	store    storage.Store
	resolver *services.SessionResolver
}

// NewVendorHandler creates a vendor handler
func NewVendorHandler(store storage.Store, resolver *services.SessionResolver) *VendorHandler {
	return &VendorHandler{store: store, resolver: resolver}
}

// Me returns the authenticated vendor's profile
func (h *VendorHandler) Me(c *fiber.Ctx) error {
	vendor, err := h.store.GetVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}
	return c.JSON(vendor)
}

// UpdateProfile patches the vendor's business profile fields
func (h *VendorHandler) UpdateProfile(c *fiber.Ctx) error {
	vendor, err := h.store.GetVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var payload struct {
		BusinessName    *string `json:"business_name"`
		PhoneNumber     *string `json:"phone_number"`
		Category        *string `json:"category"`
		BusinessAddress *string `json:"business_address"`
		BankName        *string `json:"bank_name"`
		AccountNumber   *string `json:"account_number"`
		AccountName     *string `json:"account_name"`
		TelegramChatID  *string `json:"telegram_chat_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid profile payload"})
	}

	if payload.BusinessName != nil {
		vendor.BusinessName = *payload.BusinessName
	}
	if payload.PhoneNumber != nil {
		vendor.PhoneNumber = *payload.PhoneNumber
	}
	if payload.Category != nil {
		vendor.Category = *payload.Category
	}
	if payload.BusinessAddress != nil {
		vendor.BusinessAddress = *payload.BusinessAddress
	}
	if payload.BankName != nil {
		vendor.BankName = *payload.BankName
	}
	if payload.AccountNumber != nil {
		vendor.AccountNumber = *payload.AccountNumber
	}
	if payload.AccountName != nil {
		vendor.AccountName = *payload.AccountName
	}
	if payload.TelegramChatID != nil {
		vendor.TelegramChatID = *payload.TelegramChatID
	}

	if err := h.store.UpdateVendor(vendor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update profile"})
	}
	return c.JSON(vendor)
}

// UploadKnowledge replaces the vendor's product knowledge base. Accepts
// either a JSON body {"knowledge_base_text": ...} or a multipart file upload
// (plain text or CSV).
func (h *VendorHandler) UploadKnowledge(c *fiber.Ctx) error {
	vendor, err := h.store.GetVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	text, err := readKnowledgeUpload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if strings.TrimSpace(text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Knowledge base is empty"})
	}

	vendor.KnowledgeBaseText = text
	if err := h.store.UpdateVendor(vendor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save knowledge base"})
	}

	log.Printf("📚 Knowledge base updated for vendor %d (%d chars)", vendor.ID, len(text))
	return c.JSON(fiber.Map{"message": "Knowledge base updated", "characters": len(text)})
}

func readKnowledgeUpload(c *fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// No file: fall back to a JSON body
		var payload struct {
			KnowledgeBaseText string `json:"knowledge_base_text"`
		}
		if err := c.BodyParser(&payload); err != nil {
			return "", fmt.Errorf("send a 'file' upload or a knowledge_base_text field")
		}
		return payload.KnowledgeBaseText, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("could not read upload")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("could not read upload")
	}

	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		return csvToText(content)
	}
	return string(content), nil
}

// csvToText flattens a CSV catalogue into pipe-separated lines the model
// reads more reliably than raw commas
func csvToText(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("could not parse CSV: %v", err)
		}
		lines = append(lines, strings.Join(record, " | "))
	}
	return strings.Join(lines, "\n"), nil
}

// UpdateStock replaces the vendor's out-of-stock list
func (h *VendorHandler) UpdateStock(c *fiber.Ctx) error {
	vendor, err := h.store.GetVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vendor not found"})
	}

	var payload struct {
		OutOfStockItems string `json:"out_of_stock_items"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid stock payload"})
	}

	vendor.OutOfStockItems = payload.OutOfStockItems
	if err := h.store.UpdateVendor(vendor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update stock list"})
	}
	return c.JSON(fiber.Map{"message": "Out-of-stock list updated"})
}

// Sessions lists the vendor's customer sessions
func (h *VendorHandler) Sessions(c *fiber.Ctx) error {
	sessions, err := h.store.GetSessionsByVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list sessions"})
	}
	return c.JSON(sessions)
}

// PauseSession toggles human take-over for one customer
func (h *VendorHandler) PauseSession(c *fiber.Ctx) error {
	customer := c.Params("customer")

	var payload struct {
		Paused bool `json:"paused"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pause payload"})
	}

	session, err := h.store.GetChatSession(customer)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	// A vendor can only take over their own customers
	if session.VendorID != middleware.VendorID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Session belongs to another vendor"})
	}

	session, err = h.resolver.SetPaused(customer, payload.Paused)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update session"})
	}

	state := "resumed"
	if session.IsAIPaused {
		state = "paused"
	}
	log.Printf("⏯  AI %s for customer %s by vendor %d", state, customer, session.VendorID)
	return c.JSON(session)
}
