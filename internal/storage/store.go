package storage

import (
	"errors"

	"github.com/inawohq/inawo-backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a vendor email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store defines the interface for storage operations
type Store interface {
	// Vendor operations
	CreateVendor(vendor *models.Vendor) (*models.Vendor, error)
	GetVendor(id uint) (*models.Vendor, error)
	GetVendorByEmail(email string) (*models.Vendor, error)
	GetVendorByReferralCode(code string) (*models.Vendor, error)
	UpdateVendor(vendor *models.Vendor) error

	// Chat session operations
	GetChatSession(customerNumber string) (*models.ChatSession, error)
	CreateChatSession(session *models.ChatSession) (*models.ChatSession, error)
	UpdateChatSession(session *models.ChatSession) error
	GetSessionsByVendor(vendorID uint) ([]*models.ChatSession, error)

	// Chat message operations
	AppendChatMessage(message *models.ChatMessage) error
	GetChatHistory(vendorID uint, customerNumber string, limit int) ([]*models.ChatMessage, error)

	// Order operations
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
	GetOrdersByVendor(vendorID uint) ([]*models.Order, error)
	GetLatestPendingOrder(vendorID uint, customerNumber string) (*models.Order, error)
	GetStalePendingOrders(olderThanHours int) ([]*models.Order, error)
	UpdateOrder(order *models.Order) error

	// Sale operations
	CreateSale(sale *models.Sale) (*models.Sale, error)
	GetSalesByVendor(vendorID uint) ([]*models.Sale, error)

	// Dashboard operations
	GetVendorStats(vendorID uint) (*models.VendorStats, error)
}
