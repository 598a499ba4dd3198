package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inawohq/inawo-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given GORM connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Vendor operations

func (d *DatabaseStore) CreateVendor(vendor *models.Vendor) (*models.Vendor, error) {
	var count int64
	if err := d.db.Model(&models.Vendor{}).Where("email = ?", vendor.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	if err := d.db.Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (d *DatabaseStore) GetVendor(id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := d.db.First(&vendor, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &vendor, nil
}

func (d *DatabaseStore) GetVendorByEmail(email string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := d.db.Where("email = ?", email).First(&vendor).Error; err != nil {
		return nil, translateErr(err)
	}
	return &vendor, nil
}

func (d *DatabaseStore) GetVendorByReferralCode(code string) (*models.Vendor, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	var vendor models.Vendor
	if err := d.db.Where("referral_code = ?", code).First(&vendor).Error; err != nil {
		return nil, translateErr(err)
	}
	return &vendor, nil
}

func (d *DatabaseStore) UpdateVendor(vendor *models.Vendor) error {
	return d.db.Save(vendor).Error
}

// Chat session operations

func (d *DatabaseStore) GetChatSession(customerNumber string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := d.db.Where("customer_number = ?", customerNumber).First(&session).Error; err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (d *DatabaseStore) CreateChatSession(session *models.ChatSession) (*models.ChatSession, error) {
	// The unique index on customer_number makes concurrent first-contact
	// creation race down to one row; losers re-read the winner
	if err := d.db.Create(session).Error; err != nil {
		if existing, getErr := d.GetChatSession(session.CustomerNumber); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return session, nil
}

func (d *DatabaseStore) UpdateChatSession(session *models.ChatSession) error {
	return d.db.Save(session).Error
}

func (d *DatabaseStore) GetSessionsByVendor(vendorID uint) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	if err := d.db.Where("vendor_id = ?", vendorID).Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Chat message operations

func (d *DatabaseStore) AppendChatMessage(message *models.ChatMessage) error {
	return d.db.Create(message).Error
}

func (d *DatabaseStore) GetChatHistory(vendorID uint, customerNumber string, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	query := d.db.Where("vendor_id = ? AND customer_number = ?", vendorID, customerNumber).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to oldest-first for prompt assembly
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Order operations

func (d *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if err := d.db.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseStore) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := d.db.First(&order, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByVendor(vendorID uint) ([]*models.Order, error) {
	var orders []*models.Order
	if err := d.db.Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) GetLatestPendingOrder(vendorID uint, customerNumber string) (*models.Order, error) {
	var order models.Order
	err := d.db.Where("vendor_id = ? AND customer_number = ? AND status = ?",
		vendorID, customerNumber, models.OrderStatusPending).
		Order("created_at DESC").First(&order).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (d *DatabaseStore) GetStalePendingOrders(olderThanHours int) ([]*models.Order, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanHours) * time.Hour)

	var orders []*models.Order
	err := d.db.Where("status = ? AND reminder_sent_at IS NULL AND created_at < ?",
		models.OrderStatusPending, cutoff).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) UpdateOrder(order *models.Order) error {
	return d.db.Save(order).Error
}

// Sale operations

func (d *DatabaseStore) CreateSale(sale *models.Sale) (*models.Sale, error) {
	if err := d.db.Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func (d *DatabaseStore) GetSalesByVendor(vendorID uint) ([]*models.Sale, error) {
	var sales []*models.Sale
	if err := d.db.Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Dashboard operations

func (d *DatabaseStore) GetVendorStats(vendorID uint) (*models.VendorStats, error) {
	stats := &models.VendorStats{}

	if err := d.db.Model(&models.Order{}).Where("vendor_id = ?", vendorID).
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&models.Order{}).Where("vendor_id = ? AND status = ?",
		vendorID, models.OrderStatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&models.Order{}).Where("vendor_id = ? AND status = ?",
		vendorID, models.OrderStatusPaid).Count(&stats.PaidOrders).Error; err != nil {
		return nil, err
	}

	var revenue *float64
	if err := d.db.Model(&models.Order{}).Where("vendor_id = ? AND status = ?",
		vendorID, models.OrderStatusPaid).Select("SUM(amount)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}

	if err := d.db.Model(&models.ChatSession{}).Where("vendor_id = ?", vendorID).
		Count(&stats.Customers).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
