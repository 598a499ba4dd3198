package models

import "time"

// Order is a customer order extracted from conversation by the AI
type Order struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	VendorID       uint    `json:"vendor_id" gorm:"index"`
	CustomerNumber string  `json:"customer_number" gorm:"size:50;index"`
	Items          string  `json:"items" gorm:"type:text"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status" gorm:"size:20;default:pending"`

	ReminderSentAt *time.Time `json:"reminder_sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Sale records a reconciled payment receipt
type Sale struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	VendorID     uint    `json:"vendor_id" gorm:"index"`
	Amount       float64 `json:"amount"`
	CustomerName string  `json:"customer_name" gorm:"size:100"`
	Bank         string  `json:"bank" gorm:"size:100"`
	Reference    string  `json:"reference" gorm:"size:100"`
	Status       string  `json:"status" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
}

// Order status constants. Pending orders move to paid exactly once;
// cancellation is only allowed while pending.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"

	SaleStatusConfirmed = "confirmed"
)
