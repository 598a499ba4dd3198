package models

import "time"

// Vendor is a merchant tenant of the platform
type Vendor struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	BusinessName string `json:"business_name" gorm:"size:100;not null"`
	Email        string `json:"email" gorm:"size:100;uniqueIndex;not null"`
	PhoneNumber  string `json:"phone_number" gorm:"size:20"`
	PasswordHash string `json:"-" gorm:"size:200;not null"`

	// Professional profile
	Category        string `json:"category" gorm:"size:50"` // "Food", "Fashion", etc.
	BusinessAddress string `json:"business_address" gorm:"size:255"`

	// Bank details (shared with customers for transfers)
	BankName      string `json:"bank_name" gorm:"size:100"`
	AccountNumber string `json:"account_number" gorm:"size:20"`
	AccountName   string `json:"account_name" gorm:"size:100"`

	// SaaS features
	TelegramChatID    string `json:"telegram_chat_id" gorm:"size:50"` // for vendor alerts
	OutOfStockItems   string `json:"out_of_stock_items" gorm:"type:text"`
	KnowledgeBaseText string `json:"knowledge_base_text" gorm:"type:text"`
	ReferralCode      string `json:"referral_code" gorm:"size:20;uniqueIndex"` // links customers to this vendor
	IsVerified        bool   `json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VendorSignup is the payload for vendor registration
type VendorSignup struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Category     string `json:"category"`
}

// VendorLogin is the payload for vendor login
type VendorLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VendorStats is a computed summary for the vendor dashboard
type VendorStats struct {
	TotalOrders   int64   `json:"total_orders"`
	PendingOrders int64   `json:"pending_orders"`
	PaidOrders    int64   `json:"paid_orders"`
	Revenue       float64 `json:"revenue"`
	Customers     int64   `json:"customers"`
}
