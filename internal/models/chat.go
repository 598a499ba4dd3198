package models

import "time"

// ChatSession binds one external customer identity to exactly one vendor
type ChatSession struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	CustomerNumber string `json:"customer_number" gorm:"size:50;uniqueIndex;not null"`
	VendorID       uint   `json:"vendor_id" gorm:"index;not null"`
	Channel        string `json:"channel" gorm:"size:20"` // "whatsapp" or "telegram"

	// Profile & state
	CustomerName    string `json:"customer_name" gorm:"size:100"`
	DeliveryAddress string `json:"delivery_address" gorm:"type:text"`
	IsAIPaused      bool   `json:"is_ai_paused"` // human take-over flag

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one turn in a customer conversation, append-only
type ChatMessage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	VendorID       uint      `json:"vendor_id" gorm:"index"`
	CustomerNumber string    `json:"customer_number" gorm:"size:50;index"`
	Sender         string    `json:"sender" gorm:"size:50"` // customer number or "AI"
	Role           string    `json:"role" gorm:"size:20"`   // "user" or "assistant"
	Content        string    `json:"content" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

// Channel constants
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	SenderAI      = "AI"
)
