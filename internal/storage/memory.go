package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/inawohq/inawo-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development
type MemoryStore struct {
	vendors  map[uint]*models.Vendor
	sessions map[string]*models.ChatSession
	messages []*models.ChatMessage
	orders   map[uint]*models.Order
	sales    map[uint]*models.Sale

	// Mutexes for thread safety
	vendorMu  sync.RWMutex
	sessionMu sync.RWMutex
	messageMu sync.RWMutex
	orderMu   sync.RWMutex
	saleMu    sync.RWMutex

	// Counters for ID generation
	vendorCounter  uint
	sessionCounter uint
	messageCounter uint
	orderCounter   uint
	saleCounter    uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vendors:  make(map[uint]*models.Vendor),
		sessions: make(map[string]*models.ChatSession),
		orders:   make(map[uint]*models.Order),
		sales:    make(map[uint]*models.Sale),
	}
}

// Vendor operations

func (m *MemoryStore) CreateVendor(vendor *models.Vendor) (*models.Vendor, error) {
	m.vendorMu.Lock()
	defer m.vendorMu.Unlock()

	for _, v := range m.vendors {
		if v.Email == vendor.Email {
			return nil, ErrDuplicateEmail
		}
	}

	m.vendorCounter++
	vendor.ID = m.vendorCounter
	vendor.CreatedAt = time.Now()
	vendor.UpdatedAt = time.Now()

	m.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (m *MemoryStore) GetVendor(id uint) (*models.Vendor, error) {
	m.vendorMu.RLock()
	defer m.vendorMu.RUnlock()

	vendor, exists := m.vendors[id]
	if !exists {
		return nil, ErrNotFound
	}
	return vendor, nil
}

func (m *MemoryStore) GetVendorByEmail(email string) (*models.Vendor, error) {
	m.vendorMu.RLock()
	defer m.vendorMu.RUnlock()

	for _, vendor := range m.vendors {
		if vendor.Email == email {
			return vendor, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetVendorByReferralCode(code string) (*models.Vendor, error) {
	m.vendorMu.RLock()
	defer m.vendorMu.RUnlock()

	for _, vendor := range m.vendors {
		if vendor.ReferralCode == code && code != "" {
			return vendor, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateVendor(vendor *models.Vendor) error {
	m.vendorMu.Lock()
	defer m.vendorMu.Unlock()

	if _, exists := m.vendors[vendor.ID]; !exists {
		return ErrNotFound
	}
	vendor.UpdatedAt = time.Now()
	m.vendors[vendor.ID] = vendor
	return nil
}

// Chat session operations

func (m *MemoryStore) GetChatSession(customerNumber string) (*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[customerNumber]
	if !exists {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) CreateChatSession(session *models.ChatSession) (*models.ChatSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	// Creation must be idempotent: two concurrent first messages from the
	// same customer resolve to a single session
	if existing, exists := m.sessions[session.CustomerNumber]; exists {
		return existing, nil
	}

	m.sessionCounter++
	session.ID = m.sessionCounter
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	m.sessions[session.CustomerNumber] = session
	return session, nil
}

func (m *MemoryStore) UpdateChatSession(session *models.ChatSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[session.CustomerNumber]; !exists {
		return ErrNotFound
	}
	session.UpdatedAt = time.Now()
	m.sessions[session.CustomerNumber] = session
	return nil
}

func (m *MemoryStore) GetSessionsByVendor(vendorID uint) ([]*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.ChatSession
	for _, session := range m.sessions {
		if session.VendorID == vendorID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// Chat message operations

func (m *MemoryStore) AppendChatMessage(message *models.ChatMessage) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	m.messageCounter++
	message.ID = m.messageCounter
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	m.messages = append(m.messages, message)
	return nil
}

func (m *MemoryStore) GetChatHistory(vendorID uint, customerNumber string, limit int) ([]*models.ChatMessage, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	var history []*models.ChatMessage
	for _, msg := range m.messages {
		if msg.VendorID == vendorID && msg.CustomerNumber == customerNumber {
			history = append(history, msg)
		}
	}

	// Keep only the most recent messages, oldest first
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}

// Order operations

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	m.orderCounter++
	order.ID = m.orderCounter
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	m.orders[order.ID] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(id uint) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByVendor(vendorID uint) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var orders []*models.Order
	for _, order := range m.orders {
		if order.VendorID == vendorID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *MemoryStore) GetLatestPendingOrder(vendorID uint, customerNumber string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var latest *models.Order
	for _, order := range m.orders {
		if order.VendorID != vendorID || order.CustomerNumber != customerNumber {
			continue
		}
		if order.Status != models.OrderStatusPending {
			continue
		}
		if latest == nil || order.CreatedAt.After(latest.CreatedAt) {
			latest = order
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) GetStalePendingOrders(olderThanHours int) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(olderThanHours) * time.Hour)

	var stale []*models.Order
	for _, order := range m.orders {
		if order.Status != models.OrderStatusPending {
			continue
		}
		if order.ReminderSentAt != nil {
			continue
		}
		if order.CreatedAt.Before(cutoff) {
			stale = append(stale, order)
		}
	}
	return stale, nil
}

func (m *MemoryStore) UpdateOrder(order *models.Order) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, exists := m.orders[order.ID]; !exists {
		return ErrNotFound
	}
	order.UpdatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

// Sale operations

func (m *MemoryStore) CreateSale(sale *models.Sale) (*models.Sale, error) {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	m.saleCounter++
	sale.ID = m.saleCounter
	sale.CreatedAt = time.Now()

	m.sales[sale.ID] = sale
	return sale, nil
}

func (m *MemoryStore) GetSalesByVendor(vendorID uint) ([]*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var sales []*models.Sale
	for _, sale := range m.sales {
		if sale.VendorID == vendorID {
			sales = append(sales, sale)
		}
	}
	return sales, nil
}

// Dashboard operations

func (m *MemoryStore) GetVendorStats(vendorID uint) (*models.VendorStats, error) {
	stats := &models.VendorStats{}

	orders, err := m.GetOrdersByVendor(vendorID)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		stats.TotalOrders++
		switch order.Status {
		case models.OrderStatusPending:
			stats.PendingOrders++
		case models.OrderStatusPaid:
			stats.PaidOrders++
			stats.Revenue += order.Amount
		}
	}

	sessions, err := m.GetSessionsByVendor(vendorID)
	if err != nil {
		return nil, err
	}
	stats.Customers = int64(len(sessions))

	return stats, nil
}
