package storage

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inawohq/inawo-backend/internal/models"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *DatabaseStore {
	t.Helper()

	// Each test gets its own named in-memory database; cache=shared keeps
	// it alive across the pool's connections within the test
	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Vendor{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Order{},
		&models.Sale{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return NewDatabaseStore(db)
}

func seedVendor(t *testing.T, store Store, email, code string) *models.Vendor {
	t.Helper()
	vendor, err := store.CreateVendor(&models.Vendor{
		BusinessName: "Test Shop",
		Email:        email,
		PasswordHash: "x",
		ReferralCode: code,
	})
	require.NoError(t, err)
	return vendor
}

func TestDatabaseVendorLookups(t *testing.T) {
	store := newTestDB(t)
	vendor := seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	byEmail, err := store.GetVendorByEmail("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, byEmail.ID)

	byCode, err := store.GetVendorByReferralCode("INW-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, byCode.ID)

	_, err = store.GetVendorByReferralCode("")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetVendor(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatabaseDuplicateEmailRejected(t *testing.T) {
	store := newTestDB(t)
	seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	_, err := store.CreateVendor(&models.Vendor{
		BusinessName: "Copycat",
		Email:        "ada@example.com",
		PasswordHash: "x",
		ReferralCode: "INW-BBBBBB",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestDatabaseSessionCreateIsIdempotent(t *testing.T) {
	store := newTestDB(t)
	vendor := seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	first, err := store.CreateChatSession(&models.ChatSession{
		CustomerNumber: "2348012345678",
		VendorID:       vendor.ID,
		Channel:        models.ChannelWhatsApp,
	})
	require.NoError(t, err)

	// A second create for the same customer hits the unique index and
	// resolves to the existing row
	second, err := store.CreateChatSession(&models.ChatSession{
		CustomerNumber: "2348012345678",
		VendorID:       vendor.ID,
		Channel:        models.ChannelWhatsApp,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestDatabaseChatHistoryOrderAndScope(t *testing.T) {
	store := newTestDB(t)
	v1 := seedVendor(t, store, "one@example.com", "INW-AAAAAA")
	v2 := seedVendor(t, store, "two@example.com", "INW-BBBBBB")

	base := time.Now().Add(-time.Minute)
	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, store.AppendChatMessage(&models.ChatMessage{
			VendorID:       v1.ID,
			CustomerNumber: "2348012345678",
			Sender:         "2348012345678",
			Role:           models.RoleUser,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.AppendChatMessage(&models.ChatMessage{
		VendorID:       v2.ID,
		CustomerNumber: "2348012345678",
		Sender:         "2348012345678",
		Role:           models.RoleUser,
		Content:        "other tenant",
		CreatedAt:      base,
	}))

	history, err := store.GetChatHistory(v1.ID, "2348012345678", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Content)
	assert.Equal(t, "third", history[1].Content)

	for _, msg := range history {
		assert.NotEqual(t, "other tenant", msg.Content)
	}
}

func TestDatabaseLatestPendingOrder(t *testing.T) {
	store := newTestDB(t)
	vendor := seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	older, err := store.CreateOrder(&models.Order{
		VendorID:       vendor.ID,
		CustomerNumber: "2348012345678",
		Items:          "rice",
		Amount:         5000,
	})
	require.NoError(t, err)
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.UpdateOrder(older))

	newer, err := store.CreateOrder(&models.Order{
		VendorID:       vendor.ID,
		CustomerNumber: "2348012345678",
		Items:          "beans",
		Amount:         3000,
	})
	require.NoError(t, err)

	latest, err := store.GetLatestPendingOrder(vendor.ID, "2348012345678")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	// Paid orders drop out of the pending lookup
	newer.Status = models.OrderStatusPaid
	require.NoError(t, store.UpdateOrder(newer))

	latest, err = store.GetLatestPendingOrder(vendor.ID, "2348012345678")
	require.NoError(t, err)
	assert.Equal(t, older.ID, latest.ID)
}

func TestDatabaseStalePendingOrders(t *testing.T) {
	store := newTestDB(t)
	vendor := seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	stale, err := store.CreateOrder(&models.Order{
		VendorID:       vendor.ID,
		CustomerNumber: "2348012345678",
		Items:          "rice",
		Amount:         5000,
	})
	require.NoError(t, err)
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.UpdateOrder(stale))

	_, err = store.CreateOrder(&models.Order{
		VendorID:       vendor.ID,
		CustomerNumber: "2348012345679",
		Items:          "fresh order",
		Amount:         2000,
	})
	require.NoError(t, err)

	found, err := store.GetStalePendingOrders(24)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)

	// Once reminded, the order leaves the sweep
	now := time.Now()
	stale.ReminderSentAt = &now
	require.NoError(t, store.UpdateOrder(stale))

	found, err = store.GetStalePendingOrders(24)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDatabaseVendorStats(t *testing.T) {
	store := newTestDB(t)
	vendor := seedVendor(t, store, "ada@example.com", "INW-AAAAAA")

	_, err := store.CreateChatSession(&models.ChatSession{
		CustomerNumber: "2348012345678",
		VendorID:       vendor.ID,
	})
	require.NoError(t, err)

	for _, o := range []struct {
		amount float64
		status string
	}{
		{5000, models.OrderStatusPaid},
		{3000, models.OrderStatusPaid},
		{4200, models.OrderStatusPending},
	} {
		order, err := store.CreateOrder(&models.Order{
			VendorID:       vendor.ID,
			CustomerNumber: "2348012345678",
			Items:          "x",
			Amount:         o.amount,
		})
		require.NoError(t, err)
		if o.status != models.OrderStatusPending {
			order.Status = o.status
			require.NoError(t, store.UpdateOrder(order))
		}
	}

	stats, err := store.GetVendorStats(vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(2), stats.PaidOrders)
	assert.Equal(t, float64(8000), stats.Revenue)
	assert.Equal(t, int64(1), stats.Customers)
}
