package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

func dispatcherFixture(t *testing.T, model *fakeModel) (*Dispatcher, storage.Store, *fakeMessenger) {
	t.Helper()
	store := storage.NewMemoryStore()
	newTestVendor(store, "Mama Nkechi Kitchen", "Jollof rice - 3500", "INW-AAAAAA")

	resolver := NewSessionResolver(store)
	engine := NewConversationEngine(store, model)
	extractor := NewExtractor(store, model)

	d := NewDispatcher(store, resolver, engine, extractor)
	messenger := &fakeMessenger{}
	d.RegisterSender(models.ChannelWhatsApp, messenger)
	return d, store, messenger
}

func TestHandleTextRepliesAndLogs(t *testing.T) {
	// The null sentinel doubles as the conversational reply here; the
	// extraction branch treats it as "no order"
	model := &fakeModel{chatReply: `{"item": null, "total": null}`}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")

	sent := messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "2348012345678", sent[0].To)

	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	orders, err := store.GetOrdersByVendor(session.VendorID)
	require.NoError(t, err)
	assert.Empty(t, orders, "greeting must not create an order")
}

func TestHandleTextLogsOrder(t *testing.T) {
	model := &fakeModel{chatReply: `{"item": "2 bags of rice", "total": 10000}`}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "I want 2 bags of rice, total 10000 INW-AAAAAA")

	require.Len(t, messenger.messages(), 1)

	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	orders, err := store.GetOrdersByVendor(session.VendorID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "2 bags of rice", orders[0].Items)
	assert.Equal(t, float64(10000), orders[0].Amount)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
}

func TestHandleTextPausedSessionStaysSilent(t *testing.T) {
	model := &fakeModel{chatReply: "should not be sent"}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")
	require.Len(t, messenger.messages(), 1)

	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	session.IsAIPaused = true
	require.NoError(t, store.UpdateChatSession(session))

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "anyone there?")

	// No new outbound message, but the customer turn is still logged
	assert.Len(t, messenger.messages(), 1)
	history, err := store.GetChatHistory(session.VendorID, session.CustomerNumber, 0)
	require.NoError(t, err)
	assert.Equal(t, "anyone there?", history[len(history)-1].Content)
}

func TestHandleImagePausedSessionUntouched(t *testing.T) {
	model := &fakeModel{
		chatReply:   `{"item": null, "total": null}`,
		visionReply: `{"sender_name": "Ada Obi", "amount": 5000, "bank": "GTBank", "status": "Success"}`,
	}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")
	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Items:          "2 bags of rice",
		Amount:         5000,
	})
	require.NoError(t, err)

	session.IsAIPaused = true
	require.NoError(t, store.UpdateChatSession(session))
	before := len(messenger.messages())

	d.HandleImage(context.Background(), "2348012345678", models.ChannelWhatsApp, []byte("receipt"))

	// The vendor has taken over: no extraction, no reconciliation, no sends
	assert.Len(t, messenger.messages(), before)
	assert.Zero(t, model.visionCalls)

	untouched, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, untouched.Status)
	sales, err := store.GetSalesByVendor(session.VendorID)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestHandleTextUnknownCustomerIgnored(t *testing.T) {
	model := &fakeModel{chatReply: "hi"}
	d, _, messenger := dispatcherFixture(t, model)

	// No referral code, no DEFAULT_VENDOR_ID: the event is dropped quietly
	d.HandleText(context.Background(), "2348099999999", models.ChannelWhatsApp, "hello")

	assert.Empty(t, messenger.messages())
	assert.Empty(t, model.chatCalls)
}

func TestHandleImageUnreadableReceipt(t *testing.T) {
	model := &fakeModel{visionReply: `{"sender_name": "Ada`} // truncated JSON
	d, store, messenger := dispatcherFixture(t, model)

	// Existing customer with a pending order
	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")
	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Items:          "2 bags of rice",
		Amount:         5000,
	})
	require.NoError(t, err)
	before := len(messenger.messages())

	d.HandleImage(context.Background(), "2348012345678", models.ChannelWhatsApp, []byte("blurry"))

	// Exactly one clearer-photo message, zero order mutations
	sent := messenger.messages()
	require.Len(t, sent, before+1)
	assert.Equal(t, ClearerPhotoReply, sent[len(sent)-1].Text)

	unchanged, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, unchanged.Status)
}

func TestHandleImageReconcilesPayment(t *testing.T) {
	model := &fakeModel{
		chatReply:   `{"item": null, "total": null}`,
		visionReply: `{"sender_name": "Ada Obi", "amount": 5000, "bank": "GTBank", "ref": "TRX1", "status": "Success"}`,
	}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")
	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Items:          "2 bags of rice",
		Amount:         5000,
	})
	require.NoError(t, err)

	d.HandleImage(context.Background(), "2348012345678", models.ChannelWhatsApp, []byte("receipt"))

	paid, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)

	sent := messenger.messages()
	assert.Contains(t, sent[len(sent)-1].Text, "Payment of ₦5000.00 confirmed")
}

func TestHandleImageMismatchLeavesOrderPending(t *testing.T) {
	model := &fakeModel{
		chatReply:   `{"item": null, "total": null}`,
		visionReply: `{"sender_name": "Ada Obi", "amount": 5200, "bank": "GTBank", "status": "Success"}`,
	}
	d, store, messenger := dispatcherFixture(t, model)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "hello INW-AAAAAA")
	session, err := store.GetChatSession("2348012345678")
	require.NoError(t, err)
	order, err := store.CreateOrder(&models.Order{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Items:          "2 bags of rice",
		Amount:         5000,
	})
	require.NoError(t, err)

	d.HandleImage(context.Background(), "2348012345678", models.ChannelWhatsApp, []byte("receipt"))

	pending, err := store.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, pending.Status)

	sent := messenger.messages()
	assert.Contains(t, sent[len(sent)-1].Text, "confirm your payment shortly")
}

func TestDispatcherAlertsVendor(t *testing.T) {
	model := &fakeModel{chatReply: `{"item": "1 crate of eggs", "total": 4200}`}
	store := storage.NewMemoryStore()
	vendor := newTestVendor(store, "Shop", "", "INW-AAAAAA")
	vendor.TelegramChatID = "12345"
	require.NoError(t, store.UpdateVendor(vendor))

	d := NewDispatcher(store, NewSessionResolver(store),
		NewConversationEngine(store, model), NewExtractor(store, model))
	d.RegisterSender(models.ChannelWhatsApp, &fakeMessenger{})

	alerter := &fakeAlerter{}
	d.SetAlerter(alerter)

	d.HandleText(context.Background(), "2348012345678", models.ChannelWhatsApp, "1 crate of eggs please INW-AAAAAA")

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, vendor.ID, alerter.alerts[0].vendor.ID)
	assert.Contains(t, alerter.alerts[0].text, "1 crate of eggs")
}

type fakeAlerter struct {
	alerts []struct {
		vendor *models.Vendor
		text   string
	}
}

func (f *fakeAlerter) AlertVendor(vendor *models.Vendor, text string) {
	f.alerts = append(f.alerts, struct {
		vendor *models.Vendor
		text   string
	}{vendor, text})
}
