package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

func conversationFixture(t *testing.T, model *fakeModel) (*ConversationEngine, storage.Store, *models.ChatSession) {
	t.Helper()
	store := storage.NewMemoryStore()
	vendor := newTestVendor(store, "Mama Nkechi Kitchen", "Jollof rice - 3500\nEgusi soup - 4000", "INW-AAAAAA")
	vendor.OutOfStockItems = "Egusi soup"
	require.NoError(t, store.UpdateVendor(vendor))

	session, err := store.CreateChatSession(&models.ChatSession{
		CustomerNumber: "2348012345678",
		VendorID:       vendor.ID,
		Channel:        models.ChannelWhatsApp,
	})
	require.NoError(t, err)

	return NewConversationEngine(store, model), store, session
}

func TestReplyEmbedsVendorContext(t *testing.T) {
	model := &fakeModel{chatReply: "We have jollof rice for ₦3500!"}
	engine, _, session := conversationFixture(t, model)

	reply, err := engine.Reply(context.Background(), session, "what do you sell?")
	require.NoError(t, err)
	assert.Equal(t, "We have jollof rice for ₦3500!", reply)

	prompts := model.systemPrompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Mama Nkechi Kitchen")
	assert.Contains(t, prompts[0], "Jollof rice - 3500")
	assert.Contains(t, prompts[0], "Egusi soup")
}

func TestReplyPausedSessionProducesNothing(t *testing.T) {
	model := &fakeModel{chatReply: "should never be sent"}
	engine, _, session := conversationFixture(t, model)
	session.IsAIPaused = true

	reply, err := engine.Reply(context.Background(), session, "hello?")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Empty(t, model.chatCalls, "paused sessions must not reach the model")
}

func TestReplyFallbackOnModelFailure(t *testing.T) {
	model := &fakeModel{chatErr: errors.New("upstream down")}
	engine, store, session := conversationFixture(t, model)

	reply, err := engine.Reply(context.Background(), session, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)

	// Both turns still land in the log
	history, err := store.GetChatHistory(session.VendorID, session.CustomerNumber, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, models.SenderAI, history[1].Sender)
}

func TestReplyCarriesHistory(t *testing.T) {
	model := &fakeModel{chatReply: "ok"}
	engine, _, session := conversationFixture(t, model)

	_, err := engine.Reply(context.Background(), session, "first message")
	require.NoError(t, err)
	_, err = engine.Reply(context.Background(), session, "second message")
	require.NoError(t, err)

	require.Len(t, model.chatCalls, 2)
	second := model.chatCalls[1]
	// system + 2 history turns + new user turn
	require.Len(t, second, 4)
	assert.Equal(t, "first message", second[1].Content)
	assert.Equal(t, "ok", second[2].Content)
	assert.Equal(t, "second message", second[3].Content)
}

func TestTenantIsolation(t *testing.T) {
	store := storage.NewMemoryStore()
	v1 := newTestVendor(store, "Vendor One", "V1 SECRET CATALOGUE", "INW-AAAAAA")
	newTestVendor(store, "Vendor Two", "V2 SECRET CATALOGUE", "INW-BBBBBB")

	session, err := store.CreateChatSession(&models.ChatSession{
		CustomerNumber: "2348012345678",
		VendorID:       v1.ID,
	})
	require.NoError(t, err)

	model := &fakeModel{chatReply: "hi"}
	engine := NewConversationEngine(store, model)

	_, err = engine.Reply(context.Background(), session, "what do you sell?")
	require.NoError(t, err)

	prompts := model.systemPrompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "V1 SECRET CATALOGUE")
	assert.NotContains(t, prompts[0], "V2 SECRET CATALOGUE")
}
