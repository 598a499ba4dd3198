package services

import (
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

const (
	historyLimit    = 20
	chatTemperature = 0.7

	// FallbackReply goes out when the model is unreachable. The customer
	// must never see a raw error or silence.
	FallbackReply = "So sorry, I'm having a little network trouble right now. Please give me a moment and send your message again. 🙏"
)

// ConversationEngine produces AI replies scoped to one vendor's data
type ConversationEngine struct {
	store storage.Store
	model ModelClient
}

// NewConversationEngine creates a conversation engine
func NewConversationEngine(store storage.Store, model ModelClient) *ConversationEngine {
	return &ConversationEngine{
		store: store,
		model: model,
	}
}

// Reply generates the assistant's answer for one inbound customer message and
// appends both turns to the chat log. Returns "" when the session is paused
// (human take-over); the caller must not send anything in that case.
func (e *ConversationEngine) Reply(ctx context.Context, session *models.ChatSession, userText string) (string, error) {
	if session.IsAIPaused {
		return "", nil
	}

	vendor, err := e.store.GetVendor(session.VendorID)
	if err != nil {
		// Session without a vendor is a data-integrity violation; degrade to
		// generic context rather than failing the customer
		log.Printf("⚠️  No vendor %d for session %s: %v", session.VendorID, session.CustomerNumber, err)
		vendor = nil
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: buildSystemPrompt(VendorKnowledge(vendor)),
		},
	}

	history, err := e.store.GetChatHistory(session.VendorID, session.CustomerNumber, historyLimit)
	if err != nil {
		log.Printf("⚠️  Failed to load chat history for %s: %v", session.CustomerNumber, err)
	}
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	reply, err := e.model.Complete(ctx, messages, chatTemperature, false)
	if err != nil {
		log.Printf("❌ Model call failed for %s: %v", session.CustomerNumber, err)
		reply = FallbackReply
	}

	e.logTurn(session, session.CustomerNumber, models.RoleUser, userText)
	e.logTurn(session, models.SenderAI, models.RoleAssistant, reply)

	return reply, nil
}

func (e *ConversationEngine) logTurn(session *models.ChatSession, sender, role, content string) {
	err := e.store.AppendChatMessage(&models.ChatMessage{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Sender:         sender,
		Role:           role,
		Content:        content,
	})
	if err != nil {
		log.Printf("⚠️  Failed to log %s turn for %s: %v", role, session.CustomerNumber, err)
	}
}

func buildSystemPrompt(vc VendorContext) string {
	return fmt.Sprintf(
		"You are the sales assistant for %s, a %s business in Nigeria. Speak warmly, like a helpful market attendant.\n\n"+
			"PRODUCTS AND PRICES:\n%s\n\n"+
			"OUT OF STOCK RIGHT NOW:\n%s\n\n"+
			"Rules:\n"+
			"- Keep replies under 80 words.\n"+
			"- Only quote prices that appear in the product list. Never invent a price.\n"+
			"- If a customer asks for something out of stock, say so and suggest a similar in-stock item.\n"+
			"- When a customer confirms an order, restate the items and total, then share payment details if asked.\n",
		vc.BusinessName, vc.Category,
		orDefault(vc.Knowledge, "(no catalogue uploaded yet)"),
		orDefault(vc.OutOfStock, "(nothing)"),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
