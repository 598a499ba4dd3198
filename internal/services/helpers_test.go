package services

import (
	"context"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// fakeModel scripts the hosted LLM for tests
type fakeModel struct {
	mu sync.Mutex

	// next responses; err wins when set
	chatReply   string
	chatErr     error
	visionReply string
	visionErr   error

	// captured requests
	chatCalls   [][]openai.ChatCompletionMessage
	visionCalls int
}

func (f *fakeModel) Complete(_ context.Context, messages []openai.ChatCompletionMessage, _ float32, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, messages)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

func (f *fakeModel) CompleteVision(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visionCalls++
	if f.visionErr != nil {
		return "", f.visionErr
	}
	return f.visionReply, nil
}

func (f *fakeModel) systemPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var prompts []string
	for _, call := range f.chatCalls {
		for _, msg := range call {
			if msg.Role == openai.ChatMessageRoleSystem {
				prompts = append(prompts, msg.Content)
			}
		}
	}
	return prompts
}

// fakeMessenger records outbound sends
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	To   string
	Text string
}

func (f *fakeMessenger) SendText(to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: to, Text: text})
	return nil
}

func (f *fakeMessenger) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func newTestVendor(store storage.Store, name, knowledge, referral string) *models.Vendor {
	vendor, err := store.CreateVendor(&models.Vendor{
		BusinessName:      name,
		Email:             name + "@example.com",
		PasswordHash:      "x",
		Category:          "Food",
		KnowledgeBaseText: knowledge,
		ReferralCode:      referral,
	})
	if err != nil {
		panic(err)
	}
	return vendor
}
