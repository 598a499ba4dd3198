package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultChatModel   = "meta-llama/llama-4-maverick-17b-128e-instruct"
	defaultVisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	groqBaseURL        = "https://api.groq.com/openai/v1"

	modelCallTimeout = 30 * time.Second
)

// ModelClient is the slice of the hosted LLM this backend depends on.
// Conversation replies use a creative temperature; extraction calls use
// temperature 0 with strict JSON output.
type ModelClient interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, jsonMode bool) (string, error)
	CompleteVision(ctx context.Context, prompt string, imageBytes []byte) (string, error)
}

// AIClient talks to Groq's OpenAI-compatible API
type AIClient struct {
	client      *openai.Client
	chatModel   string
	visionModel string
}

// NewAIClient creates an AI client from environment configuration
func NewAIClient() (*AIClient, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing GROQ_API_KEY in environment variables")
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = groqBaseURL
	if baseURL := os.Getenv("GROQ_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	chatModel := os.Getenv("GROQ_CHAT_MODEL")
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	visionModel := os.Getenv("GROQ_VISION_MODEL")
	if visionModel == "" {
		visionModel = defaultVisionModel
	}

	return &AIClient{
		client:      openai.NewClientWithConfig(config),
		chatModel:   chatModel,
		visionModel: visionModel,
	}, nil
}

// Complete runs one chat completion over the given turns
func (a *AIClient) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Messages:    messages,
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteVision runs one vision completion with an inline image
func (a *AIClient) CompleteVision(ctx context.Context, prompt string, imageBytes []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, modelCallTimeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(imageBytes)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.visionModel,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:image/jpeg;base64,%s", encoded),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
