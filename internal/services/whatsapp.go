package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const graphAPIVersion = "v21.0"

// Messenger sends a text message to one customer on their chat platform
type Messenger interface {
	SendText(to, text string) error
}

// WhatsAppService talks to the WhatsApp Business Cloud API
type WhatsAppService struct {
	token         string
	phoneNumberID string
	verifyToken   string
	baseURL       string
	client        *http.Client
}

// NewWhatsAppService creates a WhatsApp Cloud API client from environment
// configuration
func NewWhatsAppService() (*WhatsAppService, error) {
	token := os.Getenv("WHATSAPP_TOKEN")
	phoneNumberID := os.Getenv("PHONE_NUMBER_ID")
	if token == "" || phoneNumberID == "" {
		return nil, fmt.Errorf("missing WHATSAPP_TOKEN or PHONE_NUMBER_ID in environment variables")
	}

	baseURL := os.Getenv("WHATSAPP_API_BASE")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}

	return &WhatsAppService{
		token:         token,
		phoneNumberID: phoneNumberID,
		verifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		baseURL:       baseURL,
		client:        &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// VerifyToken returns the shared webhook verification token
func (w *WhatsAppService) VerifyToken() string {
	return w.verifyToken
}

// SendText sends a plain text message to a WhatsApp number
func (w *WhatsAppService) SendText(to, text string) error {
	// The API wants digits only, no '+'
	clean := cleanNumber(to)

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                clean,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", w.baseURL, graphAPIVersion, w.phoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API error (%d): %s", resp.StatusCode, string(respBody))
	}

	log.Printf("✅ WhatsApp message sent to %s", clean)
	return nil
}

// GetMediaBytes downloads media (like receipt photos) from Meta's servers.
// The media id resolves to a short-lived URL which is then fetched.
func (w *WhatsAppService) GetMediaBytes(mediaID string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s/%s", w.baseURL, graphAPIVersion, mediaID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.token)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media lookup error (%d)", resp.StatusCode)
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, err
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("media %s has no download URL", mediaID)
	}

	dlReq, err := http.NewRequest(http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, err
	}
	dlReq.Header.Set("Authorization", "Bearer "+w.token)

	dlResp, err := w.client.Do(dlReq)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download error (%d)", dlResp.StatusCode)
	}

	return io.ReadAll(dlResp.Body)
}

func cleanNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
