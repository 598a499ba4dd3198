package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/services"
)

// WhatsAppHandler handles the WhatsApp Cloud API webhook
type WhatsAppHandler struct {
	dispatcher *services.Dispatcher
	whatsapp   *services.WhatsAppService
}

// NewWhatsAppHandler creates a WhatsApp webhook handler
func NewWhatsAppHandler(dispatcher *services.Dispatcher, whatsapp *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{
		dispatcher: dispatcher,
		whatsapp:   whatsapp,
	}
}

// webhookPayload mirrors the Cloud API event envelope
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Image struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	} `json:"image"`
}

// Verify answers Meta's GET handshake with the hub.challenge echo
func (h *WhatsAppHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.whatsapp.VerifyToken() {
		log.Println("✅ WhatsApp webhook verified")
		return c.SendString(challenge)
	}

	log.Printf("⚠️  WhatsApp webhook verification rejected (mode=%s)", mode)
	return c.SendStatus(fiber.StatusForbidden)
}

// HandleWebhook processes incoming WhatsApp message events. It always acks
// with 200 once the payload parses; internal failures must not trigger
// platform-side retry storms.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload webhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				// Each message runs on its own goroutine so one customer's
				// model call never holds up the ack or other customers in the
				// batch. The request context dies with the ack, so processing
				// gets a fresh one.
				go h.processMessage(context.Background(), msg)
			}
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *WhatsAppHandler) processMessage(ctx context.Context, msg inboundMessage) {
	switch msg.Type {
	case "text":
		log.Printf("📱 WhatsApp text from %s: %.60s", msg.From, msg.Text.Body)
		h.dispatcher.HandleText(ctx, msg.From, models.ChannelWhatsApp, msg.Text.Body)

	case "image":
		log.Printf("📱 WhatsApp image from %s (media %s)", msg.From, msg.Image.ID)
		imageBytes, err := h.whatsapp.GetMediaBytes(msg.Image.ID)
		if err != nil {
			log.Printf("⚠️  Media download failed for %s: %v", msg.From, err)
			return
		}
		h.dispatcher.HandleImage(ctx, msg.From, models.ChannelWhatsApp, imageBytes)

	default:
		// Stickers, audio, reactions: not part of the flow
		log.Printf("📱 Ignoring WhatsApp %s event from %s", msg.Type, msg.From)
	}
}
