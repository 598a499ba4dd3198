package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// ErrUnreadableReceipt means the vision model could not pull fields from the
// image; the dispatcher turns this into a "resend a clearer photo" message
var ErrUnreadableReceipt = errors.New("receipt image could not be read")

// receiptTolerance is the maximum absolute difference, in naira, between an
// order amount and a receipt amount for automatic reconciliation
const receiptTolerance = 1.0

const orderExtractionPrompt = `You read customer messages for a Nigerian online shop.
If the message confirms an order, return JSON: {"item": "<what they ordered>", "total": <numeric amount>}.
If the message is NOT an order (greeting, question, small talk), return JSON: {"item": null, "total": null}.
Return ONLY the JSON object.`

const receiptExtractionPrompt = `Analyze this bank transfer receipt. Extract the following in JSON format:
- sender_name: the name of the person who sent the money.
- amount: the numeric value only (e.g. 5000).
- date: the transaction date.
- bank: the name of the bank (e.g. GTBank, Kuda, Zenith).
- ref: the transaction reference, if visible.
- status: 'Success' or 'Pending'.
Return ONLY the JSON object.`

// OrderDetails is the structured result of order extraction
type OrderDetails struct {
	Item  string
	Total float64
}

// ReceiptDetails is the structured result of receipt extraction
type ReceiptDetails struct {
	SenderName string  `json:"sender_name"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Bank       string  `json:"bank"`
	Reference  string  `json:"ref"`
	Status     string  `json:"status"`
}

// ReconcileResult says what happened to a parsed receipt
type ReconcileResult struct {
	Order    *models.Order
	Paid     bool
	Mismatch bool // receipt parsed but amount outside tolerance
}

// Extractor pulls structured order and payment data out of free-form
// messages via constrained model calls. All failures are soft: bad model
// output means "no data", never an error shown to the customer.
type Extractor struct {
	store storage.Store
	model ModelClient
}

// NewExtractor creates an extractor
func NewExtractor(store storage.Store, model ModelClient) *Extractor {
	return &Extractor{store: store, model: model}
}

// ExtractOrder returns order details found in the text, or nil when the text
// is not an order or the model output is malformed
func (x *Extractor) ExtractOrder(ctx context.Context, text string) *OrderDetails {
	raw, err := x.model.Complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: orderExtractionPrompt},
		{Role: openai.ChatMessageRoleUser, Content: text},
	}, 0, true)
	if err != nil {
		log.Printf("⚠️  Order extraction call failed: %v", err)
		return nil
	}

	// The null sentinel and malformed output both collapse to "no order"
	var parsed struct {
		Item  *string  `json:"item"`
		Total *float64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		log.Printf("⚠️  Order extraction returned non-JSON output: %.80q", raw)
		return nil
	}
	if parsed.Item == nil || *parsed.Item == "" || parsed.Total == nil {
		return nil
	}

	return &OrderDetails{Item: *parsed.Item, Total: *parsed.Total}
}

// ExtractReceipt returns payment fields read from a receipt image, or
// ErrUnreadableReceipt when the vision output cannot be parsed
func (x *Extractor) ExtractReceipt(ctx context.Context, imageBytes []byte) (*ReceiptDetails, error) {
	raw, err := x.model.CompleteVision(ctx, receiptExtractionPrompt, imageBytes)
	if err != nil {
		log.Printf("⚠️  Receipt extraction call failed: %v", err)
		return nil, ErrUnreadableReceipt
	}

	var receipt ReceiptDetails
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &receipt); err != nil {
		log.Printf("⚠️  Receipt extraction returned non-JSON output: %.80q", raw)
		return nil, ErrUnreadableReceipt
	}
	if receipt.Amount <= 0 {
		return nil, ErrUnreadableReceipt
	}

	return &receipt, nil
}

// Reconcile matches a parsed receipt against the customer's most recent
// pending order. Within tolerance the order flips to paid and a sale row is
// written; outside tolerance nothing changes and the mismatch is flagged for
// the vendor to review.
func (x *Extractor) Reconcile(session *models.ChatSession, receipt *ReceiptDetails) (*ReconcileResult, error) {
	order, err := x.store.GetLatestPendingOrder(session.VendorID, session.CustomerNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ReconcileResult{}, nil
		}
		return nil, err
	}

	diff := order.Amount - receipt.Amount
	if diff < 0 {
		diff = -diff
	}
	if diff >= receiptTolerance {
		return &ReconcileResult{Order: order, Mismatch: true}, nil
	}

	order.Status = models.OrderStatusPaid
	if err := x.store.UpdateOrder(order); err != nil {
		return nil, err
	}

	// A matched receipt is the first reliable source of the customer's name
	if session.CustomerName == "" && receipt.SenderName != "" {
		session.CustomerName = receipt.SenderName
		if err := x.store.UpdateChatSession(session); err != nil {
			log.Printf("⚠️  Could not record customer name for %s: %v", session.CustomerNumber, err)
		}
	}

	_, err = x.store.CreateSale(&models.Sale{
		VendorID:     session.VendorID,
		Amount:       receipt.Amount,
		CustomerName: receipt.SenderName,
		Bank:         receipt.Bank,
		Reference:    receipt.Reference,
		Status:       models.SaleStatusConfirmed,
	})
	if err != nil {
		log.Printf("⚠️  Failed to record sale for order %d: %v", order.ID, err)
	}

	return &ReconcileResult{Order: order, Paid: true}, nil
}
