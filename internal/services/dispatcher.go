package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// ClearerPhotoReply is sent when a receipt image cannot be read
const ClearerPhotoReply = "I couldn't read that receipt clearly. 🙏 Please send a clearer photo of the transfer receipt."

const receiptPendingReply = "Thank you! We've received your receipt and will confirm your payment shortly."

// VendorAlerter notifies a vendor about business events (new orders,
// payments, receipts needing review)
type VendorAlerter interface {
	AlertVendor(vendor *models.Vendor, text string)
}

// Dispatcher sequences the per-event pipeline: resolve session, generate the
// AI reply, extract orders or reconcile receipts, send the response. Every
// inbound event reaches a terminal state within the one call; processing
// errors are logged and swallowed so the webhook layer can always ack.
type Dispatcher struct {
	store     storage.Store
	resolver  *SessionResolver
	engine    *ConversationEngine
	extractor *Extractor
	alerter   VendorAlerter

	senders   map[string]Messenger
	senderMu  sync.RWMutex
	custLocks sync.Map // customer number -> *sync.Mutex
}

// NewDispatcher creates a dispatcher
func NewDispatcher(store storage.Store, resolver *SessionResolver, engine *ConversationEngine, extractor *Extractor) *Dispatcher {
	return &Dispatcher{
		store:     store,
		resolver:  resolver,
		engine:    engine,
		extractor: extractor,
		senders:   make(map[string]Messenger),
	}
}

// RegisterSender wires the outbound messenger for one channel
func (d *Dispatcher) RegisterSender(channel string, sender Messenger) {
	d.senderMu.Lock()
	defer d.senderMu.Unlock()
	d.senders[channel] = sender
}

// SetAlerter wires vendor alerting (optional; nil means no alerts)
func (d *Dispatcher) SetAlerter(alerter VendorAlerter) {
	d.alerter = alerter
}

// HandleText processes one inbound text message from a customer
func (d *Dispatcher) HandleText(ctx context.Context, customerNumber, channel, text string) {
	if text == "" {
		return
	}

	unlock := d.lockCustomer(customerNumber)
	defer unlock()

	session, err := d.resolver.ResolveOrCreate(customerNumber, FindReferralCode(text), channel)
	if err != nil {
		if errors.Is(err, ErrNoVendor) {
			log.Printf("⚠️  Ignoring message from %s: no referral code and no fallback vendor", customerNumber)
		} else {
			log.Printf("❌ Session resolution failed for %s: %v", customerNumber, err)
		}
		return
	}

	// Human take-over: the vendor is typing, the AI stays quiet
	if session.IsAIPaused {
		log.Printf("⏸  AI paused for %s - message logged only", customerNumber)
		d.logCustomerMessage(session, text)
		return
	}

	reply, err := d.engine.Reply(ctx, session, text)
	if err != nil {
		log.Printf("❌ Reply generation failed for %s: %v", customerNumber, err)
		return
	}
	if reply != "" {
		d.send(session, reply)
	}

	// After responding, check whether this turn committed an order
	if details := d.extractor.ExtractOrder(ctx, text); details != nil {
		order, err := d.store.CreateOrder(&models.Order{
			VendorID:       session.VendorID,
			CustomerNumber: customerNumber,
			Items:          details.Item,
			Amount:         details.Total,
		})
		if err != nil {
			log.Printf("❌ Failed to log order for %s: %v", customerNumber, err)
			return
		}
		log.Printf("🛒 Order #%d logged for %s: %s (₦%.2f)", order.ID, customerNumber, order.Items, order.Amount)
		d.alert(session.VendorID, fmt.Sprintf("🛒 New order from %s:\n%s\nTotal: ₦%.2f\nStatus: pending payment",
			customerNumber, order.Items, order.Amount))
	}
}

// HandleImage processes one inbound image, treated as a payment receipt
func (d *Dispatcher) HandleImage(ctx context.Context, customerNumber, channel string, imageBytes []byte) {
	unlock := d.lockCustomer(customerNumber)
	defer unlock()

	session, err := d.resolver.ResolveOrCreate(customerNumber, "", channel)
	if err != nil {
		if errors.Is(err, ErrNoVendor) {
			log.Printf("⚠️  Ignoring image from unknown customer %s", customerNumber)
		} else {
			log.Printf("❌ Session resolution failed for %s: %v", customerNumber, err)
		}
		return
	}

	// Human take-over covers receipts too: the vendor handles them directly
	if session.IsAIPaused {
		log.Printf("⏸  AI paused for %s - receipt left for the vendor", customerNumber)
		return
	}

	receipt, err := d.extractor.ExtractReceipt(ctx, imageBytes)
	if err != nil {
		// Exactly one nudge, no order rows touched
		d.send(session, ClearerPhotoReply)
		return
	}

	result, err := d.extractor.Reconcile(session, receipt)
	if err != nil {
		log.Printf("❌ Reconciliation failed for %s: %v", customerNumber, err)
		d.send(session, receiptPendingReply)
		return
	}

	switch {
	case result.Paid:
		log.Printf("💰 Order #%d marked paid for %s (₦%.2f via %s)",
			result.Order.ID, customerNumber, receipt.Amount, receipt.Bank)
		d.send(session, fmt.Sprintf("✅ Payment of ₦%.2f confirmed! Your order is being prepared. Thank you! 🎉", receipt.Amount))
		d.alert(session.VendorID, fmt.Sprintf("💰 Payment received from %s:\n₦%.2f via %s (%s)\nOrder: %s",
			customerNumber, receipt.Amount, receipt.Bank, receipt.SenderName, result.Order.Items))
	case result.Mismatch:
		log.Printf("⚠️  Receipt amount ₦%.2f does not match order #%d (₦%.2f) for %s",
			receipt.Amount, result.Order.ID, result.Order.Amount, customerNumber)
		d.send(session, receiptPendingReply)
		d.alert(session.VendorID, fmt.Sprintf("⚠️ Receipt needs review from %s:\nReceipt ₦%.2f vs order ₦%.2f (%s)\nPlease confirm manually.",
			customerNumber, receipt.Amount, result.Order.Amount, result.Order.Items))
	default:
		// Receipt parsed but no pending order to match
		log.Printf("⚠️  Receipt from %s with no pending order (₦%.2f)", customerNumber, receipt.Amount)
		d.send(session, receiptPendingReply)
		d.alert(session.VendorID, fmt.Sprintf("🧾 Receipt from %s for ₦%.2f but no pending order found.",
			customerNumber, receipt.Amount))
	}
}

// SendToSession delivers one message to a customer over their session's
// channel. Used by jobs that message customers outside the webhook flow and
// need to know whether delivery happened.
func (d *Dispatcher) SendToSession(session *models.ChatSession, text string) error {
	return d.send(session, text)
}

// lockCustomer serializes concurrent events for one customer. The platform
// can deliver overlapping webhooks for the same sender; without this the
// interleaved session and order writes race.
func (d *Dispatcher) lockCustomer(customerNumber string) func() {
	value, _ := d.custLocks.LoadOrStore(customerNumber, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (d *Dispatcher) send(session *models.ChatSession, text string) error {
	d.senderMu.RLock()
	sender, ok := d.senders[session.Channel]
	d.senderMu.RUnlock()

	if !ok {
		log.Printf("⚠️  No sender registered for channel %q - reply dropped", session.Channel)
		return fmt.Errorf("no sender for channel %q", session.Channel)
	}
	if err := sender.SendText(session.CustomerNumber, text); err != nil {
		log.Printf("❌ Failed to send reply to %s: %v", session.CustomerNumber, err)
		return err
	}
	return nil
}

func (d *Dispatcher) alert(vendorID uint, text string) {
	if d.alerter == nil {
		return
	}
	vendor, err := d.store.GetVendor(vendorID)
	if err != nil {
		log.Printf("⚠️  Cannot alert vendor %d: %v", vendorID, err)
		return
	}
	d.alerter.AlertVendor(vendor, text)
}

func (d *Dispatcher) logCustomerMessage(session *models.ChatSession, text string) {
	err := d.store.AppendChatMessage(&models.ChatMessage{
		VendorID:       session.VendorID,
		CustomerNumber: session.CustomerNumber,
		Sender:         session.CustomerNumber,
		Role:           models.RoleUser,
		Content:        text,
	})
	if err != nil {
		log.Printf("⚠️  Failed to log paused-session message for %s: %v", session.CustomerNumber, err)
	}
}
