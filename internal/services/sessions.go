package services

import (
	"errors"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// ErrNoVendor means an unseen customer could not be linked to any vendor:
// no valid referral code and no configured fallback vendor
var ErrNoVendor = errors.New("no vendor to bind customer session to")

// referralCodePattern matches codes vendors share with their customers,
// e.g. "INW-4F7K2A" printed on flyers or embedded in Telegram deep links
var referralCodePattern = regexp.MustCompile(`\bINW-[A-Z0-9]{6}\b`)

// SessionResolver owns the customer-number → vendor binding
type SessionResolver struct {
	store            storage.Store
	fallbackVendorID uint
}

// NewSessionResolver creates a session resolver. DEFAULT_VENDOR_ID names the
// vendor that unseen customers without a referral code are linked to; when it
// is unset, such customers are rejected rather than guessed at.
func NewSessionResolver(store storage.Store) *SessionResolver {
	var fallback uint
	if raw := os.Getenv("DEFAULT_VENDOR_ID"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Printf("⚠️  Invalid DEFAULT_VENDOR_ID %q - fallback vendor disabled", raw)
		} else {
			fallback = uint(id)
		}
	}

	return &SessionResolver{
		store:            store,
		fallbackVendorID: fallback,
	}
}

// FindReferralCode scans free text for a vendor referral code
func FindReferralCode(text string) string {
	return referralCodePattern.FindString(text)
}

// ResolveOrCreate looks up the session for a customer, creating one on first
// contact. New sessions bind to the vendor owning referralCode when valid,
// else to the configured fallback vendor, else fail with ErrNoVendor.
func (r *SessionResolver) ResolveOrCreate(customerNumber, referralCode, channel string) (*models.ChatSession, error) {
	session, err := r.store.GetChatSession(customerNumber)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	vendor, err := r.store.GetVendorByReferralCode(referralCode)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if r.fallbackVendorID == 0 {
			return nil, ErrNoVendor
		}
		vendor, err = r.store.GetVendor(r.fallbackVendorID)
		if err != nil {
			return nil, ErrNoVendor
		}
	}

	session, err = r.store.CreateChatSession(&models.ChatSession{
		CustomerNumber: customerNumber,
		VendorID:       vendor.ID,
		Channel:        channel,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("👤 New customer %s linked to vendor %d (%s)", customerNumber, vendor.ID, vendor.BusinessName)
	return session, nil
}

// SetPaused toggles human take-over for a customer. While paused, the
// conversation engine produces no replies for that session.
func (r *SessionResolver) SetPaused(customerNumber string, paused bool) (*models.ChatSession, error) {
	session, err := r.store.GetChatSession(customerNumber)
	if err != nil {
		return nil, err
	}

	session.IsAIPaused = paused
	if err := r.store.UpdateChatSession(session); err != nil {
		return nil, err
	}
	return session, nil
}
