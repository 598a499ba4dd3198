package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/inawohq/inawo-backend/internal/models"
)

// telegramPrefix namespaces Telegram chat ids in the shared customer-number
// space so they can never collide with WhatsApp phone numbers
const telegramPrefix = "tg:"

const maxPollBackoff = time.Minute

// TelegramService runs the customer-facing Telegram bot and delivers vendor
// alerts. The polling loop is supervised: it restarts with exponential
// backoff on failure and stops cleanly on shutdown.
type TelegramService struct {
	bot        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	media      *http.Client

	stop chan struct{}
	done chan struct{}
}

// NewTelegramService creates the Telegram bot from environment configuration
func NewTelegramService(dispatcher *Dispatcher) (*TelegramService, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("missing TELEGRAM_TOKEN in environment variables")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init failed: %w", err)
	}

	return &TelegramService{
		bot:        bot,
		dispatcher: dispatcher,
		media:      &http.Client{Timeout: 10 * time.Second},
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start launches the supervised polling loop
func (t *TelegramService) Start() {
	log.Printf("🤖 Telegram bot started as @%s", t.bot.Self.UserName)
	go t.supervise()
}

// Stop shuts the polling loop down and waits for it to exit
func (t *TelegramService) Stop() {
	close(t.stop)
	t.bot.StopReceivingUpdates()
	<-t.done
	log.Println("⏹️  Telegram bot stopped")
}

func (t *TelegramService) supervise() {
	defer close(t.done)

	backoff := time.Second
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		started := time.Now()
		t.poll()

		select {
		case <-t.stop:
			return
		default:
		}

		// A run that survived a while earns a fresh backoff
		if time.Since(started) > time.Minute {
			backoff = time.Second
		}
		log.Printf("⚠️  Telegram polling exited - restarting in %v", backoff)
		select {
		case <-time.After(backoff):
		case <-t.stop:
			return
		}
		backoff *= 2
		if backoff > maxPollBackoff {
			backoff = maxPollBackoff
		}
	}
}

func (t *TelegramService) poll() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Telegram handler panic: %v", r)
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(update)
		case <-t.stop:
			return
		}
	}
}

func (t *TelegramService) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	ctx := context.Background()
	customer := telegramPrefix + strconv.FormatInt(msg.Chat.ID, 10)

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		// Deep links carry the vendor referral code: t.me/<bot>?start=INW-XXXXXX
		text := "Hello"
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			text = "Hello " + args
		}
		t.dispatcher.HandleText(ctx, customer, models.ChannelTelegram, text)

	case len(msg.Photo) > 0:
		imageBytes, err := t.downloadPhoto(msg.Photo)
		if err != nil {
			log.Printf("⚠️  Telegram photo download failed for %s: %v", customer, err)
			return
		}
		t.dispatcher.HandleImage(ctx, customer, models.ChannelTelegram, imageBytes)

	case msg.Text != "":
		t.dispatcher.HandleText(ctx, customer, models.ChannelTelegram, msg.Text)
	}
}

// downloadPhoto fetches the highest-resolution rendition Telegram offers
func (t *TelegramService) downloadPhoto(sizes []tgbotapi.PhotoSize) ([]byte, error) {
	fileURL, err := t.bot.GetFileDirectURL(sizes[len(sizes)-1].FileID)
	if err != nil {
		return nil, err
	}

	resp, err := t.media.Get(fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo download error (%d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// SendText implements Messenger for the telegram channel
func (t *TelegramService) SendText(to, text string) error {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(to, telegramPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("bad telegram recipient %q: %w", to, err)
	}

	_, err = t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// AlertVendor implements VendorAlerter: business events go to the vendor's
// own Telegram chat when one is linked
func (t *TelegramService) AlertVendor(vendor *models.Vendor, text string) {
	if vendor.TelegramChatID == "" {
		return
	}
	chatID, err := strconv.ParseInt(vendor.TelegramChatID, 10, 64)
	if err != nil {
		log.Printf("⚠️  Vendor %d has bad telegram chat id %q", vendor.ID, vendor.TelegramChatID)
		return
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("⚠️  Vendor alert to %d failed: %v", vendor.ID, err)
	}
}
