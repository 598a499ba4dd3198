package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/inawohq/inawo-backend/internal/services"
	"github.com/inawohq/inawo-backend/internal/storage"
)

const (
	sweepInterval      = time.Hour
	reminderAfterHours = 24
)

// ReminderJob nudges customers whose orders have sat unpaid. One supervised
// loop with an explicit stop, not a fire-and-forget goroutine.
type ReminderJob struct {
	store      storage.Store
	dispatcher *services.Dispatcher

	stop chan struct{}
	done chan struct{}
}

// NewReminderJob creates the payment reminder job
func NewReminderJob(store storage.Store, dispatcher *services.Dispatcher) *ReminderJob {
	return &ReminderJob{
		store:      store,
		dispatcher: dispatcher,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the hourly sweep
func (j *ReminderJob) Start() {
	log.Println("⏰ Payment reminder job started")
	go j.run()
}

// Stop halts the sweep and waits for the current pass to finish
func (j *ReminderJob) Stop() {
	close(j.stop)
	<-j.done
	log.Println("⏹️  Payment reminder job stopped")
}

func (j *ReminderJob) run() {
	defer close(j.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stop:
			return
		}
	}
}

// sweep reminds each stale pending order exactly once
func (j *ReminderJob) sweep() {
	orders, err := j.store.GetStalePendingOrders(reminderAfterHours)
	if err != nil {
		log.Printf("❌ Reminder sweep failed: %v", err)
		return
	}
	if len(orders) == 0 {
		return
	}

	log.Printf("⏰ Reminder sweep found %d unpaid orders", len(orders))

	for _, order := range orders {
		session, err := j.store.GetChatSession(order.CustomerNumber)
		if err != nil {
			log.Printf("⚠️  No session for order %d customer %s: %v", order.ID, order.CustomerNumber, err)
			continue
		}
		if session.IsAIPaused {
			continue
		}

		text := fmt.Sprintf("Hello! 👋 Just a friendly reminder about your order: %s (₦%.2f). "+
			"Send your transfer receipt here once you've paid and we'll confirm right away.",
			order.Items, order.Amount)
		// An undelivered reminder stays unstamped so the next sweep retries it
		if err := j.dispatcher.SendToSession(session, text); err != nil {
			log.Printf("⚠️  Reminder for order %d not delivered: %v", order.ID, err)
			continue
		}

		now := time.Now()
		order.ReminderSentAt = &now
		if err := j.store.UpdateOrder(order); err != nil {
			log.Printf("⚠️  Could not mark reminder for order %d: %v", order.ID, err)
		}
	}
}
