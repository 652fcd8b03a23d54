package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"meetscribe/internal/models"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

// BotSender is the dispatch loop. It is the authoritative trigger for bot
// creation when no calendar refresh happened since an event's send window
// opened; the reconciler's own create path and this loop stay mutually
// idempotent through the hasSentBot guard alone.
type BotSender struct {
	store   *store.Store
	reports *services.ReportService
}

// NewBotSender creates a new bot sender task
func NewBotSender(st *store.Store, reports *services.ReportService) *BotSender {
	return &BotSender{
		store:   st,
		reports: reports,
	}
}

func (b *BotSender) Name() string { return "bot-sender" }

// Run dispatches a bot for every event whose send window has arrived. One
// event's failure is logged and skipped; the next pass retries it.
func (b *BotSender) Run(ctx context.Context) error {
	events, err := b.store.Events.ListDispatchCandidates(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	dispatched := 0
	for _, event := range events {
		if event.MeetingLink == "" {
			continue
		}

		minutesBefore := models.DefaultMinutesBeforeMeeting
		account, err := b.store.Accounts.GetByUsernameAndProvider(ctx, event.OwnerEmail, models.ProviderGoogle)
		if err == nil {
			minutesBefore = account.MinutesBeforeMeeting
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️ [BOT-SENDER] Failed to load account %s: %v", event.OwnerEmail, err)
			continue
		}

		if !event.InDispatchWindow(minutesBefore, now) {
			continue
		}

		if err := b.reports.CreateBotForEvent(ctx, event, minutesBefore); err != nil {
			log.Printf("⚠️ [BOT-SENDER] Failed to dispatch bot for event %s: %v", event.ID.Hex(), err)
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		log.Printf("🤖 [BOT-SENDER] Dispatched %d bots", dispatched)
	}
	return nil
}
