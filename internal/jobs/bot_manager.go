package jobs

import (
	"context"
	"log"

	"meetscribe/internal/recall"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

// BotManager is the completion poller. It selects reports solely by their
// null platform, asks the bot provider whether a transcript exists, and
// finalizes each report at most once. Reports that are not ready are left
// for the next pass; there is no backoff.
type BotManager struct {
	store   *store.Store
	bots    recall.BotProvider
	reports *services.ReportService
}

// NewBotManager creates a new bot manager task
func NewBotManager(st *store.Store, bots recall.BotProvider, reports *services.ReportService) *BotManager {
	return &BotManager{
		store:   st,
		bots:    bots,
		reports: reports,
	}
}

func (b *BotManager) Name() string { return "bot-manager" }

// Run finalizes every in-flight report whose transcript became available.
// A single report's failure is logged and skipped.
func (b *BotManager) Run(ctx context.Context) error {
	reports, err := b.store.Reports.ListInFlight(ctx)
	if err != nil {
		return err
	}

	finalized := 0
	for _, report := range reports {
		if !report.InFlight() {
			continue
		}

		ready, err := b.bots.IsTranscriptReady(ctx, report.BotID)
		if err != nil {
			log.Printf("⚠️ [BOT-MANAGER] Failed to poll bot %s: %v", report.BotID, err)
			continue
		}
		if !ready {
			continue
		}

		if err := b.reports.Finalize(ctx, report); err != nil {
			log.Printf("⚠️ [BOT-MANAGER] Failed to finalize report %s: %v", report.ID.Hex(), err)
			continue
		}
		finalized++
	}

	if finalized > 0 {
		log.Printf("📋 [BOT-MANAGER] Finalized %d reports", finalized)
	}
	return nil
}
