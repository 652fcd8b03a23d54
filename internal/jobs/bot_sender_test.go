package jobs

import (
	"context"
	"testing"
	"time"

	"meetscribe/internal/models"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

func newSenderFixture(t *testing.T) (*store.Store, *fakeBotProvider, *BotSender) {
	t.Helper()
	st := store.NewMemory()
	bots := &fakeBotProvider{}
	reports := services.NewReportService(st, bots, &fakeSummarizer{})
	return st, bots, NewBotSender(st, reports)
}

func seedOwner(t *testing.T, st *store.Store, email string, minutes int) {
	t.Helper()
	ctx := context.Background()
	account, err := st.Accounts.Upsert(ctx, email, models.ProviderGoogle, "token")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	account.MinutesBeforeMeeting = minutes
	if err := st.Accounts.Update(ctx, account); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestBotSenderDispatchesInsideWindow(t *testing.T) {
	st, bots, sender := newSenderFixture(t)
	ctx := context.Background()
	seedOwner(t, st, "owner@example.com", 10)

	event := &models.Event{
		ProviderEventID: "evt-1",
		OwnerEmail:      "owner@example.com",
		MeetingLink:     "https://meet.google.com/abc-defg-hij",
		StartTime:       time.Now().Add(9 * time.Minute),
		WantsBot:        true,
	}
	if err := st.Events.Insert(ctx, event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := sender.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if bots.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", bots.createCalls)
	}

	stored, err := st.Events.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.HasSentBot {
		t.Error("hasSentBot should be true after dispatch")
	}
	if stored.ReportID == nil {
		t.Error("event should have a report attached after dispatch")
	}

	// second pass must not dispatch again
	if err := sender.Run(ctx); err != nil {
		t.Fatalf("Run() second pass error = %v", err)
	}
	if bots.createCalls != 1 {
		t.Errorf("createCalls after second pass = %d, want 1", bots.createCalls)
	}
}

func TestBotSenderRespectsWindow(t *testing.T) {
	st, bots, sender := newSenderFixture(t)
	ctx := context.Background()
	seedOwner(t, st, "owner@example.com", 10)

	tests := []struct {
		name  string
		start time.Time
	}{
		{"window not open yet", time.Now().Add(15 * time.Minute)},
		{"meeting already started", time.Now().Add(-5 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.Event{
				ProviderEventID: "evt-" + tt.name,
				OwnerEmail:      "owner@example.com",
				MeetingLink:     "https://zoom.us/j/123",
				StartTime:       tt.start,
				WantsBot:        true,
			}
			if err := st.Events.Insert(ctx, event); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			if err := sender.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if bots.createCalls != 0 {
				t.Errorf("createCalls = %d, want 0", bots.createCalls)
			}
		})
	}
}

func TestBotSenderSkipsAlreadySent(t *testing.T) {
	st, bots, sender := newSenderFixture(t)
	ctx := context.Background()
	seedOwner(t, st, "owner@example.com", 10)

	event := &models.Event{
		ProviderEventID: "evt-sent",
		OwnerEmail:      "owner@example.com",
		MeetingLink:     "https://meet.google.com/abc-defg-hij",
		StartTime:       time.Now().Add(5 * time.Minute),
		WantsBot:        true,
		HasSentBot:      true,
	}
	if err := st.Events.Insert(ctx, event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := sender.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if bots.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0 for already-sent event", bots.createCalls)
	}
}

func TestBotSenderUsesDefaultLeadTimeWithoutAccount(t *testing.T) {
	st, bots, sender := newSenderFixture(t)
	ctx := context.Background()

	// no account stored for this owner; default lead time applies
	event := &models.Event{
		ProviderEventID: "evt-default",
		OwnerEmail:      "stranger@example.com",
		MeetingLink:     "https://meet.google.com/xyz-1234",
		StartTime:       time.Now().Add(time.Duration(models.DefaultMinutesBeforeMeeting-1) * time.Minute),
		WantsBot:        true,
	}
	if err := st.Events.Insert(ctx, event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := sender.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if bots.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", bots.createCalls)
	}
}
