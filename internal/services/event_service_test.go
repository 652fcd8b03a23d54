package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"meetscribe/internal/calendar"
	"meetscribe/internal/models"
	"meetscribe/internal/store"
)

type fakeCalendar struct {
	raws []calendar.RawEvent
	err  error
}

func (f *fakeCalendar) FetchEvents(ctx context.Context, accessToken string) ([]calendar.RawEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raws, nil
}

type fakeBots struct {
	mu          sync.Mutex
	createCalls int
	deleteCalls int
	createErr   error
}

func (f *fakeBots) CreateBot(ctx context.Context, meetingURL string, joinAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createCalls++
	return fmt.Sprintf("bot-%d", f.createCalls), nil
}

func (f *fakeBots) DeleteBot(ctx context.Context, botID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

func (f *fakeBots) IsTranscriptReady(ctx context.Context, botID string) (bool, error) {
	return false, nil
}

func (f *fakeBots) FetchTranscript(ctx context.Context, botID string) (string, error) {
	return "", nil
}

type noopSummarizer struct{}

func (noopSummarizer) EmailSummary(ctx context.Context, report *models.EventReport) (string, error) {
	return "email", nil
}

func (noopSummarizer) PostSummary(ctx context.Context, report *models.EventReport) (string, error) {
	return "post", nil
}

func (noopSummarizer) AutomationOutput(ctx context.Context, report *models.EventReport, automation *models.Automation) (*models.ReportAutomation, error) {
	return &models.ReportAutomation{ReportID: report.ID, AutomationID: automation.ID, Title: "t", Text: "x"}, nil
}

func newEventFixture(t *testing.T, cal *fakeCalendar) (*store.Store, *fakeBots, *EventService) {
	t.Helper()
	st := store.NewMemory()
	bots := &fakeBots{}
	reports := NewReportService(st, bots, noopSummarizer{})
	return st, bots, NewEventService(st, cal, reports)
}

func seedGoogleAccount(t *testing.T, st *store.Store, email string, minutes int) {
	t.Helper()
	ctx := context.Background()
	account, err := st.Accounts.Upsert(ctx, email, models.ProviderGoogle, "access-token")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	account.MinutesBeforeMeeting = minutes
	if err := st.Accounts.Update(ctx, account); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestReconcileInsertsNewEvents(t *testing.T) {
	start := time.Now().Add(2 * time.Hour)
	cal := &fakeCalendar{raws: []calendar.RawEvent{
		{
			ID:          "prov-1",
			Title:       "Planning",
			Description: "join: https://meet.google.com/abc-defg-hij",
			StartTime:   start,
			Attendees:   []string{"a@example.com"},
			Creator:     "owner@example.com",
		},
	}}
	st, bots, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	event, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	if event.WantsBot || event.HasSentBot || event.Finished {
		t.Error("internal flags must start false on first sighting")
	}
	if event.MeetingLink != "https://meet.google.com/abc-defg-hij" {
		t.Errorf("meetingLink = %q", event.MeetingLink)
	}
	if bots.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0 for fresh event", bots.createCalls)
	}
}

func TestReconcileUpsertIsIdempotent(t *testing.T) {
	start := time.Now().Add(2 * time.Hour)
	cal := &fakeCalendar{raws: []calendar.RawEvent{
		{ID: "prov-1", Title: "Sync", HangoutLink: "https://meet.google.com/abc-defg-hij", StartTime: start},
	}}
	st, bots, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// user opts in; a bot is created immediately
	event, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	session := models.NewGoogleSession("owner@example.com")
	if _, err := svc.SetWantsBot(ctx, session, event.ID, true); err != nil {
		t.Fatalf("SetWantsBot() error = %v", err)
	}
	if bots.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", bots.createCalls)
	}

	// reconciling the same unchanged raw event must not touch the bot
	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	again, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	if !again.WantsBot || !again.HasSentBot || again.Finished {
		t.Error("internal flags must survive an unchanged upsert")
	}
	if again.ReportID == nil {
		t.Error("reportId must survive an unchanged upsert")
	}
	if bots.createCalls != 1 || bots.deleteCalls != 0 {
		t.Errorf("bot calls after unchanged upsert = %d creates, %d deletes; want 1, 0",
			bots.createCalls, bots.deleteCalls)
	}
}

func TestReconcileReschedulesOnStartTimeChange(t *testing.T) {
	start := time.Now().Add(2 * time.Hour)
	cal := &fakeCalendar{raws: []calendar.RawEvent{
		{ID: "prov-1", Title: "Sync", HangoutLink: "https://meet.google.com/abc-defg-hij", StartTime: start},
	}}
	st, bots, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	event, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	session := models.NewGoogleSession("owner@example.com")
	if _, err := svc.SetWantsBot(ctx, session, event.ID, true); err != nil {
		t.Fatalf("SetWantsBot() error = %v", err)
	}

	// the meeting moves; the bot must be torn down and recreated
	cal.raws[0].StartTime = start.Add(time.Hour)
	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if bots.deleteCalls != 1 {
		t.Errorf("deleteCalls = %d, want 1", bots.deleteCalls)
	}
	if bots.createCalls != 2 {
		t.Errorf("createCalls = %d, want 2", bots.createCalls)
	}

	updated, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	if !updated.HasSentBot || updated.ReportID == nil {
		t.Error("rescheduled event should carry a fresh live bot")
	}
	if !updated.StartTime.Equal(start.Add(time.Hour)) {
		t.Errorf("startTime = %v, want %v", updated.StartTime, start.Add(time.Hour))
	}
}

func TestReconcileFetchFailureIsFatal(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("provider down")}
	st, _, svc := newEventFixture(t, cal)
	seedGoogleAccount(t, st, "owner@example.com", 10)

	err := svc.Reconcile(context.Background(), "owner@example.com")
	if err == nil {
		t.Fatal("Reconcile() should fail when the calendar fetch fails")
	}
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Errorf("Reconcile() error = %v, want ErrCalendarUnavailable", err)
	}
}

func TestReconcilePerEventFailureIsNotMarkedFatal(t *testing.T) {
	start := time.Now().Add(2 * time.Hour)
	cal := &fakeCalendar{raws: []calendar.RawEvent{
		{ID: "prov-1", Title: "Sync", HangoutLink: "https://meet.google.com/abc-defg-hij", StartTime: start},
	}}
	st, bots, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	if err := svc.Reconcile(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	event, err := st.Events.GetByProviderEventID(ctx, "prov-1")
	if err != nil {
		t.Fatalf("GetByProviderEventID() error = %v", err)
	}
	session := models.NewGoogleSession("owner@example.com")
	if _, err := svc.SetWantsBot(ctx, session, event.ID, true); err != nil {
		t.Fatalf("SetWantsBot() error = %v", err)
	}

	// the meeting moves while the bot provider is down: the reschedule
	// fails for that one event, which is a partial pass, not a fatal one
	cal.raws[0].StartTime = start.Add(time.Hour)
	bots.createErr = errors.New("provider down")

	err = svc.Reconcile(ctx, "owner@example.com")
	if err == nil {
		t.Fatal("Reconcile() should report the per-event failure")
	}
	if errors.Is(err, ErrCalendarUnavailable) {
		t.Errorf("Reconcile() error = %v, must not be marked ErrCalendarUnavailable", err)
	}
}

func TestSetWantsBotValidations(t *testing.T) {
	cal := &fakeCalendar{}
	st, _, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	noLink := &models.Event{
		ProviderEventID: "prov-nolink",
		OwnerEmail:      "owner@example.com",
		StartTime:       time.Now().Add(time.Hour),
	}
	if err := st.Events.Insert(ctx, noLink); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	session := models.NewGoogleSession("owner@example.com")
	if _, err := svc.SetWantsBot(ctx, session, noLink.ID, true); !errors.Is(err, ErrNoMeetingLink) {
		t.Errorf("SetWantsBot() error = %v, want ErrNoMeetingLink", err)
	}

	linked := &models.Event{
		ProviderEventID: "prov-linked",
		OwnerEmail:      "owner@example.com",
		MeetingLink:     "https://zoom.us/j/99",
		StartTime:       time.Now().Add(time.Hour),
	}
	if err := st.Events.Insert(ctx, linked); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	stranger := models.NewGoogleSession("stranger@example.com")
	if _, err := svc.SetWantsBot(ctx, stranger, linked.ID, true); !errors.Is(err, ErrForbidden) {
		t.Errorf("SetWantsBot() error = %v, want ErrForbidden", err)
	}
}

func TestSetWantsBotOffTearsDownBot(t *testing.T) {
	cal := &fakeCalendar{}
	st, bots, svc := newEventFixture(t, cal)
	ctx := context.Background()
	seedGoogleAccount(t, st, "owner@example.com", 10)

	event := &models.Event{
		ProviderEventID: "prov-1",
		OwnerEmail:      "owner@example.com",
		MeetingLink:     "https://meet.google.com/abc-defg-hij",
		StartTime:       time.Now().Add(time.Hour),
	}
	if err := st.Events.Insert(ctx, event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	session := models.NewGoogleSession("owner@example.com")
	if _, err := svc.SetWantsBot(ctx, session, event.ID, true); err != nil {
		t.Fatalf("SetWantsBot(true) error = %v", err)
	}
	if bots.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", bots.createCalls)
	}

	updated, err := svc.SetWantsBot(ctx, session, event.ID, false)
	if err != nil {
		t.Fatalf("SetWantsBot(false) error = %v", err)
	}
	if bots.deleteCalls != 1 {
		t.Errorf("deleteCalls = %d, want 1", bots.deleteCalls)
	}
	if updated.HasSentBot {
		t.Error("hasSentBot should be false after teardown")
	}
	if updated.ReportID != nil {
		t.Error("no report should remain attached after teardown")
	}
}
