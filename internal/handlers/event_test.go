package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"meetscribe/internal/calendar"
	"meetscribe/internal/models"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

type stubCalendar struct {
	raws []calendar.RawEvent
	err  error
}

func (s *stubCalendar) FetchEvents(ctx context.Context, accessToken string) ([]calendar.RawEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raws, nil
}

type stubBots struct {
	createErr error
}

func (s *stubBots) CreateBot(ctx context.Context, meetingURL string, joinAt time.Time) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return "bot-1", nil
}

func (s *stubBots) DeleteBot(ctx context.Context, botID string) error { return nil }

func (s *stubBots) IsTranscriptReady(ctx context.Context, botID string) (bool, error) {
	return false, nil
}

func (s *stubBots) FetchTranscript(ctx context.Context, botID string) (string, error) {
	return "", nil
}

type stubSummarizer struct{}

func (stubSummarizer) EmailSummary(ctx context.Context, report *models.EventReport) (string, error) {
	return "email", nil
}

func (stubSummarizer) PostSummary(ctx context.Context, report *models.EventReport) (string, error) {
	return "post", nil
}

func (stubSummarizer) AutomationOutput(ctx context.Context, report *models.EventReport, automation *models.Automation) (*models.ReportAutomation, error) {
	return &models.ReportAutomation{ReportID: report.ID, AutomationID: automation.ID}, nil
}

func newSyncApp(t *testing.T, cal *stubCalendar, bots *stubBots) (*fiber.App, *store.Store) {
	t.Helper()
	st := store.NewMemory()
	reports := services.NewReportService(st, bots, stubSummarizer{})
	events := services.NewEventService(st, cal, reports)
	handler := NewEventHandler(events)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("session", models.NewGoogleSession("owner@example.com"))
		return c.Next()
	})
	app.Post("/api/events/sync", handler.Sync)
	return app, st
}

func seedSyncOwner(t *testing.T, st *store.Store) {
	t.Helper()
	if _, err := st.Accounts.Upsert(context.Background(), "owner@example.com", models.ProviderGoogle, "token"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func syncStatus(t *testing.T, app *fiber.App) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/events/sync", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestSyncReportsFetchFailure(t *testing.T) {
	cal := &stubCalendar{err: errors.New("provider down")}
	app, st := newSyncApp(t, cal, &stubBots{})
	seedSyncOwner(t, st)

	status, _ := syncStatus(t, app)
	if status != fiber.StatusBadGateway {
		t.Errorf("status = %d, want %d for a failed calendar fetch", status, fiber.StatusBadGateway)
	}
}

func TestSyncPartialFailureIsNotAnError(t *testing.T) {
	start := time.Now().Add(2 * time.Hour)
	cal := &stubCalendar{raws: []calendar.RawEvent{
		{ID: "prov-1", Title: "Sync", HangoutLink: "https://meet.google.com/abc-defg-hij", StartTime: start},
	}}
	bots := &stubBots{createErr: errors.New("provider down")}
	app, st := newSyncApp(t, cal, bots)
	seedSyncOwner(t, st)

	// an event already opted in: the pass will try to create its bot and
	// fail, which is a per-event failure, not a fetch failure
	event := &models.Event{
		ProviderEventID: "prov-1",
		OwnerEmail:      "owner@example.com",
		MeetingLink:     "https://meet.google.com/abc-defg-hij",
		StartTime:       start,
		WantsBot:        true,
	}
	if err := st.Events.Insert(context.Background(), event); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	status, body := syncStatus(t, app)
	if status != fiber.StatusOK {
		t.Errorf("status = %d, want %d for a partial pass", status, fiber.StatusOK)
	}
	if body["status"] != "partial" {
		t.Errorf("status field = %q, want \"partial\"", body["status"])
	}
}

func TestSyncCleanPass(t *testing.T) {
	cal := &stubCalendar{raws: []calendar.RawEvent{
		{ID: "prov-1", Title: "Planning", StartTime: time.Now().Add(time.Hour)},
	}}
	app, st := newSyncApp(t, cal, &stubBots{})
	seedSyncOwner(t, st)

	status, body := syncStatus(t, app)
	if status != fiber.StatusOK {
		t.Errorf("status = %d, want %d", status, fiber.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want \"ok\"", body["status"])
	}
}
