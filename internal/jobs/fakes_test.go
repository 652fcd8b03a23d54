package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meetscribe/internal/models"
)

// fakeBotProvider records calls so tests can assert exactly how many times
// the bot API was hit.
type fakeBotProvider struct {
	mu              sync.Mutex
	createCalls     int
	deleteCalls     int
	readyCalls      int
	transcriptCalls int

	ready      bool
	transcript string
	createErr  error
}

func (f *fakeBotProvider) CreateBot(ctx context.Context, meetingURL string, joinAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createCalls++
	return fmt.Sprintf("bot-%d", f.createCalls), nil
}

func (f *fakeBotProvider) DeleteBot(ctx context.Context, botID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

func (f *fakeBotProvider) IsTranscriptReady(ctx context.Context, botID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	return f.ready, nil
}

func (f *fakeBotProvider) FetchTranscript(ctx context.Context, botID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptCalls++
	return f.transcript, nil
}

// fakeSummarizer returns canned texts and counts invocations.
type fakeSummarizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSummarizer) EmailSummary(ctx context.Context, report *models.EventReport) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "email summary", nil
}

func (f *fakeSummarizer) PostSummary(ctx context.Context, report *models.EventReport) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "post summary", nil
}

func (f *fakeSummarizer) AutomationOutput(ctx context.Context, report *models.EventReport, automation *models.Automation) (*models.ReportAutomation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &models.ReportAutomation{
		ReportID:     report.ID,
		AutomationID: automation.ID,
		Title:        "generated title",
		Text:         "generated text",
	}, nil
}
