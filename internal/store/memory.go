package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/models"
)

// NewMemory returns a fully in-memory Store. It backs development mode when
// no MongoDB is configured, and doubles as the test fake.
func NewMemory() *Store {
	return &Store{
		Events:      &memoryEventStore{events: make(map[primitive.ObjectID]*models.Event)},
		Reports:     &memoryReportStore{reports: make(map[primitive.ObjectID]*models.EventReport)},
		Accounts:    &memoryAccountStore{accounts: make(map[accountKey]*models.Account)},
		Automations: &memoryAutomationStore{
			automations:       make(map[primitive.ObjectID]*models.Automation),
			reportAutomations: make(map[primitive.ObjectID]*models.ReportAutomation),
		},
	}
}

type memoryEventStore struct {
	mu     sync.RWMutex
	events map[primitive.ObjectID]*models.Event
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	c.Attendees = append([]string(nil), e.Attendees...)
	if e.ReportID != nil {
		id := *e.ReportID
		c.ReportID = &id
	}
	return &c
}

func (s *memoryEventStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(event), nil
}

func (s *memoryEventStore) GetByProviderEventID(ctx context.Context, providerEventID string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if event.ProviderEventID == providerEventID {
			return copyEvent(event), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryEventStore) GetByReportID(ctx context.Context, reportID primitive.ObjectID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if event.ReportID != nil && *event.ReportID == reportID {
			return copyEvent(event), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryEventStore) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []*models.Event
	for _, event := range s.events {
		if event.OwnerEmail == ownerEmail {
			events = append(events, copyEvent(event))
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (s *memoryEventStore) ListOngoing(ctx context.Context, ownerEmail string, now time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []*models.Event
	for _, event := range s.events {
		if event.OwnerEmail == ownerEmail && !event.Finished && event.ReportID != nil && event.StartTime.Before(now) {
			events = append(events, copyEvent(event))
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.After(events[j].StartTime) })
	return events, nil
}

func (s *memoryEventStore) ListDispatchCandidates(ctx context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []*models.Event
	for _, event := range s.events {
		if event.WantsBot && !event.HasSentBot && !event.Finished {
			events = append(events, copyEvent(event))
		}
	}
	return events, nil
}

func (s *memoryEventStore) Insert(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	s.events[event.ID] = copyEvent(event)
	return nil
}

func (s *memoryEventStore) Update(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return ErrNotFound
	}
	event.UpdatedAt = time.Now()
	s.events[event.ID] = copyEvent(event)
	return nil
}

type memoryReportStore struct {
	mu      sync.RWMutex
	reports map[primitive.ObjectID]*models.EventReport
}

func copyReport(r *models.EventReport) *models.EventReport {
	c := *r
	c.Attendees = append([]string(nil), r.Attendees...)
	if r.Platform != nil {
		p := *r.Platform
		c.Platform = &p
	}
	return &c
}

func (s *memoryReportStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EventReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(report), nil
}

func (s *memoryReportStore) GetByBotID(ctx context.Context, botID string) (*models.EventReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, report := range s.reports {
		if report.BotID == botID {
			return copyReport(report), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryReportStore) ListInFlight(ctx context.Context) ([]*models.EventReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reports []*models.EventReport
	for _, report := range s.reports {
		if report.Platform == nil {
			reports = append(reports, copyReport(report))
		}
	}
	return reports, nil
}

func (s *memoryReportStore) ListFinalizedByOwner(ctx context.Context, ownerEmail string) ([]*models.EventReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var reports []*models.EventReport
	for _, report := range s.reports {
		if report.OwnerEmail == ownerEmail && report.Platform != nil {
			reports = append(reports, copyReport(report))
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].StartTime.Before(reports[j].StartTime) })
	return reports, nil
}

func (s *memoryReportStore) Insert(ctx context.Context, report *models.EventReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	s.reports[report.ID] = copyReport(report)
	return nil
}

func (s *memoryReportStore) Update(ctx context.Context, report *models.EventReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		return ErrNotFound
	}
	report.UpdatedAt = time.Now()
	s.reports[report.ID] = copyReport(report)
	return nil
}

func (s *memoryReportStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

type accountKey struct {
	username string
	provider models.OAuthProvider
}

type memoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[accountKey]*models.Account
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	c.AutomationIDs = append([]primitive.ObjectID(nil), a.AutomationIDs...)
	return &c
}

func (s *memoryAccountStore) GetByUsernameAndProvider(ctx context.Context, username string, provider models.OAuthProvider) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountKey{username, provider}]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(account), nil
}

func (s *memoryAccountStore) Upsert(ctx context.Context, username string, provider models.OAuthProvider, oauthToken string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey{username, provider}
	now := time.Now()
	account, ok := s.accounts[key]
	if !ok {
		account = &models.Account{
			ID:                   primitive.NewObjectID(),
			Username:             username,
			Provider:             provider,
			MinutesBeforeMeeting: models.DefaultMinutesBeforeMeeting,
			CreatedAt:            now,
		}
		s.accounts[key] = account
	}
	account.OAuthToken = oauthToken
	account.LastLoginAt = now
	return copyAccount(account), nil
}

func (s *memoryAccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := accountKey{account.Username, account.Provider}
	if _, ok := s.accounts[key]; !ok {
		return ErrNotFound
	}
	s.accounts[key] = copyAccount(account)
	return nil
}

type memoryAutomationStore struct {
	mu                sync.RWMutex
	automations       map[primitive.ObjectID]*models.Automation
	reportAutomations map[primitive.ObjectID]*models.ReportAutomation
}

func (s *memoryAutomationStore) GetAutomation(ctx context.Context, id primitive.ObjectID) (*models.Automation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	automation, ok := s.automations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *automation
	return &c, nil
}

func (s *memoryAutomationStore) ListAutomations(ctx context.Context) ([]*models.Automation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var automations []*models.Automation
	for _, automation := range s.automations {
		c := *automation
		automations = append(automations, &c)
	}
	sort.Slice(automations, func(i, j int) bool {
		return automations[i].CreatedAt.Before(automations[j].CreatedAt)
	})
	return automations, nil
}

func (s *memoryAutomationStore) InsertAutomation(ctx context.Context, automation *models.Automation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if automation.ID.IsZero() {
		automation.ID = primitive.NewObjectID()
	}
	automation.CreatedAt = time.Now()
	c := *automation
	s.automations[automation.ID] = &c
	return nil
}

func (s *memoryAutomationStore) DeleteAutomation(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.automations[id]; !ok {
		return ErrNotFound
	}
	delete(s.automations, id)
	return nil
}

func (s *memoryAutomationStore) CountBuiltinAutomations(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, automation := range s.automations {
		if automation.Builtin {
			count++
		}
	}
	return count, nil
}

func (s *memoryAutomationStore) InsertReportAutomation(ctx context.Context, ra *models.ReportAutomation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ra.ID.IsZero() {
		ra.ID = primitive.NewObjectID()
	}
	ra.CreatedAt = time.Now()
	c := *ra
	s.reportAutomations[ra.ID] = &c
	return nil
}

func (s *memoryAutomationStore) ListReportAutomations(ctx context.Context, reportID primitive.ObjectID) ([]*models.ReportAutomation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ras []*models.ReportAutomation
	for _, ra := range s.reportAutomations {
		if ra.ReportID == reportID {
			c := *ra
			ras = append(ras, &c)
		}
	}
	sort.Slice(ras, func(i, j int) bool { return ras[i].CreatedAt.Before(ras[j].CreatedAt) })
	return ras, nil
}
