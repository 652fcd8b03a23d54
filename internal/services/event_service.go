package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/bot"
	"meetscribe/internal/calendar"
	"meetscribe/internal/logging"
	"meetscribe/internal/models"
	"meetscribe/internal/store"
)

// EventService owns calendar reconciliation and the user-facing event
// operations. One reconciliation pass is fetch, upsert by provider event id,
// decide, act; a single event's provider error never aborts the batch.
type EventService struct {
	store     *store.Store
	calendars calendar.Provider
	reports   *ReportService
}

// NewEventService creates a new event service
func NewEventService(st *store.Store, calendars calendar.Provider, reports *ReportService) *EventService {
	return &EventService{
		store:     st,
		calendars: calendars,
		reports:   reports,
	}
}

// ReconcileSession reconciles every Google identity in the session. Each
// identity's pass is independent; errors are collected, not short-circuited.
func (s *EventService) ReconcileSession(ctx context.Context, session models.Session) error {
	var errs []error
	for _, email := range session.GoogleEmails {
		if err := s.Reconcile(ctx, email); err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", email, err))
		}
	}
	return errors.Join(errs...)
}

// Reconcile runs one reconciliation pass for a single owner: fetch the
// calendar, upsert every event, and execute whatever bot action each upsert
// calls for. The calendar fetch itself failing is fatal to the pass and
// marked with ErrCalendarUnavailable; per-event failures are collected and
// reported as a partial-success summary.
func (s *EventService) Reconcile(ctx context.Context, ownerEmail string) error {
	start := time.Now()
	account, err := s.store.Accounts.GetByUsernameAndProvider(ctx, ownerEmail, models.ProviderGoogle)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w: %w", ownerEmail, ErrCalendarUnavailable, err)
	}

	raws, err := s.calendars.FetchEvents(ctx, account.OAuthToken)
	if err != nil {
		GetMetrics().RecordReconcileError()
		return fmt.Errorf("failed to fetch calendar for %s: %w: %w", ownerEmail, ErrCalendarUnavailable, err)
	}
	logging.WithOwner(ownerEmail).Debug("reconciliation pass", "events", len(raws))

	var errs []error
	for _, raw := range raws {
		if err := s.upsertAndAct(ctx, account, raw); err != nil {
			log.Printf("⚠️ [RECONCILE] Event %s for %s: %v", raw.ID, ownerEmail, err)
			errs = append(errs, fmt.Errorf("event %s: %w", raw.ID, err))
		}
	}

	GetMetrics().RecordReconcilePass(time.Since(start).Seconds())
	if len(errs) > 0 {
		return fmt.Errorf("reconciled %d events with %d failures: %w", len(raws), len(errs), errors.Join(errs...))
	}
	return nil
}

// upsertAndAct performs the strictly ordered upsert-decide-act sequence for
// one raw calendar event.
func (s *EventService) upsertAndAct(ctx context.Context, account *models.Account, raw calendar.RawEvent) error {
	incoming := mapRawEvent(raw, account.Username)

	existing, err := s.store.Events.GetByProviderEventID(ctx, incoming.ProviderEventID)
	if errors.Is(err, store.ErrNotFound) {
		// first sighting: internal flags start false, no bot to consider
		return s.store.Events.Insert(ctx, incoming)
	}
	if err != nil {
		return err
	}

	scheduleChanged := existing.ApplyUpdate(incoming)
	if err := s.store.Events.Update(ctx, existing); err != nil {
		return err
	}

	action := bot.Decide(existing, account.MinutesBeforeMeeting, scheduleChanged, time.Now())
	return s.execute(ctx, existing, action, account.MinutesBeforeMeeting)
}

// SetWantsBot toggles the bot flag for one event on behalf of the session
// and immediately executes the resulting lifecycle action.
func (s *EventService) SetWantsBot(ctx context.Context, session models.Session, eventID primitive.ObjectID, wantsBot bool) (*models.Event, error) {
	event, err := s.store.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !session.HasGoogleEmail(event.OwnerEmail) {
		return nil, ErrForbidden
	}
	if wantsBot && event.MeetingLink == "" {
		return nil, ErrNoMeetingLink
	}

	account, err := s.store.Accounts.GetByUsernameAndProvider(ctx, event.OwnerEmail, models.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", event.OwnerEmail, err)
	}

	event.WantsBot = wantsBot
	if err := s.store.Events.Update(ctx, event); err != nil {
		return nil, err
	}

	action := bot.Decide(event, account.MinutesBeforeMeeting, false, time.Now())
	if err := s.execute(ctx, event, action, account.MinutesBeforeMeeting); err != nil {
		return nil, err
	}
	return event, nil
}

// ReevaluateOwner re-runs the lifecycle decision for every unfinished event
// of one owner. Used after the dispatch lead time changes, since that moves
// every deadline.
func (s *EventService) ReevaluateOwner(ctx context.Context, account *models.Account) error {
	events, err := s.store.Events.ListByOwner(ctx, account.Username)
	if err != nil {
		return err
	}

	var errs []error
	for _, event := range events {
		if event.Finished {
			continue
		}
		action := bot.Decide(event, account.MinutesBeforeMeeting, false, time.Now())
		if err := s.execute(ctx, event, action, account.MinutesBeforeMeeting); err != nil {
			log.Printf("⚠️ [RECONCILE] Re-evaluate event %s: %v", event.ID.Hex(), err)
			errs = append(errs, fmt.Errorf("event %s: %w", event.ID.Hex(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *EventService) execute(ctx context.Context, event *models.Event, action bot.Action, minutesBefore int) error {
	switch action {
	case bot.ActionCreate:
		return s.reports.CreateBotForEvent(ctx, event, minutesBefore)
	case bot.ActionUpdate:
		return s.reports.ReplaceBotForEvent(ctx, event, minutesBefore)
	case bot.ActionDelete:
		return s.reports.RemoveBotForEvent(ctx, event)
	default:
		return nil
	}
}

// ListEvents returns all stored events across the session's Google
// identities, ordered by start time.
func (s *EventService) ListEvents(ctx context.Context, session models.Session) ([]*models.Event, error) {
	var all []*models.Event
	for _, email := range session.GoogleEmails {
		events, err := s.store.Events.ListByOwner(ctx, email)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })
	return all, nil
}

// ListOngoing returns events whose meeting has started with a bot attached
// but which are not finished yet.
func (s *EventService) ListOngoing(ctx context.Context, session models.Session) ([]*models.Event, error) {
	now := time.Now()
	var all []*models.Event
	for _, email := range session.GoogleEmails {
		events, err := s.store.Events.ListOngoing(ctx, email, now)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

// mapRawEvent normalizes a provider event into the stored Event shape. The
// meeting link prefers the provider's native conference link, falling back
// to scanning description then location.
func mapRawEvent(raw calendar.RawEvent, ownerEmail string) *models.Event {
	meetingLink := raw.HangoutLink
	if meetingLink == "" {
		meetingLink = models.ExtractMeetingLink(raw.Description, raw.Location)
	}

	return &models.Event{
		ProviderEventID: raw.ID,
		OwnerEmail:      ownerEmail,
		Title:           raw.Title,
		Description:     raw.Description,
		Location:        raw.Location,
		Creator:         raw.Creator,
		MeetingLink:     meetingLink,
		Attendees:       raw.Attendees,
		StartTime:       raw.StartTime,
	}
}
