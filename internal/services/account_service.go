package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/models"
	"meetscribe/internal/store"
)

// AccountService handles persisted (username, provider) identities: login
// upserts, per-account settings and automation subscriptions, and the
// one-time data migration triggered when two Google identities merge.
type AccountService struct {
	store  *store.Store
	events *EventService
}

// NewAccountService creates a new account service
func NewAccountService(st *store.Store, events *EventService) *AccountService {
	return &AccountService{
		store:  st,
		events: events,
	}
}

// Login creates the account on first sight and refreshes its OAuth token and
// last-login timestamp on every later one.
func (s *AccountService) Login(ctx context.Context, username string, provider models.OAuthProvider, oauthToken string) (*models.Account, error) {
	account, err := s.store.Accounts.Upsert(ctx, username, provider, oauthToken)
	if err != nil {
		return nil, err
	}
	log.Printf("🔑 [AUTH] %s login for %s", provider, username)
	return account, nil
}

// GetGoogleAccount returns the Google account for an email address.
func (s *AccountService) GetGoogleAccount(ctx context.Context, email string) (*models.Account, error) {
	return s.store.Accounts.GetByUsernameAndProvider(ctx, email, models.ProviderGoogle)
}

// GetSettings returns the primary identity's account record, which carries
// the user-visible settings.
func (s *AccountService) GetSettings(ctx context.Context, session models.Session) (*models.Account, error) {
	return s.GetGoogleAccount(ctx, session.PrimaryEmail())
}

// UpdateMinutesBeforeMeeting changes the dispatch lead time on every Google
// identity in the session, then re-evaluates pending bots since every
// deadline just moved.
func (s *AccountService) UpdateMinutesBeforeMeeting(ctx context.Context, session models.Session, minutes int) error {
	if minutes < 1 || minutes > 60 {
		return fmt.Errorf("minutes before meeting must be between 1 and 60, got %d", minutes)
	}

	for _, email := range session.GoogleEmails {
		account, err := s.GetGoogleAccount(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		account.MinutesBeforeMeeting = minutes
		if err := s.store.Accounts.Update(ctx, account); err != nil {
			return err
		}
		if err := s.events.ReevaluateOwner(ctx, account); err != nil {
			log.Printf("⚠️ [AUTH] Re-evaluate after settings change for %s: %v", email, err)
		}
	}
	return nil
}

// SubscribeAutomation adds the automation to every Google identity in the
// session. Subscribing twice is a no-op.
func (s *AccountService) SubscribeAutomation(ctx context.Context, session models.Session, automationID primitive.ObjectID) error {
	if _, err := s.store.Automations.GetAutomation(ctx, automationID); err != nil {
		return err
	}

	for _, email := range session.GoogleEmails {
		account, err := s.GetGoogleAccount(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		if account.SubscribedTo(automationID) {
			continue
		}
		account.AutomationIDs = append(account.AutomationIDs, automationID)
		if err := s.store.Accounts.Update(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// UnsubscribeAutomation removes the automation from every Google identity in
// the session.
func (s *AccountService) UnsubscribeAutomation(ctx context.Context, session models.Session, automationID primitive.ObjectID) error {
	for _, email := range session.GoogleEmails {
		account, err := s.GetGoogleAccount(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		filtered := account.AutomationIDs[:0]
		for _, id := range account.AutomationIDs {
			if id != automationID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == len(account.AutomationIDs) {
			continue
		}
		account.AutomationIDs = filtered
		if err := s.store.Accounts.Update(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// SyncAccounts is the one-time migration run when a session merge joins two
// different Google identities: the secondary's settings and automation
// subscriptions are copied into the primary. Running it again changes
// nothing.
func (s *AccountService) SyncAccounts(ctx context.Context, primaryEmail, secondaryEmail string) error {
	if primaryEmail == secondaryEmail {
		return nil
	}

	primary, err := s.GetGoogleAccount(ctx, primaryEmail)
	if err != nil {
		return fmt.Errorf("failed to load primary account %s: %w", primaryEmail, err)
	}
	secondary, err := s.GetGoogleAccount(ctx, secondaryEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load secondary account %s: %w", secondaryEmail, err)
	}

	changed := false
	if primary.MinutesBeforeMeeting != secondary.MinutesBeforeMeeting {
		primary.MinutesBeforeMeeting = secondary.MinutesBeforeMeeting
		changed = true
	}
	for _, id := range secondary.AutomationIDs {
		if !primary.SubscribedTo(id) {
			primary.AutomationIDs = append(primary.AutomationIDs, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := s.store.Accounts.Update(ctx, primary); err != nil {
		return fmt.Errorf("failed to update primary account %s: %w", primaryEmail, err)
	}
	if err := s.events.ReevaluateOwner(ctx, primary); err != nil {
		log.Printf("⚠️ [AUTH] Re-evaluate after account sync for %s: %v", primaryEmail, err)
	}

	log.Printf("🔗 [AUTH] Synced account data from %s into %s", secondaryEmail, primaryEmail)
	return nil
}
