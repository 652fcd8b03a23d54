// Package store defines the persistence ports for events, reports, accounts
// and automations, with a MongoDB implementation for production and an
// in-memory implementation used in development mode and tests.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/models"
)

// ErrNotFound is returned when no entity matches the lookup. It is a
// caller-visible miss, never retried.
var ErrNotFound = errors.New("not found")

// EventStore persists calendar events keyed by internal id and by the
// provider-native event id (unique).
type EventStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	GetByProviderEventID(ctx context.Context, providerEventID string) (*models.Event, error)
	GetByReportID(ctx context.Context, reportID primitive.ObjectID) (*models.Event, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Event, error)
	// ListOngoing returns unfinished events with a bot attached whose start
	// time has already passed.
	ListOngoing(ctx context.Context, ownerEmail string, now time.Time) ([]*models.Event, error)
	// ListDispatchCandidates returns events that want a bot, have none in
	// flight and are not finished. The time-window check stays in the
	// dispatch loop because the lead time is a per-owner setting.
	ListDispatchCandidates(ctx context.Context) ([]*models.Event, error)
	Insert(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
}

// ReportStore persists event reports keyed by internal id and by bot id
// (unique).
type ReportStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EventReport, error)
	GetByBotID(ctx context.Context, botID string) (*models.EventReport, error)
	// ListInFlight returns reports whose platform is still unset, meaning
	// the bot has not finished.
	ListInFlight(ctx context.Context) ([]*models.EventReport, error)
	ListFinalizedByOwner(ctx context.Context, ownerEmail string) ([]*models.EventReport, error)
	Insert(ctx context.Context, report *models.EventReport) error
	Update(ctx context.Context, report *models.EventReport) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AccountStore persists (username, provider) identities.
type AccountStore interface {
	GetByUsernameAndProvider(ctx context.Context, username string, provider models.OAuthProvider) (*models.Account, error)
	// Upsert creates the account on first login and refreshes the OAuth
	// token and last-login timestamp on every later one.
	Upsert(ctx context.Context, username string, provider models.OAuthProvider, oauthToken string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// AutomationStore persists automation templates and their generated outputs.
type AutomationStore interface {
	GetAutomation(ctx context.Context, id primitive.ObjectID) (*models.Automation, error)
	ListAutomations(ctx context.Context) ([]*models.Automation, error)
	InsertAutomation(ctx context.Context, automation *models.Automation) error
	DeleteAutomation(ctx context.Context, id primitive.ObjectID) error
	CountBuiltinAutomations(ctx context.Context) (int64, error)

	InsertReportAutomation(ctx context.Context, ra *models.ReportAutomation) error
	ListReportAutomations(ctx context.Context, reportID primitive.ObjectID) ([]*models.ReportAutomation, error)
}

// Store bundles the four ports so wiring code can pass one value around.
type Store struct {
	Events      EventStore
	Reports     ReportStore
	Accounts    AccountStore
	Automations AutomationStore
}
