package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/models"
	"meetscribe/internal/store"
)

// AutomationService manages the catalog of automation templates users can
// subscribe to.
type AutomationService struct {
	store *store.Store
}

// NewAutomationService creates a new automation service
func NewAutomationService(st *store.Store) *AutomationService {
	return &AutomationService{store: st}
}

// SeedBuiltins inserts the built-in catalog on first startup. Idempotent:
// nothing happens once any builtin exists.
func (s *AutomationService) SeedBuiltins(ctx context.Context) error {
	count, err := s.store.Automations.CountBuiltinAutomations(ctx)
	if err != nil {
		return fmt.Errorf("failed to count builtin automations: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, automation := range builtinAutomations() {
		a := automation
		if err := s.store.Automations.InsertAutomation(ctx, &a); err != nil {
			return fmt.Errorf("failed to seed automation %q: %w", a.Title, err)
		}
	}
	log.Printf("🌱 [AUTOMATION] Seeded builtin automation catalog")
	return nil
}

// List returns the full automation catalog.
func (s *AutomationService) List(ctx context.Context) ([]*models.Automation, error) {
	return s.store.Automations.ListAutomations(ctx)
}

// Get returns one automation by id.
func (s *AutomationService) Get(ctx context.Context, id primitive.ObjectID) (*models.Automation, error) {
	return s.store.Automations.GetAutomation(ctx, id)
}

// Create validates and stores a user-defined automation.
func (s *AutomationService) Create(ctx context.Context, req models.CreateAutomationRequest) (*models.Automation, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("automation title is required")
	}
	switch req.AutomationType {
	case models.AutomationGeneratePost, models.AutomationGenerateEmail:
	default:
		return nil, fmt.Errorf("unknown automation type %q", req.AutomationType)
	}
	switch req.MediaPlatform {
	case models.MediaEmail, models.MediaFacebook, models.MediaLinkedin:
	default:
		return nil, fmt.Errorf("unknown media platform %q", req.MediaPlatform)
	}

	automation := &models.Automation{
		Title:          req.Title,
		AutomationType: req.AutomationType,
		MediaPlatform:  req.MediaPlatform,
		Description:    req.Description,
		Example:        req.Example,
	}
	if err := s.store.Automations.InsertAutomation(ctx, automation); err != nil {
		return nil, err
	}
	return automation, nil
}

// Delete removes a user-defined automation. Builtins cannot be deleted.
func (s *AutomationService) Delete(ctx context.Context, id primitive.ObjectID) error {
	automation, err := s.store.Automations.GetAutomation(ctx, id)
	if err != nil {
		return err
	}
	if automation.Builtin {
		return fmt.Errorf("builtin automation %q cannot be deleted", automation.Title)
	}
	return s.store.Automations.DeleteAutomation(ctx, id)
}

// builtinAutomations returns the pre-built automation catalog
func builtinAutomations() []models.Automation {
	return []models.Automation{
		{
			Title:          "Follow-up Email",
			AutomationType: models.AutomationGenerateEmail,
			MediaPlatform:  models.MediaEmail,
			Description:    "A professional follow-up email summarizing decisions and action items for everyone who attended",
			Builtin:        true,
		},
		{
			Title:          "LinkedIn Recap",
			AutomationType: models.AutomationGeneratePost,
			MediaPlatform:  models.MediaLinkedin,
			Description:    "A professional LinkedIn post highlighting the outcomes of the meeting for your network",
			Builtin:        true,
		},
		{
			Title:          "Facebook Update",
			AutomationType: models.AutomationGeneratePost,
			MediaPlatform:  models.MediaFacebook,
			Description:    "A casual Facebook post sharing what the meeting was about in a friendly tone",
			Builtin:        true,
		},
	}
}
