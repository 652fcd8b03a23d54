package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OAuthProvider is a third-party login provider.
type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "GOOGLE"
	ProviderFacebook OAuthProvider = "FACEBOOK"
	ProviderLinkedin OAuthProvider = "LINKEDIN"
)

// DefaultMinutesBeforeMeeting is how far ahead of the meeting start a bot is
// dispatched when the user has not configured a lead time.
const DefaultMinutesBeforeMeeting = 5

// Account is one persisted (username, provider) identity. A single logical
// user may own several accounts; the session token ties them together.
// Google accounts are the ones that own calendar events; the other providers
// only contribute posting identities.
type Account struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username             string               `bson:"username" json:"username"`
	Provider             OAuthProvider        `bson:"provider" json:"provider"`
	OAuthToken           string               `bson:"oauthToken,omitempty" json:"-"`
	MinutesBeforeMeeting int                  `bson:"minutesBeforeMeeting" json:"minutes_before_meeting"`
	AutomationIDs        []primitive.ObjectID `bson:"automationIds,omitempty" json:"automation_ids,omitempty"`
	CreatedAt            time.Time            `bson:"createdAt" json:"created_at"`
	LastLoginAt          time.Time            `bson:"lastLoginAt" json:"last_login_at"`
}

// SubscribedTo reports whether the account is subscribed to the automation.
func (a *Account) SubscribedTo(automationID primitive.ObjectID) bool {
	for _, id := range a.AutomationIDs {
		if id == automationID {
			return true
		}
	}
	return false
}
