package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutomationType is the kind of content an automation produces.
type AutomationType string

const (
	AutomationGeneratePost  AutomationType = "GENERATE_POST"
	AutomationGenerateEmail AutomationType = "GENERATE_EMAIL"
)

// MediaPlatform is where automation output is meant to be published.
type MediaPlatform string

const (
	MediaEmail    MediaPlatform = "EMAIL"
	MediaFacebook MediaPlatform = "FACEBOOK"
	MediaLinkedin MediaPlatform = "LINKEDIN"
)

// Automation is a user-subscribable content template. When a report is
// finalized the summarizer generates one ReportAutomation per automation the
// owning account is subscribed to.
type Automation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	AutomationType AutomationType     `bson:"automationType" json:"automation_type"`
	MediaPlatform  MediaPlatform      `bson:"mediaPlatform" json:"media_platform"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Example        string             `bson:"example,omitempty" json:"example,omitempty"`
	Builtin        bool               `bson:"builtin" json:"builtin"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
}

// ReportAutomation is the generated output of one automation for one report.
type ReportAutomation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID     primitive.ObjectID `bson:"reportId" json:"report_id"`
	AutomationID primitive.ObjectID `bson:"automationId" json:"automation_id"`
	Title        string             `bson:"title" json:"title"`
	Text         string             `bson:"text" json:"text"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
}

// CreateAutomationRequest is the request body for creating an automation.
type CreateAutomationRequest struct {
	Title          string         `json:"title"`
	AutomationType AutomationType `json:"automation_type"`
	MediaPlatform  MediaPlatform  `json:"media_platform"`
	Description    string         `json:"description"`
	Example        string         `json:"example"`
}
