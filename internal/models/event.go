package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is one calendar occurrence owned by exactly one account.
//
// ProviderEventID is the upsert key: every reconciliation pass refreshes the
// provider-controlled fields (title, description, location, link, attendees,
// start time, creator) in place and leaves the internal state flags
// (wantsBot, hasSentBot, finished, reportId) untouched. Events are never
// hard-deleted by the reconciler; the provider's own filtering governs
// which events are visible.
type Event struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProviderEventID string              `bson:"providerEventId" json:"provider_event_id"`
	OwnerEmail      string              `bson:"ownerEmail" json:"owner_email"`
	Title           string              `bson:"title" json:"title"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	Location        string              `bson:"location,omitempty" json:"location,omitempty"`
	Creator         string              `bson:"creator,omitempty" json:"creator,omitempty"`
	MeetingLink     string              `bson:"meetingLink,omitempty" json:"meeting_link,omitempty"`
	Attendees       []string            `bson:"attendees,omitempty" json:"attendees,omitempty"`
	StartTime       time.Time           `bson:"startTime" json:"start_time"`
	WantsBot        bool                `bson:"wantsBot" json:"wants_bot"`
	HasSentBot      bool                `bson:"hasSentBot" json:"has_sent_bot"`
	Finished        bool                `bson:"finished" json:"finished"`
	ReportID        *primitive.ObjectID `bson:"reportId,omitempty" json:"report_id,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updated_at"`
}

// HasBot reports whether a live bot is currently attached to this event.
func (e *Event) HasBot() bool {
	return e.HasSentBot && e.ReportID != nil
}

// Deadline is the last instant at which the bot for this event may still be
// created or changed: minutesBefore minutes ahead of the meeting start.
func (e *Event) Deadline(minutesBefore int) time.Time {
	return e.StartTime.Add(-time.Duration(minutesBefore) * time.Minute)
}

// Editable reports whether the bot provider still accepts changes for this
// event. The provider forbids (re)scheduling too close to join time, so this
// is a hard boundary, not best-effort.
func (e *Event) Editable(minutesBefore int, now time.Time) bool {
	return e.Deadline(minutesBefore).After(now)
}

// InDispatchWindow reports whether the dispatch loop should send a bot now:
// the send window has opened but the meeting has not started yet.
func (e *Event) InDispatchWindow(minutesBefore int, now time.Time) bool {
	return !e.Deadline(minutesBefore).After(now) && e.StartTime.After(now)
}

// ApplyUpdate refreshes the provider-controlled fields from a newer sighting
// of the same provider event. It reports whether a schedule-relevant field
// (start time or meeting link) changed, which is what forces the bot to be
// rescheduled.
func (e *Event) ApplyUpdate(in *Event) bool {
	scheduleChanged := !e.StartTime.Equal(in.StartTime) || e.MeetingLink != in.MeetingLink

	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.Creator = in.Creator
	e.MeetingLink = in.MeetingLink
	e.Attendees = in.Attendees
	e.StartTime = in.StartTime

	return scheduleChanged
}

// MeetingPlatform identifies the conferencing product behind a meeting link.
type MeetingPlatform string

const (
	PlatformGoogleMeet MeetingPlatform = "GOOGLE_MEET"
	PlatformZoom       MeetingPlatform = "ZOOM"
	PlatformTeams      MeetingPlatform = "TEAMS"

	// PlatformUnknown is assigned when a report is finalized but the link
	// matches no known shape, so that finalization is still terminal.
	PlatformUnknown MeetingPlatform = "UNKNOWN"
)

// PlatformFromLink maps a meeting URL to its platform, or "" when the link
// is empty or matches no known shape.
func PlatformFromLink(link string) MeetingPlatform {
	if link == "" {
		return ""
	}
	lower := strings.ToLower(link)
	switch {
	case strings.Contains(lower, "meet.google.com"), strings.Contains(lower, "google.com/meet"):
		return PlatformGoogleMeet
	case strings.Contains(lower, "zoom.us"), strings.Contains(lower, "zoom.com"):
		return PlatformZoom
	case strings.Contains(lower, "teams.microsoft.com"), strings.Contains(lower, "teams.live.com"):
		return PlatformTeams
	default:
		return ""
	}
}

// meetingLinkPattern matches the URL shapes of the supported conferencing
// products inside free-form text.
var meetingLinkPattern = regexp.MustCompile(
	`https?://(?:[\w.-]*\.)?(?:meet\.google\.com|zoom\.us|zoom\.com|teams\.microsoft\.com|teams\.live\.com)/[^\s<>"']*`)

// ExtractMeetingLink scans the event's description and then its location for
// a known meeting URL. First match wins; "" when neither field contains one.
func ExtractMeetingLink(description, location string) string {
	if m := meetingLinkPattern.FindString(description); m != "" {
		return m
	}
	return meetingLinkPattern.FindString(location)
}

// EventReport is the record of one scheduled bot, created the moment the bot
// is requested and finalized exactly once when its transcript becomes
// available.
//
// Platform doubles as the lifecycle flag: nil means the report is still in
// flight and is what the completion poller selects on. There is no separate
// status field.
type EventReport struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BotID      string             `bson:"botId" json:"bot_id"`
	OwnerEmail string             `bson:"ownerEmail" json:"owner_email"`
	Attendees  []string           `bson:"attendees,omitempty" json:"attendees,omitempty"`
	StartTime  time.Time          `bson:"startTime" json:"start_time"`
	Platform   *MeetingPlatform   `bson:"platform,omitempty" json:"platform,omitempty"`
	Transcript string             `bson:"transcript,omitempty" json:"transcript,omitempty"`
	EmailText  string             `bson:"emailText,omitempty" json:"email_text,omitempty"`
	PostText   string             `bson:"postText,omitempty" json:"post_text,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updated_at"`
}

// InFlight reports whether the bot behind this report has not finished yet.
func (r *EventReport) InFlight() bool {
	return r.Platform == nil
}
