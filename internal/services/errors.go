package services

import "errors"

var (
	// ErrNoMeetingLink is returned when a bot is requested for an event
	// that has no joinable meeting URL. Never retried.
	ErrNoMeetingLink = errors.New("event has no meeting link")

	// ErrForbidden is returned when the session does not own the entity it
	// is trying to read or mutate.
	ErrForbidden = errors.New("forbidden")

	// ErrCalendarUnavailable marks a reconciliation pass that aborted
	// before any event could be processed (account lookup or calendar
	// fetch failed). Per-event failures are never marked with it; they
	// retry on the next pass.
	ErrCalendarUnavailable = errors.New("calendar unavailable")
)
