// Package calendar adapts external calendar providers behind a small
// fetch-only interface. Only Google Calendar is implemented; the reconciler
// never sees provider-specific types.
package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// RawEvent is one calendar item as the provider reports it, normalized to a
// fixed shape before anything downstream touches it.
type RawEvent struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	Attendees   []string
	Creator     string
	HangoutLink string
	HTMLLink    string
}

// Provider fetches upcoming calendar items for an access token.
type Provider interface {
	FetchEvents(ctx context.Context, accessToken string) ([]RawEvent, error)
}

const (
	defaultLookaheadDays   = 30
	calendarListCacheTTL   = 10 * time.Minute
	calendarListCachePurge = 30 * time.Minute
)

// GoogleProvider fetches events from every calendar visible to the account
// behind the access token. The calendar list changes rarely, so it is cached
// per token to keep a reconciliation pass at one list call per TTL instead
// of one per pass.
type GoogleProvider struct {
	lookaheadDays int
	listCache     *gocache.Cache
}

// NewGoogleProvider creates a Google Calendar provider. lookaheadDays caps
// how far into the future events are fetched; 0 means the default.
func NewGoogleProvider(lookaheadDays int) *GoogleProvider {
	if lookaheadDays <= 0 {
		lookaheadDays = defaultLookaheadDays
	}
	return &GoogleProvider{
		lookaheadDays: lookaheadDays,
		listCache:     gocache.New(calendarListCacheTTL, calendarListCachePurge),
	}
}

// FetchEvents returns upcoming events across all of the account's calendars.
// A failure here aborts the whole reconciliation pass; there is no partial
// fetch.
func (p *GoogleProvider) FetchEvents(ctx context.Context, accessToken string) ([]RawEvent, error) {
	service, err := calendarapi.NewService(ctx, option.WithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	calendarIDs, err := p.calendarIDs(service, accessToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tmin := now.Format(time.RFC3339)
	tmax := now.Add(time.Duration(p.lookaheadDays) * 24 * time.Hour).Format(time.RFC3339)

	var raw []RawEvent
	for _, calendarID := range calendarIDs {
		pageToken := ""
		for {
			call := service.Events.List(calendarID).
				ShowDeleted(false).
				SingleEvents(true).
				TimeMin(tmin).
				TimeMax(tmax).
				OrderBy("startTime").
				MaxResults(250)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			events, err := call.Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("failed to list events for calendar %s: %w", calendarID, err)
			}
			raw = append(raw, toRawEvents(events.Items)...)
			pageToken = events.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}

	log.Printf("📅 [CALENDAR] Fetched %d events across %d calendars", len(raw), len(calendarIDs))
	return raw, nil
}

func (p *GoogleProvider) calendarIDs(service *calendarapi.Service, accessToken string) ([]string, error) {
	if cached, found := p.listCache.Get(accessToken); found {
		return cached.([]string), nil
	}

	list, err := service.CalendarList.List().Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendarIDs []string
	for _, item := range list.Items {
		calendarIDs = append(calendarIDs, item.Id)
	}
	p.listCache.Set(accessToken, calendarIDs, gocache.DefaultExpiration)
	return calendarIDs, nil
}

func toRawEvents(items []*calendarapi.Event) []RawEvent {
	var raw []RawEvent
	for _, item := range items {
		// all-day events have no specific start time and no bot to send
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}

		var attendees []string
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		creator := ""
		if item.Creator != nil {
			creator = item.Creator.Email
		}

		raw = append(raw, RawEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			StartTime:   startTime,
			Attendees:   attendees,
			Creator:     creator,
			HangoutLink: item.HangoutLink,
			HTMLLink:    item.HtmlLink,
		})
	}
	return raw
}
