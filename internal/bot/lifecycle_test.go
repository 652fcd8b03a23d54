package bot

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/models"
)

func testEvent(start time.Time, wantsBot, hasSentBot bool, link string) *models.Event {
	e := &models.Event{
		ProviderEventID: "evt-1",
		OwnerEmail:      "owner@example.com",
		Title:           "Weekly sync",
		MeetingLink:     link,
		StartTime:       start,
		WantsBot:        wantsBot,
		HasSentBot:      hasSentBot,
	}
	if hasSentBot {
		id := primitive.NewObjectID()
		e.ReportID = &id
	}
	return e
}

func TestDecide(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	link := "https://meet.google.com/abc-defg-hij"

	tests := []struct {
		name            string
		event           *models.Event
		minutesBefore   int
		scheduleChanged bool
		want            Action
	}{
		{
			name:          "no meeting link",
			event:         testEvent(now.Add(time.Hour), true, false, ""),
			minutesBefore: 10,
			want:          ActionNone,
		},
		{
			name:          "wants bot no bot editable",
			event:         testEvent(now.Add(time.Hour), true, false, link),
			minutesBefore: 10,
			want:          ActionCreate,
		},
		{
			name:          "wants bot no bot past deadline",
			event:         testEvent(now.Add(5*time.Minute), true, false, link),
			minutesBefore: 10,
			want:          ActionNone,
		},
		{
			name:            "schedule changed with live bot",
			event:           testEvent(now.Add(time.Hour), true, true, link),
			minutesBefore:   10,
			scheduleChanged: true,
			want:            ActionUpdate,
		},
		{
			name:            "schedule changed past deadline",
			event:           testEvent(now.Add(5*time.Minute), true, true, link),
			minutesBefore:   10,
			scheduleChanged: true,
			want:            ActionNone,
		},
		{
			name:          "schedule unchanged with live bot",
			event:         testEvent(now.Add(time.Hour), true, true, link),
			minutesBefore: 10,
			want:          ActionNone,
		},
		{
			name:          "bot no longer wanted",
			event:         testEvent(now.Add(time.Hour), false, true, link),
			minutesBefore: 10,
			want:          ActionDelete,
		},
		{
			name:          "bot no longer wanted past deadline",
			event:         testEvent(now.Add(5*time.Minute), false, true, link),
			minutesBefore: 10,
			want:          ActionNone,
		},
		{
			name:          "no bot and none wanted",
			event:         testEvent(now.Add(time.Hour), false, false, link),
			minutesBefore: 10,
			want:          ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.event, tt.minutesBefore, tt.scheduleChanged, now)
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecideDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	event := testEvent(now.Add(time.Hour), true, false, "https://zoom.us/j/123456")

	first := Decide(event, 10, false, now)
	for i := 0; i < 5; i++ {
		if got := Decide(event, 10, false, now); got != first {
			t.Fatalf("Decide() not deterministic: got %v, want %v", got, first)
		}
	}
}

func TestDecideNeverActsAfterDeadline(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	link := "https://teams.microsoft.com/l/meetup-join/xyz"

	// exactly at the deadline counts as not editable
	event := testEvent(now.Add(10*time.Minute), true, false, link)
	if got := Decide(event, 10, true, now); got != ActionNone {
		t.Errorf("Decide() at deadline = %v, want %v", got, ActionNone)
	}
}
