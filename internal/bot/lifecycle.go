// Package bot holds the pure decision logic for the meeting-bot lifecycle.
// Everything with side effects (store writes, provider calls) lives in the
// services layer; this package only answers "what should happen to the bot
// for this event right now".
package bot

import (
	"time"

	"meetscribe/internal/models"
)

// Action is what the caller must do against the bot provider for one event.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Decide maps an event's current state to a bot action.
//
// scheduleChanged tells the decider whether the last upsert moved a
// schedule-relevant field (start time or meeting link); only then is a live
// bot worth replacing. Once the editable boundary has passed no action is
// ever returned, creation inside the dispatch window is the dispatch loop's
// job, not the decider's.
func Decide(event *models.Event, minutesBefore int, scheduleChanged bool, now time.Time) Action {
	if event.MeetingLink == "" {
		return ActionNone
	}

	editable := event.Editable(minutesBefore, now)

	if !event.WantsBot {
		if event.HasBot() && editable {
			return ActionDelete
		}
		return ActionNone
	}

	if !editable {
		return ActionNone
	}
	if !event.HasBot() {
		return ActionCreate
	}
	if scheduleChanged {
		return ActionUpdate
	}
	return ActionNone
}
