package listener

import (
	"fmt"

	"legal-fee-tracker-go/internal/models"
)

type EventKind string

const (
	EventTimeLogged    EventKind = "time_logged"
	EventTimeApproved  EventKind = "time_approved"
	EventMessage       EventKind = "message"
	EventStatusChanged EventKind = "status_changed"
)

// Event is one piece of engagement activity.
type Event struct {
	Key          string
	Kind         EventKind
	EngagementId string
	Title        string
	Timestamp    int64
	// FromMe is set when the caller caused the event
	FromMe bool
	Text   string
}

// engagementEvents lists the activity visible in e. Keys are stable across
// polls so each event is reported once.
func engagementEvents(principal string, e models.Engagement) []Event {
	events := []Event{{
		Key:          fmt.Sprintf("status:%s:%s", e.Id, e.Status),
		Kind:         EventStatusChanged,
		EngagementId: e.Id,
		Title:        e.Title,
		Timestamp:    e.UpdatedAt,
		Text:         fmt.Sprintf("status is %s", e.Status),
	}}

	for _, t := range e.TimeEntries {
		events = append(events, Event{
			Key:          fmt.Sprintf("entry:%s:%d", e.Id, t.Id),
			Kind:         EventTimeLogged,
			EngagementId: e.Id,
			Title:        e.Title,
			Timestamp:    t.Timestamp,
			FromMe:       t.LawyerPrincipal == principal,
			Text:         fmt.Sprintf("%sh logged: %s", t.Hours.String(), t.Description),
		})
		if t.Approved {
			events = append(events, Event{
				Key:          fmt.Sprintf("approved:%s:%d", e.Id, t.Id),
				Kind:         EventTimeApproved,
				EngagementId: e.Id,
				Title:        e.Title,
				Timestamp:    e.UpdatedAt,
				FromMe:       e.Client == principal,
				Text:         fmt.Sprintf("time entry #%d approved", t.Id),
			})
		}
	}

	for _, m := range e.Messages {
		events = append(events, Event{
			Key:          fmt.Sprintf("message:%s:%d", e.Id, m.Id),
			Kind:         EventMessage,
			EngagementId: e.Id,
			Title:        e.Title,
			Timestamp:    m.Timestamp,
			FromMe:       m.Sender == principal,
			Text:         m.Content,
		})
	}
	return events
}
