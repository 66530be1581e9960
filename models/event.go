package models

import (
	"fmt"
	"time"
)

type EventStatus string

const (
	EventDraft    EventStatus = "draft"
	EventActive   EventStatus = "active"
	EventInactive EventStatus = "inactive"
	EventEnded    EventStatus = "ended"
)

type Event struct {
	ID               string      `json:"id"`
	OrganizerID      string      `json:"organizer_id"`
	Name             string      `json:"name"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          time.Time   `json:"end_date"`
	Status           EventStatus `json:"status"`
	IsPublished      bool        `json:"is_published"`
	AdminUnpublished bool        `json:"admin_unpublished"`
	CustomTicketURL  string      `json:"custom_ticket_url"`
}

func (e Event) HasStarted(now time.Time) bool {
	return !e.StartDate.IsZero() && !e.StartDate.After(now)
}

func (e Event) HasEnded(now time.Time) bool {
	return !e.EndDate.IsZero() && !e.EndDate.After(now)
}

// OnSale reports whether tickets for the event can currently be sold.
func (e Event) OnSale(now time.Time) bool {
	return e.Status == EventActive && e.IsPublished && !e.HasEnded(now)
}

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:    {EventActive},
	EventActive:   {EventInactive, EventEnded},
	EventInactive: {EventActive, EventEnded},
}

// ValidateEventTransition checks a lifecycle transition of the event state
// machine. The adminUnpublished lock blocks the inactive -> active
// transition for everyone but an admin.
func ValidateEventTransition(e Event, to EventStatus, isAdmin bool) error {
	allowed := false
	for _, next := range eventTransitions[e.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("event status %q cannot transition to %q", e.Status, to)
	}

	if e.Status == EventInactive && to == EventActive && e.AdminUnpublished && !isAdmin {
		return fmt.Errorf("event was unpublished by an admin and can only be republished by an admin")
	}
	return nil
}
