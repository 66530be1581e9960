package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"tickethub/models"
)

// EventService enforces the event lifecycle state machine and the
// active-event custom URL uniqueness. Ticket money flows only while an
// event is active and published.
type EventService struct {
	app core.App
}

func NewEventService(app core.App) *EventService {
	return &EventService{app: app}
}

func eventFromRecord(rec *core.Record) models.Event {
	return models.Event{
		ID:               rec.Id,
		OrganizerID:      rec.GetString("organizer"),
		Name:             rec.GetString("name"),
		StartDate:        rec.GetDateTime("start_date").Time(),
		EndDate:          rec.GetDateTime("end_date").Time(),
		Status:           models.EventStatus(rec.GetString("status")),
		IsPublished:      rec.GetBool("is_published"),
		AdminUnpublished: rec.GetBool("admin_unpublished"),
		CustomTicketURL:  rec.GetString("custom_ticket_url"),
	}
}

type EventParams struct {
	Name            string
	Description     string
	StartDate       time.Time
	EndDate         time.Time
	CustomTicketURL string
}

// Create adds a draft event owned by the organizer.
func (s *EventService) Create(organizerID string, p EventParams) (*core.Record, error) {
	if p.StartDate.IsZero() || !p.EndDate.After(p.StartDate) {
		return nil, ErrInvalidEventDates
	}

	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return nil, fmt.Errorf("event: create: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("organizer", organizerID)
	rec.Set("name", p.Name)
	rec.Set("description", p.Description)
	rec.Set("start_date", p.StartDate)
	rec.Set("end_date", p.EndDate)
	rec.Set("custom_ticket_url", p.CustomTicketURL)
	rec.Set("status", string(models.EventDraft))
	rec.Set("is_published", false)
	rec.Set("admin_unpublished", false)

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("event: create: %w", err)
	}
	return rec, nil
}

// Update edits an event's details. Dates are validated as a pair; an ended
// event can no longer change.
func (s *EventService) Update(eventID, userID string, isAdmin bool, p EventParams) (*core.Record, error) {
	rec, event, err := s.findOwned(eventID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if event.Status == models.EventEnded {
		return nil, &StateError{Op: "update event", Current: string(event.Status)}
	}
	if p.StartDate.IsZero() || !p.EndDate.After(p.StartDate) {
		return nil, ErrInvalidEventDates
	}

	if event.Status == models.EventActive && p.CustomTicketURL != event.CustomTicketURL {
		event.CustomTicketURL = p.CustomTicketURL
		if err := s.checkCustomURLFree(event); err != nil {
			return nil, err
		}
	}

	if p.Name != "" {
		rec.Set("name", p.Name)
	}
	rec.Set("description", p.Description)
	rec.Set("start_date", p.StartDate)
	rec.Set("end_date", p.EndDate)
	rec.Set("custom_ticket_url", p.CustomTicketURL)

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("event: update %s: %w", eventID, err)
	}
	return rec, nil
}

// Publish takes a draft event live. The custom ticket URL must be free
// among currently active events; the partial unique index backs this check
// against races.
func (s *EventService) Publish(eventID, userID string, isAdmin bool) (*core.Record, error) {
	rec, event, err := s.findOwned(eventID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateEventTransition(event, models.EventActive, isAdmin); err != nil {
		return nil, &StateError{Op: "publish event", Current: string(event.Status)}
	}

	if err := s.checkCustomURLFree(event); err != nil {
		return nil, err
	}

	rec.Set("status", string(models.EventActive))
	rec.Set("is_published", true)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("event: publish %s: %w", eventID, err)
	}
	return rec, nil
}

// Unpublish pauses sales. When an admin does it, the event is locked and
// only an admin may bring it back.
func (s *EventService) Unpublish(eventID, userID string, isAdmin bool) (*core.Record, error) {
	rec, event, err := s.findOwned(eventID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateEventTransition(event, models.EventInactive, isAdmin); err != nil {
		return nil, &StateError{Op: "unpublish event", Current: string(event.Status)}
	}

	rec.Set("status", string(models.EventInactive))
	rec.Set("is_published", false)
	if isAdmin && userID != event.OrganizerID {
		rec.Set("admin_unpublished", true)
	}
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("event: unpublish %s: %w", eventID, err)
	}
	return rec, nil
}

// Republish reactivates an inactive event, honoring the admin lock.
func (s *EventService) Republish(eventID, userID string, isAdmin bool) (*core.Record, error) {
	rec, event, err := s.findOwned(eventID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if event.AdminUnpublished && !isAdmin {
		return nil, ErrAdminOnly
	}
	if err := models.ValidateEventTransition(event, models.EventActive, isAdmin); err != nil {
		return nil, &StateError{Op: "republish event", Current: string(event.Status)}
	}

	if err := s.checkCustomURLFree(event); err != nil {
		return nil, err
	}

	rec.Set("status", string(models.EventActive))
	rec.Set("is_published", true)
	if isAdmin {
		rec.Set("admin_unpublished", false)
	}
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("event: republish %s: %w", eventID, err)
	}
	return rec, nil
}

func (s *EventService) findOwned(eventID, userID string, isAdmin bool) (*core.Record, models.Event, error) {
	rec, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("event: find %s: %w", eventID, err)
	}

	event := eventFromRecord(rec)
	if event.OrganizerID != userID && !isAdmin {
		return nil, models.Event{}, ErrNotOwner
	}
	return rec, event, nil
}

func (s *EventService) checkCustomURLFree(event models.Event) error {
	if event.CustomTicketURL == "" {
		return nil
	}

	_, err := s.app.FindFirstRecordByFilter(
		"events",
		"custom_ticket_url = {:url} && status = 'active' && id != {:id}",
		dbx.Params{"url": event.CustomTicketURL, "id": event.ID},
	)
	if err == nil {
		return ErrCustomURLInUse
	}
	return nil
}

// EndExpired closes out events whose end date has passed. Run periodically
// by the cleanup cron.
func (s *EventService) EndExpired(now time.Time) (int64, error) {
	nowStr := now.UTC().Format(types.DefaultDateLayout)

	res, err := s.app.DB().NewQuery(`
		UPDATE events
		SET status = 'ended', is_published = FALSE, updated = {:now}
		WHERE status IN ('active', 'inactive') AND end_date != '' AND end_date <= {:now}
	`).Bind(dbx.Params{"now": nowStr}).Execute()
	if err != nil {
		return 0, fmt.Errorf("event: end expired: %w", err)
	}
	return res.RowsAffected()
}
