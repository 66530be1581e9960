package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventUpdate_RejectsTakenCustomURL(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	seedEvent(t, app, organizer.Id, "spring-fest")
	second := seedEvent(t, app, organizer.Id, "")

	svc := NewEventService(app)

	_, err := svc.Update(second.Id, organizer.Id, false, EventParams{
		Name:            "Second Night",
		StartDate:       time.Now().Add(time.Hour),
		EndDate:         time.Now().Add(48 * time.Hour),
		CustomTicketURL: "spring-fest",
	})
	assert.ErrorIs(t, err, ErrCustomURLInUse)
}

func TestEventUpdate_KeepsOwnCustomURL(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "own-night")

	svc := NewEventService(app)

	rec, err := svc.Update(event.Id, organizer.Id, false, EventParams{
		Name:            "Own Night",
		StartDate:       time.Now().Add(time.Hour),
		EndDate:         time.Now().Add(48 * time.Hour),
		CustomTicketURL: "own-night",
	})
	require.NoError(t, err)
	assert.Equal(t, "own-night", rec.GetString("custom_ticket_url"))
}
