package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveSold_StopsAtQuantityCap(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "")
	ticket := seedTicket(t, app, event.Id, 3)

	svc := NewTicketService(app)

	require.NoError(t, svc.ReserveSold(ticket.Id, 2))
	assert.ErrorIs(t, svc.ReserveSold(ticket.Id, 2), ErrSoldOut)
	require.NoError(t, svc.ReserveSold(ticket.Id, 1))

	reloaded, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.GetInt("sold"))
}

func TestReserveSold_UnlimitedQuantity(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "")
	ticket := seedTicket(t, app, event.Id, 0)

	svc := NewTicketService(app)

	require.NoError(t, svc.ReserveSold(ticket.Id, 500))

	reloaded, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, 500, reloaded.GetInt("sold"))
}

func TestAvailable(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "")

	svc := NewTicketService(app)

	capped := seedTicket(t, app, event.Id, 3)
	capped.Set("sold", 2)
	require.NoError(t, app.Save(capped))

	assert.True(t, svc.Available(capped, 1))
	assert.False(t, svc.Available(capped, 2))

	unlimited := seedTicket(t, app, event.Id, 0)
	assert.True(t, svc.Available(unlimited, 10000))
}
