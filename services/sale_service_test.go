package services

import (
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/models"
)

func TestSaleRecord_ReplayedReferenceIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "")
	ticket := seedTicket(t, app, event.Id, 100)

	svc := NewSaleService(app, NewTicketService(app), NewSummaryService(app), NewNoopNotifier())

	params := SaleParams{
		EventID:  event.Id,
		TicketID: ticket.Id,
		Buyer: models.Buyer{
			Name:  "Ada",
			Email: "ada@example.com",
		},
		Quantity:         2,
		UnitPrice:        decimal.RequireFromString("515.00"),
		TotalAmount:      decimal.RequireFromString("1030.00"),
		Revenue:          decimal.RequireFromString("30.00"),
		PaymentReference: "TIX-REPLAY-1",
		PaymentMethod:    "card",
	}

	first, isNew, err := svc.Record(params)
	require.NoError(t, err)
	assert.True(t, isNew)

	// duplicate gateway confirmation of the same reference
	second, isNew, err := svc.Record(params)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.Id, second.Id)

	sales, err := app.FindRecordsByFilter("ticket_sales", "payment_reference = {:ref}", "", 0, 0,
		dbx.Params{"ref": params.PaymentReference})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	reloaded, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.GetInt("sold"), "sold counter bumps once, not per delivery")

	month := models.MonthKey(first.GetDateTime("created").Time())
	summary, err := app.FindFirstRecordByFilter("monthly_summaries", "month = {:month}", dbx.Params{"month": month})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.GetInt("total_tickets_sold"))
	assert.InDelta(t, 1030.0, summary.GetFloat("total_ticket_amount"), 0.001)
	assert.InDelta(t, 30.0, summary.GetFloat("total_revenue"), 0.001)
	assert.InDelta(t, 1000.0, summary.GetFloat("balance"), 0.001)
}

func TestSaleRecord_PromotesPendingRecord(t *testing.T) {
	app := newTestApp(t)
	organizer := seedOrganizer(t, app)
	event := seedEvent(t, app, organizer.Id, "")
	ticket := seedTicket(t, app, event.Id, 100)

	col, err := app.FindCollectionByNameOrId("ticket_sales")
	require.NoError(t, err)

	pending := core.NewRecord(col)
	pending.Set("event", event.Id)
	pending.Set("ticket", ticket.Id)
	pending.Set("buyer_name", "Ada")
	pending.Set("buyer_email", "ada@example.com")
	pending.Set("quantity", 1)
	pending.Set("unit_price", 515.0)
	pending.Set("total_amount", 515.0)
	pending.Set("revenue", 15.0)
	pending.Set("payment_reference", "TIX-PROMOTE-1")
	pending.Set("payment_status", string(models.PaymentPending))
	pending.Set("status", string(models.SalePaid))
	require.NoError(t, app.Save(pending))

	svc := NewSaleService(app, NewTicketService(app), NewSummaryService(app), NewNoopNotifier())

	rec, isNew, err := svc.Record(SaleParams{
		EventID:  event.Id,
		TicketID: ticket.Id,
		Buyer: models.Buyer{
			Name:  "Ada",
			Email: "ada@example.com",
		},
		Quantity:         1,
		UnitPrice:        decimal.RequireFromString("515.00"),
		TotalAmount:      decimal.RequireFromString("515.00"),
		Revenue:          decimal.RequireFromString("15.00"),
		PaymentReference: "TIX-PROMOTE-1",
		PaymentMethod:    "card",
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, pending.Id, rec.Id)
	assert.Equal(t, string(models.PaymentSuccessful), rec.GetString("payment_status"))
}
