package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"

	_ "tickethub/migrations"
	"tickethub/models"
)

var seedCounter int64

func nextSeed() int64 {
	return atomic.AddInt64(&seedCounter, 1)
}

// newTestApp boots an in-process app with the project collections applied.
// tests.NewTestApp runs all registered app migrations (including the ones
// registered by the blank tickethub/migrations import) via RunAllMigrations.
func newTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	return app
}

func seedOrganizer(t *testing.T, app core.App) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	user := core.NewRecord(col)
	user.SetEmail(fmt.Sprintf("organizer%d@example.com", nextSeed()))
	user.SetRandomPassword()
	require.NoError(t, app.Save(user))
	return user
}

func seedEvent(t *testing.T, app core.App, organizerID, customURL string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("organizer", organizerID)
	rec.Set("name", fmt.Sprintf("Event %d", nextSeed()))
	rec.Set("start_date", time.Now().Add(-time.Hour))
	rec.Set("end_date", time.Now().Add(24*time.Hour))
	rec.Set("status", string(models.EventActive))
	rec.Set("is_published", true)
	rec.Set("custom_ticket_url", customURL)
	require.NoError(t, app.Save(rec))
	return rec
}

func seedTicket(t *testing.T, app core.App, eventID string, quantity int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("event", eventID)
	rec.Set("name", "General Admission")
	rec.Set("price", 500.0)
	rec.Set("final_price", 515.0)
	rec.Set("transfer_fee", true)
	rec.Set("quantity", quantity)
	rec.Set("sold", 0)
	rec.Set("unique_code", fmt.Sprintf("CODE%d", nextSeed()))
	require.NoError(t, app.Save(rec))
	return rec
}

func seedSuccessfulSale(t *testing.T, app core.App, eventID, ticketID string, quantity int, total, revenue float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("ticket_sales")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("event", eventID)
	rec.Set("ticket", ticketID)
	rec.Set("buyer_name", "Ada")
	rec.Set("buyer_email", "ada@example.com")
	rec.Set("quantity", quantity)
	rec.Set("unit_price", total/float64(quantity))
	rec.Set("total_amount", total)
	rec.Set("revenue", revenue)
	rec.Set("payment_reference", fmt.Sprintf("TIX-SEED-%d", nextSeed()))
	rec.Set("payment_status", string(models.PaymentSuccessful))
	rec.Set("status", string(models.SalePaid))
	require.NoError(t, app.Save(rec))
	return rec
}

func seedPayout(t *testing.T, app core.App, eventID, organizerID string, amount float64, status models.PayoutStatus) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("payouts")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("event", eventID)
	rec.Set("organizer", organizerID)
	rec.Set("amount", amount)
	rec.Set("status", string(status))
	require.NoError(t, app.Save(rec))
	return rec
}
