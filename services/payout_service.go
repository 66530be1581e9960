package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"tickethub/models"
	"tickethub/monitoring"
	"tickethub/utils"
)

// PayoutService is the withdrawal side of the revenue ledger. Balances are
// always derived from the sale and payout history, never from mutable
// event state, so they can be recomputed from source records at any time.
type PayoutService struct {
	app      core.App
	summary  *SummaryService
	notifier Notifier
}

func NewPayoutService(app core.App, summary *SummaryService, notifier Notifier) *PayoutService {
	return &PayoutService{
		app:      app,
		summary:  summary,
		notifier: notifier,
	}
}

type balanceRow struct {
	Sales float64 `db:"sales"`
	Paid  float64 `db:"paid"`
}

// AvailableBalance is the event's successful sales total minus every payout
// that holds or already took funds (Pending, Processing and Completed). It
// subtracts the same set the insert guard in Request counts, so the number
// reported is exactly what a new request may still claim.
func (s *PayoutService) AvailableBalance(eventID string) (decimal.Decimal, error) {
	var row balanceRow
	err := s.app.DB().NewQuery(`
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM ticket_sales
				WHERE event = {:event} AND payment_status = 'Successful') AS sales,
			(SELECT COALESCE(SUM(amount), 0) FROM payouts
				WHERE event = {:event} AND status IN ('Pending', 'Processing', 'Completed')) AS paid
	`).Bind(dbx.Params{"event": eventID}).One(&row)
	if err != nil {
		return decimal.Zero, fmt.Errorf("payout: balance for event %s: %w", eventID, err)
	}

	return decimal.NewFromFloat(row.Sales).Sub(decimal.NewFromFloat(row.Paid)).Round(2), nil
}

// Request opens a Pending payout. The insert itself carries the balance
// guard: the row only materializes if the amount still fits under the
// event's sales total minus every Pending/Processing/Completed payout, and
// the store executes the whole statement atomically. Two racing requests
// can therefore never jointly over-commit the ledger.
func (s *PayoutService) Request(eventID, organizerID string, amount decimal.Decimal) (*core.Record, error) {
	if !amount.IsPositive() {
		monitoring.TrackPayout("request", "rejected")
		return nil, ErrInvalidAmount
	}

	event, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		return nil, fmt.Errorf("payout: request for event %s: %w", eventID, err)
	}
	if event.GetString("organizer") != organizerID {
		monitoring.TrackPayout("request", "rejected")
		return nil, ErrNotOwner
	}

	id, err := utils.NewRecordID()
	if err != nil {
		return nil, fmt.Errorf("payout: request: %w", err)
	}

	value, _ := amount.Round(2).Float64()
	res, err := s.app.DB().NewQuery(`
		INSERT INTO payouts (id, event, organizer, amount, status, created, updated)
		SELECT {:id}, {:event}, {:organizer}, {:amount}, 'Pending', {:now}, {:now}
		WHERE {:amount} <= (
			(SELECT COALESCE(SUM(total_amount), 0) FROM ticket_sales
				WHERE event = {:event} AND payment_status = 'Successful')
			-
			(SELECT COALESCE(SUM(amount), 0) FROM payouts
				WHERE event = {:event} AND status IN ('Pending', 'Processing', 'Completed'))
		)
	`).Bind(dbx.Params{
		"id":        id,
		"event":     eventID,
		"organizer": organizerID,
		"amount":    value,
		"now":       types.NowDateTime().String(),
	}).Execute()
	if err != nil {
		return nil, fmt.Errorf("payout: request for event %s: %w", eventID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("payout: request for event %s: %w", eventID, err)
	}
	if rows == 0 {
		monitoring.TrackPayout("request", "rejected")
		return nil, ErrInsufficientBalance
	}

	monitoring.TrackPayout("request", "accepted")
	return s.app.FindRecordById("payouts", id)
}

// MarkProcessing moves a Pending payout into Processing (admin transfer in
// flight). From this point the amount is held against the balance.
func (s *PayoutService) MarkProcessing(payoutID string) (*core.Record, error) {
	return s.transition(payoutID, models.PayoutProcessing, "mark payout processing")
}

// Complete finishes a payout and folds it into the monthly rollup. The
// summary decrement happens exactly once, on the transition itself; a
// repeat call finds a terminal status and rejects.
func (s *PayoutService) Complete(payoutID string) (*core.Record, error) {
	rec, err := s.transition(payoutID, models.PayoutCompleted, "complete payout")
	if err != nil {
		return nil, err
	}

	if err := s.summary.OnPayoutComplete(rec); err != nil {
		return nil, err
	}

	s.notifier.Notify(OrganizerChannel(rec.GetString("organizer")), map[string]any{
		"type":      "payout_completed",
		"payout_id": rec.Id,
		"event_id":  rec.GetString("event"),
		"amount":    rec.GetFloat("amount"),
	})

	return rec, nil
}

// Cancel voids a Pending payout, releasing its hold on the balance. Only
// the organizer who opened it may cancel.
func (s *PayoutService) Cancel(payoutID, organizerID string) (*core.Record, error) {
	rec, err := s.app.FindRecordById("payouts", payoutID)
	if err != nil {
		return nil, fmt.Errorf("payout: cancel %s: %w", payoutID, err)
	}
	if rec.GetString("organizer") != organizerID {
		return nil, ErrNotOwner
	}

	current := models.PayoutStatus(rec.GetString("status"))
	if current != models.PayoutPending {
		monitoring.TrackPayout("cancel", "rejected")
		return nil, &StateError{Op: "cancel payout", Current: string(current)}
	}

	rec.Set("status", string(models.PayoutCancelled))
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("payout: cancel %s: %w", payoutID, err)
	}

	monitoring.TrackPayout("cancel", "accepted")
	return rec, nil
}

func (s *PayoutService) transition(payoutID string, to models.PayoutStatus, op string) (*core.Record, error) {
	rec, err := s.app.FindRecordById("payouts", payoutID)
	if err != nil {
		return nil, fmt.Errorf("payout: %s %s: %w", op, payoutID, err)
	}

	current := models.PayoutStatus(rec.GetString("status"))
	if !models.CanTransitionPayout(current, to) {
		monitoring.TrackPayout(string(to), "rejected")
		return nil, &StateError{Op: op, Current: string(current)}
	}

	rec.Set("status", string(to))
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("payout: %s %s: %w", op, payoutID, err)
	}

	monitoring.TrackPayout(string(to), "accepted")
	return rec, nil
}

// ListForOrganizer returns an organizer's payouts, newest first.
func (s *PayoutService) ListForOrganizer(organizerID string) ([]*core.Record, error) {
	return s.app.FindRecordsByFilter(
		"payouts",
		"organizer = {:organizer}",
		"-created",
		0,
		0,
		dbx.Params{"organizer": organizerID},
	)
}
