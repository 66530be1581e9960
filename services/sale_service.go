package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/models"
	"tickethub/monitoring"
)

// SaleService records completed purchases. Records are keyed by the gateway
// payment reference: the gateway delivers confirmations at least once, so
// Record collapses replays onto the existing row instead of duplicating it.
type SaleService struct {
	app      core.App
	tickets  *TicketService
	summary  *SummaryService
	notifier Notifier
}

func NewSaleService(app core.App, tickets *TicketService, summary *SummaryService, notifier Notifier) *SaleService {
	return &SaleService{
		app:      app,
		tickets:  tickets,
		summary:  summary,
		notifier: notifier,
	}
}

type SaleParams struct {
	EventID          string
	TicketID         string
	Buyer            models.Buyer
	Quantity         int
	UnitPrice        decimal.Decimal
	TotalAmount      decimal.Decimal
	Revenue          decimal.Decimal
	PaymentReference string
	PaymentMethod    string
}

// Record persists a gateway-confirmed sale. Amounts are computed upstream
// by the fee policy and promo engine and stored verbatim.
//
// Returns the sale record and whether this call made it successful. A
// replayed confirmation of an already-successful sale returns the existing
// record untouched and triggers no aggregation.
func (s *SaleService) Record(p SaleParams) (*core.Record, bool, error) {
	if p.Buyer.Name == "" || p.Buyer.Email == "" {
		return nil, false, ErrMissingBuyer
	}
	if p.Quantity < 1 {
		return nil, false, ErrInvalidQuantity
	}

	existing, err := s.findByReference(p.PaymentReference)
	if err == nil {
		if existing.GetString("payment_status") == string(models.PaymentSuccessful) {
			// duplicate confirmation delivery
			monitoring.TrackSaleRecorded(p.EventID, "replay")
			return existing, false, nil
		}
		return s.promote(existing, p)
	}

	rec, err := s.create(p)
	if err != nil {
		// A racing confirmation may have inserted the row first; the
		// unique payment_reference index turns that into a save error.
		if retry, ferr := s.findByReference(p.PaymentReference); ferr == nil {
			monitoring.TrackSaleRecorded(p.EventID, "replay")
			return retry, false, nil
		}
		return nil, false, err
	}

	s.afterSuccess(rec)
	monitoring.TrackSaleRecorded(p.EventID, "created")
	return rec, true, nil
}

func (s *SaleService) findByReference(reference string) (*core.Record, error) {
	return s.app.FindFirstRecordByFilter(
		"ticket_sales",
		"payment_reference = {:ref}",
		dbx.Params{"ref": reference},
	)
}

func (s *SaleService) create(p SaleParams) (*core.Record, error) {
	collection, err := s.app.FindCollectionByNameOrId("ticket_sales")
	if err != nil {
		return nil, fmt.Errorf("sale: %w", err)
	}

	unit, _ := p.UnitPrice.Round(2).Float64()
	total, _ := p.TotalAmount.Round(2).Float64()
	revenue, _ := p.Revenue.Round(2).Float64()

	rec := core.NewRecord(collection)
	rec.Set("event", p.EventID)
	rec.Set("ticket", p.TicketID)
	rec.Set("buyer_name", p.Buyer.Name)
	rec.Set("buyer_email", p.Buyer.Email)
	rec.Set("buyer_phone", p.Buyer.Phone)
	rec.Set("quantity", p.Quantity)
	rec.Set("unit_price", unit)
	rec.Set("total_amount", total)
	rec.Set("revenue", revenue)
	rec.Set("payment_reference", p.PaymentReference)
	rec.Set("payment_method", p.PaymentMethod)
	rec.Set("payment_status", string(models.PaymentSuccessful))
	rec.Set("status", string(models.SalePaid))
	rec.Set("checked_in", false)

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("sale: create %q: %w", p.PaymentReference, err)
	}
	return rec, nil
}

// promote flips an existing non-terminal record to successful and refreshes
// the payment fields. A terminal-success record is never regressed.
func (s *SaleService) promote(rec *core.Record, p SaleParams) (*core.Record, bool, error) {
	total, _ := p.TotalAmount.Round(2).Float64()
	revenue, _ := p.Revenue.Round(2).Float64()

	rec.Set("payment_status", string(models.PaymentSuccessful))
	rec.Set("status", string(models.SalePaid))
	rec.Set("payment_method", p.PaymentMethod)
	rec.Set("total_amount", total)
	rec.Set("revenue", revenue)

	if err := s.app.Save(rec); err != nil {
		return nil, false, fmt.Errorf("sale: promote %q: %w", p.PaymentReference, err)
	}

	s.afterSuccess(rec)
	monitoring.TrackSaleRecorded(p.EventID, "promoted")
	return rec, true, nil
}

// afterSuccess runs the exactly-once side effects of a newly-successful
// sale: the sold counter, the month rollup and the organizer notification.
func (s *SaleService) afterSuccess(rec *core.Record) {
	if err := s.tickets.ReserveSold(rec.GetString("ticket"), rec.GetInt("quantity")); err != nil {
		// The payment already settled, so the sale stands either way.
		slog.Warn("sale: sold counter not updated", "sale", rec.Id, "error", err)
	}

	if err := s.summary.OnSaleSuccess(rec); err != nil {
		// recomputeAll corrects any drift
		slog.Error("sale: monthly summary increment failed", "sale", rec.Id, "error", err)
	}

	if event, err := s.app.FindRecordById("events", rec.GetString("event")); err == nil {
		s.notifier.Notify(OrganizerChannel(event.GetString("organizer")), map[string]any{
			"type":      "sale_recorded",
			"sale_id":   rec.Id,
			"event_id":  rec.GetString("event"),
			"quantity":  rec.GetInt("quantity"),
			"amount":    rec.GetFloat("total_amount"),
			"reference": rec.GetString("payment_reference"),
		})
	}
}

// CheckIn marks a sale's tickets as used. Check-in fields are the only
// mutable part of a successful sale.
func (s *SaleService) CheckIn(saleID string, now time.Time) (*core.Record, error) {
	rec, err := s.app.FindRecordById("ticket_sales", saleID)
	if err != nil {
		return nil, fmt.Errorf("sale: check-in %s: %w", saleID, err)
	}

	if rec.GetString("payment_status") != string(models.PaymentSuccessful) {
		return nil, &StateError{Op: "check in sale", Current: rec.GetString("payment_status")}
	}
	if rec.GetBool("checked_in") {
		return rec, nil
	}

	rec.Set("checked_in", true)
	rec.Set("check_in_time", now)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("sale: check-in %s: %w", saleID, err)
	}
	return rec, nil
}

// ListForEvent returns an event's sales, newest first.
func (s *SaleService) ListForEvent(eventID string) ([]*core.Record, error) {
	return s.app.FindRecordsByFilter(
		"ticket_sales",
		"event = {:event}",
		"-created",
		0,
		0,
		dbx.Params{"event": eventID},
	)
}
