package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"tickethub/models"
)

// PromoService validates and applies discount codes. Validation is a pure
// check; usage is only consumed on a successful purchase via Consume, which
// increments atomically against the cap.
type PromoService struct {
	app core.App
}

func NewPromoService(app core.App) *PromoService {
	return &PromoService{app: app}
}

func promoFromRecord(rec *core.Record) models.PromoCode {
	return models.PromoCode{
		ID:           rec.Id,
		EventID:      rec.GetString("event"),
		Code:         rec.GetString("code"),
		DiscountType: models.DiscountType(rec.GetString("discount_type")),
		Value:        decimal.NewFromFloat(rec.GetFloat("value")),
		UsageLimit:   rec.GetInt("usage_limit"),
		TimesUsed:    rec.GetInt("times_used"),
		ExpiryDate:   rec.GetDateTime("expiry_date").Time(),
		AppliesTo:    rec.GetStringSlice("applies_to"),
		Status:       models.PromoStatus(rec.GetString("status")),
	}
}

// Validate checks a code against an event and the requested ticket tiers.
// It never increments usage; callers that complete a purchase must call
// Consume separately. Checks run in a fixed order so the caller always gets
// the most specific rejection.
func (s *PromoService) Validate(eventID, code string, ticketIDs []string, now time.Time) (*core.Record, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"promo_codes",
		"event = {:event} && code = {:code}",
		dbx.Params{"event": eventID, "code": strings.TrimSpace(code)},
	)
	if err != nil {
		return nil, ErrPromoNotFound
	}

	promo := promoFromRecord(rec)
	derived := models.DerivePromoStatus(promo, now)
	s.persistDerivedStatus(rec, promo.Status, derived)

	if promo.Status != models.PromoActive {
		return nil, ErrPromoInactive
	}
	if derived == models.PromoExpired {
		return nil, ErrPromoExpired
	}
	if promo.UsageExhausted() {
		return nil, ErrPromoUsageLimit
	}
	if !promo.Applicable(ticketIDs) {
		return nil, ErrPromoNotApplicable
	}

	return rec, nil
}

// persistDerivedStatus writes back a lazily derived status change. It is a
// cache refresh: failure is logged, never surfaced.
func (s *PromoService) persistDerivedStatus(rec *core.Record, current, derived models.PromoStatus) {
	if derived == current {
		return
	}
	rec.Set("status", string(derived))
	if err := s.app.Save(rec); err != nil {
		slog.Error("promo: persisting derived status failed", "promo", rec.Id, "status", derived, "error", err)
		rec.Set("status", string(current))
	}
}

// Consume burns one use of the code. The increment is conditional on the
// cap, so two racing purchases cannot push times_used past usage_limit.
func (s *PromoService) Consume(promoID string) error {
	res, err := s.app.DB().NewQuery(`
		UPDATE promo_codes
		SET times_used = times_used + 1, updated = {:now}
		WHERE id = {:id} AND (usage_limit = 0 OR times_used < usage_limit)
	`).Bind(dbx.Params{
		"id":  promoID,
		"now": types.NowDateTime().String(),
	}).Execute()
	if err != nil {
		return fmt.Errorf("promo: consume %s: %w", promoID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("promo: consume %s: %w", promoID, err)
	}
	if rows == 0 {
		return ErrPromoUsageLimit
	}
	return nil
}

type CreatePromoParams struct {
	EventID      string
	Code         string
	DiscountType models.DiscountType
	Value        decimal.Decimal
	UsageLimit   int
	ExpiryDate   time.Time
	AppliesTo    []string
}

// Create adds a new Active code to an event. Codes are unique per event.
func (s *PromoService) Create(p CreatePromoParams) (*core.Record, error) {
	p.Code = strings.TrimSpace(p.Code)
	if p.Code == "" {
		return nil, fmt.Errorf("promo: %w", ErrInvalidPromoValue)
	}

	switch p.DiscountType {
	case models.DiscountPercentage:
		if p.Value.IsNegative() || p.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrInvalidPromoValue
		}
	case models.DiscountFixed:
		if !p.Value.IsPositive() {
			return nil, ErrInvalidPromoValue
		}
	default:
		return nil, ErrInvalidPromoValue
	}

	if _, err := s.app.FindFirstRecordByFilter(
		"promo_codes",
		"event = {:event} && code = {:code}",
		dbx.Params{"event": p.EventID, "code": p.Code},
	); err == nil {
		return nil, ErrPromoCodeExists
	}

	collection, err := s.app.FindCollectionByNameOrId("promo_codes")
	if err != nil {
		return nil, fmt.Errorf("promo: %w", err)
	}

	value, _ := p.Value.Round(2).Float64()

	rec := core.NewRecord(collection)
	rec.Set("event", p.EventID)
	rec.Set("code", p.Code)
	rec.Set("discount_type", string(p.DiscountType))
	rec.Set("value", value)
	rec.Set("usage_limit", p.UsageLimit)
	rec.Set("times_used", 0)
	rec.Set("applies_to", p.AppliesTo)
	rec.Set("status", string(models.PromoActive))
	if !p.ExpiryDate.IsZero() {
		rec.Set("expiry_date", p.ExpiryDate)
	}

	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("promo: create %q: %w", p.Code, err)
	}
	return rec, nil
}

// Close marks a code Closed. Closed is terminal and survives lazy expiry.
func (s *PromoService) Close(promoID string) (*core.Record, error) {
	rec, err := s.app.FindRecordById("promo_codes", promoID)
	if err != nil {
		return nil, ErrPromoNotFound
	}

	if status := rec.GetString("status"); status == string(models.PromoClosed) {
		return nil, &StateError{Op: "close promo code", Current: status}
	}

	rec.Set("status", string(models.PromoClosed))
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("promo: close %s: %w", promoID, err)
	}
	return rec, nil
}

// Reactivate turns an Expired code Active again. Only allowed while the
// event has not started, and requires a new expiry in the future.
func (s *PromoService) Reactivate(promoID string, newExpiry, now time.Time) (*core.Record, error) {
	rec, err := s.app.FindRecordById("promo_codes", promoID)
	if err != nil {
		return nil, ErrPromoNotFound
	}

	promo := promoFromRecord(rec)
	if models.DerivePromoStatus(promo, now) != models.PromoExpired {
		return nil, &StateError{Op: "reactivate promo code", Current: string(promo.Status)}
	}

	event, err := s.app.FindRecordById("events", promo.EventID)
	if err != nil {
		return nil, fmt.Errorf("promo: reactivate %s: %w", promoID, err)
	}
	start := event.GetDateTime("start_date").Time()
	if !start.IsZero() && !start.After(now) {
		return nil, ErrEventStarted
	}

	if !newExpiry.After(now) {
		return nil, ErrInvalidPromoValue
	}

	rec.Set("status", string(models.PromoActive))
	rec.Set("expiry_date", newExpiry)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("promo: reactivate %s: %w", promoID, err)
	}
	return rec, nil
}

// List returns an event's codes with their lazily derived status persisted.
func (s *PromoService) List(eventID string, now time.Time) ([]*core.Record, error) {
	recs, err := s.app.FindRecordsByFilter(
		"promo_codes",
		"event = {:event}",
		"-created",
		0,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("promo: list for event %s: %w", eventID, err)
	}

	for _, rec := range recs {
		promo := promoFromRecord(rec)
		s.persistDerivedStatus(rec, promo.Status, models.DerivePromoStatus(promo, now))
	}
	return recs, nil
}

// ExpireStale sweeps Active codes whose expiry has passed. Run by the
// cleanup cron; the read paths already derive the same answer lazily.
func (s *PromoService) ExpireStale(now time.Time) (int64, error) {
	res, err := s.app.DB().NewQuery(`
		UPDATE promo_codes
		SET status = 'Expired', updated = {:now}
		WHERE status = 'Active' AND expiry_date != '' AND expiry_date <= {:now}
	`).Bind(dbx.Params{"now": now.UTC().Format(types.DefaultDateLayout)}).Execute()
	if err != nil {
		return 0, fmt.Errorf("promo: expire stale: %w", err)
	}
	return res.RowsAffected()
}
