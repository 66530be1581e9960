package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tickethub/config"
	"tickethub/internal/services/gateway"
	"tickethub/models"
	"tickethub/monitoring"
	"tickethub/utils"
)

const checkoutKeyPrefix = "checkout:"

// CheckoutSession is the priced quote held in redis between Begin and
// Confirm. All amounts are frozen at Begin time; Confirm trusts the session,
// not current ticket prices, so a price edit mid-checkout cannot change what
// the buyer owes.
type CheckoutSession struct {
	EventID     string          `json:"event_id"`
	TicketID    string          `json:"ticket_id"`
	Buyer       models.Buyer    `json:"buyer"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Revenue     decimal.Decimal `json:"revenue"`
	PromoID     string          `json:"promo_id,omitempty"`
	PromoCode   string          `json:"promo_code,omitempty"`
	Reference   string          `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CheckoutService drives the buyer purchase flow: quote and hold a session,
// hand the buyer to the gateway, then settle the sale when the gateway
// confirms payment.
type CheckoutService struct {
	redis   *redis.Client
	gateway gateway.PaymentGateway
	promos  *PromoService
	tickets *TicketService
	sales   *SaleService
	events  *EventService
	cfg     *config.Config
}

func NewCheckoutService(
	redisClient *redis.Client,
	gw gateway.PaymentGateway,
	promos *PromoService,
	tickets *TicketService,
	sales *SaleService,
	events *EventService,
	cfg *config.Config,
) *CheckoutService {
	return &CheckoutService{
		redis:   redisClient,
		gateway: gw,
		promos:  promos,
		tickets: tickets,
		sales:   sales,
		events:  events,
		cfg:     cfg,
	}
}

type BeginCheckoutParams struct {
	EventID   string
	TicketID  string
	Buyer     models.Buyer
	Quantity  int
	PromoCode string
}

// BeginCheckoutResult is what the buyer needs to pay: the hosted payment
// page and the reference to poll afterwards.
type BeginCheckoutResult struct {
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url"`
	AccessCode       string          `json:"access_code"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// Begin prices the purchase, initializes the gateway transaction and stores
// the session under the payment reference. Availability is only pre-checked
// here; the authoritative sold-count guard runs when the sale is recorded.
func (s *CheckoutService) Begin(ctx context.Context, p BeginCheckoutParams) (*BeginCheckoutResult, error) {
	if p.Buyer.Name == "" || p.Buyer.Email == "" {
		return nil, ErrMissingBuyer
	}
	if p.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	eventRec, err := s.events.app.FindRecordById("events", p.EventID)
	if err != nil {
		return nil, fmt.Errorf("checkout: event %s: %w", p.EventID, err)
	}
	event := eventFromRecord(eventRec)
	if !event.OnSale(time.Now()) {
		return nil, ErrEventNotOnSale
	}

	ticketRec, err := s.events.app.FindRecordById("tickets", p.TicketID)
	if err != nil {
		return nil, fmt.Errorf("checkout: ticket %s: %w", p.TicketID, err)
	}
	if ticketRec.GetString("event") != p.EventID {
		return nil, fmt.Errorf("checkout: ticket %s does not belong to event %s", p.TicketID, p.EventID)
	}
	if !s.tickets.Available(ticketRec, p.Quantity) {
		monitoring.TrackCheckoutSession("sold_out")
		return nil, ErrSoldOut
	}

	session, err := s.price(ticketRec, p)
	if err != nil {
		return nil, err
	}

	init, err := s.gateway.Initialize(ctx, &gateway.InitializeRequest{
		AmountMinor: gateway.ToMinorUnits(session.TotalAmount),
		Email:       p.Buyer.Email,
		Reference:   session.Reference,
		CallbackURL: s.cfg.CheckoutCallback,
		Metadata: map[string]any{
			"event_id":  p.EventID,
			"ticket_id": p.TicketID,
			"quantity":  p.Quantity,
		},
	})
	if err != nil {
		monitoring.TrackGatewayRequest("initialize", "error")
		return nil, fmt.Errorf("checkout: gateway initialize: %w", err)
	}
	monitoring.TrackGatewayRequest("initialize", "ok")

	if err := s.storeSession(ctx, session); err != nil {
		return nil, err
	}
	monitoring.TrackCheckoutSession("started")

	return &BeginCheckoutResult{
		Reference:        session.Reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
		TotalAmount:      session.TotalAmount,
	}, nil
}

// price builds the frozen session amounts. The platform's cut is recomputed
// from the base price and the current fee percentage, never derived from the
// stored, already-rounded final price.
func (s *CheckoutService) price(ticketRec *core.Record, p BeginCheckoutParams) (*CheckoutSession, error) {
	feePercent, err := platformFeePercent(s.events.app)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	base := decimal.NewFromFloat(ticketRec.GetFloat("price"))
	unit, fee := models.ComputeFinalPrice(base, feePercent, ticketRec.GetBool("transfer_fee"))

	qty := decimal.NewFromInt(int64(p.Quantity))
	total := unit.Mul(qty).Round(2)
	platformCut := fee.Mul(qty).Round(2)

	session := &CheckoutSession{
		EventID:   p.EventID,
		TicketID:  p.TicketID,
		Buyer:     p.Buyer,
		Quantity:  p.Quantity,
		UnitPrice: unit,
		CreatedAt: time.Now().UTC(),
	}

	if p.PromoCode != "" {
		promoRec, err := s.promos.Validate(p.EventID, p.PromoCode, []string{p.TicketID}, time.Now())
		if err != nil {
			return nil, err
		}
		promo := promoFromRecord(promoRec)
		total = models.ApplyDiscount(total, promo.DiscountType, promo.Value)
		session.PromoID = promo.ID
		session.PromoCode = promo.Code
	}

	// The platform's cut stands even when a promo shrinks the total; the
	// organizer funds the discount. It can never exceed what the buyer paid.
	if platformCut.GreaterThan(total) {
		platformCut = total
	}

	session.TotalAmount = total
	session.Revenue = platformCut.Round(2)

	reference, err := utils.NewPaymentReference()
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	session.Reference = reference

	return session, nil
}

func (s *CheckoutService) storeSession(ctx context.Context, session *CheckoutSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("checkout: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, checkoutKeyPrefix+session.Reference, payload, s.cfg.CheckoutSessionTTL).Err(); err != nil {
		return fmt.Errorf("checkout: store session %q: %w", session.Reference, err)
	}
	return nil
}

func (s *CheckoutService) loadSession(ctx context.Context, reference string) (*CheckoutSession, error) {
	payload, err := s.redis.Get(ctx, checkoutKeyPrefix+reference).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("checkout: load session %q: %w", reference, err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("checkout: decode session %q: %w", reference, err)
	}
	return &session, nil
}

// Confirm verifies the transaction with the gateway and records the sale.
// It is safe to call any number of times for the same reference: once the
// sale is successful, repeats return the existing record.
//
// A session that already expired from redis is not fatal when the sale was
// recorded earlier; the stored sale answers the replay.
func (s *CheckoutService) Confirm(ctx context.Context, reference string) (*core.Record, error) {
	verified, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		monitoring.TrackGatewayRequest("verify", "error")
		return nil, fmt.Errorf("checkout: gateway verify %q: %w", reference, err)
	}
	monitoring.TrackGatewayRequest("verify", "ok")

	if !verified.Succeeded() {
		monitoring.TrackCheckoutSession("payment_failed")
		return nil, ErrPaymentNotSuccessful
	}

	session, err := s.loadSession(ctx, reference)
	if err != nil {
		if err == ErrSessionNotFound {
			if existing, ferr := s.sales.findByReference(reference); ferr == nil {
				return existing, nil
			}
		}
		monitoring.TrackCheckoutSession("session_lost")
		return nil, err
	}

	if !gateway.FromMinorUnits(verified.AmountMinor).Equal(session.TotalAmount) {
		monitoring.TrackCheckoutSession("amount_mismatch")
		return nil, ErrAmountMismatch
	}

	rec, isNew, err := s.sales.Record(SaleParams{
		EventID:          session.EventID,
		TicketID:         session.TicketID,
		Buyer:            session.Buyer,
		Quantity:         session.Quantity,
		UnitPrice:        session.UnitPrice,
		TotalAmount:      session.TotalAmount,
		Revenue:          session.Revenue,
		PaymentReference: reference,
		PaymentMethod:    verified.Channel,
	})
	if err != nil {
		return nil, err
	}

	if isNew && session.PromoID != "" {
		if err := s.promos.Consume(session.PromoID); err != nil {
			// The payment settled; an exhausted cap at this point only
			// means a concurrent purchase got the last use.
			slog.Warn("checkout: promo consume failed", "promo", session.PromoID, "reference", reference, "error", err)
		}
	}

	if err := s.redis.Del(ctx, checkoutKeyPrefix+reference).Err(); err != nil {
		slog.Warn("checkout: session cleanup failed", "reference", reference, "error", err)
	}

	monitoring.TrackCheckoutSession("completed")
	return rec, nil
}
