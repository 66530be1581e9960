package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/services/gateway/paystack"
	"tickethub/models"
	"tickethub/services"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
	paystack *paystack.Client
}

func NewCheckoutHandler(checkout *services.CheckoutService, ps *paystack.Client) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		paystack: ps,
	}
}

// Begin starts a checkout: prices the order, opens a gateway transaction
// and returns the hosted payment page.
func (h *CheckoutHandler) Begin(e *core.RequestEvent) error {
	var req struct {
		EventID    string `json:"event_id"`
		TicketID   string `json:"ticket_id"`
		BuyerName  string `json:"buyer_name"`
		BuyerEmail string `json:"buyer_email"`
		BuyerPhone string `json:"buyer_phone"`
		Quantity   int    `json:"quantity"`
		PromoCode  string `json:"promo_code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.checkout.Begin(e.Request.Context(), services.BeginCheckoutParams{
		EventID:  req.EventID,
		TicketID: req.TicketID,
		Buyer: models.Buyer{
			Name:  req.BuyerName,
			Email: req.BuyerEmail,
			Phone: req.BuyerPhone,
		},
		Quantity:  req.Quantity,
		PromoCode: req.PromoCode,
	})
	if err != nil {
		return apiError(err, "Failed to start checkout")
	}

	return e.JSON(http.StatusOK, result)
}

// Verify settles a checkout from the buyer's callback redirect. Idempotent
// per reference.
func (h *CheckoutHandler) Verify(e *core.RequestEvent) error {
	reference := e.Request.PathValue("reference")
	if reference == "" {
		return apis.NewBadRequestError("Payment reference required", nil)
	}

	sale, err := h.checkout.Confirm(e.Request.Context(), reference)
	if err != nil {
		return apiError(err, "Failed to verify payment")
	}

	return e.JSON(http.StatusOK, map[string]any{
		"sale_id":   sale.Id,
		"status":    sale.GetString("payment_status"),
		"reference": sale.GetString("payment_reference"),
	})
}

// Webhook handles gateway event deliveries. Only charge.success settles a
// sale; everything else is acknowledged and dropped. Webhooks and callback
// verification race for the same reference, which the sale recorder
// resolves.
func (h *CheckoutHandler) Webhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	signature := e.Request.Header.Get("x-paystack-signature")
	if !h.paystack.VerifyWebhookSignature(body, signature) {
		return apis.NewUnauthorizedError("Invalid webhook signature", nil)
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return apis.NewBadRequestError("Invalid webhook payload", err)
	}

	if event.Event != "charge.success" || event.Data.Reference == "" {
		return e.NoContent(http.StatusOK)
	}

	if _, err := h.checkout.Confirm(e.Request.Context(), event.Data.Reference); err != nil {
		// The gateway retries on non-2xx; only ack what we settled.
		slog.Error("webhook: settling charge failed", "reference", event.Data.Reference, "error", err)
		return apiError(err, "Failed to settle charge")
	}

	return e.NoContent(http.StatusOK)
}

// decimalFromString parses a request amount, rejecting malformed input
// before it reaches the services.
func decimalFromString(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}
