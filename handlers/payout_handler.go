package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/services"
)

type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Balance returns the withdrawable amount for one of the caller's events.
func (h *PayoutHandler) Balance(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if eventID == "" {
		return apis.NewBadRequestError("Event ID required", nil)
	}

	balance, err := h.payouts.AvailableBalance(eventID)
	if err != nil {
		return apiError(err, "Failed to compute balance")
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id": eventID,
		"balance":  balance,
	})
}

// Request opens a payout against an event's balance.
func (h *PayoutHandler) Request(e *core.RequestEvent) error {
	var req struct {
		EventID string `json:"event_id"`
		Amount  string `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	amount, err := decimalFromString(req.Amount)
	if err != nil {
		return apis.NewBadRequestError("Invalid amount", err)
	}

	rec, err := h.payouts.Request(req.EventID, e.Auth.Id, amount)
	if err != nil {
		return apiError(err, "Failed to request payout")
	}

	return e.JSON(http.StatusCreated, rec)
}

// Cancel voids one of the caller's pending payouts.
func (h *PayoutHandler) Cancel(e *core.RequestEvent) error {
	payoutID := e.Request.PathValue("payoutId")
	if payoutID == "" {
		return apis.NewBadRequestError("Payout ID required", nil)
	}

	rec, err := h.payouts.Cancel(payoutID, e.Auth.Id)
	if err != nil {
		return apiError(err, "Failed to cancel payout")
	}

	return e.JSON(http.StatusOK, rec)
}

// MarkProcessing moves a payout into Processing. Admin only.
func (h *PayoutHandler) MarkProcessing(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	rec, err := h.payouts.MarkProcessing(e.Request.PathValue("payoutId"))
	if err != nil {
		return apiError(err, "Failed to update payout")
	}

	return e.JSON(http.StatusOK, rec)
}

// Complete finishes a payout after the transfer settles. Admin only.
func (h *PayoutHandler) Complete(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	rec, err := h.payouts.Complete(e.Request.PathValue("payoutId"))
	if err != nil {
		return apiError(err, "Failed to complete payout")
	}

	return e.JSON(http.StatusOK, rec)
}

// List returns the caller's payout history.
func (h *PayoutHandler) List(e *core.RequestEvent) error {
	recs, err := h.payouts.ListForOrganizer(e.Auth.Id)
	if err != nil {
		return apiError(err, "Failed to list payouts")
	}

	return e.JSON(http.StatusOK, recs)
}
