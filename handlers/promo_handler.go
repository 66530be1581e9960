package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/models"
	"tickethub/services"
)

type PromoHandler struct {
	app    core.App
	promos *services.PromoService
}

func NewPromoHandler(app core.App, promos *services.PromoService) *PromoHandler {
	return &PromoHandler{app: app, promos: promos}
}

// requireEventOwner loads the event and checks the caller owns it (or is an
// admin). Promo management is an organizer surface.
func (h *PromoHandler) requireEventOwner(e *core.RequestEvent, eventID string) error {
	event, err := h.app.FindRecordById("events", eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.GetString("organizer") != e.Auth.Id && !e.Auth.GetBool("is_admin") {
		return apis.NewForbiddenError("Not the event organizer", nil)
	}
	return nil
}

// Create adds a promo code to the caller's event.
func (h *PromoHandler) Create(e *core.RequestEvent) error {
	var req struct {
		EventID      string   `json:"event_id"`
		Code         string   `json:"code"`
		DiscountType string   `json:"discount_type"`
		Value        string   `json:"value"`
		UsageLimit   int      `json:"usage_limit"`
		ExpiryDate   string   `json:"expiry_date"`
		AppliesTo    []string `json:"applies_to"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.requireEventOwner(e, req.EventID); err != nil {
		return err
	}

	value, err := decimalFromString(req.Value)
	if err != nil {
		return apis.NewBadRequestError("Invalid discount value", err)
	}

	var expiry time.Time
	if req.ExpiryDate != "" {
		expiry, err = time.Parse(time.RFC3339, req.ExpiryDate)
		if err != nil {
			return apis.NewBadRequestError("Invalid expiry date", err)
		}
	}

	rec, err := h.promos.Create(services.CreatePromoParams{
		EventID:      req.EventID,
		Code:         req.Code,
		DiscountType: models.DiscountType(req.DiscountType),
		Value:        value,
		UsageLimit:   req.UsageLimit,
		ExpiryDate:   expiry,
		AppliesTo:    req.AppliesTo,
	})
	if err != nil {
		return apiError(err, "Failed to create promo code")
	}

	return e.JSON(http.StatusCreated, rec)
}

// List returns an event's promo codes with up-to-date statuses.
func (h *PromoHandler) List(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if err := h.requireEventOwner(e, eventID); err != nil {
		return err
	}

	recs, err := h.promos.List(eventID, time.Now())
	if err != nil {
		return apiError(err, "Failed to list promo codes")
	}

	return e.JSON(http.StatusOK, recs)
}

// Close deactivates a promo code permanently.
func (h *PromoHandler) Close(e *core.RequestEvent) error {
	promoID := e.Request.PathValue("promoId")

	promo, err := h.app.FindRecordById("promo_codes", promoID)
	if err != nil {
		return apis.NewNotFoundError("Promo code not found", err)
	}
	if err := h.requireEventOwner(e, promo.GetString("event")); err != nil {
		return err
	}

	rec, err := h.promos.Close(promoID)
	if err != nil {
		return apiError(err, "Failed to close promo code")
	}

	return e.JSON(http.StatusOK, rec)
}

// Reactivate revives an expired code with a new future expiry.
func (h *PromoHandler) Reactivate(e *core.RequestEvent) error {
	promoID := e.Request.PathValue("promoId")

	var req struct {
		ExpiryDate string `json:"expiry_date"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	expiry, err := time.Parse(time.RFC3339, req.ExpiryDate)
	if err != nil {
		return apis.NewBadRequestError("Invalid expiry date", err)
	}

	promo, err := h.app.FindRecordById("promo_codes", promoID)
	if err != nil {
		return apis.NewNotFoundError("Promo code not found", err)
	}
	if err := h.requireEventOwner(e, promo.GetString("event")); err != nil {
		return err
	}

	rec, err := h.promos.Reactivate(promoID, expiry, time.Now())
	if err != nil {
		return apiError(err, "Failed to reactivate promo code")
	}

	return e.JSON(http.StatusOK, rec)
}

// Validate checks a code for a prospective purchase without consuming it.
// Public: buyers call this from the checkout page.
func (h *PromoHandler) Validate(e *core.RequestEvent) error {
	var req struct {
		EventID   string   `json:"event_id"`
		Code      string   `json:"code"`
		TicketIDs []string `json:"ticket_ids"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	rec, err := h.promos.Validate(req.EventID, req.Code, req.TicketIDs, time.Now())
	if err != nil {
		return apiError(err, "Promo code is not valid")
	}

	return e.JSON(http.StatusOK, map[string]any{
		"valid":         true,
		"discount_type": rec.GetString("discount_type"),
		"value":         rec.GetFloat("value"),
	})
}
