package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/services"
)

type SaleHandler struct {
	app   core.App
	sales *services.SaleService
}

func NewSaleHandler(app core.App, sales *services.SaleService) *SaleHandler {
	return &SaleHandler{app: app, sales: sales}
}

// CheckIn marks a sale's tickets as used at the door.
func (h *SaleHandler) CheckIn(e *core.RequestEvent) error {
	saleID := e.Request.PathValue("saleId")

	sale, err := h.app.FindRecordById("ticket_sales", saleID)
	if err != nil {
		return apis.NewNotFoundError("Sale not found", err)
	}
	if err := h.requireEventOwner(e, sale.GetString("event")); err != nil {
		return err
	}

	rec, err := h.sales.CheckIn(saleID, time.Now())
	if err != nil {
		return apiError(err, "Failed to check in")
	}

	return e.JSON(http.StatusOK, rec)
}

// List returns an event's sales for its organizer.
func (h *SaleHandler) List(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if err := h.requireEventOwner(e, eventID); err != nil {
		return err
	}

	recs, err := h.sales.ListForEvent(eventID)
	if err != nil {
		return apiError(err, "Failed to list sales")
	}

	return e.JSON(http.StatusOK, recs)
}

func (h *SaleHandler) requireEventOwner(e *core.RequestEvent, eventID string) error {
	event, err := h.app.FindRecordById("events", eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.GetString("organizer") != e.Auth.Id && !e.Auth.GetBool("is_admin") {
		return apis.NewForbiddenError("Not the event organizer", nil)
	}
	return nil
}
