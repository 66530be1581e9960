package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/services"
)

type EventHandler struct {
	app     core.App
	events  *services.EventService
	tickets *services.TicketService
}

func NewEventHandler(app core.App, events *services.EventService, tickets *services.TicketService) *EventHandler {
	return &EventHandler{
		app:     app,
		events:  events,
		tickets: tickets,
	}
}

// Create adds a draft event for the caller.
func (h *EventHandler) Create(e *core.RequestEvent) error {
	var req struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		StartDate       string `json:"start_date"`
		EndDate         string `json:"end_date"`
		CustomTicketURL string `json:"custom_ticket_url"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return apis.NewBadRequestError("Invalid start date", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return apis.NewBadRequestError("Invalid end date", err)
	}

	rec, err := h.events.Create(e.Auth.Id, services.EventParams{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       start,
		EndDate:         end,
		CustomTicketURL: req.CustomTicketURL,
	})
	if err != nil {
		return apiError(err, "Failed to create event")
	}

	return e.JSON(http.StatusCreated, rec)
}

// Update edits an event's details.
func (h *EventHandler) Update(e *core.RequestEvent) error {
	var req struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		StartDate       string `json:"start_date"`
		EndDate         string `json:"end_date"`
		CustomTicketURL string `json:"custom_ticket_url"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return apis.NewBadRequestError("Invalid start date", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return apis.NewBadRequestError("Invalid end date", err)
	}

	rec, err := h.events.Update(e.Request.PathValue("eventId"), e.Auth.Id, e.Auth.GetBool("is_admin"), services.EventParams{
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       start,
		EndDate:         end,
		CustomTicketURL: req.CustomTicketURL,
	})
	if err != nil {
		return apiError(err, "Failed to update event")
	}

	return e.JSON(http.StatusOK, rec)
}

// Publish takes a draft event live.
func (h *EventHandler) Publish(e *core.RequestEvent) error {
	rec, err := h.events.Publish(e.Request.PathValue("eventId"), e.Auth.Id, e.Auth.GetBool("is_admin"))
	if err != nil {
		return apiError(err, "Failed to publish event")
	}
	return e.JSON(http.StatusOK, rec)
}

// Unpublish pauses ticket sales for an event.
func (h *EventHandler) Unpublish(e *core.RequestEvent) error {
	rec, err := h.events.Unpublish(e.Request.PathValue("eventId"), e.Auth.Id, e.Auth.GetBool("is_admin"))
	if err != nil {
		return apiError(err, "Failed to unpublish event")
	}
	return e.JSON(http.StatusOK, rec)
}

// Republish reactivates an inactive event.
func (h *EventHandler) Republish(e *core.RequestEvent) error {
	rec, err := h.events.Republish(e.Request.PathValue("eventId"), e.Auth.Id, e.Auth.GetBool("is_admin"))
	if err != nil {
		return apiError(err, "Failed to republish event")
	}
	return e.JSON(http.StatusOK, rec)
}

type ticketRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	TransferFee bool   `json:"transfer_fee"`
	Quantity    int    `json:"quantity"`
}

// CreateTicket adds a ticket tier to the caller's event.
func (h *EventHandler) CreateTicket(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	if err := h.requireOwner(e, eventID); err != nil {
		return err
	}

	var req ticketRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	price, err := decimalFromString(req.Price)
	if err != nil {
		return apis.NewBadRequestError("Invalid price", err)
	}

	rec, err := h.tickets.Create(eventID, services.TicketParams{
		Name:        req.Name,
		Price:       price,
		TransferFee: req.TransferFee,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return apiError(err, "Failed to create ticket")
	}

	return e.JSON(http.StatusCreated, rec)
}

// UpdateTicket edits a tier; the final price is recomputed server-side.
func (h *EventHandler) UpdateTicket(e *core.RequestEvent) error {
	ticketID := e.Request.PathValue("ticketId")

	ticket, err := h.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return apis.NewNotFoundError("Ticket not found", err)
	}
	if err := h.requireOwner(e, ticket.GetString("event")); err != nil {
		return err
	}

	var req ticketRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	price, err := decimalFromString(req.Price)
	if err != nil {
		return apis.NewBadRequestError("Invalid price", err)
	}

	rec, err := h.tickets.Update(ticketID, services.TicketParams{
		Name:        req.Name,
		Price:       price,
		TransferFee: req.TransferFee,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return apiError(err, "Failed to update ticket")
	}

	return e.JSON(http.StatusOK, rec)
}

func (h *EventHandler) requireOwner(e *core.RequestEvent, eventID string) error {
	event, err := h.app.FindRecordById("events", eventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}
	if event.GetString("organizer") != e.Auth.Id && !e.Auth.GetBool("is_admin") {
		return apis.NewForbiddenError("Not the event organizer", nil)
	}
	return nil
}
