package services

import (
	"errors"
	"fmt"
)

// Rejection reasons surfaced to handlers. Handlers translate these into
// HTTP errors; services only ever wrap them with context.
var (
	// validation
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must be at least one")
	ErrMissingBuyer      = errors.New("buyer name and email are required")
	ErrInvalidPromoValue = errors.New("invalid promo discount value")
	ErrInvalidEventDates = errors.New("event end date must be after start date")
	ErrFeeOutOfRange     = errors.New("platform fee percentage must be between 0 and 100")
	ErrAmountMismatch    = errors.New("paid amount does not match the expected total")
	ErrQuantityBelowSold = errors.New("ticket quantity cannot be reduced below the sold count")

	// conflict
	ErrPromoCodeExists = errors.New("promo code already exists for this event")
	ErrCustomURLInUse  = errors.New("custom ticket url is already in use by an active event")

	// authorization
	ErrNotOwner  = errors.New("not the owner of this resource")
	ErrAdminOnly = errors.New("admin privileges required")

	// state
	ErrPromoNotFound       = errors.New("promo code not found for event")
	ErrPromoInactive       = errors.New("promo code is not active")
	ErrPromoExpired        = errors.New("promo code has expired")
	ErrPromoUsageLimit     = errors.New("promo code usage limit reached")
	ErrPromoNotApplicable  = errors.New("promo code does not apply to the selected tickets")
	ErrEventStarted        = errors.New("event has already started")
	ErrEventNotOnSale      = errors.New("event is not open for ticket sales")
	ErrSoldOut             = errors.New("requested quantity is no longer available")
	ErrInsufficientBalance = errors.New("requested amount exceeds the available balance")
	ErrSessionNotFound     = errors.New("checkout session not found or expired")

	// upstream
	ErrPaymentNotSuccessful = errors.New("payment was not successful")
)

// StateError rejects a lifecycle transition and names the current state.
type StateError struct {
	Op      string
	Current string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: current status is %q", e.Op, e.Current)
}
