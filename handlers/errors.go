package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/tools/router"

	"tickethub/services"
)

// apiError translates a service rejection into an HTTP error. Anything not
// in the taxonomy becomes a 400 with the fallback message.
func apiError(err error, fallback string) *router.ApiError {
	var stateErr *services.StateError

	switch {
	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrAdminOnly):
		return apis.NewForbiddenError(err.Error(), nil)

	case errors.Is(err, services.ErrPromoNotFound),
		errors.Is(err, services.ErrSessionNotFound):
		return apis.NewNotFoundError(err.Error(), nil)

	case errors.As(err, &stateErr),
		errors.Is(err, services.ErrPromoCodeExists),
		errors.Is(err, services.ErrCustomURLInUse),
		errors.Is(err, services.ErrSoldOut),
		errors.Is(err, services.ErrPromoUsageLimit),
		errors.Is(err, services.ErrInsufficientBalance):
		return apis.NewApiError(409, err.Error(), nil)

	case errors.Is(err, services.ErrPaymentNotSuccessful):
		return apis.NewApiError(402, err.Error(), nil)

	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrMissingBuyer),
		errors.Is(err, services.ErrInvalidPromoValue),
		errors.Is(err, services.ErrInvalidEventDates),
		errors.Is(err, services.ErrFeeOutOfRange),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrQuantityBelowSold),
		errors.Is(err, services.ErrPromoInactive),
		errors.Is(err, services.ErrPromoExpired),
		errors.Is(err, services.ErrPromoNotApplicable),
		errors.Is(err, services.ErrEventStarted),
		errors.Is(err, services.ErrEventNotOnSale):
		return apis.NewBadRequestError(err.Error(), nil)
	}

	return apis.NewBadRequestError(fallback, err)
}
