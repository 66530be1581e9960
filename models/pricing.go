package models

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// ComputeFinalPrice returns the buyer-facing price and the platform fee for
// a ticket tier. When transferFeeToGuest is true the fee is added on top of
// the base price, otherwise the organizer absorbs it and the buyer pays the
// base price as-is (the fee is still returned for accounting).
//
// Rounding to currency precision happens exactly once, on the final values,
// so repeated edits of a tier never compound rounding error.
func ComputeFinalPrice(basePrice, feePercent decimal.Decimal, transferFeeToGuest bool) (finalPrice, feeAmount decimal.Decimal) {
	fee := basePrice.Mul(feePercent).Div(oneHundred)

	final := basePrice
	if transferFeeToGuest {
		final = basePrice.Add(fee)
	}

	return final.Round(2), fee.Round(2)
}
