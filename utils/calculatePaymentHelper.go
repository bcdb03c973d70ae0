package utils

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrorInvalidDiscount = errors.New("discount percent must be between 0 and 100")

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateDiscountAmount converts a percentage discount into an amount.
// Percent outside [0,100] is rejected; the legacy front end never
// validated this and silently produced negative totals.
func CalculateDiscountAmount(subTotal decimal.Decimal, discountPercent decimal.Decimal) (decimal.Decimal, error) {

	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimalOneHundred) {
		return decimal.Zero, ErrorInvalidDiscount
	}
	if discountPercent.IsZero() || subTotal.IsZero() {
		return decimal.Zero, nil
	}

	return subTotal.Mul(discountPercent).DivRound(decimalOneHundred, 4), nil
}

// CalculatePayable returns subtotal minus discount, never negative.
func CalculatePayable(subTotal decimal.Decimal, discountAmount decimal.Decimal) decimal.Decimal {

	payable := subTotal.Sub(discountAmount)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}

// CalculateChange returns cash received minus payable, clamped at zero.
// A sale with insufficient cash still completes; the register operator
// handles shortfalls outside the system. Kept from the legacy behavior.
func CalculateChange(cashReceived decimal.Decimal, payable decimal.Decimal) decimal.Decimal {

	change := cashReceived.Sub(payable)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
