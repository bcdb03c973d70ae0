package models

import "errors"

// Validation errors are detected before any store write and surfaced to
// the operator; persistence errors abort the checkout with the cart
// intact so the sale can be retried without re-entering anything.
var (
	ErrorStockExceeded       = errors.New("stock limit exceeded")
	ErrorInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrorEmptyCart           = errors.New("cart is empty")
	ErrorMissingCustomerName = errors.New("customer name is required")
	ErrorPersistFailed       = errors.New("sale could not be recorded")
	ErrorPersistTimeout      = errors.New("sale timed out before it was recorded")
	ErrorFinalizeInFlight    = errors.New("a checkout is already in progress for this session")
	ErrorStockDrift          = errors.New("product stock does not match its recorded movement history")
)
