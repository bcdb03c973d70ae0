package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type CustomerType string

const (
	CustomerTypeRegular   CustomerType = "Regular"
	CustomerTypePremium   CustomerType = "Premium"
	CustomerTypeWholesale CustomerType = "Wholesale"
)

// convert input to enum type
func (t *CustomerType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Regular", "":
		*t = CustomerTypeRegular
	case "Premium":
		*t = CustomerTypePremium
	case "Wholesale":
		*t = CustomerTypeWholesale
	default:
		return errors.New("invalid customer type")
	}
	return nil
}

// DefaultDiscountPercent is the tier-driven default offered when a
// customer is picked on the payment step. The operator can still edit
// the percent before confirming.
func (t CustomerType) DefaultDiscountPercent() decimal.Decimal {
	switch t {
	case CustomerTypePremium:
		return decimal.NewFromInt(5)
	case CustomerTypeWholesale:
		return decimal.NewFromInt(10)
	default:
		return decimal.Zero
	}
}

type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleStaff UserRole = "Staff"
)

type StockMovementReason string

const (
	StockMovementReasonSale       StockMovementReason = "Sale"
	StockMovementReasonAdjustment StockMovementReason = "Adjustment"
)
