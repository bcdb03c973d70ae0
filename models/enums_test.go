package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCustomerTypeDefaultDiscountPercent(t *testing.T) {
	cases := []struct {
		customerType CustomerType
		expected     int64
	}{
		{CustomerTypeRegular, 0},
		{CustomerTypePremium, 5},
		{CustomerTypeWholesale, 10},
		{CustomerType("Unknown"), 0},
	}
	for _, tc := range cases {
		got := tc.customerType.DefaultDiscountPercent()
		if !got.Equal(decimal.NewFromInt(tc.expected)) {
			t.Fatalf("%s expected default %d%%, got %s", tc.customerType, tc.expected, got.String())
		}
	}
}

func TestCustomerTypeUnmarshalText(t *testing.T) {
	var ct CustomerType
	if err := ct.UnmarshalText([]byte("")); err != nil {
		t.Fatalf("empty type: %v", err)
	}
	if ct != CustomerTypeRegular {
		t.Fatalf("empty type expected Regular, got %s", ct)
	}
	if err := ct.UnmarshalText([]byte("Wholesale")); err != nil {
		t.Fatalf("Wholesale: %v", err)
	}
	if ct != CustomerTypeWholesale {
		t.Fatalf("expected Wholesale, got %s", ct)
	}
	if err := ct.UnmarshalText([]byte("VIP")); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
