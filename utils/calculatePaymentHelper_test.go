package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateDiscountAmount(t *testing.T) {
	cases := []struct {
		subTotal string
		percent  string
		expected string
	}{
		{"200", "10", "20"},
		{"200", "0", "0"},
		{"0", "50", "0"},
		{"200", "100", "200"},
		{"150", "5", "7.5"},
		{"99.99", "7.25", "7.2493"},
	}
	for _, tc := range cases {
		amount, err := CalculateDiscountAmount(decimal.RequireFromString(tc.subTotal), decimal.RequireFromString(tc.percent))
		if err != nil {
			t.Fatalf("CalculateDiscountAmount(%s, %s) error: %v", tc.subTotal, tc.percent, err)
		}
		if !amount.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("CalculateDiscountAmount(%s, %s) expected %s, got %s", tc.subTotal, tc.percent, tc.expected, amount.String())
		}
	}
}

func TestCalculateDiscountAmount_RejectsOutOfRangePercent(t *testing.T) {
	for _, percent := range []string{"-1", "-0.01", "100.01", "250"} {
		_, err := CalculateDiscountAmount(decimal.NewFromInt(200), decimal.RequireFromString(percent))
		if !errors.Is(err, ErrorInvalidDiscount) {
			t.Fatalf("CalculateDiscountAmount(200, %s) expected ErrorInvalidDiscount, got %v", percent, err)
		}
	}
}

func TestCalculatePayable_NeverNegative(t *testing.T) {
	cases := []struct {
		subTotal string
		discount string
		expected string
	}{
		{"200", "20", "180"},
		{"200", "200", "0"},
		{"100", "150", "0"},
	}
	for _, tc := range cases {
		payable := CalculatePayable(decimal.RequireFromString(tc.subTotal), decimal.RequireFromString(tc.discount))
		if !payable.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("CalculatePayable(%s, %s) expected %s, got %s", tc.subTotal, tc.discount, tc.expected, payable.String())
		}
	}
}

func TestCalculateChange_ClampsAtZero(t *testing.T) {
	cases := []struct {
		cash     string
		payable  string
		expected string
	}{
		{"200", "180", "20"},
		{"180", "180", "0"},
		{"100", "180", "0"},
	}
	for _, tc := range cases {
		change := CalculateChange(decimal.RequireFromString(tc.cash), decimal.RequireFromString(tc.payable))
		if !change.Equal(decimal.RequireFromString(tc.expected)) {
			t.Fatalf("CalculateChange(%s, %s) expected %s, got %s", tc.cash, tc.payable, tc.expected, change.String())
		}
	}
}
