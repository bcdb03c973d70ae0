package models

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func testProduct(id int, name string, sellPrice, buyPrice int64, stock int) *Product {
	return &Product{
		ID:        id,
		Name:      name,
		SellPrice: decimal.NewFromInt(sellPrice),
		BuyPrice:  decimal.NewFromInt(buyPrice),
		Stock:     stock,
	}
}

func TestCartAddItem_AccumulatesUpToStock(t *testing.T) {
	cart := Cart{}
	soap := testProduct(1, "Soap", 50, 35, 5)

	if err := cart.AddItem(soap, 2); err != nil {
		t.Fatalf("AddItem qty=2: %v", err)
	}
	if err := cart.AddItem(soap, 3); err != nil {
		t.Fatalf("AddItem qty=3 (cumulative 5 of 5): %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Qty != 5 {
		t.Fatalf("expected qty 5, got %d", cart.Lines[0].Qty)
	}

	err := cart.AddItem(soap, 1)
	if !errors.Is(err, ErrorStockExceeded) {
		t.Fatalf("expected ErrorStockExceeded past stock ceiling, got %v", err)
	}
	if cart.Lines[0].Qty != 5 {
		t.Fatalf("failed add must not mutate the line, qty = %d", cart.Lines[0].Qty)
	}
}

func TestCartAddItem_RejectsNonPositiveQty(t *testing.T) {
	cart := Cart{}
	soap := testProduct(1, "Soap", 50, 35, 5)

	for _, qty := range []int{0, -1, -10} {
		if err := cart.AddItem(soap, qty); !errors.Is(err, ErrorInvalidQuantity) {
			t.Fatalf("AddItem qty=%d expected ErrorInvalidQuantity, got %v", qty, err)
		}
	}
	if !cart.IsEmpty() {
		t.Fatalf("rejected adds must leave the cart empty")
	}
}

func TestCartChangeQuantity(t *testing.T) {
	cart := Cart{}
	soap := testProduct(1, "Soap", 50, 35, 5)
	if err := cart.AddItem(soap, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := cart.ChangeQuantity(soap, 2); err != nil {
		t.Fatalf("ChangeQuantity +2: %v", err)
	}
	if cart.Lines[0].Qty != 4 {
		t.Fatalf("expected qty 4, got %d", cart.Lines[0].Qty)
	}

	// over the stock ceiling
	if err := cart.ChangeQuantity(soap, 2); !errors.Is(err, ErrorStockExceeded) {
		t.Fatalf("expected ErrorStockExceeded, got %v", err)
	}

	// decrementing below 1 is rejected, not treated as removal
	if err := cart.ChangeQuantity(soap, -4); !errors.Is(err, ErrorInvalidQuantity) {
		t.Fatalf("expected ErrorInvalidQuantity below 1, got %v", err)
	}
	if cart.Lines[0].Qty != 4 {
		t.Fatalf("failed change must not mutate the line, qty = %d", cart.Lines[0].Qty)
	}

	// a product not in the cart
	other := testProduct(2, "Shampoo", 120, 80, 3)
	if err := cart.ChangeQuantity(other, 1); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound for absent product, got %v", err)
	}
}

func TestCartRemoveItem_Idempotent(t *testing.T) {
	cart := Cart{}
	soap := testProduct(1, "Soap", 50, 35, 5)
	shampoo := testProduct(2, "Shampoo", 120, 80, 3)
	if err := cart.AddItem(soap, 1); err != nil {
		t.Fatalf("AddItem soap: %v", err)
	}
	if err := cart.AddItem(shampoo, 1); err != nil {
		t.Fatalf("AddItem shampoo: %v", err)
	}

	cart.RemoveItem(soap.ID)
	cart.RemoveItem(soap.ID) // absent now; no-op
	cart.RemoveItem(999)     // never existed; no-op

	if len(cart.Lines) != 1 || cart.Lines[0].ProductId != shampoo.ID {
		t.Fatalf("expected only shampoo to remain, lines = %+v", cart.Lines)
	}
}

func TestCartSubtotalAndProfit(t *testing.T) {
	cart := Cart{}
	soap := testProduct(1, "Soap", 50, 35, 10)
	shampoo := testProduct(2, "Shampoo", 100, 60, 10)

	if err := cart.AddItem(soap, 2); err != nil {
		t.Fatalf("AddItem soap: %v", err)
	}
	if err := cart.AddItem(shampoo, 1); err != nil {
		t.Fatalf("AddItem shampoo: %v", err)
	}

	// 2*50 + 1*100 = 200
	if got := cart.Subtotal(); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("Subtotal expected 200, got %s", got.String())
	}
	// 2*(50-35) + 1*(100-60) = 70
	if got := cart.ProfitBeforeDiscount(); !got.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("ProfitBeforeDiscount expected 70, got %s", got.String())
	}

	cart.Clear()
	if !cart.IsEmpty() {
		t.Fatalf("Clear must empty the cart")
	}
	if got := cart.Subtotal(); !got.IsZero() {
		t.Fatalf("empty cart subtotal expected 0, got %s", got.String())
	}
}
