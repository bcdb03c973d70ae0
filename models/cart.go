package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

const cartTTL = 12 * time.Hour

// CartLine snapshots the product at the moment it was added. Prices
// are not re-read while the sale is open; only the stock ceiling is
// checked against the product record.
type CartLine struct {
	ProductId     int             `json:"product_id"`
	Name          string          `json:"name"`
	UnitSellPrice decimal.Decimal `json:"unit_sell_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Qty           int             `json:"qty"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitSellPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is the in-progress sale for one register session. It lives in
// redis keyed by shop+session, so a page reload doesn't lose the sale.
type Cart struct {
	ShopId    string     `json:"shop_id"`
	SessionId string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
}

func cartKey(shopId string, sessionId string) string {
	return "Cart:" + shopId + ":" + sessionId
}

func (c *Cart) lineIndex(productId int) int {
	for i := range c.Lines {
		if c.Lines[i].ProductId == productId {
			return i
		}
	}
	return -1
}

// AddItem inserts a line for the product or increments the existing
// one. The cumulative quantity may never pass the product's stock.
func (c *Cart) AddItem(product *Product, qty int) error {
	if qty < 1 {
		return ErrorInvalidQuantity
	}

	currentQty := 0
	idx := c.lineIndex(product.ID)
	if idx >= 0 {
		currentQty = c.Lines[idx].Qty
	}

	if currentQty+qty > product.Stock {
		return fmt.Errorf("%w: %s", ErrorStockExceeded, product.Name)
	}

	if idx >= 0 {
		c.Lines[idx].Qty += qty
		return nil
	}

	c.Lines = append(c.Lines, CartLine{
		ProductId:     product.ID,
		Name:          product.Name,
		UnitSellPrice: product.SellPrice,
		UnitCost:      product.BuyPrice,
		Qty:           qty,
	})
	return nil
}

// ChangeQuantity adjusts a line by delta. Decrementing below 1 is not
// a removal: it fails with ErrorInvalidQuantity and leaves the line
// alone, matching the register UI where the trash icon removes a line
// and the minus button bottoms out at 1.
func (c *Cart) ChangeQuantity(product *Product, delta int) error {
	idx := c.lineIndex(product.ID)
	if idx < 0 {
		return utils.ErrorRecordNotFound
	}

	newQty := c.Lines[idx].Qty + delta
	if newQty < 1 {
		return ErrorInvalidQuantity
	}
	if newQty > product.Stock {
		return fmt.Errorf("%w: %s", ErrorStockExceeded, product.Name)
	}

	c.Lines[idx].Qty = newQty
	return nil
}

// RemoveItem drops the product's line. Removing an absent product is
// a no-op.
func (c *Cart) RemoveItem(productId int) {
	idx := c.lineIndex(productId)
	if idx < 0 {
		return
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ProfitBeforeDiscount is Σ((sell − cost) × qty); the order-level
// discount comes off this at finalize time.
func (c *Cart) ProfitBeforeDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		margin := line.UnitSellPrice.Sub(line.UnitCost)
		total = total.Add(margin.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total
}

/* redis-backed session cart */

func sessionScope(ctx context.Context) (string, string, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return "", "", errors.New("shop id is required")
	}
	sessionId, ok := utils.GetSessionIdFromContext(ctx)
	if !ok || sessionId == "" {
		return "", "", errors.New("session id is required")
	}
	return shopId, sessionId, nil
}

// GetCart loads the session cart, returning an empty cart when none
// is stored yet.
func GetCart(ctx context.Context) (*Cart, error) {
	shopId, sessionId, err := sessionScope(ctx)
	if err != nil {
		return nil, err
	}

	cart := Cart{ShopId: shopId, SessionId: sessionId}
	if _, err := config.GetRedisObject(cartKey(shopId, sessionId), &cart); err != nil {
		return nil, err
	}
	// a stale entry from another scope never leaks in
	cart.ShopId = shopId
	cart.SessionId = sessionId
	return &cart, nil
}

func saveCart(cart *Cart) error {
	return config.SetRedisObject(cartKey(cart.ShopId, cart.SessionId), cart, cartTTL)
}

func AddCartItem(ctx context.Context, productId int, qty int) (*Cart, error) {
	product, err := GetProduct(ctx, productId)
	if err != nil {
		return nil, err
	}

	cart, err := GetCart(ctx)
	if err != nil {
		return nil, err
	}

	if err := cart.AddItem(product, qty); err != nil {
		return nil, err
	}
	if err := saveCart(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func ChangeCartQuantity(ctx context.Context, productId int, delta int) (*Cart, error) {
	product, err := GetProduct(ctx, productId)
	if err != nil {
		return nil, err
	}

	cart, err := GetCart(ctx)
	if err != nil {
		return nil, err
	}

	if err := cart.ChangeQuantity(product, delta); err != nil {
		return nil, err
	}
	if err := saveCart(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func RemoveCartItem(ctx context.Context, productId int) (*Cart, error) {
	cart, err := GetCart(ctx)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productId)
	if err := saveCart(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func ClearCart(ctx context.Context) (*Cart, error) {
	shopId, sessionId, err := sessionScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(cartKey(shopId, sessionId)); err != nil {
		return nil, err
	}
	return &Cart{ShopId: shopId, SessionId: sessionId}, nil
}
