package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// checkout is one shot per session: the lock covers the whole
	// finalize call and a second call is rejected, not queued
	checkoutLockTTL = 30 * time.Second

	// bounded deadline on the finalize transaction; the legacy system
	// would hang forever on a dead store connection
	persistTimeout = 15 * time.Second
)

type SalesInvoiceLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id"`
	ShopId         string          `gorm:"index;not null" json:"shop_id"`
	ProductId      int             `gorm:"index;not null" json:"product_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	UnitSellPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_sell_price"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	Qty            int             `gorm:"not null" json:"qty"`
}

// SalesInvoice is the persisted record of a completed sale. Created
// exactly once per checkout and never updated afterwards.
type SalesInvoice struct {
	ID              int                `gorm:"primary_key" json:"id"`
	ShopId          string             `gorm:"index;not null" json:"shop_id"`
	InvoiceNumber   string             `gorm:"size:32" json:"invoice_number"`
	CustomerName    string             `gorm:"size:100;not null" json:"customer_name"`
	CustomerPhone   string             `gorm:"size:20" json:"customer_phone"`
	Lines           []SalesInvoiceLine `gorm:"foreignKey:SalesInvoiceId" json:"line_items"`
	SubTotal        decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountPercent decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	GrandTotal      decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"grand_total"`
	CashReceived    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"cash_received"`
	ChangeAmount    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"change_amount"`
	TotalProfit     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_profit"`
	SaleDate        string             `gorm:"size:10;not null" json:"sale_date"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

type NewSalesInvoice struct {
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CashReceived    decimal.Decimal `json:"cash_received"`
}

// PaymentInput opens the payment step for the session cart.
type PaymentInput struct {
	CustomerId      int              `json:"customer_id"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	CashReceived    decimal.Decimal  `json:"cash_received"`
}

// PaymentPreview carries the billing figures the payment modal shows.
// Nothing is persisted at this point.
type PaymentPreview struct {
	SubTotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Payable         decimal.Decimal `json:"payable"`
	CashReceived    decimal.Decimal `json:"cash_received"`
	ChangeAmount    decimal.Decimal `json:"change_amount"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
}

// PreviewPayment computes the payment figures for the current cart.
// When a customer is picked and no explicit percent is given, the
// customer's tier default applies (Premium 5, Wholesale 10).
func PreviewPayment(ctx context.Context, input *PaymentInput) (*PaymentPreview, error) {

	cart, err := GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrorEmptyCart
	}

	preview := PaymentPreview{
		SubTotal:     cart.Subtotal(),
		CashReceived: input.CashReceived,
	}

	if input.CustomerId > 0 {
		customer, err := GetCustomer(ctx, input.CustomerId)
		if err != nil {
			return nil, err
		}
		preview.CustomerName = customer.Name
		preview.CustomerPhone = customer.Phone
		preview.DiscountPercent = customer.Type.DefaultDiscountPercent()
	}
	if input.DiscountPercent != nil {
		preview.DiscountPercent = *input.DiscountPercent
	}

	preview.DiscountAmount, err = utils.CalculateDiscountAmount(preview.SubTotal, preview.DiscountPercent)
	if err != nil {
		return nil, err
	}
	preview.Payable = utils.CalculatePayable(preview.SubTotal, preview.DiscountAmount)
	preview.ChangeAmount = utils.CalculateChange(input.CashReceived, preview.Payable)

	return &preview, nil
}

// CreateSalesInvoice finalizes the session cart: one invoice row plus
// one conditional stock decrement per line, all inside a single
// transaction. Either the sale lands completely or nothing moves —
// the legacy behavior of writing the invoice first and decrementing
// stock afterwards from a cached snapshot could oversell and leave
// stock drifted on partial failure.
func CreateSalesInvoice(ctx context.Context, input *NewSalesInvoice) (*SalesInvoice, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	shopId, sessionId, err := sessionScope(ctx)
	if err != nil {
		return nil, err
	}

	// one checkout at a time per register session
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "Checkout:"+shopId+":"+sessionId, checkoutLockTTL, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, ErrorFinalizeInFlight
			}
			return nil, err
		}
		defer lock.Release(context.Background())
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	cart, err := GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrorEmptyCart
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, ErrorMissingCustomerName
	}

	subTotal := cart.Subtotal()
	discountAmount, err := utils.CalculateDiscountAmount(subTotal, input.DiscountPercent)
	if err != nil {
		return nil, err
	}
	grandTotal := utils.CalculatePayable(subTotal, discountAmount)
	changeAmount := utils.CalculateChange(input.CashReceived, grandTotal)
	totalProfit := cart.ProfitBeforeDiscount().Sub(discountAmount)

	lines := make([]SalesInvoiceLine, 0, len(cart.Lines))
	for _, item := range cart.Lines {
		lines = append(lines, SalesInvoiceLine{
			ShopId:        shopId,
			ProductId:     item.ProductId,
			Name:          item.Name,
			UnitSellPrice: item.UnitSellPrice,
			UnitCost:      item.UnitCost,
			Qty:           item.Qty,
		})
	}

	invoice := SalesInvoice{
		ShopId:          shopId,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		Lines:           lines,
		SubTotal:        subTotal,
		DiscountPercent: input.DiscountPercent,
		DiscountAmount:  discountAmount,
		GrandTotal:      grandTotal,
		CashReceived:    input.CashReceived,
		ChangeAmount:    changeAmount,
		TotalProfit:     totalProfit,
		SaleDate:        time.Now().Format("2006-01-02"),
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, persistError(ctx, logger, "Create invoice", err)
	}

	invoice.InvoiceNumber = fmt.Sprintf("INV-%06d", invoice.ID)
	if err := tx.WithContext(ctx).Model(&SalesInvoice{}).Where("id = ?", invoice.ID).
		Update("invoice_number", invoice.InvoiceNumber).Error; err != nil {
		tx.Rollback()
		return nil, persistError(ctx, logger, "Set invoice number", err)
	}

	for _, line := range invoice.Lines {
		if err := decrementProductStock(tx, ctx, shopId, invoice.ID, line); err != nil {
			tx.Rollback()
			if errors.Is(err, ErrorStockExceeded) {
				return nil, err
			}
			return nil, persistError(ctx, logger, "Decrement stock", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, persistError(ctx, logger, "Commit", err)
	}

	// the sale is durable; cart/cache cleanup is best effort
	if _, err := ClearCart(ctx); err != nil {
		config.LogError(logger, "salesInvoice.go", "CreateSalesInvoice", "ClearCart", sessionId, err)
	}
	invalidateProductCache(shopId)

	return &invoice, nil
}

func persistError(ctx context.Context, logger *logrus.Logger, step string, err error) error {
	config.LogError(logger, "salesInvoice.go", "CreateSalesInvoice", step, nil, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrorPersistTimeout
	}
	return ErrorPersistFailed
}

func GetSalesInvoice(ctx context.Context, id int) (*SalesInvoice, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	return utils.FetchModel[SalesInvoice](ctx, shopId, id, "Lines")
}

func ListSalesInvoices(ctx context.Context, saleDate string) ([]*SalesInvoice, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	dbCtx := db.WithContext(ctx).Where("shop_id = ?", shopId)
	if saleDate != "" {
		dbCtx = dbCtx.Where("sale_date = ?", saleDate)
	}

	var invoices []*SalesInvoice
	if err := dbCtx.Preload("Lines").Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
