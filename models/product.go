package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const productListTTL = 30 * time.Minute

type Product struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ShopId    string          `gorm:"index;not null" json:"shop_id" binding:"required"`
	Name      string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Barcode   string          `gorm:"size:64;index" json:"barcode"`
	SellPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sell_price"`
	BuyPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"buy_price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	ImageUrl  string          `json:"image_url"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name      string          `json:"name" binding:"required"`
	Barcode   string          `json:"barcode"`
	SellPrice decimal.Decimal `json:"sell_price"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	Stock     int             `json:"stock"`
	ImageUrl  string          `json:"image_url"`
}

// StockMovement is the per-product ledger behind the stock cache.
// Every write to Product.Stock records the value it moved from and to,
// so drift introduced outside this code path can be detected later
// (cmd/stock-reconcile).
type StockMovement struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	ShopId         string              `gorm:"index;not null" json:"shop_id"`
	ProductId      int                 `gorm:"index;not null" json:"product_id"`
	SalesInvoiceId int                 `gorm:"index" json:"sales_invoice_id"`
	Reason         StockMovementReason `gorm:"type:enum('Sale', 'Adjustment');default:'Sale'" json:"reason"`
	Qty            int                 `gorm:"not null" json:"qty"`
	PreviousStock  int                 `gorm:"not null" json:"previous_stock"`
	NewStock       int                 `gorm:"not null" json:"new_stock"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func productListKey(shopId string) string {
	return "Products:" + shopId
}

func invalidateProductCache(shopId string) {
	if err := config.RemoveRedisKey(productListKey(shopId)); err != nil {
		config.LogError(config.GetLogger(), "product.go", "invalidateProductCache", "RemoveRedisKey", shopId, err)
	}
}

func (input *NewProduct) validate(ctx context.Context, shopId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, shopId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Product](ctx, shopId, "name", input.Name, id); err != nil {
		return err
	}
	// validate unique barcode
	if input.Barcode != "" {
		if err := utils.ValidateUnique[Product](ctx, shopId, "barcode", input.Barcode, id); err != nil {
			return err
		}
	}
	if input.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	if input.SellPrice.IsNegative() || input.BuyPrice.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, 0); err != nil {
		return nil, err
	}

	product := Product{
		ShopId:    shopId,
		Name:      input.Name,
		Barcode:   input.Barcode,
		SellPrice: input.SellPrice,
		BuyPrice:  input.BuyPrice,
		Stock:     input.Stock,
		ImageUrl:  input.ImageUrl,
		IsActive:  utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	invalidateProductCache(shopId)
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if input.Stock != product.Stock {
		movement := StockMovement{
			ShopId:        shopId,
			ProductId:     product.ID,
			Reason:        StockMovementReasonAdjustment,
			Qty:           input.Stock - product.Stock,
			PreviousStock: product.Stock,
			NewStock:      input.Stock,
		}
		if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	err = tx.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":      input.Name,
		"Barcode":   input.Barcode,
		"SellPrice": input.SellPrice,
		"BuyPrice":  input.BuyPrice,
		"Stock":     input.Stock,
		"ImageUrl":  input.ImageUrl,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invalidateProductCache(shopId)
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	product, err := utils.FetchModel[Product](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	// don't delete products referenced by invoices; deactivate instead
	count, err := utils.ResourceCountWhere[SalesInvoiceLine](ctx, shopId, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("product is used in invoices; deactivate it instead")
	}

	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}

	invalidateProductCache(shopId)
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	return utils.FetchModel[Product](ctx, shopId, id)
}

// ListProducts returns the shop's products, redis-cached. The POS page
// loads this once and treats it as its stock snapshot.
func ListProducts(ctx context.Context) ([]*Product, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	var products []*Product
	exists, err := config.GetRedisObject(productListKey(shopId), &products)
	if err != nil {
		return nil, err
	}
	if exists {
		return products, nil
	}

	products, err = utils.FetchAllModels[Product](ctx, shopId)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(productListKey(shopId), products, productListTTL); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts filters by name substring or exact barcode, capped at
// config.SearchLimit rows. Barcode scans hit the exact branch.
func SearchProducts(ctx context.Context, term string) ([]*Product, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	if term == "" {
		return []*Product{}, nil
	}

	var products []*Product
	err := db.WithContext(ctx).
		Where("shop_id = ?", shopId).
		Where("name LIKE ? OR barcode = ?", "%"+term+"%", term).
		Limit(config.SearchLimit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// decrementProductStock applies one sold line to the stock cache as a
// conditional write: the decrement only lands if enough stock is still
// on hand, which closes the oversell race between concurrent registers.
// Returns ErrorStockExceeded when the condition fails.
func decrementProductStock(tx *gorm.DB, ctx context.Context, shopId string, invoiceId int, line SalesInvoiceLine) error {

	result := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND shop_id = ? AND stock >= ?", line.ProductId, shopId, line.Qty).
		Update("stock", gorm.Expr("stock - ?", line.Qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrorStockExceeded, line.Name)
	}

	var product Product
	if err := tx.WithContext(ctx).Where("id = ? AND shop_id = ?", line.ProductId, shopId).First(&product).Error; err != nil {
		return err
	}

	movement := StockMovement{
		ShopId:         shopId,
		ProductId:      line.ProductId,
		SalesInvoiceId: invoiceId,
		Reason:         StockMovementReasonSale,
		Qty:            -line.Qty,
		PreviousStock:  product.Stock + line.Qty,
		NewStock:       product.Stock,
	}
	return tx.WithContext(ctx).Create(&movement).Error
}
