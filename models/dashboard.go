package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// low-stock warning threshold used by the register grid and dashboard
const LowStockThreshold = 5

type DashboardSummary struct {
	TodaySalesTotal   decimal.Decimal `json:"today_sales_total"`
	TodayProfit       decimal.Decimal `json:"today_profit"`
	TodayInvoiceCount int64           `json:"today_invoice_count"`
	TodayExpenseTotal decimal.Decimal `json:"today_expense_total"`
	LowStockCount     int64           `json:"low_stock_count"`
}

// GetDashboardSummary aggregates today's activity for the active shop.
func GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	today := time.Now().Format("2006-01-02")
	var summary DashboardSummary

	type salesRow struct {
		Total        decimal.Decimal
		Profit       decimal.Decimal
		InvoiceCount int64
	}
	var sales salesRow
	err := db.WithContext(ctx).Model(&SalesInvoice{}).
		Select("COALESCE(SUM(grand_total), 0) AS total, COALESCE(SUM(total_profit), 0) AS profit, COUNT(id) AS invoice_count").
		Where("shop_id = ? AND sale_date = ?", shopId, today).
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	summary.TodaySalesTotal = sales.Total
	summary.TodayProfit = sales.Profit
	summary.TodayInvoiceCount = sales.InvoiceCount

	dayStart, dayEnd := utils.GetTodayRange()
	var expenseTotal decimal.NullDecimal
	err = db.WithContext(ctx).Model(&Expense{}).
		Select("SUM(amount)").
		Where("shop_id = ? AND expense_date >= ? AND expense_date < ?", shopId, dayStart, dayEnd).
		Scan(&expenseTotal).Error
	if err != nil {
		return nil, err
	}
	if expenseTotal.Valid {
		summary.TodayExpenseTotal = expenseTotal.Decimal
	}

	lowStockCount, err := utils.ResourceCountWhere[Product](ctx, shopId, "stock < ?", LowStockThreshold)
	if err != nil {
		return nil, err
	}
	summary.LowStockCount = lowStockCount

	return &summary, nil
}
