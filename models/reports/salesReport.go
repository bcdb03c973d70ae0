package reports

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesSummaryRow struct {
	SaleDate      string          `json:"sale_date"`
	InvoiceCount  int64           `json:"invoice_count"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
}

type SalesSummaryResponse struct {
	FromDate      string             `json:"from_date"`
	ToDate        string             `json:"to_date"`
	InvoiceCount  int64              `json:"invoice_count"`
	TotalSales    decimal.Decimal    `json:"total_sales"`
	TotalDiscount decimal.Decimal    `json:"total_discount"`
	TotalProfit   decimal.Decimal    `json:"total_profit"`
	Rows          []*SalesSummaryRow `json:"rows"`
}

// GetSalesSummaryReport aggregates finalized sales per day over an
// inclusive sale-date range for the active shop.
func GetSalesSummaryReport(ctx context.Context, fromDate string, toDate string) (*SalesSummaryResponse, error) {

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	sql := `
SELECT
    sale_date,
    COUNT(id) AS invoice_count,
    SUM(grand_total) AS total_sales,
    SUM(discount_amount) AS total_discount,
    SUM(total_profit) AS total_profit
FROM
    sales_invoices
WHERE
    shop_id = ? AND sale_date >= ? AND sale_date <= ?
GROUP BY
    sale_date
ORDER BY
    sale_date;
`

	var rows []*SalesSummaryRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, shopId, fromDate, toDate).Scan(&rows).Error; err != nil {
		return nil, err
	}

	response := SalesSummaryResponse{
		FromDate: fromDate,
		ToDate:   toDate,
		Rows:     rows,
	}
	for _, row := range rows {
		response.InvoiceCount += row.InvoiceCount
		response.TotalSales = response.TotalSales.Add(row.TotalSales)
		response.TotalDiscount = response.TotalDiscount.Add(row.TotalDiscount)
		response.TotalProfit = response.TotalProfit.Add(row.TotalProfit)
	}

	return &response, nil
}
