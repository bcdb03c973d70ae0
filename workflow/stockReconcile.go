// Package workflow holds maintenance flows that run outside the
// request path (ops binaries and internal endpoints).
package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/sirupsen/logrus"
)

// StockDriftRow reports one product whose cached stock no longer
// matches the last value its movement ledger recorded. Drift means
// something wrote Product.Stock outside the guarded paths (a manual
// DB fix, or a partially applied legacy sale migrated from the old
// system) and the product needs operator follow-up.
type StockDriftRow struct {
	ProductId   int    `json:"product_id"`
	Name        string `json:"name"`
	CachedStock int    `json:"cached_stock"`
	LedgerStock int    `json:"ledger_stock"`
}

// DetectStockDrift compares every product's stock cache against the
// newest movement row. Products without any recorded movement are
// skipped: their cache is the only record there is.
func DetectStockDrift(ctx context.Context, shopId string) ([]*StockDriftRow, error) {

	sql := `
SELECT
    products.id AS product_id,
    products.name,
    products.stock AS cached_stock,
    latest.new_stock AS ledger_stock
FROM
    products
    JOIN (
        SELECT product_id, MAX(id) AS movement_id
        FROM stock_movements
        WHERE shop_id = ?
        GROUP BY product_id
    ) last_movement ON last_movement.product_id = products.id
    JOIN stock_movements latest ON latest.id = last_movement.movement_id
WHERE
    products.shop_id = ? AND products.stock <> latest.new_stock;
`

	var rows []*StockDriftRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, shopId, shopId).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReportStockDrift runs drift detection for one shop and logs each
// drifted product. Returns models.ErrorStockDrift when any were found
// so callers can exit non-zero.
func ReportStockDrift(ctx context.Context, logger *logrus.Logger, shopId string) ([]*StockDriftRow, error) {
	rows, err := DetectStockDrift(ctx, shopId)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	for _, row := range rows {
		logger.WithFields(logrus.Fields{
			"module":      "workflow",
			"funcName":    "ReportStockDrift",
			"shopId":      shopId,
			"productId":   row.ProductId,
			"cachedStock": row.CachedStock,
			"ledgerStock": row.LedgerStock,
		}).Warn(fmt.Sprintf("stock drift on %q", row.Name))
	}
	return rows, models.ErrorStockDrift
}
