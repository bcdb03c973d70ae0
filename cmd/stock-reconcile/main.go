// stock-reconcile compares each product's stock column against the ledger
// implied by its latest stock movement and reports any drift. Drift means
// a stock write happened outside checkout (manual SQL, partial restore)
// and the shop's counts need review before the next stocktake.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/stock-reconcile [--shop-id <uuid>]
//
// Without --shop-id, every active shop is checked. Exits non-zero when
// drift is found so it can run as a scheduled job with alerting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	shopID := flag.String("shop-id", "", "Optional: shop id (uuid). Default: all active shops")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	var shopIds []string
	if strings.TrimSpace(*shopID) != "" {
		shopIds = append(shopIds, strings.TrimSpace(*shopID))
	} else {
		if err := db.WithContext(ctx).Model(&models.Shop{}).
			Where("is_active = ?", true).
			Pluck("id", &shopIds).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to list shops: %v\n", err)
			os.Exit(1)
		}
	}

	drifted := 0
	for _, id := range shopIds {
		rows, err := workflow.ReportStockDrift(ctx, logger, id)
		if err != nil && !errors.Is(err, models.ErrorStockDrift) {
			fmt.Fprintf(os.Stderr, "shop %s: reconcile failed: %v\n", id, err)
			os.Exit(1)
		}
		if len(rows) > 0 {
			drifted += len(rows)
			fmt.Printf("shop %s: %d product(s) drifted\n", id, len(rows))
			for _, row := range rows {
				fmt.Printf("  product %d (%s): stock=%d ledger=%d\n", row.ProductId, row.Name, row.CachedStock, row.LedgerStock)
			}
		}
	}

	if drifted > 0 {
		fmt.Fprintf(os.Stderr, "stock drift detected: %d product(s) across %d shop(s) checked\n", drifted, len(shopIds))
		os.Exit(2)
	}
	fmt.Printf("no drift: %d shop(s) checked\n", len(shopIds))
}
