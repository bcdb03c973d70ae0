package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildSalesSummaryExcel renders the sales summary as a spreadsheet;
// the HTTP layer streams it as an attachment.
func BuildSalesSummaryExcel(ctx context.Context, fromDate string, toDate string) (*excelize.File, error) {

	data, err := GetSalesSummaryReport(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"

	// Add headers
	f.SetCellValue(sheet, "A1", "SaleDate")
	f.SetCellValue(sheet, "B1", "InvoiceCount")
	f.SetCellValue(sheet, "C1", "Sales")
	f.SetCellValue(sheet, "D1", "Discount")
	f.SetCellValue(sheet, "E1", "Profit")

	// Add data
	for i, d := range data.Rows {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), d.SaleDate)
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), d.InvoiceCount)
		f.SetCellValue(sheet, "C"+fmt.Sprint(i+2), d.TotalSales.InexactFloat64())
		f.SetCellValue(sheet, "D"+fmt.Sprint(i+2), d.TotalDiscount.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(i+2), d.TotalProfit.InexactFloat64())
	}

	// Totals row
	totalRow := len(data.Rows) + 2
	f.SetCellValue(sheet, "A"+fmt.Sprint(totalRow), "Total")
	f.SetCellValue(sheet, "B"+fmt.Sprint(totalRow), data.InvoiceCount)
	f.SetCellValue(sheet, "C"+fmt.Sprint(totalRow), data.TotalSales.InexactFloat64())
	f.SetCellValue(sheet, "D"+fmt.Sprint(totalRow), data.TotalDiscount.InexactFloat64())
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), data.TotalProfit.InexactFloat64())

	return f, nil
}
