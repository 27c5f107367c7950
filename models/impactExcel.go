package models

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportImpactExcel renders both impact reports for the year into a workbook,
// one sheet per metric type. The handler streams the file to the caller.
func ExportImpactExcel(ctx context.Context, year int) (*excelize.File, error) {
	promotionReport, err := GetPromotionImpact(ctx, year)
	if err != nil {
		return nil, err
	}
	orderReport, err := GetOrderImpact(ctx, year)
	if err != nil {
		return nil, err
	}

	return buildImpactWorkbook(promotionReport, orderReport)
}

func buildImpactWorkbook(promotionReport, orderReport *ImpactReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeImpactSheet(f, "PromotionalSales", promotionReport); err != nil {
		return nil, err
	}
	if err := writeImpactSheet(f, "StockoutPrevention", orderReport); err != nil {
		return nil, err
	}
	// drop the default sheet
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	return f, nil
}

func writeImpactSheet(f *excelize.File, sheetName string, report *ImpactReport) error {
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "Year")
	f.SetCellValue(sheetName, "B1", "Month")
	f.SetCellValue(sheetName, "C1", "BenefitAmount")
	f.SetCellValue(sheetName, "D1", "ItemsCount")

	// Add data
	for i, m := range report.MonthlyBreakdown {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, report.Year)
		f.SetCellValue(sheetName, "B"+row, m.Month)
		f.SetCellValue(sheetName, "C"+row, m.BenefitAmount.String())
		f.SetCellValue(sheetName, "D"+row, m.ItemsCount)
	}

	totalRow := fmt.Sprint(len(report.MonthlyBreakdown) + 2)
	f.SetCellValue(sheetName, "B"+totalRow, "Total")
	f.SetCellValue(sheetName, "C"+totalRow, report.TotalBenefit.String())
	return nil
}
