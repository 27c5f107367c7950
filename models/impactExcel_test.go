package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildImpactWorkbook(t *testing.T) {
	promotion := &ImpactReport{
		ClientId:     "store-1",
		Year:         2026,
		Type:         MetricTypePromotionalSales,
		TotalBenefit: decimal.RequireFromString("150.00"),
		MonthlyBreakdown: []MonthlyImpact{
			{Month: 3, BenefitAmount: decimal.RequireFromString("150.00"), ItemsCount: 2},
		},
	}
	order := &ImpactReport{
		ClientId: "store-1",
		Year:     2026,
		Type:     MetricTypeStockoutPrevention,
	}

	f, err := buildImpactWorkbook(promotion, order)
	if err != nil {
		t.Fatalf("buildImpactWorkbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "PromotionalSales" || sheets[1] != "StockoutPrevention" {
		t.Fatalf("unexpected sheet list %v", sheets)
	}

	benefit, err := f.GetCellValue("PromotionalSales", "C2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if benefit != "150.00" {
		t.Fatalf("expected benefit 150.00 in C2, got %q", benefit)
	}

	label, _ := f.GetCellValue("PromotionalSales", "B3")
	if label != "Total" {
		t.Fatalf("expected total row label in B3, got %q", label)
	}
	total, _ := f.GetCellValue("StockoutPrevention", "C2")
	if total != "0" {
		t.Fatalf("expected zero total for the empty report, got %q", total)
	}
}
