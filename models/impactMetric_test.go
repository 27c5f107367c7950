package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"github.com/shopspring/decimal"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestBuildPromotionImpact(t *testing.T) {
	outcomes := []models.PromotionOutcome{
		{ClientId: "store-1", PromotionSuggestionId: 1, ActualSalesIncrease: decimal.RequireFromString("100.50"), AnalysisDate: date(2026, time.March, 5)},
		{ClientId: "store-1", PromotionSuggestionId: 2, ActualSalesIncrease: decimal.RequireFromString("49.50"), AnalysisDate: date(2026, time.March, 20)},
		{ClientId: "store-1", PromotionSuggestionId: 3, ActualSalesIncrease: decimal.RequireFromString("200.00"), AnalysisDate: date(2026, time.July, 1)},
		// outside the requested year, must be skipped
		{ClientId: "store-1", PromotionSuggestionId: 4, ActualSalesIncrease: decimal.RequireFromString("999.00"), AnalysisDate: date(2025, time.March, 5)},
	}

	report := models.BuildPromotionImpact("store-1", 2026, outcomes)

	if report.Type != models.MetricTypePromotionalSales {
		t.Fatalf("unexpected metric type %q", report.Type)
	}
	if len(report.MonthlyBreakdown) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(report.MonthlyBreakdown))
	}

	march := report.MonthlyBreakdown[0]
	if march.Month != 3 || !march.BenefitAmount.Equal(decimal.RequireFromString("150.00")) || march.ItemsCount != 2 {
		t.Fatalf("unexpected march bucket: %+v", march)
	}
	july := report.MonthlyBreakdown[1]
	if july.Month != 7 || !july.BenefitAmount.Equal(decimal.RequireFromString("200.00")) || july.ItemsCount != 1 {
		t.Fatalf("unexpected july bucket: %+v", july)
	}

	var sum decimal.Decimal
	for _, m := range report.MonthlyBreakdown {
		sum = sum.Add(m.BenefitAmount)
	}
	if !report.TotalBenefit.Equal(sum) {
		t.Fatalf("total %s != monthly sum %s", report.TotalBenefit, sum)
	}
}

func TestBuildPromotionImpactEmpty(t *testing.T) {
	report := models.BuildPromotionImpact("store-1", 2026, nil)
	if len(report.MonthlyBreakdown) != 0 {
		t.Fatalf("expected no buckets, got %d", len(report.MonthlyBreakdown))
	}
	if !report.TotalBenefit.IsZero() {
		t.Fatalf("expected zero total, got %s", report.TotalBenefit)
	}
}

func appliedOrder(appliedAt time.Time, items ...models.OrderSuggestionItem) *models.OrderSuggestion {
	return &models.OrderSuggestion{
		ClientId:  "store-1",
		Status:    models.SuggestionStatusApplied,
		AppliedAt: &appliedAt,
		Items:     items,
	}
}

func TestBuildOrderImpact(t *testing.T) {
	jan := date(2026, time.January, 10)
	may := date(2026, time.May, 2)
	draftCreated := date(2026, time.January, 3)

	orders := []*models.OrderSuggestion{
		appliedOrder(jan,
			models.OrderSuggestionItem{ProductId: "p1", SuggestedQuantity: 75, UnitCost: decimal.RequireFromString("120.00")},
			models.OrderSuggestionItem{ProductId: "p2", SuggestedQuantity: 10, UnitCost: decimal.RequireFromString("25.00")},
		),
		appliedOrder(may,
			models.OrderSuggestionItem{ProductId: "p1", SuggestedQuantity: 52, UnitCost: decimal.RequireFromString("120.00")},
		),
		// Draft never counts, whatever its creation date
		{ClientId: "store-1", Status: models.SuggestionStatusDraft, CreatedAt: draftCreated,
			Items: []models.OrderSuggestionItem{{ProductId: "p3", SuggestedQuantity: 10, UnitCost: decimal.RequireFromString("9.99")}}},
	}

	report := models.BuildOrderImpact("store-1", 2026, orders)

	if report.Type != models.MetricTypeStockoutPrevention {
		t.Fatalf("unexpected metric type %q", report.Type)
	}
	if len(report.MonthlyBreakdown) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(report.MonthlyBreakdown))
	}

	// 75*120 + 10*25 = 9250
	janBucket := report.MonthlyBreakdown[0]
	if janBucket.Month != 1 || !janBucket.BenefitAmount.Equal(decimal.RequireFromString("9250.00")) || janBucket.ItemsCount != 1 {
		t.Fatalf("unexpected january bucket: %+v", janBucket)
	}
	// 52*120 = 6240
	mayBucket := report.MonthlyBreakdown[1]
	if mayBucket.Month != 5 || !mayBucket.BenefitAmount.Equal(decimal.RequireFromString("6240.00")) {
		t.Fatalf("unexpected may bucket: %+v", mayBucket)
	}

	var sum decimal.Decimal
	for _, m := range report.MonthlyBreakdown {
		sum = sum.Add(m.BenefitAmount)
	}
	if !report.TotalBenefit.Equal(sum) {
		t.Fatalf("total %s != monthly sum %s", report.TotalBenefit, sum)
	}
}

// Attribution follows the applied month, not the month the draft was created.
func TestBuildOrderImpactUsesAppliedMonth(t *testing.T) {
	appliedAt := date(2026, time.April, 1)
	order := appliedOrder(appliedAt, models.OrderSuggestionItem{ProductId: "p1", SuggestedQuantity: 10, UnitCost: decimal.RequireFromString("5.00")})
	order.CreatedAt = date(2026, time.February, 15)

	report := models.BuildOrderImpact("store-1", 2026, []*models.OrderSuggestion{order})
	if len(report.MonthlyBreakdown) != 1 || report.MonthlyBreakdown[0].Month != 4 {
		t.Fatalf("expected single april bucket, got %+v", report.MonthlyBreakdown)
	}
}

func TestSumEstimatedCost(t *testing.T) {
	items := []models.OrderSuggestionItem{
		{SuggestedQuantity: 75, UnitCost: decimal.RequireFromString("120.00")},
		{SuggestedQuantity: 10, UnitCost: decimal.RequireFromString("25.00")},
		{SuggestedQuantity: 52, UnitCost: decimal.Zero},
	}
	got := models.SumEstimatedCost(items)
	if !got.Equal(decimal.RequireFromString("9250.00")) {
		t.Fatalf("SumEstimatedCost = %s, want 9250.00", got)
	}
}
