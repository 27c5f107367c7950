package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/shopspring/decimal"
)

// MonthlyImpact is one month's bucket of an impact report. Months with no
// contributing records do not appear at all.
type MonthlyImpact struct {
	Month         int             `json:"month"`
	BenefitAmount decimal.Decimal `json:"benefit_amount"`
	ItemsCount    int             `json:"items_count"`
}

// ImpactReport is the financial attribution for one client, year and metric
// type. TotalBenefit always equals the sum of the monthly amounts; both are
// derived from the same rows in one pass.
type ImpactReport struct {
	ClientId         string          `json:"client_id"`
	Year             int             `json:"year"`
	Type             MetricType      `json:"type"`
	TotalBenefit     decimal.Decimal `json:"total_benefit"`
	MonthlyBreakdown []MonthlyImpact `json:"monthly_breakdown"`
}

// BuildPromotionImpact groups promotion outcomes into monthly promotional-sales
// buckets. Outcomes outside the year are skipped; the caller may pass an
// unfiltered slice.
func BuildPromotionImpact(clientId string, year int, outcomes []PromotionOutcome) *ImpactReport {
	report := &ImpactReport{
		ClientId: clientId,
		Year:     year,
		Type:     MetricTypePromotionalSales,
	}

	byMonth := map[int]*MonthlyImpact{}
	for _, outcome := range outcomes {
		analysisDate := outcome.AnalysisDate.UTC()
		if analysisDate.Year() != year {
			continue
		}
		month := int(analysisDate.Month())
		bucket := byMonth[month]
		if bucket == nil {
			bucket = &MonthlyImpact{Month: month}
			byMonth[month] = bucket
		}
		bucket.BenefitAmount = bucket.BenefitAmount.Add(outcome.ActualSalesIncrease)
		bucket.ItemsCount++
	}

	report.MonthlyBreakdown, report.TotalBenefit = flattenMonthly(byMonth)
	return report
}

// BuildOrderImpact groups applied order suggestions into monthly
// stockout-prevention buckets. Attribution follows AppliedAt: the benefit lands
// in the month the order was applied, not the month it was drafted. The
// benefit per order is the estimated cost of the stock it secured.
func BuildOrderImpact(clientId string, year int, orders []*OrderSuggestion) *ImpactReport {
	report := &ImpactReport{
		ClientId: clientId,
		Year:     year,
		Type:     MetricTypeStockoutPrevention,
	}

	byMonth := map[int]*MonthlyImpact{}
	for _, order := range orders {
		if order.Status != SuggestionStatusApplied || order.AppliedAt == nil {
			continue
		}
		appliedAt := order.AppliedAt.UTC()
		if appliedAt.Year() != year {
			continue
		}
		month := int(appliedAt.Month())
		bucket := byMonth[month]
		if bucket == nil {
			bucket = &MonthlyImpact{Month: month}
			byMonth[month] = bucket
		}
		bucket.BenefitAmount = bucket.BenefitAmount.Add(SumEstimatedCost(order.Items))
		bucket.ItemsCount++
	}

	report.MonthlyBreakdown, report.TotalBenefit = flattenMonthly(byMonth)
	return report
}

func flattenMonthly(byMonth map[int]*MonthlyImpact) ([]MonthlyImpact, decimal.Decimal) {
	months := make([]int, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Ints(months)

	var total decimal.Decimal
	breakdown := make([]MonthlyImpact, 0, len(months))
	for _, month := range months {
		bucket := byMonth[month]
		breakdown = append(breakdown, *bucket)
		total = total.Add(bucket.BenefitAmount)
	}
	return breakdown, total
}

func impactCacheKey(clientId string, year int, metricType MetricType) string {
	return fmt.Sprintf("impact:%s:%d:%s", clientId, year, metricType)
}

// GetPromotionImpact serves the promotional-sales report for the year,
// cache-first with a short TTL.
func GetPromotionImpact(ctx context.Context, year int) (*ImpactReport, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := validateImpactYear(year); err != nil {
		return nil, err
	}

	cacheKey := impactCacheKey(clientId, year, MetricTypePromotionalSales)
	if config.ImpactCacheEnabled() {
		var cached ImpactReport
		if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	db := config.GetDB()
	var outcomes []PromotionOutcome
	err := db.WithContext(ctx).
		Where("client_id = ? AND analysis_date >= ? AND analysis_date < ?",
			clientId, yearStart(year), yearStart(year+1)).
		Find(&outcomes).Error
	if err != nil {
		return nil, err
	}

	report := BuildPromotionImpact(clientId, year, outcomes)
	cacheImpactReport(cacheKey, report)
	return report, nil
}

// GetOrderImpact serves the stockout-prevention report for the year.
func GetOrderImpact(ctx context.Context, year int) (*ImpactReport, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}
	if err := validateImpactYear(year); err != nil {
		return nil, err
	}

	cacheKey := impactCacheKey(clientId, year, MetricTypeStockoutPrevention)
	if config.ImpactCacheEnabled() {
		var cached ImpactReport
		if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	db := config.GetDB()
	var orders []*OrderSuggestion
	err := db.WithContext(ctx).Preload("Items").
		Where("client_id = ? AND status = ? AND applied_at >= ? AND applied_at < ?",
			clientId, SuggestionStatusApplied, yearStart(year), yearStart(year+1)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	report := BuildOrderImpact(clientId, year, orders)
	cacheImpactReport(cacheKey, report)
	return report, nil
}

func cacheImpactReport(key string, report *ImpactReport) {
	if !config.ImpactCacheEnabled() {
		return
	}
	if err := config.SetRedisObject(key, report, config.ImpactCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "models", "cacheImpactReport", key, nil, err)
	}
}

func validateImpactYear(year int) error {
	if year < 2000 || year > 2100 {
		return fmt.Errorf("invalid report year %d", year)
	}
	return nil
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
