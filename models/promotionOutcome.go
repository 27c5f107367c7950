package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/shopspring/decimal"
)

// PromotionOutcome is a measured result of an applied promotion. Outcomes are
// the facts behind promotional-sales attribution; a promotion can have several
// (one per analysis run).
type PromotionOutcome struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	ClientId              string          `gorm:"index;size:64;not null" json:"client_id"`
	PromotionSuggestionId int             `gorm:"index;not null" json:"promotion_suggestion_id"`
	ActualSalesIncrease   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_sales_increase"`
	TotalSalesDuringPromo decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sales_during_promo"`
	AnalysisDate          time.Time       `gorm:"index;not null" json:"analysis_date"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPromotionOutcome struct {
	ActualSalesIncrease   decimal.Decimal `json:"actual_sales_increase" binding:"required"`
	TotalSalesDuringPromo decimal.Decimal `json:"total_sales_during_promo"`
	AnalysisDate          *time.Time      `json:"analysis_date"`
}

// RecordPromotionOutcome attaches an outcome to an applied promotion. Only
// Applied promotions accumulate outcomes; anything else is rejected.
func RecordPromotionOutcome(ctx context.Context, promotionId int, input *NewPromotionOutcome) (*PromotionOutcome, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	ps, err := utils.FetchModel[PromotionSuggestion](ctx, clientId, promotionId)
	if err != nil {
		return nil, err
	}
	if ps.Status != SuggestionStatusApplied {
		return nil, errors.New("outcomes can only be recorded for applied promotions")
	}

	if input.ActualSalesIncrease.IsNegative() {
		return nil, errors.New("actual sales increase must not be negative")
	}

	analysisDate := time.Now().UTC()
	if input.AnalysisDate != nil {
		analysisDate = input.AnalysisDate.UTC()
	}

	outcome := PromotionOutcome{
		ClientId:              clientId,
		PromotionSuggestionId: ps.ID,
		ActualSalesIncrease:   input.ActualSalesIncrease,
		TotalSalesDuringPromo: input.TotalSalesDuringPromo,
		AnalysisDate:          analysisDate,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&outcome).Error; err != nil {
		return nil, err
	}
	return &outcome, nil
}
