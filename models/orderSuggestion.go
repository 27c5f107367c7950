package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/shopspring/decimal"
)

type OrderSuggestion struct {
	ID       int              `gorm:"primary_key" json:"id"`
	ClientId string           `gorm:"index;size:64;not null" json:"client_id"`
	Status   SuggestionStatus `gorm:"type:enum('Draft','Approved','Rejected','Applied');not null;default:'Draft'" json:"status"`
	// Always recomputed from the items, never taken from input.
	TotalEstimatedCost decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total_estimated_cost"`
	CreatedByAI        *bool                 `gorm:"not null;default:false" json:"created_by_ai"`
	Items              []OrderSuggestionItem `json:"items"`
	AppliedAt          *time.Time            `gorm:"default:null" json:"applied_at"`
	CreatedAt          time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderSuggestionItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	OrderSuggestionId int             `gorm:"index;not null" json:"order_suggestion_id"`
	ProductId         string          `gorm:"size:64;not null" json:"product_id"`
	ProductName       string          `gorm:"size:255;not null" json:"product_name"`
	SuggestedQuantity int             `gorm:"not null" json:"suggested_quantity"`
	CurrentStock      int             `gorm:"not null;default:0" json:"current_stock"`
	ReorderPoint      int             `gorm:"not null;default:0" json:"reorder_point"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	Justification     string          `gorm:"type:text;default:null" json:"justification"`
}

// EstimatedCost is the line contribution to the order total.
func (item OrderSuggestionItem) EstimatedCost() decimal.Decimal {
	return item.UnitCost.Mul(decimal.NewFromInt(int64(item.SuggestedQuantity)))
}

// SumEstimatedCost recomputes the order total from its items.
func SumEstimatedCost(items []OrderSuggestionItem) decimal.Decimal {
	var total decimal.Decimal
	for _, item := range items {
		total = total.Add(item.EstimatedCost())
	}
	return total
}

func (os *OrderSuggestion) validate() error {
	if err := utils.ValidateIdentity(os.ClientId); err != nil {
		return err
	}
	for _, item := range os.Items {
		if err := utils.ValidateIdentity(item.ProductId); err != nil {
			return err
		}
		if item.SuggestedQuantity <= 0 {
			return errors.New("suggested quantity must be positive")
		}
	}
	return nil
}

// CreateOrderSuggestion persists a parser-produced aggregate as Draft. The
// stored total is recomputed from the items; any caller-supplied total is
// discarded.
func CreateOrderSuggestion(ctx context.Context, os *OrderSuggestion) (*OrderSuggestion, error) {
	if err := os.validate(); err != nil {
		return nil, err
	}

	os.ID = 0
	os.Status = SuggestionStatusDraft
	os.AppliedAt = nil
	os.TotalEstimatedCost = SumEstimatedCost(os.Items)
	if os.CreatedByAI == nil {
		os.CreatedByAI = utils.NewFalse()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(os).Error; err != nil {
		return nil, err
	}

	publishLifecycleEvent(ctx, "order", os.ID, os.ClientId, "", os.Status)
	return os, nil
}

func GetOrderSuggestion(ctx context.Context, id int) (*OrderSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	return utils.FetchModel[OrderSuggestion](ctx, clientId, id, "Items")
}

func GetOrderSuggestions(ctx context.Context, status *SuggestionStatus, limit *int) ([]*OrderSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	db := config.GetDB()
	var results []*OrderSuggestion

	dbCtx := db.WithContext(ctx).Preload("Items").Where("client_id = ?", clientId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if limit != nil && *limit > 0 {
		dbCtx = dbCtx.Limit(*limit)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatusOrderSuggestion moves an order suggestion through its lifecycle.
// Applying stamps AppliedAt; stockout-prevention impact is attributed to that
// month, not the creation month.
func UpdateStatusOrderSuggestion(ctx context.Context, id int, status SuggestionStatus) (*OrderSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	os, err := utils.FetchModel[OrderSuggestion](ctx, clientId, id, "Items")
	if err != nil {
		return nil, err
	}

	if !os.Status.CanTransition(status) {
		return nil, utils.ErrorInvalidTransition
	}

	oldStatus := os.Status

	db := config.GetDB()
	tx := db.Begin()
	updates := map[string]interface{}{"status": status}
	if status == SuggestionStatusApplied {
		now := time.Now().UTC()
		os.AppliedAt = &now
		updates["applied_at"] = now
	}
	if err := tx.WithContext(ctx).Model(&os).UpdateColumns(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	os.Status = status

	publishLifecycleEvent(ctx, "order", os.ID, os.ClientId, oldStatus, status)
	return os, nil
}

func DeleteOrderSuggestion(ctx context.Context, id int) (*OrderSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	os, err := utils.FetchModel[OrderSuggestion](ctx, clientId, id, "Items")
	if err != nil {
		return nil, err
	}

	if os.Status == SuggestionStatusApplied {
		return nil, errors.New("cannot delete an order suggestion that is already applied")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&os).Association("Items").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&os).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return os, nil
}
