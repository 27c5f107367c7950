package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/shopspring/decimal"
)

type PromotionSuggestion struct {
	ID                      int                       `gorm:"primary_key" json:"id"`
	ClientId                string                    `gorm:"index;size:64;not null" json:"client_id"`
	Status                  SuggestionStatus          `gorm:"type:enum('Draft','Approved','Rejected','Applied');not null;default:'Draft'" json:"status"`
	Name                    string                    `gorm:"size:255;not null" json:"name"`
	Description             string                    `gorm:"type:text;default:null" json:"description"`
	JustificationAI         string                    `gorm:"type:text;default:null" json:"justification_ai"`
	ExpectedIncreasePercent *decimal.Decimal          `gorm:"type:decimal(20,4);default:null" json:"expected_increase_percent"`
	CreatedByAI             *bool                     `gorm:"not null;default:false" json:"created_by_ai"`
	Items                   []PromotionSuggestionItem `json:"items"`
	AppliedAt               *time.Time                `gorm:"default:null" json:"applied_at"`
	CreatedAt               time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

type PromotionSuggestionItem struct {
	ID                    int               `gorm:"primary_key" json:"id"`
	PromotionSuggestionId int               `gorm:"index;not null" json:"promotion_suggestion_id"`
	ProductId             string            `gorm:"size:64;not null" json:"product_id"`
	ProductName           string            `gorm:"size:255;not null" json:"product_name"`
	DiscountPercent       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	Role                  PromotionItemRole `gorm:"type:enum('primary','attachment');not null;default:'primary'" json:"role"`
}

func (ps *PromotionSuggestion) validate() error {
	if err := utils.ValidateIdentity(ps.ClientId); err != nil {
		return err
	}
	if ps.Name == "" {
		return errors.New("promotion name is required")
	}
	if utils.DereferencePtr(ps.ExpectedIncreasePercent).IsNegative() {
		return errors.New("expected increase percent must not be negative")
	}
	for _, item := range ps.Items {
		if err := utils.ValidateIdentity(item.ProductId); err != nil {
			return err
		}
	}
	return nil
}

// CreatePromotionSuggestion persists a parser-produced aggregate. Status is
// forced to Draft regardless of what the caller constructed.
func CreatePromotionSuggestion(ctx context.Context, ps *PromotionSuggestion) (*PromotionSuggestion, error) {
	if err := ps.validate(); err != nil {
		return nil, err
	}

	ps.ID = 0
	ps.Status = SuggestionStatusDraft
	ps.AppliedAt = nil
	if ps.CreatedByAI == nil {
		ps.CreatedByAI = utils.NewFalse()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(ps).Error; err != nil {
		return nil, err
	}

	publishLifecycleEvent(ctx, "promotion", ps.ID, ps.ClientId, "", ps.Status)
	return ps, nil
}

func GetPromotionSuggestion(ctx context.Context, id int) (*PromotionSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	return utils.FetchModel[PromotionSuggestion](ctx, clientId, id, "Items")
}

func GetPromotionSuggestions(ctx context.Context, status *SuggestionStatus, limit *int) ([]*PromotionSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	db := config.GetDB()
	var results []*PromotionSuggestion

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

// UpdateStatusPromotionSuggestion moves a promotion through its lifecycle.
// Disallowed moves return ErrorInvalidTransition with the record unchanged.
// Applying stamps AppliedAt, which is the attribution month for reporting.
func UpdateStatusPromotionSuggestion(ctx context.Context, id int, status SuggestionStatus) (*PromotionSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	ps, err := utils.FetchModel[PromotionSuggestion](ctx, clientId, id, "Items")
	if err != nil {
		return nil, err
	}

	if !ps.Status.CanTransition(status) {
		return nil, utils.ErrorInvalidTransition
	}
	if status == SuggestionStatusApproved && len(ps.Items) == 0 {
		return nil, errors.New("cannot approve a promotion with no items")
	}

	oldStatus := ps.Status

	db := config.GetDB()
	tx := db.Begin()
	updates := map[string]interface{}{"status": status}
	if status == SuggestionStatusApplied {
		now := time.Now().UTC()
		ps.AppliedAt = &now
		updates["applied_at"] = now
	}
	if err := tx.WithContext(ctx).Model(&ps).UpdateColumns(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	ps.Status = status

	publishLifecycleEvent(ctx, "promotion", ps.ID, ps.ClientId, oldStatus, status)
	return ps, nil
}

func DeletePromotionSuggestion(ctx context.Context, id int) (*PromotionSuggestion, error) {
	clientId, ok := utils.GetClientIdFromContext(ctx)
	if !ok || clientId == "" {
		return nil, errors.New("client id is required")
	}

	ps, err := utils.FetchModel[PromotionSuggestion](ctx, clientId, id, "Items")
	if err != nil {
		return nil, err
	}

	if ps.Status == SuggestionStatusApplied {
		return nil, errors.New("cannot delete a promotion that is already applied")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&ps).Association("Items").Unscoped().Clear(); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&ps).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return ps, nil
}

// publishLifecycleEvent emits a best-effort Pub/Sub event after the DB change
// committed. Publish failures are logged, never surfaced.
func publishLifecycleEvent(ctx context.Context, kind string, id int, clientId string, oldStatus, newStatus SuggestionStatus) {
	if !config.SuggestionEventsEnabled() {
		return
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.SuggestionEventMessage{
		ClientId:       clientId,
		SuggestionKind: kind,
		SuggestionId:   id,
		OldStatus:      string(oldStatus),
		NewStatus:      string(newStatus),
		OccurredAt:     time.Now().UTC(),
		CorrelationId:  correlationId,
	}
	if _, err := config.PublishSuggestionEvent(ctx, msg); err != nil {
		config.LogError(config.GetLogger(), "models", "publishLifecycleEvent", kind, msg, err)
	}
}
