package models_test

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"github.com/shopspring/decimal"
)

func TestCreatePromotionSuggestionRejectsNegativeIncrease(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	_, err := models.CreatePromotionSuggestion(context.Background(), &models.PromotionSuggestion{
		ClientId:                "store-1",
		Name:                    "Promote Widget",
		ExpectedIncreasePercent: &negative,
	})
	if err == nil {
		t.Fatal("expected an error for a negative expected increase")
	}
}

func TestCreatePromotionSuggestionAllowsNilIncrease(t *testing.T) {
	// nil percent must not trip the negative check; the malformed item id
	// stops the create before it reaches the database.
	_, err := models.CreatePromotionSuggestion(context.Background(), &models.PromotionSuggestion{
		ClientId: "store-1",
		Name:     "Promote Widget",
		Items:    []models.PromotionSuggestionItem{{ProductId: "bad id!", ProductName: "Widget"}},
	})
	if err == nil {
		t.Fatal("expected a malformed identity error")
	}
}
