package workflow

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultExpectedIncreasePercent = 15
	primaryDiscountPercent         = 20
	attachmentDiscountPercent      = 5
	minOrderQuantity               = 10
	maxJustificationLength         = 2000
)

var percentPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)

// ParsePromotionSuggestion converts generated text plus the signal snapshot
// into a Draft promotion. The text only contributes the justification and the
// expected increase; line items always come from the product signals, never
// from product ids the generator may have invented. Empty or unusable text
// degrades to deterministic defaults, it never fails the run.
func ParsePromotionSuggestion(clientId string, rawText string, products []signals.ProductSignal) *models.PromotionSuggestion {
	items := promotionItems(products)

	name := "Promotion Suggestion"
	description := "Automatically generated promotion."
	if len(items) > 0 {
		name = fmt.Sprintf("Promote %s", items[0].ProductName)
		if len(items) > 1 {
			description = fmt.Sprintf("Discount %s with %s as an add-on.", items[0].ProductName, items[1].ProductName)
		} else {
			description = fmt.Sprintf("Discount %s to drive sales.", items[0].ProductName)
		}
	}

	expected := extractExpectedIncrease(rawText)

	return &models.PromotionSuggestion{
		ClientId:                clientId,
		Status:                  models.SuggestionStatusDraft,
		Name:                    name,
		Description:             description,
		JustificationAI:         extractJustification(rawText),
		ExpectedIncreasePercent: &expected,
		CreatedByAI:             utils.NewTrue(),
		Items:                   items,
	}
}

func promotionItems(products []signals.ProductSignal) []models.PromotionSuggestionItem {
	var items []models.PromotionSuggestionItem
	if len(products) > 0 {
		items = append(items, models.PromotionSuggestionItem{
			ProductId:       products[0].ProductId,
			ProductName:     products[0].Name,
			DiscountPercent: decimal.NewFromInt(primaryDiscountPercent),
			Role:            models.PromotionItemRolePrimary,
		})
	}
	if len(products) > 1 {
		items = append(items, models.PromotionSuggestionItem{
			ProductId:       products[1].ProductId,
			ProductName:     products[1].Name,
			DiscountPercent: decimal.NewFromInt(attachmentDiscountPercent),
			Role:            models.PromotionItemRoleAttachment,
		})
	}
	return items
}

// extractExpectedIncrease pulls the first percentage figure out of the text.
// Anything missing or outside 0-100 falls back to the default.
func extractExpectedIncrease(rawText string) decimal.Decimal {
	match := percentPattern.FindStringSubmatch(rawText)
	if match != nil {
		if value, err := utils.ParseDecimal(match[1]); err == nil {
			if !value.IsNegative() && value.LessThanOrEqual(decimal.NewFromInt(100)) {
				return value
			}
		}
	}
	return decimal.NewFromInt(defaultExpectedIncreasePercent)
}

func extractJustification(rawText string) string {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return "Generated from current product, stock and sales signals."
	}
	if len(text) > maxJustificationLength {
		cut := maxJustificationLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// suggestedQuantity refills to twice the reorder point, floored at the minimum
// order quantity.
func suggestedQuantity(quantity int, reorderPoint int) int {
	neededQty := reorderPoint*2 - quantity
	if neededQty < minOrderQuantity {
		return minOrderQuantity
	}
	return neededQty
}

// ParseOrderSuggestion converts the signal snapshot into a Draft replenishment
// order. Only stock rows strictly below their reorder point become line items.
// Sizing: refill to twice the reorder point, floored at the minimum order
// quantity. Unit costs join from the product signals by id; an unmatched id
// costs zero and is logged.
func ParseOrderSuggestion(clientId string, rawText string, products []signals.ProductSignal, stock []signals.StockSignal) *models.OrderSuggestion {
	costByProduct := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		costByProduct[p.ProductId] = p.Cost
	}

	var items []models.OrderSuggestionItem
	for _, s := range stock {
		if s.Quantity >= s.ReorderPoint {
			continue
		}

		unitCost, ok := costByProduct[s.ProductId]
		if !ok {
			config.GetLogger().WithFields(logrus.Fields{
				"module":     "workflow",
				"client_id":  clientId,
				"product_id": s.ProductId,
			}).Warn("stock row has no matching product signal; unit cost set to zero")
			unitCost = decimal.Zero
		}

		items = append(items, models.OrderSuggestionItem{
			ProductId:         s.ProductId,
			ProductName:       s.ProductName,
			SuggestedQuantity: suggestedQuantity(s.Quantity, s.ReorderPoint),
			CurrentStock:      s.Quantity,
			ReorderPoint:      s.ReorderPoint,
			UnitCost:          unitCost,
			Justification:     fmt.Sprintf("Stock at %d, below reorder point %d.", s.Quantity, s.ReorderPoint),
		})
	}

	order := &models.OrderSuggestion{
		ClientId:    clientId,
		Status:      models.SuggestionStatusDraft,
		CreatedByAI: utils.NewTrue(),
		Items:       items,
	}
	order.TotalEstimatedCost = models.SumEstimatedCost(items)
	return order
}
