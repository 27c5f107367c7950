package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
)

// Prompt size caps. The generation step only needs a representative slice of
// each dataset; identical inputs must compile to identical prompts.
const (
	maxPromptProducts = 10
	maxPromptStock    = 10
	maxPromptHistory  = 20
)

// BuildPromotionPrompt compiles signal data into the promotion-generation
// instruction. Pure and deterministic: no timestamps, no randomness.
func BuildPromotionPrompt(products []signals.ProductSignal, stock []signals.StockSignal, history []signals.OrderHistorySignal) string {
	var b strings.Builder
	b.WriteString("You are a retail promotion planner. Based on the product catalog, current stock and recent sales below, propose one promotion that pairs a lead product with a cross-sell product and estimate the expected sales increase as a percentage.\n\n")
	writePromptSection(&b, "Products", truncateProducts(products))
	writePromptSection(&b, "Stock", truncateStock(stock))
	writePromptSection(&b, "RecentOrders", truncateHistory(history))
	b.WriteString("\nRespond with a short name, a description, a justification, and the expected increase percent.")
	return b.String()
}

// BuildReplenishmentPrompt compiles signal data into the replenishment
// instruction. Same determinism rules as BuildPromotionPrompt.
func BuildReplenishmentPrompt(products []signals.ProductSignal, stock []signals.StockSignal, history []signals.OrderHistorySignal) string {
	var b strings.Builder
	b.WriteString("You are a retail replenishment planner. Based on the product catalog, current stock and recent sales below, identify which products are at risk of stocking out and justify reordering them.\n\n")
	writePromptSection(&b, "Products", truncateProducts(products))
	writePromptSection(&b, "Stock", truncateStock(stock))
	writePromptSection(&b, "RecentOrders", truncateHistory(history))
	b.WriteString("\nRespond with a justification per product that is below its reorder point.")
	return b.String()
}

func truncateProducts(products []signals.ProductSignal) []signals.ProductSignal {
	if len(products) > maxPromptProducts {
		return products[:maxPromptProducts]
	}
	return products
}

func truncateStock(stock []signals.StockSignal) []signals.StockSignal {
	if len(stock) > maxPromptStock {
		return stock[:maxPromptStock]
	}
	return stock
}

func truncateHistory(history []signals.OrderHistorySignal) []signals.OrderHistorySignal {
	if len(history) > maxPromptHistory {
		return history[:maxPromptHistory]
	}
	return history
}

func writePromptSection(b *strings.Builder, name string, rows interface{}) {
	// json.Marshal on these slices is deterministic: struct field order is
	// fixed and decimals marshal to stable strings.
	data, err := json.Marshal(rows)
	if err != nil {
		data = []byte("[]")
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", name, data)
}
