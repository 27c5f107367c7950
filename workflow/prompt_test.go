package workflow

import (
	"fmt"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
	"github.com/shopspring/decimal"
)

func manyProducts(n int) []signals.ProductSignal {
	products := make([]signals.ProductSignal, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, signals.ProductSignal{
			ProductId: fmt.Sprintf("prod-%02d", i),
			Name:      fmt.Sprintf("Product %02d", i),
			Category:  "General",
			Price:     decimal.NewFromInt(int64(10 + i)),
			Cost:      decimal.NewFromInt(int64(5 + i)),
		})
	}
	return products
}

func manyStock(n int) []signals.StockSignal {
	stock := make([]signals.StockSignal, 0, n)
	for i := 0; i < n; i++ {
		stock = append(stock, signals.StockSignal{
			ProductId: fmt.Sprintf("prod-%02d", i), ProductName: fmt.Sprintf("Product %02d", i),
			Quantity: i, ReorderPoint: 50,
		})
	}
	return stock
}

func manyHistory(n int) []signals.OrderHistorySignal {
	history := make([]signals.OrderHistorySignal, 0, n)
	for i := 0; i < n; i++ {
		history = append(history, signals.OrderHistorySignal{
			OrderId: fmt.Sprintf("order-%02d", i), ProductId: fmt.Sprintf("hist-%02d", i),
			Quantity: 1, TotalAmount: decimal.NewFromInt(int64(i)),
		})
	}
	return history
}

func TestBuildPromotionPromptDeterministic(t *testing.T) {
	products, stock, history := manyProducts(5), manyStock(5), manyHistory(5)

	first := BuildPromotionPrompt(products, stock, history)
	second := BuildPromotionPrompt(products, stock, history)
	if first != second {
		t.Fatal("identical input produced different prompts")
	}
	if first == "" {
		t.Fatal("empty prompt")
	}
}

func TestBuildPromotionPromptCaps(t *testing.T) {
	prompt := BuildPromotionPrompt(manyProducts(15), manyStock(15), manyHistory(25))

	if !strings.Contains(prompt, "prod-09") {
		t.Fatal("10th product missing from prompt")
	}
	// products and stock capped at 10, history at 20
	if strings.Contains(prompt, `"product_id":"prod-10"`) {
		t.Fatal("product beyond the cap leaked into the prompt")
	}
	if !strings.Contains(prompt, "order-19") {
		t.Fatal("20th history row missing from prompt")
	}
	if strings.Contains(prompt, "order-20") {
		t.Fatal("history row beyond the cap leaked into the prompt")
	}
}

func TestPromptsDifferByTask(t *testing.T) {
	products, stock, history := manyProducts(3), manyStock(3), manyHistory(3)

	promotion := BuildPromotionPrompt(products, stock, history)
	replenishment := BuildReplenishmentPrompt(products, stock, history)
	if promotion == replenishment {
		t.Fatal("promotion and replenishment prompts must differ")
	}
}

func TestBuildPromptsEmptyInput(t *testing.T) {
	promotion := BuildPromotionPrompt(nil, nil, nil)
	if promotion == "" {
		t.Fatal("prompt must still render with no signal rows")
	}
}
