package signals

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Gateway wraps a Source with the fail-open policy: suggestion generation must
// proceed even when the upstream signal source is degraded, so fetches never
// surface an error and never return an empty collection. The fallback rows use
// fixed "sample-" identities so degraded mode is detectable from output.
type Gateway struct {
	src Source
}

func NewGateway(src Source) *Gateway {
	return &Gateway{src: src}
}

func (g *Gateway) FetchProducts(ctx context.Context, clientId string) []ProductSignal {
	products, err := g.src.GetProducts(ctx, clientId)
	if err != nil || len(products) == 0 {
		g.logFallback(clientId, "products", err)
		return FallbackProducts()
	}
	return products
}

func (g *Gateway) FetchStock(ctx context.Context, clientId string) []StockSignal {
	stock, err := g.src.GetStock(ctx, clientId)
	if err != nil || len(stock) == 0 {
		g.logFallback(clientId, "stock", err)
		return FallbackStock()
	}
	return stock
}

func (g *Gateway) FetchOrderHistory(ctx context.Context, clientId string) []OrderHistorySignal {
	history, err := g.src.GetOrderHistory(ctx, clientId)
	if err != nil || len(history) == 0 {
		g.logFallback(clientId, "order_history", err)
		return FallbackOrderHistory()
	}
	return history
}

func (g *Gateway) logFallback(clientId string, dataset string, err error) {
	fields := logrus.Fields{
		"module":    "signals",
		"client_id": clientId,
		"dataset":   dataset,
		"degraded":  true,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	config.GetLogger().WithFields(fields).Warn("signal source unavailable; using fallback dataset")
}

// FallbackProducts returns the fixed degraded-mode catalog.
func FallbackProducts() []ProductSignal {
	return []ProductSignal{
		{
			ProductId: "sample-1",
			Name:      "Sample Product 1",
			Category:  "Electronics",
			Price:     decimal.RequireFromString("199.99"),
			Cost:      decimal.RequireFromString("120.00"),
		},
		{
			ProductId: "sample-2",
			Name:      "Sample Product 2",
			Category:  "Accessories",
			Price:     decimal.RequireFromString("49.99"),
			Cost:      decimal.RequireFromString("25.00"),
		},
	}
}

// FallbackStock returns the fixed degraded-mode stock rows. sample-1 sits below
// its reorder point on purpose so the replenishment path stays exercisable.
func FallbackStock() []StockSignal {
	return []StockSignal{
		{ProductId: "sample-1", ProductName: "Sample Product 1", Quantity: 25, ReorderPoint: 50, Location: "Warehouse A"},
		{ProductId: "sample-2", ProductName: "Sample Product 2", Quantity: 100, ReorderPoint: 30, Location: "Warehouse A"},
	}
}

// FallbackOrderHistory returns fixed degraded-mode sales rows.
func FallbackOrderHistory() []OrderHistorySignal {
	now := time.Now().UTC()
	return []OrderHistorySignal{
		{OrderId: "sample-order-1", OrderDate: now.AddDate(0, 0, -7), ProductId: "sample-1", Quantity: 5, TotalAmount: decimal.RequireFromString("999.95")},
		{OrderId: "sample-order-2", OrderDate: now.AddDate(0, 0, -14), ProductId: "sample-2", Quantity: 10, TotalAmount: decimal.RequireFromString("499.90")},
	}
}
