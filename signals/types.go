package signals

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSignal is an immutable catalog snapshot row from the upstream signal
// source. Identities are opaque strings so numeric- and UUID-keyed upstreams
// both map cleanly.
type ProductSignal struct {
	ProductId string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
}

// StockSignal is an immutable on-hand snapshot row.
type StockSignal struct {
	ProductId    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	ReorderPoint int    `json:"reorder_point"`
	Location     string `json:"location"`
}

// OrderHistorySignal is an immutable sales-history row, used only as
// generation context. It is never persisted by this backend.
type OrderHistorySignal struct {
	OrderId     string          `json:"order_id"`
	OrderDate   time.Time       `json:"order_date"`
	ProductId   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
