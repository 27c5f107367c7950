package signals

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type failingSource struct{}

func (failingSource) GetProducts(ctx context.Context, clientId string) ([]ProductSignal, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) GetStock(ctx context.Context, clientId string) ([]StockSignal, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) GetOrderHistory(ctx context.Context, clientId string) ([]OrderHistorySignal, error) {
	return nil, errors.New("connection refused")
}

type emptySource struct{ failingSource }

func (emptySource) GetProducts(ctx context.Context, clientId string) ([]ProductSignal, error) {
	return []ProductSignal{}, nil
}

func TestGatewayFallbackOnError(t *testing.T) {
	g := NewGateway(failingSource{})
	ctx := context.Background()

	products := g.FetchProducts(ctx, "store-1")
	if len(products) == 0 {
		t.Fatal("fallback products must not be empty")
	}
	if products[0].ProductId != "sample-1" {
		t.Fatalf("expected fixed sample identity, got %q", products[0].ProductId)
	}

	stock := g.FetchStock(ctx, "store-1")
	if len(stock) == 0 {
		t.Fatal("fallback stock must not be empty")
	}
	var belowReorder bool
	for _, s := range stock {
		if s.Quantity < s.ReorderPoint {
			belowReorder = true
		}
	}
	if !belowReorder {
		t.Fatal("fallback stock must keep the replenishment path exercisable")
	}

	history := g.FetchOrderHistory(ctx, "store-1")
	if len(history) == 0 {
		t.Fatal("fallback history must not be empty")
	}
}

func TestGatewayFallbackOnEmpty(t *testing.T) {
	g := NewGateway(emptySource{})

	products := g.FetchProducts(context.Background(), "store-1")
	if len(products) == 0 {
		t.Fatal("empty upstream response must degrade to the fallback dataset")
	}
}

func TestGatewayPassesThroughUpstreamData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("clientId") != "store-1" {
			http.Error(w, "missing client", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"product_id":"real-1","name":"Real Product","category":"Food","price":"3.50","cost":"1.25"}]`))
	}))
	defer srv.Close()

	t.Setenv("SIGNAL_API_BASE_URL", srv.URL)
	g := NewGateway(NewHTTPSource())

	products := g.FetchProducts(context.Background(), "store-1")
	if len(products) != 1 || products[0].ProductId != "real-1" {
		t.Fatalf("expected upstream product, got %+v", products)
	}
}
