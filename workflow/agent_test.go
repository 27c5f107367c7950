package workflow

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
)

type stubCompleter struct {
	text string
	err  error
}

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

type downSource struct{}

func (downSource) GetProducts(ctx context.Context, clientId string) ([]signals.ProductSignal, error) {
	return nil, errors.New("down")
}

func (downSource) GetStock(ctx context.Context, clientId string) ([]signals.StockSignal, error) {
	return nil, errors.New("down")
}

func (downSource) GetOrderHistory(ctx context.Context, clientId string) ([]signals.OrderHistorySignal, error) {
	return nil, errors.New("down")
}

func TestSynthesizeDegradesToEmptyText(t *testing.T) {
	t.Setenv("SYNTHESIZER_ENABLED", "true")

	a := NewAgent(signals.NewGateway(downSource{}), stubCompleter{err: errors.New("api down")})
	if got := a.synthesize(context.Background(), "store-1", "promotion", "prompt"); got != "" {
		t.Fatalf("expected empty text on failure, got %q", got)
	}
}

func TestSynthesizeDisabledWithoutCompleter(t *testing.T) {
	a := NewAgent(signals.NewGateway(downSource{}), nil)
	if got := a.synthesize(context.Background(), "store-1", "promotion", "prompt"); got != "" {
		t.Fatalf("expected empty text without a completer, got %q", got)
	}
}

func TestSynthesizePassesThroughText(t *testing.T) {
	t.Setenv("SYNTHESIZER_ENABLED", "true")

	a := NewAgent(signals.NewGateway(downSource{}), stubCompleter{text: "a 22% lift"})
	if got := a.synthesize(context.Background(), "store-1", "promotion", "prompt"); got != "a 22% lift" {
		t.Fatalf("unexpected text %q", got)
	}
}

// Even with an unreachable upstream, a full signal snapshot comes back: the
// pipeline must always have something to generate from.
func TestFetchSignalsNeverEmpty(t *testing.T) {
	a := NewAgent(signals.NewGateway(downSource{}), nil)

	snapshot := a.fetchSignals(context.Background(), "store-1")
	if len(snapshot.products) == 0 || len(snapshot.stock) == 0 || len(snapshot.history) == 0 {
		t.Fatalf("degraded snapshot must stay non-empty: %d products, %d stock, %d history",
			len(snapshot.products), len(snapshot.stock), len(snapshot.history))
	}
}

func TestRunAgentsRejectMalformedIdentity(t *testing.T) {
	a := NewAgent(signals.NewGateway(downSource{}), nil)

	if _, err := a.RunPromotionAgent(context.Background(), "bad id!"); err == nil {
		t.Fatal("expected malformed identity error")
	}
	if _, err := a.RunReplenishmentAgent(context.Background(), ""); err == nil {
		t.Fatal("expected malformed identity error")
	}
}
