package workflow

import (
	"strings"
	"testing"
	"unicode/utf8"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []signals.ProductSignal {
	return []signals.ProductSignal{
		{ProductId: "p1", Name: "Widget", Category: "Electronics", Price: decimal.RequireFromString("199.99"), Cost: decimal.RequireFromString("120.00")},
		{ProductId: "p2", Name: "Cable", Category: "Accessories", Price: decimal.RequireFromString("49.99"), Cost: decimal.RequireFromString("25.00")},
	}
}

func TestSuggestedQuantity(t *testing.T) {
	cases := []struct {
		quantity     int
		reorderPoint int
		want         int
	}{
		{25, 50, 75},
		{48, 50, 52},
		{45, 20, 10}, // floor applies
		{0, 50, 100},
		{0, 5, 10}, // floor applies
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, suggestedQuantity(tc.quantity, tc.reorderPoint),
			"suggestedQuantity(%d, %d)", tc.quantity, tc.reorderPoint)
	}
}

func TestParsePromotionSuggestionEmptyText(t *testing.T) {
	got := ParsePromotionSuggestion("store-1", "", sampleProducts())

	if got.Status != models.SuggestionStatusDraft {
		t.Fatalf("status = %q, want Draft", got.Status)
	}
	if got.ExpectedIncreasePercent == nil || !got.ExpectedIncreasePercent.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected default 15%% increase, got %v", got.ExpectedIncreasePercent)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[0].Role != models.PromotionItemRolePrimary || got.Items[0].ProductId != "p1" {
		t.Fatalf("unexpected primary item: %+v", got.Items[0])
	}
	if !got.Items[0].DiscountPercent.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("primary discount = %s, want 20", got.Items[0].DiscountPercent)
	}
	if got.Items[1].Role != models.PromotionItemRoleAttachment || !got.Items[1].DiscountPercent.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected attachment item: %+v", got.Items[1])
	}
	if got.JustificationAI == "" {
		t.Fatal("expected a default justification")
	}
	if got.CreatedByAI == nil || !*got.CreatedByAI {
		t.Fatal("expected CreatedByAI to be set")
	}
}

func TestParsePromotionSuggestionSingleProduct(t *testing.T) {
	got := ParsePromotionSuggestion("store-1", "", sampleProducts()[:1])
	if len(got.Items) != 1 {
		t.Fatalf("expected exactly 1 item, got %d", len(got.Items))
	}
	if got.Items[0].Role != models.PromotionItemRolePrimary {
		t.Fatalf("single item must be primary, got %q", got.Items[0].Role)
	}
}

func TestParsePromotionSuggestionExtractsPercent(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"We expect a 22% lift in sales.", "22"},
		{"A 12.5 % increase is likely.", "12.5"},
		{"Could boost sales by 150%!", "15"}, // out of bounds, default
		{"no numbers here", "15"},
	}

	for _, tc := range cases {
		got := ParsePromotionSuggestion("store-1", tc.text, sampleProducts())
		require.NotNil(t, got.ExpectedIncreasePercent, "text %q", tc.text)
		require.True(t, got.ExpectedIncreasePercent.Equal(decimal.RequireFromString(tc.want)),
			"text %q: got %s, want %s", tc.text, got.ExpectedIncreasePercent, tc.want)
	}
}

// The generator never contributes product ids; items come from the signals.
func TestParsePromotionSuggestionIgnoresTextProducts(t *testing.T) {
	got := ParsePromotionSuggestion("store-1", `{"items":[{"product_id":"evil-99"}]}`, sampleProducts())
	for _, item := range got.Items {
		if item.ProductId == "evil-99" {
			t.Fatal("parser trusted a product id from generated text")
		}
	}
}

func TestExtractJustificationTruncatesOnRuneBoundary(t *testing.T) {
	got := extractJustification(strings.Repeat("a", 1999) + "é")
	if !utf8.ValidString(got) {
		t.Fatalf("truncated justification is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) > maxJustificationLength {
		t.Fatalf("justification longer than the cap: %d bytes", len(got))
	}

	got = extractJustification(strings.Repeat("a", 1998) + "🙂🙂")
	if !utf8.ValidString(got) || len(got) > maxJustificationLength {
		t.Fatalf("bad truncation: valid=%v len=%d", utf8.ValidString(got), len(got))
	}
}

func TestParseOrderSuggestion(t *testing.T) {
	stock := []signals.StockSignal{
		{ProductId: "p1", ProductName: "Widget", Quantity: 25, ReorderPoint: 50, Location: "Warehouse A"},
		{ProductId: "p2", ProductName: "Cable", Quantity: 100, ReorderPoint: 30, Location: "Warehouse A"},
	}

	got := ParseOrderSuggestion("store-1", "irrelevant prose", sampleProducts(), stock)

	if got.Status != models.SuggestionStatusDraft {
		t.Fatalf("status = %q, want Draft", got.Status)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item (only p1 is below reorder), got %d", len(got.Items))
	}

	item := got.Items[0]
	if item.ProductId != "p1" || item.SuggestedQuantity != 75 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.CurrentStock != 25 || item.ReorderPoint != 50 {
		t.Fatalf("stock context not carried onto item: %+v", item)
	}
	if !item.UnitCost.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("unit cost = %s, want 120.00", item.UnitCost)
	}
	if item.Justification == "" {
		t.Fatal("expected a justification embedding the stock level")
	}

	want := models.SumEstimatedCost(got.Items)
	if !got.TotalEstimatedCost.Equal(want) {
		t.Fatalf("total %s != sum of items %s", got.TotalEstimatedCost, want)
	}
}

func TestParseOrderSuggestionUnmatchedProduct(t *testing.T) {
	stock := []signals.StockSignal{
		{ProductId: "ghost", ProductName: "Ghost", Quantity: 1, ReorderPoint: 10},
	}

	got := ParseOrderSuggestion("store-1", "", sampleProducts(), stock)
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if !got.Items[0].UnitCost.IsZero() {
		t.Fatalf("unmatched product must cost zero, got %s", got.Items[0].UnitCost)
	}
}

func TestParseOrderSuggestionNothingBelowReorder(t *testing.T) {
	stock := []signals.StockSignal{
		{ProductId: "p2", ProductName: "Cable", Quantity: 100, ReorderPoint: 30},
	}

	got := ParseOrderSuggestion("store-1", "", sampleProducts(), stock)
	if len(got.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(got.Items))
	}
	if !got.TotalEstimatedCost.IsZero() {
		t.Fatalf("expected zero total, got %s", got.TotalEstimatedCost)
	}
}
