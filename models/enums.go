package models

import (
	"fmt"
	"strings"
)

// SuggestionStatus is the lifecycle state shared by promotion and order
// suggestions. The set is closed; ParseSuggestionStatus is the only way in
// from caller-supplied strings.
type SuggestionStatus string

const (
	SuggestionStatusDraft    SuggestionStatus = "Draft"
	SuggestionStatusApproved SuggestionStatus = "Approved"
	SuggestionStatusRejected SuggestionStatus = "Rejected"
	SuggestionStatusApplied  SuggestionStatus = "Applied"
)

// ParseSuggestionStatus accepts the four lifecycle states case-insensitively.
func ParseSuggestionStatus(s string) (SuggestionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft":
		return SuggestionStatusDraft, nil
	case "approved":
		return SuggestionStatusApproved, nil
	case "rejected":
		return SuggestionStatusRejected, nil
	case "applied":
		return SuggestionStatusApplied, nil
	default:
		return "", fmt.Errorf("invalid suggestion status %q", s)
	}
}

// CanTransition reports whether from -> to is in the allowed transition table.
// Draft -> Approved, Draft -> Rejected, Approved -> Applied; nothing else,
// including Draft -> Applied and any move out of a terminal state.
func (from SuggestionStatus) CanTransition(to SuggestionStatus) bool {
	switch from {
	case SuggestionStatusDraft:
		return to == SuggestionStatusApproved || to == SuggestionStatusRejected
	case SuggestionStatusApproved:
		return to == SuggestionStatusApplied
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s SuggestionStatus) IsTerminal() bool {
	return s == SuggestionStatusRejected || s == SuggestionStatusApplied
}

// MetricType classifies an impact-attribution bucket.
type MetricType string

const (
	MetricTypePromotionalSales   MetricType = "PromotionalSales"
	MetricTypeStockoutPrevention MetricType = "StockoutPrevention"
)

// PromotionItemRole distinguishes the lead product of a promotion from the
// attached cross-sell product.
type PromotionItemRole string

const (
	PromotionItemRolePrimary    PromotionItemRole = "primary"
	PromotionItemRoleAttachment PromotionItemRole = "attachment"
)
