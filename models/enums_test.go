package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
)

func TestParseSuggestionStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    models.SuggestionStatus
		wantErr bool
	}{
		{"Draft", models.SuggestionStatusDraft, false},
		{"draft", models.SuggestionStatusDraft, false},
		{"APPROVED", models.SuggestionStatusApproved, false},
		{" rejected ", models.SuggestionStatusRejected, false},
		{"Applied", models.SuggestionStatusApplied, false},
		{"", "", true},
		{"Pending", "", true},
		{"2", "", true},
	}

	for _, tc := range cases {
		got, err := models.ParseSuggestionStatus(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseSuggestionStatus(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSuggestionStatus(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSuggestionStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]models.SuggestionStatus]bool{
		{models.SuggestionStatusDraft, models.SuggestionStatusApproved}:   true,
		{models.SuggestionStatusDraft, models.SuggestionStatusRejected}:   true,
		{models.SuggestionStatusApproved, models.SuggestionStatusApplied}: true,
	}

	statuses := []models.SuggestionStatus{
		models.SuggestionStatusDraft,
		models.SuggestionStatusApproved,
		models.SuggestionStatusRejected,
		models.SuggestionStatusApplied,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]models.SuggestionStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if models.SuggestionStatusDraft.IsTerminal() || models.SuggestionStatusApproved.IsTerminal() {
		t.Fatal("Draft and Approved must not be terminal")
	}
	if !models.SuggestionStatusRejected.IsTerminal() || !models.SuggestionStatusApplied.IsTerminal() {
		t.Fatal("Rejected and Applied must be terminal")
	}
}
