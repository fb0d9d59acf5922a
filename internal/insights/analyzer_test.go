package insights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pennywise/internal/core"
	"pennywise/internal/llm"
)

// scriptedClient returns one reply per call, in order.
type scriptedClient struct {
	replies []string
	err     error
	calls   []llm.Request
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (llm.Reply, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return llm.Reply{}, s.err
	}
	idx := len(s.calls) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	raw, _ := json.Marshal(s.replies[idx])
	return llm.Reply{Raw: raw}, nil
}

// 2026-08-01 is a Saturday, 2026-08-03 a Monday.
func sampleExpenses() []core.Expense {
	return []core.Expense{
		{Merchant: "Brunch Spot", Amount: 60, Category: core.CategoryFood, Date: "2026-08-01"},
		{Merchant: "Bar", Amount: 40, Category: core.CategoryFood, Date: "2026-08-02"},
		{Merchant: "Metro", Amount: 10, Category: core.CategoryTransport, Date: "2026-08-03"},
		{Merchant: "Lunch", Amount: 15, Category: core.CategoryFood, Date: "2026-08-04"},
		{Merchant: "Cinema", Amount: 25, Category: core.CategoryShopping, Date: "2026-08-05"},
	}
}

func TestAnalyzePlaceholderBelowMinimum(t *testing.T) {
	client := &scriptedClient{replies: []string{"The Foodie"}}
	report := New(client).Analyze(context.Background(), sampleExpenses()[:4])

	if report.Personality != "Getting Started" {
		t.Fatalf("personality = %q", report.Personality)
	}
	if len(report.Patterns) != 0 {
		t.Fatalf("patterns = %v", report.Patterns)
	}
	if len(client.calls) != 0 {
		t.Fatalf("model called %d times for placeholder", len(client.calls))
	}
}

func TestAnalyzeFullReport(t *testing.T) {
	client := &scriptedClient{replies: []string{"The Foodie", "You love eating out."}}
	report := New(client).Analyze(context.Background(), sampleExpenses())

	if report.Personality != "The Foodie" {
		t.Fatalf("personality = %q", report.Personality)
	}
	if report.Description != "You love eating out." {
		t.Fatalf("description = %q", report.Description)
	}
	if len(client.calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(client.calls))
	}

	// Weekend: Sat 60 + Sun 40; weekday: 10 + 15 + 25.
	if report.Trends.WeekendSpending != 100 {
		t.Fatalf("weekend = %v", report.Trends.WeekendSpending)
	}
	if report.Trends.WeekdaySpending != 50 {
		t.Fatalf("weekday = %v", report.Trends.WeekdaySpending)
	}

	if len(report.Trends.TopCategories) != 3 {
		t.Fatalf("top categories = %v", report.Trends.TopCategories)
	}
	if report.Trends.TopCategories[0].Category != core.CategoryFood || report.Trends.TopCategories[0].Total != 115 {
		t.Fatalf("top category = %+v", report.Trends.TopCategories[0])
	}
}

func TestAnalyzePatterns(t *testing.T) {
	client := &scriptedClient{replies: []string{"The Weekend Warrior", "desc"}}
	report := New(client).Analyze(context.Background(), sampleExpenses())

	// Weekend 100 > 50 * 1.3, so both patterns fire.
	if len(report.Patterns) != 2 {
		t.Fatalf("patterns = %+v", report.Patterns)
	}
	if report.Patterns[0].Type != "day_of_week" {
		t.Fatalf("first pattern = %+v", report.Patterns[0])
	}
	if report.Patterns[1].Type != "category" {
		t.Fatalf("second pattern = %+v", report.Patterns[1])
	}
	// Food is 115 of 150: above the 40% dominance threshold.
	if report.Patterns[1].Recommendation == "" {
		t.Fatalf("missing recommendation")
	}
}

func TestAnalyzeUnrecognizedPersonalityFallsBack(t *testing.T) {
	client := &scriptedClient{replies: []string{"The Big Spender", "desc"}}
	report := New(client).Analyze(context.Background(), sampleExpenses())
	if report.Personality != "The Balanced Spender" {
		t.Fatalf("personality = %q", report.Personality)
	}
}

func TestAnalyzeModelFailureFallsBack(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	report := New(client).Analyze(context.Background(), sampleExpenses())

	if report.Personality != "The Balanced Spender" {
		t.Fatalf("personality = %q", report.Personality)
	}
	if report.Description == "" {
		t.Fatalf("expected fallback description")
	}
	// Trends and patterns are heuristic, so they survive model failures.
	if report.Trends.WeekendSpending != 100 {
		t.Fatalf("weekend = %v", report.Trends.WeekendSpending)
	}
	if len(report.Patterns) == 0 {
		t.Fatalf("expected heuristic patterns")
	}
}

func TestIsWeekend(t *testing.T) {
	cases := []struct {
		date string
		want bool
	}{
		{"2026-08-01", true},  // Saturday
		{"2026-08-02", true},  // Sunday
		{"2026-08-03", false}, // Monday
		{"not-a-date", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isWeekend(tc.date); got != tc.want {
			t.Fatalf("isWeekend(%q) = %v", tc.date, got)
		}
	}
}
