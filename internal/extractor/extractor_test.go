package extractor

import "testing"

func TestExtract(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		amount   float64
		merchant string
	}{
		{"spent at", "I spent $25.50 at Starbucks", 25.50, "Starbucks"},
		{"spent no dollar sign", "spent 12 at the corner store", 12, "the corner store"},
		{"paid for", "paid $40 for gas", 40, "gas"},
		{"cost", "lunch cost 9.75 at Chipotle", 9.75, "Chipotle"},
		{"amount first", "$15 on movie tickets", 15, "movie tickets"},
		{"bought for", "bought coffee for $5", 5, "coffee"},
		{"got for", "got a new charger for 19.99", 19.99, "a new charger"},
		{"temporal trimmed", "spent $30 at Target today", 30, "Target"},
		{"punctuation trimmed", "I spent $8 at the deli!", 8, "the deli"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Extract(tc.text)
			if !ok {
				t.Fatalf("no candidate for %q", tc.text)
			}
			if got.Amount != tc.amount {
				t.Fatalf("amount = %v, want %v", got.Amount, tc.amount)
			}
			if got.Merchant != tc.merchant {
				t.Fatalf("merchant = %q, want %q", got.Merchant, tc.merchant)
			}
		})
	}
}

func TestExtractNoMatch(t *testing.T) {
	cases := []string{
		"how much did I spend this week?",
		"hello there",
		"what's my top category",
		"spent at Starbucks", // no amount
	}
	for _, text := range cases {
		if got, ok := Extract(text); ok {
			t.Fatalf("unexpected candidate %+v for %q", got, text)
		}
	}
}

func TestExtractRuleOrder(t *testing.T) {
	// "bought X for $N" also mentions a verb rule 1 could match; the first
	// rule that yields a usable pair must win.
	got, ok := Extract("I bought $10 worth of snacks")
	if !ok {
		t.Fatalf("expected a candidate")
	}
	if got.Amount != 10 {
		t.Fatalf("amount = %v", got.Amount)
	}
	if got.Merchant != "worth of snacks" {
		t.Fatalf("merchant = %q", got.Merchant)
	}
}

func TestCleanMerchant(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Starbucks today", "Starbucks"},
		{"the mall yesterday", "the mall"},
		{"groceries just now", "groceries"},
		{"Target!!", "Target"},
		{"  Whole Foods.  ", "Whole Foods"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := CleanMerchant(tc.in); got != tc.want {
			t.Fatalf("CleanMerchant(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
