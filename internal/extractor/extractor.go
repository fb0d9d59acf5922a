// Package extractor detects expenses embedded in free-form chat text.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule is one extraction pattern. Each rule carries its own group indexes
// so the field order never depends on inspecting the pattern text.
type Rule struct {
	Pattern       *regexp.Regexp
	AmountGroup   int
	MerchantGroup int
}

// Candidate is a detected amount/merchant pair, pre-categorization.
type Candidate struct {
	Amount   float64
	Merchant string
}

// rules are tried in order; the first rule producing a positive amount and a
// non-empty merchant wins.
var rules = []Rule{
	{
		Pattern:       regexp.MustCompile(`(?i)(?:spent|paid|bought|cost|costs)\s+\$?(\d+(?:\.\d{1,2})?)\s+(?:(?:at|on|for)\s+)?(.+)`),
		AmountGroup:   1,
		MerchantGroup: 2,
	},
	{
		Pattern:       regexp.MustCompile(`(?i)\$(\d+(?:\.\d{1,2})?)\s+(?:at|on|for)\s+(.+)`),
		AmountGroup:   1,
		MerchantGroup: 2,
	},
	{
		Pattern:       regexp.MustCompile(`(?i)(?:bought|got)\s+(.+?)\s+for\s+\$?(\d+(?:\.\d{1,2})?)`),
		AmountGroup:   2,
		MerchantGroup: 1,
	},
}

// temporal qualifiers that end the merchant text when present.
var temporalQualifiers = []string{"today", "yesterday", "just now"}

// Extract runs the ordered rules over the message and returns the first
// acceptable candidate. The second return is false when nothing matched.
func Extract(text string) (Candidate, bool) {
	for _, rule := range rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		amount, err := strconv.ParseFloat(m[rule.AmountGroup], 64)
		if err != nil || amount <= 0 {
			continue
		}

		merchant := CleanMerchant(m[rule.MerchantGroup])
		if merchant == "" {
			continue
		}

		return Candidate{Amount: amount, Merchant: merchant}, true
	}
	return Candidate{}, false
}

// CleanMerchant trims trailing punctuation and cuts the text at the first
// temporal qualifier.
func CleanMerchant(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, q := range temporalQualifiers {
		if idx := strings.Index(lower, q); idx >= 0 {
			s = s[:idx]
			lower = lower[:idx]
		}
	}
	s = strings.TrimRight(s, " \t.,!?;:")
	return s
}
