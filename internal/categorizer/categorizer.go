// Package categorizer assigns one of the fixed categories to an expense.
package categorizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/llm"
)

// Status tags how an outcome was derived, so callers and telemetry can tell
// a genuine classification from a masked failure.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Confidence constants are heuristics, not model-reported probabilities.
const (
	confidenceMatch    = 0.95
	confidenceDegraded = 0.5
	confidenceFailed   = 0.3
)

// Outcome is the result of one categorization attempt. Category is always a
// member of the fixed set; failures map to Other.
type Outcome struct {
	Category   string
	Confidence float64
	Status     Status
	Reason     string
}

type Categorizer struct {
	client llm.Client
}

func New(client llm.Client) *Categorizer {
	return &Categorizer{client: client}
}

// Categorize classifies a merchant/amount/notes triple. It never returns an
// error: any failure degrades to Other with a lowered confidence.
func (c *Categorizer) Categorize(ctx context.Context, merchant string, amount float64, notes string) Outcome {
	prompt := buildPrompt(merchant, amount, notes)

	reply, err := c.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: core.RoleUser, Content: prompt}},
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		slog.WarnContext(ctx, "Categorization call failed, falling back",
			"merchant", merchant, "error", err)
		return Outcome{
			Category:   core.CategoryOther,
			Confidence: confidenceFailed,
			Status:     StatusFailed,
			Reason:     err.Error(),
		}
	}

	text, err := reply.Text()
	if err != nil {
		return Outcome{
			Category:   core.CategoryOther,
			Confidence: confidenceFailed,
			Status:     StatusFailed,
			Reason:     err.Error(),
		}
	}

	answer := strings.TrimSpace(text)
	if core.IsValidCategory(answer) {
		return Outcome{Category: answer, Confidence: confidenceMatch, Status: StatusOK}
	}

	slog.DebugContext(ctx, "Unrecognized category from model", "reply", answer)
	return Outcome{
		Category:   core.CategoryOther,
		Confidence: confidenceDegraded,
		Status:     StatusDegraded,
		Reason:     fmt.Sprintf("unrecognized category %q", answer),
	}
}

func buildPrompt(merchant string, amount float64, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Categorize this expense into exactly one of: %s.\n",
		strings.Join(core.Categories, ", "))
	fmt.Fprintf(&b, "Merchant: %s\nAmount: $%.2f\n", merchant, amount)
	if notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	}
	b.WriteString("Reply with only the category name.")
	return b.String()
}
