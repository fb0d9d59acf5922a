// Package insights derives spending-personality reports from expense history.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/llm"
)

// minExpenses is the history size below which only the placeholder report
// is produced.
const minExpenses = 5

// Personality labels the model may choose from.
var personalities = []string{
	"The Foodie",
	"The Commuter",
	"The Weekend Warrior",
	"The Careful Planner",
	"The Balanced Spender",
}

const fallbackPersonality = "The Balanced Spender"

type (
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	Trends struct {
		WeekendSpending float64         `json:"weekendSpending"`
		WeekdaySpending float64         `json:"weekdaySpending"`
		TopCategories   []CategoryTotal `json:"topCategories"`
	}

	Pattern struct {
		Type           string `json:"type"`
		Title          string `json:"title"`
		Description    string `json:"description"`
		Recommendation string `json:"recommendation"`
	}

	Report struct {
		Personality string    `json:"personality"`
		Description string    `json:"description"`
		Patterns    []Pattern `json:"patterns"`
		Trends      Trends    `json:"trends"`
	}
)

type Analyzer struct {
	client llm.Client
}

func New(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze builds the insight report over the full expense list. The two
// model calls are sequential: the description prompt depends on the chosen
// personality.
func (a *Analyzer) Analyze(ctx context.Context, expenses []core.Expense) Report {
	if len(expenses) < minExpenses {
		return Report{
			Personality: "Getting Started",
			Description: "Add a few more expenses and I'll figure out your spending personality.",
			Patterns:    []Pattern{},
			Trends:      Trends{TopCategories: []CategoryTotal{}},
		}
	}

	trends := computeTrends(expenses)
	personality := a.classifyPersonality(ctx, trends)
	description := a.describePersonality(ctx, personality, trends)

	return Report{
		Personality: personality,
		Description: description,
		Patterns:    heuristicPatterns(trends),
		Trends:      trends,
	}
}

func computeTrends(expenses []core.Expense) Trends {
	trends := Trends{}
	byCategory := make(map[string]float64)

	for _, e := range expenses {
		if isWeekend(e.Date) {
			trends.WeekendSpending += e.Amount
		} else {
			trends.WeekdaySpending += e.Amount
		}
		byCategory[e.Category] += e.Amount
	}

	for _, c := range core.Categories {
		if total, ok := byCategory[c]; ok {
			trends.TopCategories = append(trends.TopCategories, CategoryTotal{Category: c, Total: total})
		}
	}
	sort.SliceStable(trends.TopCategories, func(i, j int) bool {
		return trends.TopCategories[i].Total > trends.TopCategories[j].Total
	})
	if len(trends.TopCategories) > 3 {
		trends.TopCategories = trends.TopCategories[:3]
	}

	return trends
}

// isWeekend treats unparseable dates as weekdays.
func isWeekend(date string) bool {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (a *Analyzer) classifyPersonality(ctx context.Context, trends Trends) string {
	prompt := fmt.Sprintf(
		"Based on these spending trends, pick exactly one personality from: %s.\n%s\nReply with only the personality name.",
		strings.Join(personalities, ", "), formatTrends(trends))

	reply, err := a.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: core.RoleUser, Content: prompt}},
		MaxTokens:   20,
		Temperature: 0.3,
	})
	if err != nil {
		slog.WarnContext(ctx, "Personality classification failed, falling back", "error", err)
		return fallbackPersonality
	}

	text, err := reply.Text()
	if err != nil {
		return fallbackPersonality
	}
	answer := strings.TrimSpace(text)
	for _, p := range personalities {
		if strings.EqualFold(answer, p) {
			return p
		}
	}
	slog.DebugContext(ctx, "Unrecognized personality from model", "reply", answer)
	return fallbackPersonality
}

func (a *Analyzer) describePersonality(ctx context.Context, personality string, trends Trends) string {
	prompt := fmt.Sprintf(
		"In one sentence, describe what being %q says about someone's spending, given:\n%s",
		personality, formatTrends(trends))

	reply, err := a.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: core.RoleUser, Content: prompt}},
		MaxTokens:   80,
		Temperature: 0.6,
	})
	if err != nil {
		slog.WarnContext(ctx, "Personality description failed, falling back", "error", err)
		return fmt.Sprintf("You spend like %s.", personality)
	}

	text, err := reply.Text()
	if err != nil || strings.TrimSpace(text) == "" {
		return fmt.Sprintf("You spend like %s.", personality)
	}
	return strings.TrimSpace(text)
}

func formatTrends(trends Trends) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekend spending: $%.2f\nWeekday spending: $%.2f\nTop categories:\n",
		trends.WeekendSpending, trends.WeekdaySpending)
	for _, ct := range trends.TopCategories {
		fmt.Fprintf(&b, "- %s: $%.2f\n", ct.Category, ct.Total)
	}
	return b.String()
}

// heuristicPatterns derives up to two observations without the model.
func heuristicPatterns(trends Trends) []Pattern {
	patterns := []Pattern{}
	total := trends.WeekendSpending + trends.WeekdaySpending

	if trends.WeekdaySpending > 0 && trends.WeekendSpending > trends.WeekdaySpending*1.3 {
		weekendPct := trends.WeekendSpending / total * 100
		patterns = append(patterns, Pattern{
			Type:           "day_of_week",
			Title:          "Weekend spender",
			Description:    fmt.Sprintf("%.0f%% of your spending happens on weekends.", weekendPct),
			Recommendation: "Plan weekend activities with a budget in mind.",
		})
	}

	if len(trends.TopCategories) > 0 && total > 0 {
		top := trends.TopCategories[0]
		pct := top.Total / total * 100
		rec := fmt.Sprintf("Your %s spending looks balanced.", top.Category)
		if pct > 40 {
			rec = fmt.Sprintf("%s dominates your spending; consider setting a monthly cap.", top.Category)
		}
		patterns = append(patterns, Pattern{
			Type:           "category",
			Title:          fmt.Sprintf("Top category: %s", top.Category),
			Description:    fmt.Sprintf("%s accounts for %.0f%% of your total spending.", top.Category, pct),
			Recommendation: rec,
		})
	}

	return patterns
}
