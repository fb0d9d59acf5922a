// Package user implements the per-user state container and its operations.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/categorizer"
	"pennywise/internal/core"
	"pennywise/internal/extractor"
	"pennywise/internal/insights"
	"pennywise/internal/llm"
	"pennywise/internal/store"
)

// ErrNoExpenseFound is the typed parse failure surfaced to callers of
// ParseAndAddExpense. Handlers map it to a 400 with this message.
var ErrNoExpenseFound = errors.New(`couldn't find an expense in that text; try something like "I spent $12 at Chipotle"`)

// chatFallback is returned when the conversational model call fails.
const chatFallback = "Sorry, I'm having trouble responding right now. Your expenses are still safe — try again in a moment."

type (
	// ExpenseInput is the direct-add payload, pre-id-assignment.
	ExpenseInput struct {
		Merchant string  `json:"merchant"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category,omitempty"`
		Date     string  `json:"date,omitempty"`
		Notes    string  `json:"notes,omitempty"`
	}

	// ChatResult is the outcome of one chat exchange.
	ChatResult struct {
		Response     string `json:"response"`
		ExpenseAdded bool   `json:"expenseAdded"`
	}

	// Container owns one user's state. All operations serialize on the
	// container mutex: one in-flight mutation per user, no cross-user
	// shared state.
	Container struct {
		mu     sync.Mutex
		userID string
		deps   *deps
		state  *core.UserState
	}

	// Registry hands out exactly one container per user id, lazily.
	Registry struct {
		deps       *deps
		mu         sync.Mutex
		containers map[string]*Container
	}

	deps struct {
		store       store.Store
		client      llm.Client
		categorizer *categorizer.Categorizer
		analyzer    *insights.Analyzer
		events      *amqp.Client // optional, nil-safe
	}
)

func NewRegistry(st store.Store, client llm.Client, events *amqp.Client) *Registry {
	return &Registry{
		deps: &deps{
			store:       st,
			client:      client,
			categorizer: categorizer.New(client),
			analyzer:    insights.New(client),
			events:      events,
		},
		containers: make(map[string]*Container),
	}
}

// Container returns the single container for the given user id.
func (r *Registry) Container(userID string) *Container {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.containers[userID]; ok {
		return c
	}
	c := &Container{userID: userID, deps: r.deps}
	r.containers[userID] = c
	return c
}

// Initialize loads prior persisted state, or default-constructs and persists
// it on first contact. Idempotent per container instance.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLoaded(ctx)
}

func (c *Container) ensureLoaded(ctx context.Context) error {
	if c.state != nil {
		return nil
	}

	state, err := c.deps.store.Load(ctx, c.userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		state = core.NewUserState(c.userID)
		if err := c.deps.store.Save(ctx, state); err != nil {
			return fmt.Errorf("persist default state: %w", err)
		}
		slog.InfoContext(ctx, "Initialized new user state", "user_id", c.userID)
	case err != nil:
		return fmt.Errorf("load user state: %w", err)
	}

	c.state = state
	return nil
}

// AddExpense validates, assigns an id, auto-categorizes when no category was
// supplied, appends, persists, and returns the stored expense.
func (c *Container) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return core.Expense{}, err
	}

	expense, err := c.buildExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	if err := c.appendExpense(ctx, expense, amqp.SourceDirect); err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

func (c *Container) buildExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	now := time.Now()
	expense := core.Expense{
		ID:       core.NewExpenseID(now),
		Merchant: strings.TrimSpace(in.Merchant),
		Amount:   in.Amount,
		Category: in.Category,
		Date:     in.Date,
		Notes:    in.Notes,
	}
	if expense.Date == "" {
		expense.Date = now.Format("2006-01-02")
	}
	if expense.Category == "" {
		outcome := c.deps.categorizer.Categorize(ctx, expense.Merchant, expense.Amount, expense.Notes)
		expense.Category = outcome.Category
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// appendExpense stores the expense and announces it. Event publish failures
// are logged, never surfaced: the expense is already saved.
func (c *Container) appendExpense(ctx context.Context, expense core.Expense, source string) error {
	c.state.Expenses = append(c.state.Expenses, expense)
	if err := c.deps.store.Save(ctx, c.state); err != nil {
		c.state.Expenses = c.state.Expenses[:len(c.state.Expenses)-1]
		return fmt.Errorf("persist expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"user_id", c.userID,
		"expense_id", expense.ID,
		"merchant", expense.Merchant,
		"amount", expense.Amount,
		"category", expense.Category,
		"source", source)

	if c.deps.events != nil {
		msg := amqp.NewExpenseRecordedMessage(c.userID, source, expense)
		if err := c.deps.events.PublishExpenseRecorded(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense recorded event",
				"user_id", c.userID, "expense_id", expense.ID, "error", err)
		}
	}
	return nil
}

// Expenses returns the filtered expense list in insertion order.
func (c *Container) Expenses(ctx context.Context, filter core.ExpenseFilter) ([]core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.state.FilterExpenses(filter), nil
}

// AddMessage appends a timestamped message, truncating history to the most
// recent 20, persists, and returns the stored message.
func (c *Container) AddMessage(ctx context.Context, role, content string) (core.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return core.Message{}, err
	}

	msg := c.state.AppendMessage(role, content, time.Now())
	if err := c.deps.store.Save(ctx, c.state); err != nil {
		return core.Message{}, fmt.Errorf("persist message: %w", err)
	}
	return msg, nil
}

// SpendingContext recomputes the read-side projection.
func (c *Container) SpendingContext(ctx context.Context) (core.SpendingContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return core.SpendingContext{}, err
	}
	return c.state.ComputeSpendingContext(), nil
}

// Chat runs one conversational exchange: append the user message, try to
// extract an embedded expense, then ask the model with the spending context
// as system prompt. The assistant reply is appended before returning.
func (c *Container) Chat(ctx context.Context, message string) (ChatResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return ChatResult{}, err
	}

	c.state.AppendMessage(core.RoleUser, message, time.Now())
	if err := c.deps.store.Save(ctx, c.state); err != nil {
		return ChatResult{}, fmt.Errorf("persist user message: %w", err)
	}

	expenseAdded := c.tryExtractExpense(ctx, message)

	sctx := c.state.ComputeSpendingContext()

	userContent := message
	if expenseAdded {
		// Hidden instruction so the reply acknowledges the save
		userContent = message + "\n\n[I just saved that expense for the user. Acknowledge it briefly in your reply.]"
	}

	response := c.askModel(ctx, sctx, userContent)

	c.state.AppendMessage(core.RoleAssistant, response, time.Now())
	if err := c.deps.store.Save(ctx, c.state); err != nil {
		return ChatResult{}, fmt.Errorf("persist assistant message: %w", err)
	}

	return ChatResult{Response: response, ExpenseAdded: expenseAdded}, nil
}

// tryExtractExpense opportunistically detects and stores an expense embedded
// in the chat text. Every failure is swallowed: chat must keep working even
// when extraction or storage misbehaves.
func (c *Container) tryExtractExpense(ctx context.Context, message string) bool {
	candidate, ok := extractor.Extract(message)
	if !ok {
		return false
	}

	outcome := c.deps.categorizer.Categorize(ctx, candidate.Merchant, candidate.Amount, "")
	expense := core.Expense{
		ID:       core.NewExpenseID(time.Now()),
		Merchant: candidate.Merchant,
		Amount:   candidate.Amount,
		Category: outcome.Category,
		Date:     time.Now().Format("2006-01-02"),
		Notes:    fmt.Sprintf("Added from chat (%s, confidence %.2f)", outcome.Status, outcome.Confidence),
	}
	if err := c.appendExpense(ctx, expense, amqp.SourceChat); err != nil {
		slog.ErrorContext(ctx, "Failed to store chat-extracted expense",
			"user_id", c.userID, "error", err)
		return false
	}
	return true
}

func (c *Container) askModel(ctx context.Context, sctx core.SpendingContext, userContent string) string {
	reply, err := c.deps.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: buildSystemPrompt(sctx)},
			{Role: core.RoleUser, Content: userContent},
		},
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		slog.WarnContext(ctx, "Chat model call failed, using fallback",
			"user_id", c.userID, "error", err)
		return chatFallback
	}
	text, err := reply.Text()
	if err != nil {
		return chatFallback
	}
	return text
}

func buildSystemPrompt(sctx core.SpendingContext) string {
	var b strings.Builder
	b.WriteString("You are a friendly expense-tracking assistant. The user's spending so far:\n")
	fmt.Fprintf(&b, "Total spent: $%.2f across %d expenses\n", sctx.TotalSpent, sctx.ExpenseCount)
	if sctx.TopCategory != "" {
		fmt.Fprintf(&b, "Top category: %s\n", sctx.TopCategory)
	}
	if len(sctx.ByCategory) > 0 {
		b.WriteString("By category:\n")
		for _, c := range core.Categories {
			if total, ok := sctx.ByCategory[c]; ok {
				fmt.Fprintf(&b, "- %s: $%.2f\n", c, total)
			}
		}
	}
	if len(sctx.RecentExpenses) > 0 {
		b.WriteString("Recent expenses:\n")
		for _, e := range sctx.RecentExpenses {
			fmt.Fprintf(&b, "- %s: $%.2f (%s)\n", e.Merchant, e.Amount, e.Category)
		}
	}
	b.WriteString("Keep replies short and helpful.")
	return b.String()
}

// parsedExpense is the shape the extraction prompt asks the model for.
type parsedExpense struct {
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
}

// ParseAndAddExpense extracts an expense from free text via the model,
// categorizes it, and stores it. All unusable replies surface as
// ErrNoExpenseFound.
func (c *Container) ParseAndAddExpense(ctx context.Context, text string) (core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return core.Expense{}, err
	}

	prompt := fmt.Sprintf(
		"Extract the expense from this text: %q\n"+
			"Reply with only a JSON object like {\"amount\": 12.50, \"merchant\": \"Chipotle\"}.\n"+
			"If there is no expense, reply with null.", text)

	reply, err := c.deps.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: core.RoleUser, Content: prompt}},
		MaxTokens:   60,
		Temperature: 0.1,
	})
	if err != nil {
		slog.WarnContext(ctx, "Parse extraction call failed",
			"user_id", c.userID, "error", err)
		return core.Expense{}, ErrNoExpenseFound
	}

	var parsed parsedExpense
	if err := reply.Decode(&parsed); err != nil {
		slog.DebugContext(ctx, "Unusable extraction reply",
			"user_id", c.userID, "error", err)
		return core.Expense{}, ErrNoExpenseFound
	}
	if parsed.Amount <= 0 || strings.TrimSpace(parsed.Merchant) == "" {
		return core.Expense{}, ErrNoExpenseFound
	}

	outcome := c.deps.categorizer.Categorize(ctx, parsed.Merchant, parsed.Amount, "")
	expense := core.Expense{
		ID:       core.NewExpenseID(time.Now()),
		Merchant: strings.TrimSpace(parsed.Merchant),
		Amount:   parsed.Amount,
		Category: outcome.Category,
		Date:     time.Now().Format("2006-01-02"),
		Notes:    fmt.Sprintf("Auto-categorized as %s (%s, confidence %.2f)", outcome.Category, outcome.Status, outcome.Confidence),
	}
	if err := c.appendExpense(ctx, expense, amqp.SourceParse); err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// Insights delegates to the analyzer over the full expense list.
func (c *Container) Insights(ctx context.Context) (insights.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return insights.Report{}, err
	}
	return c.deps.analyzer.Analyze(ctx, c.state.Expenses), nil
}
