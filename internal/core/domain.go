package core

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryFood      = "Food"
	CategoryTransport = "Transport"
	CategoryShopping  = "Shopping"
	CategoryBills     = "Bills"
	CategoryOther     = "Other"
)

// Categories is the fixed set of expense categories, in enumeration order.
// The order matters: ties in per-category totals are broken by it.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryOther,
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxConversationLength bounds the retained conversation history.
const MaxConversationLength = 20

type (
	Expense struct {
		ID       string  `json:"id"`
		Merchant string  `json:"merchant"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Date     string  `json:"date"` // YYYY-MM-DD
		Notes    string  `json:"notes,omitempty"`
	}

	Message struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	}

	Preferences struct {
		Currency   string   `json:"currency"`
		Categories []string `json:"categories"`
	}

	UserState struct {
		UserID        string      `json:"userId"`
		Expenses      []Expense   `json:"expenses"`
		Conversations []Message   `json:"conversations"`
		Preferences   Preferences `json:"preferences"`
	}

	// ExpenseFilter narrows a listing to an inclusive date range and/or category.
	// Zero values mean "no constraint".
	ExpenseFilter struct {
		StartDate string
		EndDate   string
		Category  string
	}
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
)

// NewUserState returns the default state persisted on first contact.
func NewUserState(userID string) *UserState {
	return &UserState{
		UserID:        userID,
		Expenses:      []Expense{},
		Conversations: []Message{},
		Preferences: Preferences{
			Currency:   "USD",
			Categories: append([]string(nil), Categories...),
		},
	}
}

// IsValidCategory reports whether name is one of the fixed categories.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func (e Expense) Validate() error {
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if !IsValidCategory(e.Category) {
		return ErrInvalidCategory
	}
	if e.Date != "" {
		if _, err := time.Parse("2006-01-02", e.Date); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// NewExpenseID generates a best-effort unique token from a timestamp and a
// random suffix. Uniqueness is not cryptographically guaranteed.
func NewExpenseID(now time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("exp_%d", now.UnixNano())
	}
	return fmt.Sprintf("exp_%d_%s", now.UnixMilli(), hex.EncodeToString(buf))
}

// AppendMessage appends a timestamped message and truncates history to the
// most recent MaxConversationLength entries.
func (s *UserState) AppendMessage(role, content string, now time.Time) Message {
	msg := Message{Role: role, Content: content, Timestamp: now}
	s.Conversations = append(s.Conversations, msg)
	if len(s.Conversations) > MaxConversationLength {
		s.Conversations = s.Conversations[len(s.Conversations)-MaxConversationLength:]
	}
	return msg
}

// FilterExpenses returns the expenses matching the filter, preserving
// insertion order. An empty filter returns the full list.
func (s *UserState) FilterExpenses(f ExpenseFilter) []Expense {
	out := make([]Expense, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		if f.StartDate != "" && e.Date < f.StartDate {
			continue
		}
		if f.EndDate != "" && e.Date > f.EndDate {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}
