package core

// SpendingContext is a read-side projection over a user's expenses.
// It is recomputed on every call; nothing here is cached.
type SpendingContext struct {
	TotalSpent     float64            `json:"totalSpent"`
	ByCategory     map[string]float64 `json:"byCategory"`
	TopCategory    string             `json:"topCategory"`
	RecentExpenses []Expense          `json:"recentExpenses"`
	ExpenseCount   int                `json:"expenseCount"`
}

// ComputeSpendingContext derives the projection from the state's expense list.
// The top category tie-break follows the fixed category enumeration order.
func (s *UserState) ComputeSpendingContext() SpendingContext {
	ctx := SpendingContext{
		ByCategory:   make(map[string]float64),
		ExpenseCount: len(s.Expenses),
	}

	for _, e := range s.Expenses {
		ctx.TotalSpent += e.Amount
		ctx.ByCategory[e.Category] += e.Amount
	}

	var topTotal float64
	for _, c := range Categories {
		if t := ctx.ByCategory[c]; t > topTotal {
			topTotal = t
			ctx.TopCategory = c
		}
	}

	recent := s.Expenses
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	ctx.RecentExpenses = append([]Expense(nil), recent...)

	return ctx
}
