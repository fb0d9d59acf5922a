package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/core"
)

// Expense sources, recorded so downstream consumers can tell how an expense
// entered the system.
const (
	SourceDirect = "direct"
	SourceParse  = "parse"
	SourceChat   = "chat"
)

// ExpenseRecordedMessage announces a newly stored expense. It carries the
// full expense payload so consumers never need to reach back into the
// per-user state document.
type ExpenseRecordedMessage struct {
	MessageID string       `json:"messageId"`
	UserID    string       `json:"userId"`
	Source    string       `json:"source"`
	Expense   core.Expense `json:"expense"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewExpenseRecordedMessage(userID, source string, expense core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		MessageID: uuid.New().String(),
		UserID:    userID,
		Source:    source,
		Expense:   expense,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
