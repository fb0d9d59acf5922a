// Package sheets defines the outbound export port for recorded expenses.
package sheets

import (
	"context"

	"pennywise/internal/amqp"
)

// ExpenseAppender appends a recorded expense to an external sheet and
// returns a reference to the written row.
type ExpenseAppender interface {
	Append(ctx context.Context, msg *amqp.ExpenseRecordedMessage) (rowRef string, err error)
}
