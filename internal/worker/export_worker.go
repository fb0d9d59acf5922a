// Package worker exports recorded expenses to external destinations.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/amqp"
	"pennywise/internal/sheets"
)

// ExportWorker appends recorded expenses to a sheet as they arrive on the
// queue. Delivery acknowledgement is handled by the consumer: returning an
// error here requeues the message.
type ExportWorker struct {
	appender sheets.ExpenseAppender
}

func NewExportWorker(appender sheets.ExpenseAppender) *ExportWorker {
	return &ExportWorker{appender: appender}
}

// HandleExpenseRecorded processes a single expense-recorded message.
func (w *ExportWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	slog.InfoContext(ctx, "Processing expense recorded message",
		"message_id", msg.MessageID,
		"user_id", msg.UserID,
		"source", msg.Source,
		"expense_id", msg.Expense.ID)

	ref, err := w.appender.Append(ctx, msg)
	if err != nil {
		return fmt.Errorf("append expense to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"message_id", msg.MessageID,
		"expense_id", msg.Expense.ID,
		"row_ref", ref)

	return nil
}
