package worker

import (
	"context"
	"errors"
	"testing"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
)

type fakeAppender struct {
	appended []*amqp.ExpenseRecordedMessage
	err      error
}

func (f *fakeAppender) Append(ctx context.Context, msg *amqp.ExpenseRecordedMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, msg)
	return "Expenses!A2:H2", nil
}

func TestHandleExpenseRecorded(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(appender)

	msg := amqp.NewExpenseRecordedMessage("u1", amqp.SourceDirect, core.Expense{
		ID: "exp_1", Merchant: "Starbucks", Amount: 4.5, Category: core.CategoryFood, Date: "2026-08-01",
	})

	if err := w.HandleExpenseRecorded(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(appender.appended) != 1 || appender.appended[0].MessageID != msg.MessageID {
		t.Fatalf("appended = %+v", appender.appended)
	}
}

func TestHandleExpenseRecordedAppendFailure(t *testing.T) {
	w := NewExportWorker(&fakeAppender{err: errors.New("sheet unavailable")})

	msg := amqp.NewExpenseRecordedMessage("u1", amqp.SourceDirect, core.Expense{
		ID: "exp_1", Merchant: "M", Amount: 1, Category: core.CategoryOther,
	})

	// The error must propagate so the delivery is requeued.
	if err := w.HandleExpenseRecorded(context.Background(), msg); err == nil {
		t.Fatalf("expected error")
	}
}
