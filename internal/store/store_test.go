package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pennywise/internal/core"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state := core.NewUserState("u1")
			state.Expenses = append(state.Expenses, core.Expense{
				ID:       "exp_1",
				Merchant: "Starbucks",
				Amount:   4.50,
				Category: core.CategoryFood,
				Date:     "2026-08-01",
			})
			state.AppendMessage(core.RoleUser, "hello", time.Now())

			if err := st.Save(ctx, state); err != nil {
				t.Fatalf("save: %v", err)
			}

			loaded, err := st.Load(ctx, "u1")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded.UserID != "u1" {
				t.Fatalf("user id = %q", loaded.UserID)
			}
			if len(loaded.Expenses) != 1 || loaded.Expenses[0].Merchant != "Starbucks" {
				t.Fatalf("expenses = %+v", loaded.Expenses)
			}
			if len(loaded.Conversations) != 1 || loaded.Conversations[0].Content != "hello" {
				t.Fatalf("conversations = %+v", loaded.Conversations)
			}
			if loaded.Preferences.Currency != "USD" {
				t.Fatalf("preferences = %+v", loaded.Preferences)
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load(context.Background(), "missing")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state := core.NewUserState("u1")
			if err := st.Save(ctx, state); err != nil {
				t.Fatalf("save: %v", err)
			}

			state.Expenses = append(state.Expenses, core.Expense{
				ID: "exp_2", Merchant: "Metro", Amount: 2.75, Category: core.CategoryTransport,
			})
			if err := st.Save(ctx, state); err != nil {
				t.Fatalf("resave: %v", err)
			}

			loaded, err := st.Load(ctx, "u1")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(loaded.Expenses) != 1 || loaded.Expenses[0].ID != "exp_2" {
				t.Fatalf("expenses = %+v", loaded.Expenses)
			}
		})
	}
}

func TestStoreIsolatesUsers(t *testing.T) {
	for name, st := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := core.NewUserState("alice")
			a.Expenses = append(a.Expenses, core.Expense{ID: "a1", Merchant: "A", Amount: 1, Category: core.CategoryOther})
			b := core.NewUserState("bob")

			if err := st.Save(ctx, a); err != nil {
				t.Fatalf("save alice: %v", err)
			}
			if err := st.Save(ctx, b); err != nil {
				t.Fatalf("save bob: %v", err)
			}

			loadedB, err := st.Load(ctx, "bob")
			if err != nil {
				t.Fatalf("load bob: %v", err)
			}
			if len(loadedB.Expenses) != 0 {
				t.Fatalf("bob sees alice's expenses: %+v", loadedB.Expenses)
			}
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	state := core.NewUserState("u1")
	state.Expenses = append(state.Expenses, core.Expense{ID: "e1", Merchant: "M", Amount: 1, Category: core.CategoryOther})
	if err := st.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy after Save must not leak into the store.
	state.Expenses[0].Merchant = "mutated"

	loaded, err := st.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Expenses[0].Merchant != "M" {
		t.Fatalf("store shares memory with caller: %+v", loaded.Expenses[0])
	}
}
