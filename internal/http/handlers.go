package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/user"
)

const defaultUserID = "default"

// userID reads the userId query parameter, defaulting when absent.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("userId")); id != "" {
		return id
	}
	return defaultUserID
}

func (s *Server) container(r *http.Request) *user.Container {
	return s.registry.Container(userID(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleAddExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ExpenseFilter{
		StartDate: strings.TrimSpace(q.Get("startDate")),
		EndDate:   strings.TrimSpace(q.Get("endDate")),
		Category:  strings.TrimSpace(q.Get("category")),
	}

	expenses, err := s.container(r).Expenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var in user.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	expense, err := s.container(r).AddExpense(r.Context(), in)
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyMerchant),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Add expense failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store expense")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "expense": expense})
}

func (s *Server) handleParseExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	expense, err := s.container(r).ParseAndAddExpense(r.Context(), in.Text)
	switch {
	case errors.Is(err, user.ErrNoExpenseFound):
		writeError(w, http.StatusBadRequest, user.ErrNoExpenseFound.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Parse expense failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store expense")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "expense": expense})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.container(r).Chat(r.Context(), in.Message)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := s.container(r).Insights(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Insights failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
