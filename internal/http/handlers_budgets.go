package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type budgetRequest struct {
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthly_limit"`
}

type budgetResponse struct {
	ID                int64  `json:"id"`
	Category          string `json:"category"`
	MonthlyLimit      string `json:"monthly_limit"`
	MonthlyLimitCents int64  `json:"monthly_limit_cents"`
	Spent             string `json:"spent"`
	SpentCents        int64  `json:"spent_cents"`
}

// handleListBudgets lists budgets with what each category has spent in the
// requested month (default: current month).
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}

	summary, err := s.store.ReadMonthSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Read month summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute budget utilization")
		return
	}
	spentByCategory := make(map[string]core.Money, len(summary.Budgets))
	for _, b := range summary.Budgets {
		spentByCategory[b.Category] = b.Spent
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		spent := spentByCategory[b.Category]
		out = append(out, budgetResponse{
			ID:                b.ID,
			Category:          b.Category,
			MonthlyLimit:      b.MonthlyLimit.String(),
			MonthlyLimitCents: b.MonthlyLimit.Cents,
			Spent:             spent.String(),
			SpentCents:        spent.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.MonthlyLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid monthly limit")
		return
	}

	b := core.Budget{
		Category:     sanitizeInput(req.Category),
		MonthlyLimit: core.Money{Cents: cents},
	}
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.UpsertBudget(r.Context(), b)
	if err != nil {
		slog.ErrorContext(r.Context(), "Upsert budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save budget")
		return
	}
	b.ID = id

	s.invalidateCurrentMonth()

	writeJSON(w, http.StatusOK, budgetResponse{
		ID:                b.ID,
		Category:          b.Category,
		MonthlyLimit:      b.MonthlyLimit.String(),
		MonthlyLimitCents: b.MonthlyLimit.Cents,
		Spent:             core.Money{}.String(),
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid budget id")
		return
	}

	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete budget failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}

	s.invalidateCurrentMonth()

	w.WriteHeader(http.StatusNoContent)
}
