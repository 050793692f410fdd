package http

import (
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type categoryAmountResponse struct {
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

type budgetStatusResponse struct {
	Category   string `json:"category"`
	Limit      string `json:"limit"`
	LimitCents int64  `json:"limit_cents"`
	Spent      string `json:"spent"`
	SpentCents int64  `json:"spent_cents"`
}

type dashboardResponse struct {
	Year          int                      `json:"year"`
	Month         int                      `json:"month"`
	Income        string                   `json:"income"`
	IncomeCents   int64                    `json:"income_cents"`
	Expenses      string                   `json:"expenses"`
	ExpensesCents int64                    `json:"expenses_cents"`
	Net           string                   `json:"net"`
	NetCents      int64                    `json:"net_cents"`
	ByCategory    []categoryAmountResponse `json:"by_category"`
	Budgets       []budgetStatusResponse   `json:"budgets"`
}

func toDashboardResponse(s core.MonthSummary) dashboardResponse {
	resp := dashboardResponse{
		Year:          s.Year,
		Month:         s.Month,
		Income:        s.Income.String(),
		IncomeCents:   s.Income.Cents,
		Expenses:      s.Expenses.String(),
		ExpensesCents: s.Expenses.Cents,
		Net:           s.Net.String(),
		NetCents:      s.Net.Cents,
		ByCategory:    make([]categoryAmountResponse, 0, len(s.ByCategory)),
		Budgets:       make([]budgetStatusResponse, 0, len(s.Budgets)),
	}
	for _, c := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{
			Category:    c.Category,
			Amount:      c.Amount.String(),
			AmountCents: c.Amount.Cents,
		})
	}
	for _, b := range s.Budgets {
		resp.Budgets = append(resp.Budgets, budgetStatusResponse{
			Category:   b.Category,
			Limit:      b.Limit.String(),
			LimitCents: b.Limit.Cents,
			Spent:      b.Spent.String(),
			SpentCents: b.Spent.Cents,
		})
	}
	return resp
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := cacheKey(year, month)
	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toDashboardResponse(summary))
		return
	}

	summary, err := s.store.ReadMonthSummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Read month summary failed",
			"year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute month summary")
		return
	}
	s.summaryCache.Set(key, summary)

	writeJSON(w, http.StatusOK, toDashboardResponse(summary))
}

// invalidateCurrentMonth drops the cached summary for the current month.
// Budget edits affect every cached month; older entries age out via TTL.
func (s *Server) invalidateCurrentMonth() {
	now := time.Now().UTC()
	s.summaryCache.Delete(cacheKey(now.Year(), int(now.Month())))
}
