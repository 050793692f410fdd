package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recurringRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsActive    *bool  `json:"is_active"`
}

type recurringResponse struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	LastGenerated string `json:"last_generated,omitempty"`
	IsActive      bool   `json:"is_active"`
}

func toRecurringResponse(s core.RecurringSchedule) recurringResponse {
	resp := recurringResponse{
		ID:          s.ID,
		Type:        string(s.Type),
		Amount:      s.Amount.String(),
		AmountCents: s.Amount.Cents,
		Category:    s.Category,
		Description: s.Description,
		Frequency:   string(s.Frequency),
		StartDate:   s.StartDate.Format(dateLayout),
		IsActive:    s.IsActive,
	}
	if !s.EndDate.IsEmpty() {
		resp.EndDate = s.EndDate.Format(dateLayout)
	}
	if !s.LastGenerated.IsEmpty() {
		resp.LastGenerated = s.LastGenerated.Format(dateLayout)
	}
	return resp
}

// scheduleFromRequest builds and validates a schedule from a request body.
func scheduleFromRequest(req recurringRequest) (core.RecurringSchedule, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringSchedule{}, core.ErrInvalidAmount
	}
	start, err := parseDay(req.StartDate)
	if err != nil {
		return core.RecurringSchedule{}, errors.New("invalid start date, expected YYYY-MM-DD")
	}
	var end core.Date
	if req.EndDate != "" {
		if end, err = parseDay(req.EndDate); err != nil {
			return core.RecurringSchedule{}, errors.New("invalid end date, expected YYYY-MM-DD")
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	s := core.RecurringSchedule{
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Frequency:   core.Frequency(sanitizeInput(req.Frequency)),
		StartDate:   start,
		EndDate:     end,
		IsActive:    active,
	}
	if err := s.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}
	return s, nil
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.store.ListRecurringSchedules(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring schedules failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recurring schedules")
		return
	}

	out := make([]recurringResponse, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, toRecurringResponse(sched))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sched, err := scheduleFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateRecurringSchedule(r.Context(), sched)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create recurring schedule failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save recurring schedule")
		return
	}
	sched.ID = id

	writeJSON(w, http.StatusCreated, toRecurringResponse(sched))
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}

	sched, err := s.store.GetRecurringSchedule(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recurring schedule not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get recurring schedule failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load recurring schedule")
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(sched))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}

	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sched, err := scheduleFromRequest(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateRecurringSchedule(r.Context(), id, sched); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recurring schedule not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update recurring schedule failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update recurring schedule")
		return
	}

	updated, err := s.store.GetRecurringSchedule(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reload recurring schedule failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load recurring schedule")
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid schedule id")
		return
	}

	if err := s.store.DeleteRecurringSchedule(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recurring schedule not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete recurring schedule failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete recurring schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	if s.recurring == nil {
		writeError(w, http.StatusServiceUnavailable, "recurring processing not available")
		return
	}

	created, err := s.recurring.ProcessDue(r.Context(), time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Recurring processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process recurring schedules")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}
