// Package http exposes the JSON API over a standard net/http server.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Store is the slice of storage the handlers read from and write to.
// Transaction writes go through TransactionWriter instead so they flow
// through the sync pipeline.
type Store interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error)

	CreateRecurringSchedule(ctx context.Context, s core.RecurringSchedule) (int64, error)
	GetRecurringSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error)
	ListRecurringSchedules(ctx context.Context) ([]core.RecurringSchedule, error)
	UpdateRecurringSchedule(ctx context.Context, id int64, s core.RecurringSchedule) error
	DeleteRecurringSchedule(ctx context.Context, id int64) error

	UpsertBudget(ctx context.Context, b core.Budget) (int64, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	ReadMonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error)
}

// TransactionWriter saves and deletes transactions, publishing sync messages
// as a side effect.
type TransactionWriter interface {
	Create(ctx context.Context, tx core.Transaction) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// RecurringRunner triggers one generation pass over recurring schedules.
type RecurringRunner interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

type Server struct {
	http.Server
	store        Store
	transactions TransactionWriter
	recurring    RecurringRunner
	rateLimiter  *rateLimiter

	summaryCache *cache.LRU[core.MonthSummary]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, transactions TransactionWriter, recurring RecurringRunner) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        store,
		transactions: transactions,
		recurring:    recurring,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.New[core.MonthSummary](100, 5*time.Minute),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleCreateRecurring))
	mux.HandleFunc("POST /api/recurring/process", s.withMiddleware(s.handleProcessRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.withMiddleware(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withMiddleware(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withMiddleware(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.handleUpsertBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withMiddleware(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))

	return s
}

// Shutdown stops the server and its background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request-id logging, rate limiting on mutating requests,
// and security headers.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := r.Context()
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
