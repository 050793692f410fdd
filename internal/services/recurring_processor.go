package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ScheduleStore is the slice of storage a generation pass needs. The commit
// must write the generated instances and the advanced checkpoint atomically,
// and fail with storage.ErrCheckpointConflict when it observes a stale
// checkpoint.
type ScheduleStore interface {
	ListActiveRecurringSchedules(ctx context.Context) ([]core.RecurringSchedule, error)
	CommitGenerated(ctx context.Context, s core.RecurringSchedule, instances []core.Transaction) ([]int64, error)
}

// RecurringProcessor materializes due transactions from recurring schedules.
// A pass is idempotent: rerunning it after a successful commit generates
// nothing new, and rerunning it after a failed commit regenerates the same
// instances from the unchanged checkpoint.
type RecurringProcessor struct {
	store     ScheduleStore
	publisher SyncPublisher
}

// NewRecurringProcessor creates a processor. The publisher may be nil.
func NewRecurringProcessor(store ScheduleStore, publisher SyncPublisher) *RecurringProcessor {
	return &RecurringProcessor{store: store, publisher: publisher}
}

// ProcessDue runs one generation pass over all active schedules as of now.
// It returns the number of transactions created. Per-schedule failures are
// logged and skipped so one broken schedule cannot stall the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	schedules, err := p.store.ListActiveRecurringSchedules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring schedules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring schedules",
		"total_active", len(schedules),
		"processing_date", now.Format("2006-01-02"))

	created := 0
	for _, s := range schedules {
		due, err := DueOccurrences(s, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute due occurrences",
				"schedule_id", s.ID,
				"error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		ids, err := p.store.CommitGenerated(ctx, s, due)
		if err != nil {
			if errors.Is(err, storage.ErrCheckpointConflict) {
				// Another pass won the race for this schedule; its commit
				// already holds these occurrences.
				slog.WarnContext(ctx, "Checkpoint conflict, skipping schedule",
					"schedule_id", s.ID)
				continue
			}
			slog.ErrorContext(ctx, "Failed to commit generated transactions",
				"schedule_id", s.ID,
				"error", err)
			continue
		}

		for _, id := range ids {
			p.publishSync(ctx, id)
		}

		created += len(ids)
		slog.InfoContext(ctx, "Generated transactions from schedule",
			"schedule_id", s.ID,
			"count", len(ids),
			"frequency", s.Frequency,
			"last_date", due[len(due)-1].Date.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Recurring schedule processing complete",
		"created", created,
		"total_checked", len(schedules))

	return created, nil
}

func (p *RecurringProcessor) publishSync(ctx context.Context, id int64) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishTransactionSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message for generated transaction",
			"id", id, "error", err)
	}
}
