package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// ErrCheckpointConflict is returned by CommitGenerated when another pass
// advanced the schedule's checkpoint between read and commit. The caller
// should skip the schedule; the winning pass already persisted the
// occurrences.
var ErrCheckpointConflict = errors.New("recurring schedule checkpoint advanced concurrently")

// CreateRecurringSchedule inserts a schedule and returns its id.
func (r *SQLiteRepository) CreateRecurringSchedule(ctx context.Context, s core.RecurringSchedule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_schedules (type, amount_cents, category, description, frequency, start_date, end_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.Type), s.Amount.Cents, s.Category, s.Description, string(s.Frequency),
		s.StartDate.Format(dateLayout), dateString(s.EndDate), boolToInt(s.IsActive))
	if err != nil {
		return 0, fmt.Errorf("create recurring schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring schedule id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring schedule created",
		"id", id,
		"frequency", s.Frequency,
		"category", s.Category,
		"start_date", s.StartDate.Format(dateLayout))

	return id, nil
}

// GetRecurringSchedule retrieves one schedule by id.
func (r *SQLiteRepository) GetRecurringSchedule(ctx context.Context, id int64) (core.RecurringSchedule, error) {
	row := r.db.QueryRowContext(ctx, scheduleSelect+` WHERE id = ?`, id)
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringSchedule{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("get recurring schedule %d: %w", id, err)
	}
	return s, nil
}

// ListRecurringSchedules returns all schedules, newest first.
func (r *SQLiteRepository) ListRecurringSchedules(ctx context.Context) ([]core.RecurringSchedule, error) {
	return r.listSchedules(ctx, scheduleSelect+` ORDER BY id DESC`)
}

// ListActiveRecurringSchedules returns the schedules a generation pass should
// consider.
func (r *SQLiteRepository) ListActiveRecurringSchedules(ctx context.Context) ([]core.RecurringSchedule, error) {
	return r.listSchedules(ctx, scheduleSelect+` WHERE is_active = 1 ORDER BY id ASC`)
}

func (r *SQLiteRepository) listSchedules(ctx context.Context, query string) ([]core.RecurringSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring schedules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateRecurringSchedule replaces the user-editable fields of a schedule.
// The checkpoint is deliberately untouched; only CommitGenerated advances it.
func (r *SQLiteRepository) UpdateRecurringSchedule(ctx context.Context, id int64, s core.RecurringSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_schedules
		SET type = ?, amount_cents = ?, category = ?, description = ?, frequency = ?,
		    start_date = ?, end_date = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(s.Type), s.Amount.Cents, s.Category, s.Description, string(s.Frequency),
		s.StartDate.Format(dateLayout), dateString(s.EndDate), boolToInt(s.IsActive), id)
	if err != nil {
		return fmt.Errorf("update recurring schedule %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recurring schedule %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Recurring schedule updated", "id", id)
	return nil
}

// DeleteRecurringSchedule removes a schedule. Generated transactions survive
// with their recurring_id nulled by the FK.
func (r *SQLiteRepository) DeleteRecurringSchedule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring schedule %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring schedule %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Recurring schedule deleted", "id", id)
	return nil
}

// CommitGenerated persists the instances generated for a schedule and
// advances its checkpoint to the last instance's date, in one transaction.
// The checkpoint update is conditional on the checkpoint the pass observed
// (s.LastGenerated); if a concurrent pass advanced it first, nothing is
// written and ErrCheckpointConflict is returned. This is the optimistic
// serialization that keeps generation effectively-once.
func (r *SQLiteRepository) CommitGenerated(ctx context.Context, s core.RecurringSchedule, instances []core.Transaction) ([]int64, error) {
	if len(instances) == 0 {
		return nil, nil
	}
	newCheckpoint := instances[len(instances)-1].Date

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit generated: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recurring_schedules
		SET last_generated = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND last_generated IS ?`,
		newCheckpoint.Format(dateLayout), s.ID, dateString(s.LastGenerated))
	if err != nil {
		return nil, fmt.Errorf("advance checkpoint for schedule %d: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("advance checkpoint for schedule %d: %w", s.ID, err)
	}
	if n == 0 {
		return nil, ErrCheckpointConflict
	}

	ids := make([]int64, 0, len(instances))
	for _, inst := range instances {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (type, tx_date, description, amount_cents, category, recurring_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(inst.Type), inst.Date.Format(dateLayout), inst.Description,
			inst.Amount.Cents, inst.Category, s.ID)
		if err != nil {
			return nil, fmt.Errorf("insert generated transaction for schedule %d: %w", s.ID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("generated transaction id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generated for schedule %d: %w", s.ID, err)
	}

	slog.InfoContext(ctx, "Generated transactions committed",
		"schedule_id", s.ID,
		"count", len(ids),
		"checkpoint", newCheckpoint.Format(dateLayout))

	return ids, nil
}

const scheduleSelect = `
	SELECT id, type, amount_cents, category, description, frequency, start_date, end_date, last_generated, is_active
	FROM recurring_schedules`

func scanSchedule(row rowScanner) (core.RecurringSchedule, error) {
	var (
		s         core.RecurringSchedule
		typ, freq string
		startStr  string
		endStr    sql.NullString
		lastStr   sql.NullString
		active    int
	)
	if err := row.Scan(&s.ID, &typ, &s.Amount.Cents, &s.Category, &s.Description, &freq, &startStr, &endStr, &lastStr, &active); err != nil {
		return core.RecurringSchedule{}, err
	}
	s.Type = core.TransactionType(typ)
	s.Frequency = core.Frequency(freq)
	s.IsActive = active != 0

	var err error
	if s.StartDate, err = parseDate(sql.NullString{String: startStr, Valid: true}); err != nil {
		return core.RecurringSchedule{}, err
	}
	if s.EndDate, err = parseDate(endStr); err != nil {
		return core.RecurringSchedule{}, err
	}
	if s.LastGenerated, err = parseDate(lastStr); err != nil {
		return core.RecurringSchedule{}, err
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
