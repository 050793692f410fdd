package storage

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// UpsertBudget creates or replaces the monthly limit for a category and
// returns the budget id.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit_cents)
		VALUES (?, ?)
		ON CONFLICT (category) DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents`,
		b.Category, b.MonthlyLimit.Cents)
	if err != nil {
		return 0, fmt.Errorf("upsert budget: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM budgets WHERE category = ?`, b.Category).Scan(&id); err != nil {
		return 0, fmt.Errorf("budget id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", id,
		"category", b.Category,
		"monthly_limit_cents", b.MonthlyLimit.Cents)

	return id, nil
}

// ListBudgets returns all budgets ordered by category.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, monthly_limit_cents FROM budgets ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.MonthlyLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBudget removes a budget by id.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}
