package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// ReadMonthSummary aggregates one calendar month: income and expense totals,
// the expense breakdown by category, and spend against each budget.
func (r *SQLiteRepository) ReadMonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}
	prefix := fmt.Sprintf("%04d-%02d-", year, month)

	row := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE tx_date LIKE ? || '%'`, prefix)
	if err := row.Scan(&summary.Income.Cents, &summary.Expenses.Cents); err != nil {
		return summary, fmt.Errorf("month totals: %w", err)
	}
	summary.Net = core.Money{Cents: summary.Income.Cents - summary.Expenses.Cents}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM transactions
		WHERE type = 'expense' AND tx_date LIKE ? || '%'
		GROUP BY category
		ORDER BY SUM(amount_cents) DESC`, prefix)
	if err != nil {
		return summary, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}

	budgetRows, err := r.db.QueryContext(ctx, `
		SELECT b.category, b.monthly_limit_cents,
			COALESCE((
				SELECT SUM(t.amount_cents) FROM transactions t
				WHERE t.type = 'expense' AND t.category = b.category AND t.tx_date LIKE ? || '%'
			), 0)
		FROM budgets b
		ORDER BY b.category ASC`, prefix)
	if err != nil {
		return summary, fmt.Errorf("budget statuses: %w", err)
	}
	defer budgetRows.Close()

	for budgetRows.Next() {
		var bs core.BudgetStatus
		if err := budgetRows.Scan(&bs.Category, &bs.Limit.Cents, &bs.Spent.Cents); err != nil {
			return summary, fmt.Errorf("scan budget status: %w", err)
		}
		summary.Budgets = append(summary.Budgets, bs)
	}
	return summary, budgetRows.Err()
}
