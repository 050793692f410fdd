package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

var ErrNotFound = errors.New("not found")

// PendingSyncTransaction carries the minimal data for an export queue message.
type PendingSyncTransaction struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// CreateTransaction inserts a transaction and returns its id. recurring_id is
// NULL for manual entries.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	var recurringID any
	if tx.RecurringID != 0 {
		recurringID = tx.RecurringID
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (type, tx_date, description, amount_cents, category, recurring_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(tx.Type), tx.Date.Format(dateLayout), tx.Description, tx.Amount.Cents, tx.Category, recurringID)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"date", tx.Date.Format(dateLayout))

	return id, nil
}

// GetTransaction retrieves a single transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, tx_date, description, amount_cents, category, COALESCE(recurring_id, 0)
		FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListTransactions returns all transactions in a calendar month, newest day
// first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, tx_date, description, amount_cents, category, COALESCE(recurring_id, 0)
		FROM transactions
		WHERE tx_date LIKE ? || '%'
		ORDER BY tx_date DESC, id DESC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// DeleteTransaction removes a transaction. Deleting a row that does not exist
// returns ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// GetPendingSyncTransactions returns transactions not yet exported, oldest
// first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM transactions
		WHERE sync_status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having failed export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		typ     string
		dateStr string
	)
	if err := row.Scan(&tx.ID, &typ, &dateStr, &tx.Description, &tx.Amount.Cents, &tx.Category, &tx.RecurringID); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	d, err := parseDate(sql.NullString{String: dateStr, Valid: true})
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = d
	return tx, nil
}
