package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Date:        core.NewDate(2024, 3, 15),
		Description: "Groceries",
		Amount:      core.Money{Cents: 4250},
		Category:    "Food",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Amount.Cents != 4250 || got.Category != "Food" || got.RecurringID != 0 {
		t.Errorf("GetTransaction() = %+v", got)
	}
	if got.Date.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("date = %v, want 2024-03-15", got.Date)
	}

	list, err := repo.ListTransactions(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListTransactions(2024, 3) returned %d rows, want 1", len(list))
	}
	if other, _ := repo.ListTransactions(ctx, 2024, 4); len(other) != 0 {
		t.Errorf("ListTransactions(2024, 4) returned %d rows, want 0", len(other))
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetTransaction(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestRecurringScheduleLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	s := core.RecurringSchedule{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 999},
		Category:    "Subscriptions",
		Description: "Streaming",
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 15),
		IsActive:    true,
	}
	id, err := repo.CreateRecurringSchedule(ctx, s)
	if err != nil {
		t.Fatalf("CreateRecurringSchedule() error = %v", err)
	}

	got, err := repo.GetRecurringSchedule(ctx, id)
	if err != nil {
		t.Fatalf("GetRecurringSchedule() error = %v", err)
	}
	if !got.EndDate.IsEmpty() || !got.LastGenerated.IsEmpty() {
		t.Errorf("optional dates should round-trip as empty: %+v", got)
	}
	if !got.IsActive || got.Frequency != core.Monthly {
		t.Errorf("GetRecurringSchedule() = %+v", got)
	}

	got.IsActive = false
	got.EndDate = core.NewDate(2024, 12, 31)
	if err := repo.UpdateRecurringSchedule(ctx, id, got); err != nil {
		t.Fatalf("UpdateRecurringSchedule() error = %v", err)
	}
	updated, _ := repo.GetRecurringSchedule(ctx, id)
	if updated.IsActive || updated.EndDate.Format("2006-01-02") != "2024-12-31" {
		t.Errorf("update not persisted: %+v", updated)
	}

	if active, _ := repo.ListActiveRecurringSchedules(ctx); len(active) != 0 {
		t.Errorf("inactive schedule listed as active")
	}

	if err := repo.DeleteRecurringSchedule(ctx, id); err != nil {
		t.Fatalf("DeleteRecurringSchedule() error = %v", err)
	}
	if err := repo.UpdateRecurringSchedule(ctx, id, got); !errors.Is(err, ErrNotFound) {
		t.Errorf("update after delete error = %v, want ErrNotFound", err)
	}
}

func TestCommitGenerated(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	s := core.RecurringSchedule{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 999},
		Category:    "Subscriptions",
		Description: "Streaming (recurring)",
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 15),
		IsActive:    true,
	}
	id, err := repo.CreateRecurringSchedule(ctx, s)
	if err != nil {
		t.Fatalf("CreateRecurringSchedule() error = %v", err)
	}
	s, err = repo.GetRecurringSchedule(ctx, id)
	if err != nil {
		t.Fatalf("GetRecurringSchedule() error = %v", err)
	}

	instances := []core.Transaction{
		{Type: s.Type, Date: core.NewDate(2024, 2, 15), Description: s.Description, Amount: s.Amount, Category: s.Category, RecurringID: id},
		{Type: s.Type, Date: core.NewDate(2024, 3, 15), Description: s.Description, Amount: s.Amount, Category: s.Category, RecurringID: id},
	}
	ids, err := repo.CommitGenerated(ctx, s, instances)
	if err != nil {
		t.Fatalf("CommitGenerated() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("CommitGenerated() returned %d ids, want 2", len(ids))
	}

	// Checkpoint advanced to the last instance's date.
	after, _ := repo.GetRecurringSchedule(ctx, id)
	if after.LastGenerated.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("checkpoint = %v, want 2024-03-15", after.LastGenerated)
	}

	// Generated rows carry the back-reference.
	tx, err := repo.GetTransaction(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.RecurringID != id {
		t.Errorf("recurring_id = %d, want %d", tx.RecurringID, id)
	}

	// A pass still holding the old checkpoint loses the race.
	if _, err := repo.CommitGenerated(ctx, s, instances); !errors.Is(err, ErrCheckpointConflict) {
		t.Errorf("stale commit error = %v, want ErrCheckpointConflict", err)
	}
	if rows, _ := repo.ListTransactions(ctx, 2024, 2); len(rows) != 1 {
		t.Errorf("conflict should write nothing, February has %d rows", len(rows))
	}

	// Empty commit is a no-op.
	if ids, err := repo.CommitGenerated(ctx, after, nil); err != nil || ids != nil {
		t.Errorf("empty CommitGenerated() = %v, %v; want nil, nil", ids, err)
	}
}

func TestBudgetsAndMonthSummary(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertBudget(ctx, core.Budget{Category: "Food", MonthlyLimit: core.Money{Cents: 50000}}); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	// Upsert on the same category replaces the limit, keeping one row.
	id, err := repo.UpsertBudget(ctx, core.Budget{Category: "Food", MonthlyLimit: core.Money{Cents: 60000}})
	if err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	budgets, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(budgets) != 1 || budgets[0].MonthlyLimit.Cents != 60000 {
		t.Fatalf("ListBudgets() = %+v, want single Food budget at 60000", budgets)
	}

	seed := []core.Transaction{
		{Type: core.Income, Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 100000}, Category: "Salary"},
		{Type: core.Expense, Date: core.NewDate(2024, 3, 10), Amount: core.Money{Cents: 12000}, Category: "Food"},
		{Type: core.Expense, Date: core.NewDate(2024, 3, 20), Amount: core.Money{Cents: 8000}, Category: "Transport"},
		{Type: core.Expense, Date: core.NewDate(2024, 4, 2), Amount: core.Money{Cents: 999}, Category: "Food"},
	}
	for _, tx := range seed {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	summary, err := repo.ReadMonthSummary(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ReadMonthSummary() error = %v", err)
	}
	if summary.Income.Cents != 100000 || summary.Expenses.Cents != 20000 || summary.Net.Cents != 80000 {
		t.Errorf("totals = income %d, expenses %d, net %d", summary.Income.Cents, summary.Expenses.Cents, summary.Net.Cents)
	}
	if len(summary.ByCategory) != 2 || summary.ByCategory[0].Category != "Food" {
		t.Errorf("ByCategory = %+v, want Food first", summary.ByCategory)
	}
	if len(summary.Budgets) != 1 || summary.Budgets[0].Spent.Cents != 12000 {
		t.Errorf("Budgets = %+v, want Food spent 12000", summary.Budgets)
	}

	if err := repo.DeleteBudget(ctx, id); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if err := repo.DeleteBudget(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestPendingSyncFlow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Type: core.Expense, Date: core.NewDate(2024, 3, 15),
		Amount: core.Money{Cents: 4250}, Category: "Food",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v, want the new row", pending)
	}

	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if pending, _ = repo.GetPendingSyncTransactions(ctx, 10); len(pending) != 0 {
		t.Errorf("synced row still listed as pending")
	}

	if err := repo.MarkSyncError(ctx, id); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}
	if pending, _ = repo.GetPendingSyncTransactions(ctx, 10); len(pending) != 0 {
		t.Errorf("errored row should not be listed as pending")
	}
}
