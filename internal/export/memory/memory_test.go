package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestAppender_Append(t *testing.T) {
	a := New()
	tx := core.Transaction{
		ID:          7,
		Type:        core.Expense,
		Date:        core.NewDate(2024, 3, 15),
		Description: "Groceries",
		Amount:      core.Money{Cents: 4250},
		Category:    "Food",
	}

	ref, err := a.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "memory!A1" {
		t.Errorf("ref = %q, want memory!A1", ref)
	}
	if rows := a.Rows(); len(rows) != 1 || rows[0].ID != 7 {
		t.Errorf("Rows() = %+v, want the appended transaction", rows)
	}
}

func TestAppender_Fail(t *testing.T) {
	a := New()
	a.Fail(errors.New("quota exceeded"))

	if _, err := a.Append(context.Background(), core.Transaction{}); err == nil {
		t.Error("expected configured error")
	}
	if len(a.Rows()) != 0 {
		t.Error("failed append should not record a row")
	}
}
