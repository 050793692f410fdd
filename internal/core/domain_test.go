package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTransactionType_Validate(t *testing.T) {
	for _, valid := range []TransactionType{Income, Expense} {
		if err := valid.Validate(); err != nil {
			t.Errorf("%q should be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []TransactionType{"", "transfer", "EXPENSE"} {
		if err := invalid.Validate(); !errors.Is(err, ErrInvalidType) {
			t.Errorf("%q should fail with ErrInvalidType, got %v", invalid, err)
		}
	}
}

func TestFrequency_Validate(t *testing.T) {
	for _, valid := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		if err := valid.Validate(); err != nil {
			t.Errorf("%q should be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []Frequency{"", "fortnightly", "Monthly"} {
		if err := invalid.Validate(); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("%q should fail with ErrInvalidFrequency, got %v", invalid, err)
		}
	}
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	instant := time.Date(2024, 3, 15, 0, 30, 0, 0, loc) // 2024-03-14 23:30 UTC

	d := DateOf(instant)
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 14 {
		t.Errorf("DateOf() = %v, want 2024-03-14", d)
	}
	if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("DateOf() should sit at midnight, got %02d:%02d:%02d", h, m, s)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Type:        Expense,
		Date:        NewDate(2024, 3, 15),
		Description: "Groceries",
		Amount:      Money{Cents: 4250},
		Category:    "Food",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, ErrInvalidAmount},
		{"blank category", func(tx *Transaction) { tx.Category = "   " }, ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("long description", func(t *testing.T) {
		tx := valid
		tx.Description = strings.Repeat("x", 201)
		if err := tx.Validate(); err == nil {
			t.Error("201-char description should fail")
		}
	})
}

func TestRecurringSchedule_Validate(t *testing.T) {
	valid := RecurringSchedule{
		Type:      Expense,
		Amount:    Money{Cents: 999},
		Category:  "Subscriptions",
		Frequency: Monthly,
		StartDate: NewDate(2024, 1, 15),
		IsActive:  true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid schedule failed: %v", err)
	}

	t.Run("open-ended is valid", func(t *testing.T) {
		s := valid
		s.EndDate = Date{}
		if err := s.Validate(); err != nil {
			t.Errorf("open-ended schedule failed: %v", err)
		}
	})

	t.Run("end after start is valid", func(t *testing.T) {
		s := valid
		s.EndDate = NewDate(2024, 12, 31)
		if err := s.Validate(); err != nil {
			t.Errorf("schedule with end date failed: %v", err)
		}
	})

	t.Run("end before start fails", func(t *testing.T) {
		s := valid
		s.EndDate = NewDate(2024, 1, 1)
		if err := s.Validate(); err == nil {
			t.Error("end date before start date should fail")
		}
	})

	t.Run("end equal to start fails", func(t *testing.T) {
		s := valid
		s.EndDate = s.StartDate
		if err := s.Validate(); err == nil {
			t.Error("end date equal to start date should fail")
		}
	})

	t.Run("missing start date fails", func(t *testing.T) {
		s := valid
		s.StartDate = Date{}
		if err := s.Validate(); err == nil {
			t.Error("schedule without start date should fail")
		}
	})

	t.Run("bad frequency fails", func(t *testing.T) {
		s := valid
		s.Frequency = "hourly"
		if err := s.Validate(); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("Validate() = %v, want ErrInvalidFrequency", err)
		}
	})
}

func TestBudget_Validate(t *testing.T) {
	valid := Budget{Category: "Food", MonthlyLimit: Money{Cents: 50000}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget failed: %v", err)
	}

	if err := (Budget{Category: "", MonthlyLimit: Money{Cents: 1}}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Error("blank category should fail")
	}
	if err := (Budget{Category: "Food"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Error("zero limit should fail")
	}
}
