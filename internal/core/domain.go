package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	TransactionType string

	Frequency string

	// Date is a calendar day at UTC midnight. All schedule arithmetic works
	// at whole-day granularity.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Type        TransactionType
		Date        Date
		Description string
		Amount      Money
		Category    string
		RecurringID int64 // 0 for manually entered transactions
	}

	RecurringSchedule struct {
		ID            int64
		Type          TransactionType
		Amount        Money
		Category      string
		Description   string
		Frequency     Frequency
		StartDate     Date
		EndDate       Date // zero when open-ended
		LastGenerated Date // checkpoint; zero when nothing generated yet
		IsActive      bool
	}

	Budget struct {
		ID           int64
		Category     string
		MonthlyLimit Money
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	}
	return ErrInvalidFrequency
}

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (optional end/checkpoint dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (s RecurringSchedule) Validate() error {
	if err := s.Type.Validate(); err != nil {
		return err
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if err := s.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !s.EndDate.IsEmpty() {
		if err := s.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if !s.EndDate.After(s.StartDate.Time) {
			return errors.New("end date must be after start date")
		}
	}
	if len(s.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.MonthlyLimit.Validate()
}
