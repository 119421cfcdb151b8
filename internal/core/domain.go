package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the canonical textual form of an expense date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a stored expense record. The store owns the collection;
	// screens only read a selected expense and write through the store.
	Expense struct {
		ID          string
		Date        Date
		Description string
		Amount      Money
		// Version starts at 1 and grows with every update.
		Version   int64
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// ExpenseInput carries the user-editable part of an expense to the store.
	ExpenseInput struct {
		Date        Date
		Description string
		Amount      Money
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// FormatDate renders a date as YYYY-MM-DD. Zero dates render as "".
func FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) String() string {
	return FormatDate(d)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// Input returns the editable fields of the expense.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
	}
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("expense id cannot be empty")
	}
	return e.Input().Validate()
}
