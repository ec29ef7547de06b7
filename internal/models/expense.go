package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and comparison format of due dates.
const DateLayout = "2006-01-02"

// Expense is a cost logged in a group and split among payers.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// CreatorID is the user who logged the expense.
	CreatorID string

	// Title is the human-readable name (e.g., "Rent").
	Title string

	// Cost is the total amount of the expense. Never negative.
	Cost decimal.Decimal

	// DueDate is the day the expense is due, or nil when it has none.
	// Only the calendar day is meaningful.
	DueDate *time.Time

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64
}

// DueDay returns the due date formatted with DateLayout, or "" when unset.
func (e *Expense) DueDay() string {
	if e.DueDate == nil {
		return ""
	}
	return e.DueDate.Format(DateLayout)
}

// PayerShare is one user's owed portion of an expense.
// It is identified by the (ExpenseID, UserID) pair.
type PayerShare struct {
	ExpenseID string
	UserID    string

	// Amount is what the user owes. Always positive: a user owing nothing
	// has no share at all.
	Amount decimal.Decimal

	Paid bool

	// PaidAt is the Unix timestamp of the payment, 0 while unpaid.
	PaidAt int64
}
