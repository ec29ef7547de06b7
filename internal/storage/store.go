// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/models"
)

// ErrNotFound is returned (wrapped) by every lookup of a missing record.
var ErrNotFound = errors.New("not found")

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// CreateExpense persists a new expense.
	// The ID and CreatedAt fields are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by its ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense overwrites the title, cost and due date of an expense.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense together with its payer shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesDueOn returns the expenses due on the given calendar day
	// (formatted with models.DateLayout).
	ListExpensesDueOn(ctx context.Context, day string) ([]*models.Expense, error)
}

// PayerStore persists payer shares, keyed by (expenseID, userID).
type PayerStore interface {
	// ListPayers returns every share of an expense ordered by user ID.
	ListPayers(ctx context.Context, expenseID string) ([]*models.PayerShare, error)

	GetPayer(ctx context.Context, expenseID, userID string) (*models.PayerShare, error)

	// CreatePayer inserts a new share. It fails if the pair already exists.
	CreatePayer(ctx context.Context, share *models.PayerShare) error

	UpdatePayerAmount(ctx context.Context, expenseID, userID string, amount decimal.Decimal) error

	// SetPayerPaid moves a share to the given paid state and reports whether
	// the stored state changed. The write is conditional on the current state,
	// so of several concurrent calls with the same state exactly one reports a
	// change. paidAt (0 clears it) is written only on a change.
	SetPayerPaid(ctx context.Context, expenseID, userID string, paid bool, paidAt int64) (bool, error)

	// UpdatePayerPaidAt changes the payment time of a paid share.
	// Unpaid shares are left untouched.
	UpdatePayerPaidAt(ctx context.Context, expenseID, userID string, paidAt int64) error

	DeletePayer(ctx context.Context, expenseID, userID string) error
}

// DeviceTokenStore persists push tokens.
type DeviceTokenStore interface {
	// GetDeviceToken looks a registration up by its token string.
	GetDeviceToken(ctx context.Context, token string) (*models.DeviceToken, error)

	CreateDeviceToken(ctx context.Context, device *models.DeviceToken) error

	// ReassignDeviceToken moves an existing token to userID and refreshes
	// its registration time.
	ReassignDeviceToken(ctx context.Context, token, userID string, registeredAt int64) error

	// DeleteDeviceToken removes a token only if userID owns it.
	DeleteDeviceToken(ctx context.Context, userID, token string) error

	// ListDeviceTokens returns at most limit tokens of a user,
	// most recently registered first, including registrations made within
	// the same second.
	ListDeviceTokens(ctx context.Context, userID string, limit int) ([]*models.DeviceToken, error)
}

// DeliveryStore persists delivery records.
type DeliveryStore interface {
	CreateDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) error

	// GetDeliveryForUser returns the record with the given provider
	// delivery ID, provided it was sent to userID. Later reassignment of the
	// device token does not change who may read it.
	GetDeliveryForUser(ctx context.Context, deliveryID, userID string) (*models.DeliveryRecord, error)
}

// UserStore exposes the user records owned by the authentication subsystem.
// Lookups of unknown users return (nil, nil): callers decide whether a
// missing user is an error.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore exposes the group records owned by group management.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// Store defines every storage operation the ledger needs.
// This abstraction allows swapping storage backends (SQLite, MySQL, ...)
// without changing the service layer.
type Store interface {
	ExpenseStore
	PayerStore
	DeviceTokenStore
	DeliveryStore
	UserStore
	GroupStore

	// Close releases any resources held by the store.
	Close() error
}
