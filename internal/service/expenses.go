package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/calculator"
	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// PayerTarget is the amount a user should owe on an expense. The user is
// identified by UserID or, when that is empty, by Email. An Amount of zero
// removes the user from the expense.
type PayerTarget struct {
	UserID string
	Email  string
	Amount decimal.Decimal
}

// ExpenseInput holds the editable fields of an expense.
type ExpenseInput struct {
	GroupID string
	Title   string
	Cost    decimal.Decimal
	DueDate *time.Time
}

// ReconcileResult describes what Reconcile changed.
type ReconcileResult struct {
	Created   []*models.PayerShare
	Updated   []*models.PayerShare
	Removed   []*models.PayerShare
	Unchanged []*models.PayerShare

	// Intents are the NEW_EXPENSE notifications handed to the dispatcher.
	Intents []models.Intent
}

// ExpenseService manages expenses and keeps their payer shares in line with
// what the caller asks for.
type ExpenseService struct {
	store      storage.Store
	dispatcher IntentDispatcher
	copy       copywriter
	logger     *slog.Logger
}

// NewExpenseService creates an ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store, dispatcher IntentDispatcher, opts Options) *ExpenseService {
	opts = opts.withDefaults()
	return &ExpenseService{
		store:      store,
		dispatcher: dispatcher,
		copy:       opts.copywriter(),
		logger:     opts.Logger,
	}
}

func validateTargets(targets []PayerTarget) error {
	for _, t := range targets {
		if t.Amount.IsNegative() {
			return fmt.Errorf("%w: %s for %s", ErrInvalidAmount, t.Amount, targetKey(t))
		}
	}
	return nil
}

func validateInput(input ExpenseInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrInvalidTitle
	}
	if input.Cost.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidCost, input.Cost)
	}
	return nil
}

func targetKey(t PayerTarget) string {
	if t.UserID != "" {
		return t.UserID
	}
	return t.Email
}

func dueDay(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// CreateExpense logs a new expense in a group and assigns its payers.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID string, input ExpenseInput, targets []PayerTarget) (*models.Expense, *ReconcileResult, error) {
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}
	if err := validateTargets(targets); err != nil {
		return nil, nil, err
	}

	if _, err := s.store.GetGroup(ctx, input.GroupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrGroupNotFound, input.GroupID)
		}
		return nil, nil, fmt.Errorf("failed to get group: %w", err)
	}

	expense := &models.Expense{
		GroupID:   input.GroupID,
		CreatorID: actorID,
		Title:     strings.TrimSpace(input.Title),
		Cost:      input.Cost,
		DueDate:   dueDay(input.DueDate),
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.logger.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"cost", expense.Cost.String(),
		"payers_count", len(targets),
	)

	result, err := s.reconcile(ctx, actorID, expense, targets)
	if err != nil {
		return nil, nil, err
	}
	return expense, result, nil
}

// UpdateExpense edits the title, cost and due date of an expense and then
// reconciles its payers against targets. The group cannot change.
func (s *ExpenseService) UpdateExpense(ctx context.Context, actorID, expenseID string, input ExpenseInput, targets []PayerTarget) (*models.Expense, *ReconcileResult, error) {
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}
	if err := validateTargets(targets); err != nil {
		return nil, nil, err
	}

	expense, err := s.getExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}

	expense.Title = strings.TrimSpace(input.Title)
	expense.Cost = input.Cost
	expense.DueDate = dueDay(input.DueDate)
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.logger.Info("Expense updated", "expense_id", expense.ID, "cost", expense.Cost.String())

	result, err := s.reconcile(ctx, actorID, expense, targets)
	if err != nil {
		return nil, nil, err
	}
	return expense, result, nil
}

// DeleteExpense removes an expense and all of its payer shares.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, expenseID string) error {
	err := s.store.DeleteExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.logger.Info("Expense deleted", "expense_id", expenseID, "actor_id", actorID)
	return nil
}

// Reconcile brings the payer shares of an expense in line with targets.
//
// Users with no share get one (and a NEW_EXPENSE notification, unless they
// are the actor or have never signed up). Users whose amount changed are
// updated silently. Users with a zero amount or no target at all lose their
// share. Targets that resolve to no known user are skipped. Calling Reconcile
// twice with the same targets writes nothing the second time.
func (s *ExpenseService) Reconcile(ctx context.Context, actorID, expenseID string, targets []PayerTarget) (*ReconcileResult, error) {
	if err := validateTargets(targets); err != nil {
		return nil, err
	}

	expense, err := s.getExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, actorID, expense, targets)
}

func (s *ExpenseService) getExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

func (s *ExpenseService) reconcile(ctx context.Context, actorID string, expense *models.Expense, targets []PayerTarget) (*ReconcileResult, error) {
	resolved, users, err := s.resolveTargets(ctx, targets)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListPayers(ctx, expense.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payers: %w", err)
	}
	current := make(map[string]*models.PayerShare, len(existing))
	for _, share := range existing {
		current[share.UserID] = share
	}

	plan := calculator.PlanReconcile(existing, resolved)
	result := &ReconcileResult{}

	for _, t := range plan.Create {
		share := &models.PayerShare{ExpenseID: expense.ID, UserID: t.UserID, Amount: t.Amount}
		if err := s.store.CreatePayer(ctx, share); err != nil {
			return nil, fmt.Errorf("failed to add payer %s: %w", t.UserID, err)
		}
		result.Created = append(result.Created, share)
	}

	for _, t := range plan.Update {
		if err := s.store.UpdatePayerAmount(ctx, expense.ID, t.UserID, t.Amount); err != nil {
			return nil, fmt.Errorf("failed to update payer %s: %w", t.UserID, err)
		}
		share := *current[t.UserID]
		share.Amount = t.Amount
		result.Updated = append(result.Updated, &share)
	}

	for _, userID := range plan.Delete {
		if err := s.store.DeletePayer(ctx, expense.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to remove payer %s: %w", userID, err)
		}
		result.Removed = append(result.Removed, current[userID])
	}

	for _, userID := range plan.Keep {
		result.Unchanged = append(result.Unchanged, current[userID])
	}

	if len(plan.Create) > 0 {
		actor, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to get actor: %w", err)
		}
		for _, t := range plan.Create {
			if t.UserID == actorID || !users[t.UserID].Registered {
				continue
			}
			result.Intents = append(result.Intents, s.copy.newExpense(actor, expense, t))
		}
	}

	if !plan.Empty() {
		s.logger.Info("Payers reconciled",
			"expense_id", expense.ID,
			"created", len(result.Created),
			"updated", len(result.Updated),
			"removed", len(result.Removed),
			"unchanged", len(result.Unchanged),
		)
	}

	if len(result.Intents) > 0 {
		s.dispatcher.DispatchAll(ctx, result.Intents)
	}
	return result, nil
}

// resolveTargets maps targets to known users. Targets naming nobody known are
// dropped.
func (s *ExpenseService) resolveTargets(ctx context.Context, targets []PayerTarget) ([]calculator.Target, map[string]*models.User, error) {
	var ids []string
	for _, t := range targets {
		if t.UserID != "" {
			ids = append(ids, t.UserID)
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get payers: %w", err)
	}

	resolved := make([]calculator.Target, 0, len(targets))
	for _, t := range targets {
		user := users[t.UserID]
		if t.UserID == "" && t.Email != "" {
			user, err = s.store.GetUserByEmail(ctx, t.Email)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to get payer by email: %w", err)
			}
			if user != nil {
				users[user.ID] = user
			}
		}
		if user == nil {
			s.logger.Debug("Skipping unknown payer", "payer", targetKey(t))
			continue
		}
		resolved = append(resolved, calculator.Target{UserID: user.ID, Amount: t.Amount})
	}
	return resolved, users, nil
}
