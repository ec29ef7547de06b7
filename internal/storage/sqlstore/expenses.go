package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payledger/internal/models"
)

const expenseColumns = "id, group_id, creator_id, title, cost, due_date, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var due sql.NullString
	if err := row.Scan(&expense.ID, &expense.GroupID, &expense.CreatorID, &expense.Title,
		&expense.Cost, &due, &expense.CreatedAt, &expense.UpdatedAt); err != nil {
		return nil, err
	}
	day, err := parseDay(due)
	if err != nil {
		return nil, err
	}
	expense.DueDate = day
	return expense, nil
}

// CreateExpense persists a new expense to the database.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = s.now().Unix()
	}
	if expense.UpdatedAt == 0 {
		expense.UpdatedAt = expense.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.CreatorID, expense.Title,
		expense.Cost, nullString(expense.DueDay()), expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID)

	expense, err := scanExpense(row)
	if isNoRows(err) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// UpdateExpense overwrites the editable fields of an expense and stamps
// UpdatedAt.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = s.now().Unix()

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, cost = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		expense.Title, expense.Cost, nullString(expense.DueDay()), expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return updatedOrExists(res, func() error {
		_, err := s.GetExpense(ctx, expense.ID)
		return err
	})
}

// DeleteExpense removes an expense and its payer shares in one transaction.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payer_shares WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete payer shares: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if err := requireAffected(res, "expense", expenseID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpensesDueOn returns the expenses due on day (YYYY-MM-DD).
func (s *Store) ListExpensesDueOn(ctx context.Context, day string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE due_date = ? ORDER BY created_at, id`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses due on %s: %w", day, err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
