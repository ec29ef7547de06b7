package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/models"
)

func scanPayer(row rowScanner) (*models.PayerShare, error) {
	share := &models.PayerShare{}
	var paidAt sql.NullInt64
	if err := row.Scan(&share.ExpenseID, &share.UserID, &share.Amount, &share.Paid, &paidAt); err != nil {
		return nil, err
	}
	share.PaidAt = paidAt.Int64
	return share, nil
}

// ListPayers retrieves all shares of an expense ordered by user ID.
func (s *Store) ListPayers(ctx context.Context, expenseID string) ([]*models.PayerShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount, paid, paid_at
		 FROM payer_shares WHERE expense_id = ? ORDER BY user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payers: %w", err)
	}
	defer rows.Close()

	var shares []*models.PayerShare
	for rows.Next() {
		share, err := scanPayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payer: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payers: %w", err)
	}
	return shares, nil
}

// GetPayer retrieves one share by its composite key.
func (s *Store) GetPayer(ctx context.Context, expenseID, userID string) (*models.PayerShare, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT expense_id, user_id, amount, paid, paid_at
		 FROM payer_shares WHERE expense_id = ? AND user_id = ?`,
		expenseID, userID,
	)
	share, err := scanPayer(row)
	if isNoRows(err) {
		return nil, notFound("payer", expenseID+"/"+userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payer: %w", err)
	}
	return share, nil
}

// CreatePayer inserts a new share.
func (s *Store) CreatePayer(ctx context.Context, share *models.PayerShare) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payer_shares (expense_id, user_id, amount, paid, paid_at) VALUES (?, ?, ?, ?, ?)`,
		share.ExpenseID, share.UserID, share.Amount, share.Paid, nullInt(share.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payer: %w", err)
	}
	return nil
}

// UpdatePayerAmount changes what a payer owes.
func (s *Store) UpdatePayerAmount(ctx context.Context, expenseID, userID string, amount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payer_shares SET amount = ? WHERE expense_id = ? AND user_id = ?`,
		amount, expenseID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payer amount: %w", err)
	}
	return updatedOrExists(res, s.payerExists(ctx, expenseID, userID))
}

// SetPayerPaid flips the paid state of a share if it differs from paid.
// It reports whether this call made the change.
func (s *Store) SetPayerPaid(ctx context.Context, expenseID, userID string, paid bool, paidAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payer_shares SET paid = ?, paid_at = ?
		 WHERE expense_id = ? AND user_id = ? AND paid <> ?`,
		paid, nullInt(paidAt), expenseID, userID, paid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payer paid state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if err := s.payerExists(ctx, expenseID, userID)(); err != nil {
		return false, err
	}
	return false, nil
}

// UpdatePayerPaidAt restamps a paid share.
func (s *Store) UpdatePayerPaidAt(ctx context.Context, expenseID, userID string, paidAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payer_shares SET paid_at = ? WHERE expense_id = ? AND user_id = ? AND paid = ?`,
		nullInt(paidAt), expenseID, userID, true,
	)
	if err != nil {
		return fmt.Errorf("failed to update payer paid time: %w", err)
	}
	return updatedOrExists(res, s.payerExists(ctx, expenseID, userID))
}

// DeletePayer removes a share.
func (s *Store) DeletePayer(ctx context.Context, expenseID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM payer_shares WHERE expense_id = ? AND user_id = ?",
		expenseID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete payer: %w", err)
	}
	return requireAffected(res, "payer", expenseID+"/"+userID)
}

func (s *Store) payerExists(ctx context.Context, expenseID, userID string) func() error {
	return func() error {
		_, err := s.GetPayer(ctx, expenseID, userID)
		return err
	}
}
