package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payledger/internal/models"
)

// CreateDeliveryRecord persists a delivery record.
func (s *Store) CreateDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = s.now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_records
		 (id, device_token_id, user_id, delivery_id, topic, group_id, expense_id, title, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.DeviceTokenID, record.UserID, record.DeliveryID, string(record.Topic), record.GroupID,
		nullString(record.ExpenseID), record.Title, record.Body, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery record: %w", err)
	}
	return nil
}

// GetDeliveryForUser retrieves a record by provider delivery ID, scoped to
// the user it was sent to.
func (s *Store) GetDeliveryForUser(ctx context.Context, deliveryID, userID string) (*models.DeliveryRecord, error) {
	record := &models.DeliveryRecord{}
	var topic string
	var expenseID sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, device_token_id, user_id, delivery_id, topic, group_id, expense_id, title, body, created_at
		 FROM delivery_records
		 WHERE delivery_id = ? AND user_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		deliveryID, userID,
	).Scan(&record.ID, &record.DeviceTokenID, &record.UserID, &record.DeliveryID, &topic, &record.GroupID,
		&expenseID, &record.Title, &record.Body, &record.CreatedAt)

	if isNoRows(err) {
		return nil, notFound("delivery", deliveryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery record: %w", err)
	}

	record.Topic = models.Topic(topic)
	if expenseID.Valid {
		record.ExpenseID = expenseID.String
	}
	return record, nil
}
