package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// nextSeq yields the next registration sequence number. The derived table
// lets MySQL read the table it is updating.
const nextSeq = `(SELECT n FROM (SELECT COALESCE(MAX(seq), 0) + 1 AS n FROM device_tokens) AS next_seq)`

// GetDeviceToken retrieves a registration by its token string.
func (s *Store) GetDeviceToken(ctx context.Context, token string) (*models.DeviceToken, error) {
	device := &models.DeviceToken{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, created_at FROM device_tokens WHERE token = ?",
		token,
	).Scan(&device.ID, &device.UserID, &device.Token, &device.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("device token: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device token: %w", err)
	}
	return device, nil
}

// CreateDeviceToken persists a new registration.
func (s *Store) CreateDeviceToken(ctx context.Context, device *models.DeviceToken) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if device.CreatedAt == 0 {
		device.CreatedAt = s.now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_tokens (id, user_id, token, created_at, seq)
		 SELECT ?, ?, ?, ?, `+nextSeq,
		device.ID, device.UserID, device.Token, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert device token: %w", err)
	}
	return nil
}

// ReassignDeviceToken moves a token to userID.
func (s *Store) ReassignDeviceToken(ctx context.Context, token, userID string, registeredAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE device_tokens SET user_id = ?, created_at = ?, seq = "+nextSeq+" WHERE token = ?",
		userID, registeredAt, token,
	)
	if err != nil {
		return fmt.Errorf("failed to reassign device token: %w", err)
	}
	return updatedOrExists(res, func() error {
		_, err := s.GetDeviceToken(ctx, token)
		return err
	})
}

// DeleteDeviceToken removes a token owned by userID.
func (s *Store) DeleteDeviceToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM device_tokens WHERE user_id = ? AND token = ?",
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return requireAffected(res, "device token of user", userID)
}

// ListDeviceTokens retrieves up to limit tokens of a user, newest first.
func (s *Store) ListDeviceTokens(ctx context.Context, userID string, limit int) ([]*models.DeviceToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, token, created_at
		 FROM device_tokens WHERE user_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var devices []*models.DeviceToken
	for rows.Next() {
		device := &models.DeviceToken{}
		if err := rows.Scan(&device.ID, &device.UserID, &device.Token, &device.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device tokens: %w", err)
	}
	return devices, nil
}
