package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payledger/internal/models"
)

// CreateGroup persists a new group.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = s.now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_groups (id, title, created_at) VALUES (?, ?, ?)",
		group.ID, group.Title, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM user_groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Title, &group.CreatedAt)
	if isNoRows(err) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}
