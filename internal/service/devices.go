package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/push"
	"github.com/mmynk/payledger/internal/storage"
)

// DefaultMaxDeviceTokens bounds how many devices of a user receive a push.
const DefaultMaxDeviceTokens = 5

// DeviceDirectory keeps track of the push tokens registered by users.
type DeviceDirectory struct {
	store     storage.DeviceTokenStore
	maxTokens int
	logger    *slog.Logger
	now       func() int64
}

// NewDeviceDirectory creates a directory. maxTokens <= 0 selects
// DefaultMaxDeviceTokens.
func NewDeviceDirectory(store storage.DeviceTokenStore, maxTokens int, opts Options) *DeviceDirectory {
	opts = opts.withDefaults()
	if maxTokens <= 0 {
		maxTokens = DefaultMaxDeviceTokens
	}
	return &DeviceDirectory{
		store:     store,
		maxTokens: maxTokens,
		logger:    opts.Logger,
		now:       func() int64 { return opts.Now().Unix() },
	}
}

// Register records that token belongs to userID. A token already known,
// whoever held it, is moved to userID and becomes its most recent device.
func (d *DeviceDirectory) Register(ctx context.Context, userID, token string) (*models.DeviceToken, error) {
	if userID == "" || token == "" {
		return nil, ErrInvalidToken
	}

	now := d.now()
	existing, err := d.store.GetDeviceToken(ctx, token)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		device := &models.DeviceToken{UserID: userID, Token: token, CreatedAt: now}
		if err := d.store.CreateDeviceToken(ctx, device); err != nil {
			return nil, fmt.Errorf("failed to register device: %w", err)
		}
		d.logger.Info("Device registered", "user_id", userID, "device_id", device.ID, "token", push.Redact(token))
		return device, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}

	if err := d.store.ReassignDeviceToken(ctx, token, userID, now); err != nil {
		return nil, fmt.Errorf("failed to reassign device: %w", err)
	}
	if existing.UserID != userID {
		d.logger.Info("Device reassigned",
			"device_id", existing.ID,
			"from_user_id", existing.UserID,
			"to_user_id", userID,
		)
	}

	existing.UserID = userID
	existing.CreatedAt = now
	return existing, nil
}

// Unregister forgets a token held by userID. Unknown tokens, or tokens held
// by someone else, are ignored.
func (d *DeviceDirectory) Unregister(ctx context.Context, userID, token string) error {
	err := d.store.DeleteDeviceToken(ctx, userID, token)
	if errors.Is(err, storage.ErrNotFound) {
		d.logger.Debug("Unregister of unknown device ignored", "user_id", userID, "token", push.Redact(token))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	d.logger.Info("Device unregistered", "user_id", userID, "token", push.Redact(token))
	return nil
}

// ActiveTokens returns the devices of userID that receive pushes: the most
// recently registered ones, up to the configured bound. Older tokens are kept
// in storage but skipped.
func (d *DeviceDirectory) ActiveTokens(ctx context.Context, userID string) ([]*models.DeviceToken, error) {
	devices, err := d.store.ListDeviceTokens(ctx, userID, d.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}
