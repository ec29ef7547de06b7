package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/push"
	"github.com/mmynk/payledger/internal/storage"
)

// Data keys read by the mobile clients.
const (
	dataTopic     = "notificationTopic"
	dataGroupID   = "groupId"
	dataExpenseID = "expenseId"
)

// IntentDispatcher consumes notification intents.
type IntentDispatcher interface {
	DispatchAll(ctx context.Context, intents []models.Intent)
}

// Dispatcher pushes intents to every active device of their recipient and
// records each delivery the provider names.
//
// Delivery is best effort: failures are logged and counted, never returned,
// and one device failing never affects another.
type Dispatcher struct {
	devices  *DeviceDirectory
	records  storage.DeliveryStore
	provider push.Provider
	logger   *slog.Logger
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(devices *DeviceDirectory, records storage.DeliveryStore, provider push.Provider, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		devices:  devices,
		records:  records,
		provider: provider,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Dispatch delivers a single intent.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.Intent) {
	d.DispatchAll(ctx, []models.Intent{intent})
}

// DispatchAll delivers intents concurrently and returns once every send and
// every delivery record write has finished.
func (d *Dispatcher) DispatchAll(ctx context.Context, intents []models.Intent) {
	var g errgroup.Group
	for _, intent := range intents {
		d.metrics.intentEmitted(intent.Topic)
		g.Go(func() error {
			d.deliver(ctx, intent)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, intent models.Intent) {
	devices, err := d.devices.ActiveTokens(ctx, intent.RecipientID)
	if err != nil {
		d.logger.Error("Failed to resolve devices",
			"user_id", intent.RecipientID,
			"topic", intent.Topic,
			"error", err,
		)
		return
	}
	if len(devices) == 0 {
		d.logger.Debug("No devices for recipient", "user_id", intent.RecipientID, "topic", intent.Topic)
		return
	}

	data := map[string]string{
		dataTopic:   string(intent.Topic),
		dataGroupID: intent.GroupID,
	}
	if intent.ExpenseID != "" {
		data[dataExpenseID] = intent.ExpenseID
	}

	var g errgroup.Group
	for _, device := range devices {
		msg := push.Message{Title: intent.Title, Body: intent.Body, Data: maps.Clone(data)}
		g.Go(func() error {
			d.send(ctx, intent, device, msg)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, intent models.Intent, device *models.DeviceToken, msg push.Message) {
	deliveryID, err := d.provider.Send(ctx, device.Token, msg)
	if err != nil {
		result := resultFailed
		if errors.Is(err, push.ErrUnregistered) {
			result = resultUnregistered
		}
		d.metrics.pushSent(intent.Topic, result)
		d.logger.Warn("Push failed",
			"user_id", intent.RecipientID,
			"device_id", device.ID,
			"topic", intent.Topic,
			"error", err,
		)
		return
	}

	if deliveryID == "" {
		d.metrics.pushSent(intent.Topic, resultUnnamed)
		d.logger.Debug("Push accepted without delivery ID", "device_id", device.ID, "topic", intent.Topic)
		return
	}
	d.metrics.pushSent(intent.Topic, resultSent)

	record := &models.DeliveryRecord{
		DeviceTokenID: device.ID,
		UserID:        intent.RecipientID,
		DeliveryID:    deliveryID,
		Topic:         intent.Topic,
		GroupID:       intent.GroupID,
		ExpenseID:     intent.ExpenseID,
		Title:         intent.Title,
		Body:          intent.Body,
	}
	if err := d.records.CreateDeliveryRecord(ctx, record); err != nil {
		d.metrics.deliveryRecorded(false)
		d.logger.Error("Failed to record delivery",
			"device_id", device.ID,
			"delivery_id", deliveryID,
			"error", err,
		)
		return
	}
	d.metrics.deliveryRecorded(true)
}

// FindDelivery returns the record of a delivery made to one of the
// requesting user's devices.
func (d *Dispatcher) FindDelivery(ctx context.Context, deliveryID, requestingUserID string) (*models.DeliveryRecord, error) {
	record, err := d.records.GetDeliveryForUser(ctx, deliveryID, requestingUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find delivery: %w", err)
	}
	return record, nil
}
