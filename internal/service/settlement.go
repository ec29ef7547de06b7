package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/payledger/internal/calculator"
	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// SettlementResult describes the outcome of MarkPaid.
type SettlementResult struct {
	// Share is the payer share as written.
	Share     *models.PayerShare
	Broadcast calculator.Broadcast
	Intents   []models.Intent
}

// SettlementService records payments and announces them.
type SettlementService struct {
	store      storage.Store
	dispatcher IntentDispatcher
	copy       copywriter
	logger     *slog.Logger
	now        func() time.Time
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, dispatcher IntentDispatcher, opts Options) *SettlementService {
	opts = opts.withDefaults()
	return &SettlementService{
		store:      store,
		dispatcher: dispatcher,
		copy:       opts.copywriter(),
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// MarkPaid sets the paid flag of userID's share in an expense.
//
// A zero paidAt means now. Paying the last unpaid share notifies every payer
// but the actor with FULLY_PAID; paying any other share notifies the remaining
// payers with USER_PAID. Re-marking a paid share and un-paying are silent;
// a re-marked share keeps its payment time unless paidAt is given.
func (s *SettlementService) MarkPaid(ctx context.Context, actorID, expenseID, userID string, paid bool, paidAt time.Time) (*SettlementResult, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	share, err := s.store.GetPayer(ctx, expenseID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s in expense %s", ErrPayerNotFound, userID, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payer: %w", err)
	}

	var ts int64
	if paid {
		ts = s.now().Unix()
		if !paidAt.IsZero() {
			ts = paidAt.Unix()
		}
	}

	// Only the call that actually flips the state broadcasts.
	changed, err := s.store.SetPayerPaid(ctx, expenseID, userID, paid, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to update payer: %w", err)
	}
	if !changed && paid && !paidAt.IsZero() {
		if err := s.store.UpdatePayerPaidAt(ctx, expenseID, userID, ts); err != nil {
			return nil, fmt.Errorf("failed to update payment time: %w", err)
		}
	}

	shares, err := s.store.ListPayers(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payers: %w", err)
	}
	for _, current := range shares {
		if current.UserID == userID {
			share = current
			break
		}
	}

	decision := calculator.DecideSettlement(shares, userID, actorID, paid, !changed)
	result := &SettlementResult{Share: share, Broadcast: decision.Broadcast}

	s.logger.Info("Payment updated",
		"expense_id", expenseID,
		"user_id", userID,
		"actor_id", actorID,
		"paid", paid,
		"broadcast", decision.Broadcast.String(),
	)

	if decision.Broadcast == calculator.BroadcastNone || len(decision.Recipients) == 0 {
		return result, nil
	}

	ids := append([]string{actorID, userID}, decision.Recipients...)
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get payers: %w", err)
	}

	for _, recipientID := range decision.Recipients {
		recipient := users[recipientID]
		if recipient == nil || !recipient.Registered {
			continue
		}
		switch decision.Broadcast {
		case calculator.BroadcastFullyPaid:
			result.Intents = append(result.Intents, s.copy.fullyPaid(expense, recipientID))
		case calculator.BroadcastUserPaid:
			result.Intents = append(result.Intents, s.copy.userPaid(actorID, userID, users, expense, recipientID))
		}
	}

	if len(result.Intents) > 0 {
		s.dispatcher.DispatchAll(ctx, result.Intents)
	}
	return result, nil
}
