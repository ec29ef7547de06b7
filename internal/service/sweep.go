package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/payledger/internal/calculator"
	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// DefaultReminderOffsets are the days relative to the due date on which
// payers are reminded: five days and one day before, on the day, and one and
// five days late.
var DefaultReminderOffsets = []int{5, 1, 0, -1, -5}

// DefaultSweepConcurrency bounds how many expenses a sweep handles at once.
const DefaultSweepConcurrency = 4

// SweepResult summarizes one sweep.
type SweepResult struct {
	// Expenses is the number of expenses whose due date matched an offset.
	Expenses int

	// Intents are the EXPENSE_EXPIRATION notifications that were dispatched,
	// grouped by offset and then by expense.
	Intents []models.Intent
}

// Sweeper reminds payers of expenses approaching or past their due date.
type Sweeper struct {
	store       storage.Store
	dispatcher  IntentDispatcher
	copy        copywriter
	concurrency int
	logger      *slog.Logger
	metrics     *Metrics
	now         func() time.Time
	loc         *time.Location
}

// NewSweeper creates a Sweeper. concurrency <= 0 selects
// DefaultSweepConcurrency.
func NewSweeper(store storage.Store, dispatcher IntentDispatcher, concurrency int, opts Options) *Sweeper {
	opts = opts.withDefaults()
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	return &Sweeper{
		store:       store,
		dispatcher:  dispatcher,
		copy:        opts.copywriter(),
		concurrency: concurrency,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
		loc:         opts.Location,
	}
}

// Sweep sends one EXPENSE_EXPIRATION reminder per unpaid share of every
// expense due exactly today+offset, for each distinct offset. Paid shares are
// never reminded. Sweep keeps no memory of earlier runs: calling it twice
// reminds twice.
//
// A store failure stops the sweep and is returned. Expenses not yet started
// are skipped, while dispatches already under way run to completion, so a
// failed sweep may still have sent some reminders.
func (s *Sweeper) Sweep(ctx context.Context, offsets []int) (*SweepResult, error) {
	start := time.Now()
	defer func() { s.metrics.sweepFinished(time.Since(start)) }()

	offsets = distinct(offsets)
	dates := calculator.DatesForOffsets(offsets, s.now(), s.loc)

	type batch struct {
		expense *models.Expense
		days    int
	}
	var batches []batch
	for i, offset := range offsets {
		day := dates[i].Format(models.DateLayout)
		expenses, err := s.store.ListExpensesDueOn(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to list expenses due on %s: %w", day, err)
		}
		for _, expense := range expenses {
			batches = append(batches, batch{expense: expense, days: offset})
		}
	}

	perExpense := make([][]models.Intent, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, b := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			shares, err := s.store.ListPayers(gctx, b.expense.ID)
			if err != nil {
				return fmt.Errorf("failed to list payers of expense %s: %w", b.expense.ID, err)
			}
			perExpense[i] = s.remind(ctx, b.expense, shares, b.days)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SweepResult{Expenses: len(batches)}
	for _, intents := range perExpense {
		result.Intents = append(result.Intents, intents...)
	}

	s.logger.Info("Expiration sweep finished",
		"offsets", offsets,
		"expenses", result.Expenses,
		"intents", len(result.Intents),
		"duration", time.Since(start),
	)
	return result, nil
}

// remind dispatches one reminder per unpaid share of an expense. ctx is the
// caller's context, not the sweep group's.
func (s *Sweeper) remind(ctx context.Context, expense *models.Expense, shares []*models.PayerShare, days int) []models.Intent {
	var intents []models.Intent
	for _, share := range shares {
		if share.Paid {
			continue
		}
		intents = append(intents, s.copy.expiration(expense, share, days))
	}

	if len(intents) > 0 {
		s.dispatcher.DispatchAll(ctx, intents)
	}
	return intents
}

func distinct(offsets []int) []int {
	seen := make(map[int]bool, len(offsets))
	out := make([]int, 0, len(offsets))
	for _, o := range offsets {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
