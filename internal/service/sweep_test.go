package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage/sqlstore"
)

// seedSweep creates expenses due around 2024-03-10 and returns their IDs by
// name.
func seedSweep(t *testing.T, store *sqlstore.Store) map[string]string {
	t.Helper()

	ids := make(map[string]string)
	add := func(name string, due *time.Time) string {
		e := seedExpense(t, store, name, 100, due)
		ids[name] = e.ID
		return e.ID
	}

	today := add("today", date(2024, 3, 10))
	seedShare(t, store, today, "alice", 60, false)
	seedShare(t, store, today, "bob", 40, true)

	seedShare(t, store, add("tomorrow", date(2024, 3, 11)), "carol", 100, false)
	seedShare(t, store, add("yesterday", date(2024, 3, 9)), "bob", 100, false)
	seedShare(t, store, add("in five", date(2024, 3, 15)), "alice", 100, false)
	seedShare(t, store, add("five late", date(2024, 3, 5)), "carol", 100, false)
	seedShare(t, store, add("in two", date(2024, 3, 12)), "alice", 100, false)
	seedShare(t, store, add("no due date", nil), "alice", 100, false)

	settled := add("settled", date(2024, 3, 10))
	seedShare(t, store, settled, "carol", 100, true)

	return ids
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("reminds unpaid shares for each offset", func(t *testing.T) {
		store := newTestStore(t)
		seedUsers(t, store)
		ids := seedSweep(t, store)
		rec := &recordingDispatcher{}
		sweeper := NewSweeper(store, rec, 2, testOptions())

		result, err := sweeper.Sweep(ctx, []int{-1, 0, 1})
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}

		if result.Expenses != 4 {
			t.Errorf("expenses = %d, want 4", result.Expenses)
		}
		want := []struct {
			expense, user, phrase string
		}{
			{"yesterday", "bob", "was due yesterday"},
			{"today", "alice", "is due today"},
			{"tomorrow", "carol", "is due tomorrow"},
		}
		if len(result.Intents) != len(want) {
			t.Fatalf("intents = %+v, want %d", result.Intents, len(want))
		}
		for i, w := range want {
			got := result.Intents[i]
			if got.Topic != models.TopicExpenseExpiration || got.ExpenseID != ids[w.expense] || got.RecipientID != w.user {
				t.Errorf("intent %d = %+v, want %s for %s", i, got, w.expense, w.user)
			}
			if !strings.Contains(got.Body, w.phrase) {
				t.Errorf("intent %d body %q does not contain %q", i, got.Body, w.phrase)
			}
		}
		if rec.count() != len(want) {
			t.Errorf("dispatched %d intents, want %d", rec.count(), len(want))
		}
	})

	t.Run("default offsets", func(t *testing.T) {
		store := newTestStore(t)
		seedUsers(t, store)
		seedSweep(t, store)
		rec := &recordingDispatcher{}

		result, err := NewSweeper(store, rec, 0, testOptions()).Sweep(ctx, DefaultReminderOffsets)
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if len(result.Intents) != 5 {
			t.Fatalf("intents = %d, want 5", len(result.Intents))
		}
		if !strings.Contains(result.Intents[0].Body, "is due in 5 days") {
			t.Errorf("first body = %q", result.Intents[0].Body)
		}
		if !strings.Contains(result.Intents[4].Body, "was overdue by 5 days") {
			t.Errorf("last body = %q", result.Intents[4].Body)
		}
	})

	t.Run("repeated offsets count once", func(t *testing.T) {
		store := newTestStore(t)
		seedUsers(t, store)
		seedSweep(t, store)

		result, err := NewSweeper(store, &recordingDispatcher{}, 1, testOptions()).Sweep(ctx, []int{0, 0, 0})
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if len(result.Intents) != 1 {
			t.Errorf("intents = %d, want 1", len(result.Intents))
		}
	})

	t.Run("today follows the configured zone", func(t *testing.T) {
		store := newTestStore(t)
		seedUsers(t, store)
		ids := seedSweep(t, store)

		opts := testOptions()
		// 01:00 UTC on the 11th is still the 10th in UTC-3.
		opts.Now = func() time.Time { return time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC) }

		result, err := NewSweeper(store, &recordingDispatcher{}, 1, opts).Sweep(ctx, []int{0})
		if err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if len(result.Intents) != 1 || result.Intents[0].ExpenseID != ids["today"] {
			t.Errorf("intents = %+v, want the expense due on the 10th", result.Intents)
		}
	})

	t.Run("records the duration", func(t *testing.T) {
		store := newTestStore(t)
		seedUsers(t, store)

		opts := testOptions()
		opts.Metrics = NewMetrics(prometheus.NewRegistry())

		if _, err := NewSweeper(store, &recordingDispatcher{}, 1, opts).Sweep(ctx, []int{0}); err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
		if got := testutil.CollectAndCount(opts.Metrics.sweepDuration); got != 1 {
			t.Errorf("sweep duration series = %d, want 1", got)
		}
	})
}

func TestDistinct(t *testing.T) {
	got := distinct([]int{5, 1, 5, 0, 1, -1})
	want := []int{5, 1, 0, -1}
	if len(got) != len(want) {
		t.Fatalf("distinct = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("distinct = %v, want %v", got, want)
		}
	}
}

// flakyPayersStore fails ListPayers for one expense once the read of every
// other expense has started. The other reads complete only after the sweep
// has been cancelled.
type flakyPayersStore struct {
	*sqlstore.Store
	failID  string
	started chan struct{}
}

func (f *flakyPayersStore) ListPayers(ctx context.Context, expenseID string) ([]*models.PayerShare, error) {
	if expenseID == f.failID {
		<-f.started
		return nil, errors.New("connection reset")
	}
	close(f.started)
	<-ctx.Done()
	return f.Store.ListPayers(context.Background(), expenseID)
}

type dispatchFunc func(ctx context.Context, intents []models.Intent)

func (f dispatchFunc) DispatchAll(ctx context.Context, intents []models.Intent) {
	f(ctx, intents)
}

func TestSweep_StoreFailureLetsStartedDispatchFinish(t *testing.T) {
	store := newTestStore(t)
	seedUsers(t, store)
	water := seedExpense(t, store, "Water", 100, date(2024, 3, 10))
	seedShare(t, store, water.ID, "alice", 100, false)
	power := seedExpense(t, store, "Power", 100, date(2024, 3, 10))
	seedShare(t, store, power.ID, "bob", 100, false)

	flaky := &flakyPayersStore{Store: store, failID: power.ID, started: make(chan struct{})}

	var (
		mu         sync.Mutex
		dispatched []models.Intent
		ctxErrs    []error
	)
	dispatcher := dispatchFunc(func(ctx context.Context, intents []models.Intent) {
		mu.Lock()
		defer mu.Unlock()
		dispatched = append(dispatched, intents...)
		ctxErrs = append(ctxErrs, ctx.Err())
	})

	sweeper := NewSweeper(flaky, dispatcher, 2, testOptions())
	if _, err := sweeper.Sweep(context.Background(), []int{0}); err == nil {
		t.Fatal("expected the store failure to be returned")
	}

	if len(dispatched) != 1 || dispatched[0].ExpenseID != water.ID {
		t.Fatalf("dispatched = %+v, want the Water reminder", dispatched)
	}
	if ctxErrs[0] != nil {
		t.Errorf("dispatch ran with a cancelled context: %v", ctxErrs[0])
	}
}
