package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/push"
	"github.com/mmynk/payledger/internal/storage/sqlstore"
)

// testNow is 2024-03-10 12:00 in UTC-3.
var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

var brt = time.FixedZone("BRT", -3*3600)

func testOptions() Options {
	return Options{
		Now:      func() time.Time { return testNow },
		Location: brt,
	}
}

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedUsers creates registered users alice, bob and carol, the shell user
// dave, and the group "apt".
func seedUsers(t *testing.T, store *sqlstore.Store) {
	t.Helper()
	ctx := context.Background()

	users := []*models.User{
		{ID: "alice", Email: "alice@example.com", FirstName: "Alice", Registered: true},
		{ID: "bob", Email: "bob@example.com", FirstName: "Bob", Registered: true},
		{ID: "carol", Email: "carol@example.com", FirstName: "Carol", Registered: true},
		{ID: "dave", Email: "dave@example.com"},
	}
	for _, u := range users {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}
	if err := store.CreateGroup(ctx, &models.Group{ID: "apt", Title: "Apartment"}); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
}

func seedExpense(t *testing.T, store *sqlstore.Store, title string, cost int64, due *time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		GroupID:   "apt",
		CreatorID: "alice",
		Title:     title,
		Cost:      decimal.NewFromInt(cost),
		DueDate:   due,
	}
	if err := store.CreateExpense(context.Background(), expense); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
	return expense
}

func seedShare(t *testing.T, store *sqlstore.Store, expenseID, userID string, amount int64, paid bool) {
	t.Helper()
	ctx := context.Background()

	share := &models.PayerShare{ExpenseID: expenseID, UserID: userID, Amount: decimal.NewFromInt(amount)}
	if err := store.CreatePayer(ctx, share); err != nil {
		t.Fatalf("failed to create share: %v", err)
	}
	if paid {
		if _, err := store.SetPayerPaid(ctx, expenseID, userID, true, testNow.Unix()); err != nil {
			t.Fatalf("failed to pay share: %v", err)
		}
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// recordingDispatcher collects intents instead of pushing them.
type recordingDispatcher struct {
	mu      sync.Mutex
	intents []models.Intent
}

func (r *recordingDispatcher) DispatchAll(_ context.Context, intents []models.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intents...)
}

func (r *recordingDispatcher) recipients(topic models.Topic) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, intent := range r.intents {
		if intent.Topic == topic {
			ids = append(ids, intent.RecipientID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.intents)
}

func (r *recordingDispatcher) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = nil
}

type sentMessage struct {
	token string
	msg   push.Message
}

// fakeProvider accepts every token except those listed in fail.
type fakeProvider struct {
	mu   sync.Mutex
	fail map[string]error
	sent []sentMessage
	seq  int
}

func (f *fakeProvider) Send(_ context.Context, token string, msg push.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail[token]; err != nil {
		return "", err
	}
	f.seq++
	f.sent = append(f.sent, sentMessage{token: token, msg: msg})
	return fmt.Sprintf("projects/test/messages/%d", f.seq), nil
}

func (f *fakeProvider) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, s := range f.sent {
		out = append(out, s.token)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
