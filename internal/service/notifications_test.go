package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/calculator"
	"github.com/mmynk/payledger/internal/models"
)

func TestCopywriter(t *testing.T) {
	c := testOptions().withDefaults().copywriter()
	alice := &models.User{ID: "alice", FirstName: "Alice"}
	bob := &models.User{ID: "bob", Email: "bob@example.com"}
	users := map[string]*models.User{"alice": alice, "bob": bob}
	expense := &models.Expense{ID: "e1", GroupID: "g1", Title: "Rent", Cost: decimal.NewFromInt(1500), DueDate: date(2024, 3, 12)}

	tests := []struct {
		name   string
		intent models.Intent
		topic  models.Topic
		body   string
	}{
		{
			name:   "new expense",
			intent: c.newExpense(alice, expense, calculator.Target{UserID: "bob", Amount: decimal.RequireFromString("750.5")}),
			topic:  models.TopicNewExpense,
			body:   "Alice assigned you the expense Rent, which is due in 2 days, with a total of R$ 1.500,00. Your share is R$ 750,50.",
		},
		{
			name:   "new expense without due date or actor",
			intent: c.newExpense(nil, &models.Expense{Title: "Pizza", Cost: decimal.NewFromInt(80)}, calculator.Target{UserID: "bob", Amount: decimal.NewFromInt(40)}),
			topic:  models.TopicNewExpense,
			body:   "Someone assigned you the expense Pizza, which has no due date, with a total of R$ 80,00. Your share is R$ 40,00.",
		},
		{
			name:   "user paid by themselves",
			intent: c.userPaid("bob", "bob", users, expense, "alice"),
			topic:  models.TopicUserPaid,
			body:   "bob@example.com paid their share of Rent.",
		},
		{
			name:   "user paid by someone else",
			intent: c.userPaid("alice", "bob", users, expense, "carol"),
			topic:  models.TopicUserPaid,
			body:   "Alice marked the share of bob@example.com in Rent as paid.",
		},
		{
			name:   "user paid by an actor without a user record",
			intent: c.userPaid("ghost", "bob", users, expense, "carol"),
			topic:  models.TopicUserPaid,
			body:   "Someone marked the share of bob@example.com in Rent as paid.",
		},
		{
			name:   "fully paid",
			intent: c.fullyPaid(expense, "bob"),
			topic:  models.TopicFullyPaid,
			body:   "Every share of Rent (R$ 1.500,00) has been paid.",
		},
		{
			name:   "expiration",
			intent: c.expiration(expense, &models.PayerShare{UserID: "bob", Amount: decimal.NewFromInt(750)}, -5),
			topic:  models.TopicExpenseExpiration,
			body:   "The expense Rent was overdue by 5 days. Your share is R$ 750,00.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.intent.Topic != tt.topic {
				t.Errorf("topic = %s, want %s", tt.intent.Topic, tt.topic)
			}
			if tt.intent.Body != tt.body {
				t.Errorf("body = %q\nwant %q", tt.intent.Body, tt.body)
			}
			if tt.intent.Title == "" {
				t.Error("empty title")
			}
		})
	}
}
