package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/calculator"
	"github.com/mmynk/payledger/internal/models"
)

// copywriter renders the title and body of every notification topic.
type copywriter struct {
	now    func() time.Time
	loc    *time.Location
	symbol string
}

func displayName(u *models.User) string {
	if u == nil {
		return "Someone"
	}
	return u.DisplayName()
}

func (c copywriter) money(amount decimal.Decimal) string {
	return calculator.FormatMoney(amount, c.symbol)
}

func (c copywriter) newGroup(actor *models.User, group *models.Group, recipientID string) models.Intent {
	return models.Intent{
		Topic:       models.TopicNewGroup,
		RecipientID: recipientID,
		GroupID:     group.ID,
		Title:       "You are part of a new group",
		Body:        fmt.Sprintf("%s added you to the group %s to split expenses.", displayName(actor), group.Title),
	}
}

func (c copywriter) newExpense(actor *models.User, expense *models.Expense, share calculator.Target) models.Intent {
	return models.Intent{
		Topic:       models.TopicNewExpense,
		RecipientID: share.UserID,
		GroupID:     expense.GroupID,
		ExpenseID:   expense.ID,
		Title:       "You were assigned a new expense",
		Body: fmt.Sprintf("%s assigned you the expense %s, which %s, with a total of %s. Your share is %s.",
			displayName(actor),
			expense.Title,
			calculator.DuePhrase(expense.DueDate, c.now(), c.loc),
			c.money(expense.Cost),
			c.money(share.Amount),
		),
	}
}

// userPaid credits actorID whenever it differs from payerID, even when one of
// the two has no user record.
func (c copywriter) userPaid(actorID, payerID string, users map[string]*models.User, expense *models.Expense, recipientID string) models.Intent {
	body := fmt.Sprintf("%s paid their share of %s.", displayName(users[payerID]), expense.Title)
	if actorID != payerID {
		body = fmt.Sprintf("%s marked the share of %s in %s as paid.", displayName(users[actorID]), displayName(users[payerID]), expense.Title)
	}
	return models.Intent{
		Topic:       models.TopicUserPaid,
		RecipientID: recipientID,
		GroupID:     expense.GroupID,
		ExpenseID:   expense.ID,
		Title:       "A payment was registered",
		Body:        body,
	}
}

func (c copywriter) fullyPaid(expense *models.Expense, recipientID string) models.Intent {
	return models.Intent{
		Topic:       models.TopicFullyPaid,
		RecipientID: recipientID,
		GroupID:     expense.GroupID,
		ExpenseID:   expense.ID,
		Title:       "Expense fully paid",
		Body:        fmt.Sprintf("Every share of %s (%s) has been paid.", expense.Title, c.money(expense.Cost)),
	}
}

func (c copywriter) expiration(expense *models.Expense, share *models.PayerShare, days int) models.Intent {
	return models.Intent{
		Topic:       models.TopicExpenseExpiration,
		RecipientID: share.UserID,
		GroupID:     expense.GroupID,
		ExpenseID:   expense.ID,
		Title:       "Payment reminder",
		Body: fmt.Sprintf("The expense %s %s. Your share is %s.",
			expense.Title, calculator.DueDatePhrase(days), c.money(share.Amount)),
	}
}
