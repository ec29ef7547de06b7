package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/models"
)

// Target is the amount a resolved user should owe on an expense.
type Target struct {
	UserID string
	Amount decimal.Decimal
}

// Plan lists the operations that bring an expense's stored payer shares in
// line with a target set.
type Plan struct {
	// Create holds targets with no existing share and a positive amount.
	Create []Target

	// Update holds targets whose existing share has a different amount.
	Update []Target

	// Delete holds users whose share must go: a target amount of zero or
	// less, or no target at all.
	Delete []string

	// Keep holds users whose share already matches the target.
	Keep []string
}

// Empty reports whether applying the plan would write nothing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// PlanReconcile diffs the existing shares of one expense against targets.
//
// A target amount of zero (or less) means "not a payer": an existing share is
// deleted and no share is created. When a user appears in several targets the
// last one wins. Users with a share but no target are deleted. Operations keep
// the order of first appearance in targets, followed by existing shares.
func PlanReconcile(existing []*models.PayerShare, targets []Target) Plan {
	current := make(map[string]*models.PayerShare, len(existing))
	for _, share := range existing {
		current[share.UserID] = share
	}

	order := make([]string, 0, len(targets))
	wanted := make(map[string]decimal.Decimal, len(targets))
	for _, t := range targets {
		if _, seen := wanted[t.UserID]; !seen {
			order = append(order, t.UserID)
		}
		wanted[t.UserID] = t.Amount
	}

	var plan Plan
	for _, userID := range order {
		amount := wanted[userID]
		share, exists := current[userID]
		switch {
		case !exists && amount.IsPositive():
			plan.Create = append(plan.Create, Target{UserID: userID, Amount: amount})
		case !exists:
			// Zero for someone who owes nothing: nothing to do.
		case !amount.IsPositive():
			plan.Delete = append(plan.Delete, userID)
		case amount.Equal(share.Amount):
			plan.Keep = append(plan.Keep, userID)
		default:
			plan.Update = append(plan.Update, Target{UserID: userID, Amount: amount})
		}
	}

	for _, share := range existing {
		if _, targeted := wanted[share.UserID]; !targeted {
			plan.Delete = append(plan.Delete, share.UserID)
		}
	}

	return plan
}
