package calculator

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/payledger/internal/models"
)

func share(userID, amount string) *models.PayerShare {
	return &models.PayerShare{ExpenseID: "rent", UserID: userID, Amount: decimal.RequireFromString(amount)}
}

func target(userID, amount string) Target {
	return Target{UserID: userID, Amount: decimal.RequireFromString(amount)}
}

func userIDs(targets []Target) []string {
	var ids []string
	for _, t := range targets {
		ids = append(ids, t.UserID)
	}
	return ids
}

func TestPlanReconcile(t *testing.T) {
	tests := []struct {
		name       string
		existing   []*models.PayerShare
		targets    []Target
		wantCreate []string
		wantUpdate []string
		wantDelete []string
		wantKeep   []string
	}{
		{
			name:       "new expense creates every positive target",
			targets:    []Target{target("alice", "600"), target("bob", "400")},
			wantCreate: []string{"alice", "bob"},
		},
		{
			name:       "swap one payer",
			existing:   []*models.PayerShare{share("alice", "600"), share("bob", "400")},
			targets:    []Target{target("alice", "600"), target("carol", "400")},
			wantCreate: []string{"carol"},
			wantDelete: []string{"bob"},
			wantKeep:   []string{"alice"},
		},
		{
			name:       "amount change is an update",
			existing:   []*models.PayerShare{share("alice", "600")},
			targets:    []Target{target("alice", "550.50")},
			wantUpdate: []string{"alice"},
		},
		{
			name:     "equal amounts with different scale are unchanged",
			existing: []*models.PayerShare{share("alice", "600")},
			targets:  []Target{target("alice", "600.00")},
			wantKeep: []string{"alice"},
		},
		{
			name:       "zero deletes an existing share",
			existing:   []*models.PayerShare{share("alice", "600"), share("bob", "400")},
			targets:    []Target{target("alice", "600"), target("bob", "0")},
			wantDelete: []string{"bob"},
			wantKeep:   []string{"alice"},
		},
		{
			name:    "zero for a non-payer is skipped",
			targets: []Target{target("alice", "0")},
		},
		{
			name:     "last duplicate wins",
			existing: []*models.PayerShare{share("alice", "600")},
			targets:  []Target{target("alice", "100"), target("alice", "600")},
			wantKeep: []string{"alice"},
		},
		{
			name:       "empty target set removes everyone",
			existing:   []*models.PayerShare{share("alice", "600"), share("bob", "400")},
			wantDelete: []string{"alice", "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanReconcile(tt.existing, tt.targets)

			if got := userIDs(plan.Create); !reflect.DeepEqual(got, tt.wantCreate) {
				t.Errorf("Create = %v, want %v", got, tt.wantCreate)
			}
			if got := userIDs(plan.Update); !reflect.DeepEqual(got, tt.wantUpdate) {
				t.Errorf("Update = %v, want %v", got, tt.wantUpdate)
			}
			if !reflect.DeepEqual(plan.Delete, tt.wantDelete) {
				t.Errorf("Delete = %v, want %v", plan.Delete, tt.wantDelete)
			}
			if !reflect.DeepEqual(plan.Keep, tt.wantKeep) {
				t.Errorf("Keep = %v, want %v", plan.Keep, tt.wantKeep)
			}
		})
	}
}

func TestPlanReconcile_AppliedPlanIsStable(t *testing.T) {
	targets := []Target{target("alice", "600"), target("carol", "400"), target("bob", "0")}

	first := PlanReconcile([]*models.PayerShare{share("alice", "500"), share("bob", "400")}, targets)
	if first.Empty() {
		t.Fatal("expected first plan to write")
	}

	// Shares after applying the first plan.
	applied := []*models.PayerShare{share("alice", "600"), share("carol", "400")}
	second := PlanReconcile(applied, targets)
	if !second.Empty() {
		t.Errorf("second plan should be empty, got %+v", second)
	}
	if len(second.Keep) != 2 {
		t.Errorf("Keep = %v, want alice and carol", second.Keep)
	}
}
