package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/payledger/internal/models"
)

func TestAnnounceMembership(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUsers(t, store)
	rec := &recordingDispatcher{}
	n := NewMembershipNotifier(store, rec, testOptions())

	tests := []struct {
		name       string
		actor      string
		member     string
		group      string
		wantIntent bool
		wantErr    error
	}{
		{name: "registered member", actor: "alice", member: "bob", group: "apt", wantIntent: true},
		{name: "adding yourself", actor: "alice", member: "alice", group: "apt"},
		{name: "shell user", actor: "alice", member: "dave", group: "apt"},
		{name: "unknown group", actor: "alice", member: "bob", group: "nope", wantErr: ErrGroupNotFound},
		{name: "unknown user", actor: "alice", member: "ghost", group: "apt", wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.reset()
			intent, err := n.AnnounceMembership(ctx, tt.actor, tt.member, tt.group)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if (intent != nil) != tt.wantIntent {
				t.Fatalf("intent = %+v, want intent: %v", intent, tt.wantIntent)
			}
			if !tt.wantIntent {
				if rec.count() != 0 {
					t.Errorf("dispatched %d intents", rec.count())
				}
				return
			}
			if intent.Topic != models.TopicNewGroup || intent.RecipientID != tt.member || intent.ExpenseID != "" {
				t.Errorf("intent = %+v", intent)
			}
			if intent.Body != "Alice added you to the group Apartment to split expenses." {
				t.Errorf("body = %q", intent.Body)
			}
			if rec.count() != 1 {
				t.Errorf("dispatched %d intents, want 1", rec.count())
			}
		})
	}
}
