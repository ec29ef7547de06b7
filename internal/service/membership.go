package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/payledger/internal/models"
	"github.com/mmynk/payledger/internal/storage"
)

// MembershipNotifier announces new group members.
type MembershipNotifier struct {
	store      storage.Store
	dispatcher IntentDispatcher
	copy       copywriter
	logger     *slog.Logger
}

// NewMembershipNotifier creates a MembershipNotifier.
func NewMembershipNotifier(store storage.Store, dispatcher IntentDispatcher, opts Options) *MembershipNotifier {
	opts = opts.withDefaults()
	return &MembershipNotifier{
		store:      store,
		dispatcher: dispatcher,
		copy:       opts.copywriter(),
		logger:     opts.Logger,
	}
}

// AnnounceMembership sends NEW_GROUP to userID after actorID added them to a
// group. Nothing is sent when users add themselves or when userID has never
// signed up. The returned intent is nil when nothing was sent.
func (n *MembershipNotifier) AnnounceMembership(ctx context.Context, actorID, userID, groupID string) (*models.Intent, error) {
	if actorID == userID {
		return nil, nil
	}

	group, err := n.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	users, err := n.store.GetUsersByIDs(ctx, []string{actorID, userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	member := users[userID]
	if member == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if !member.Registered {
		n.logger.Debug("Skipping group announcement to unregistered user", "user_id", userID, "group_id", groupID)
		return nil, nil
	}

	intent := n.copy.newGroup(users[actorID], group, userID)
	n.dispatcher.DispatchAll(ctx, []models.Intent{intent})
	return &intent, nil
}
