package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/remote"
)

// GroupRemote is the part of the API client used for group membership.
type GroupRemote interface {
	AssignGroup(ctx context.Context, userID, groupID int64, action remote.GroupAction) error
	UserID() int64
}

// GroupService changes the current user's membership in shared-ownership groups.
type GroupService struct {
	client   GroupRemote
	tree     Reloader
	notifier notifications.Notifier
}

// NewGroupService constructs a group service.
func NewGroupService(client GroupRemote, tree Reloader, notifier notifications.Notifier) (*GroupService, error) {
	if client == nil {
		return nil, errors.New("group service: remote client is required")
	}
	return &GroupService{client: client, tree: tree, notifier: notifier}, nil
}

// Join adds the current user to a group.
func (s *GroupService) Join(ctx context.Context, groupID int64) error {
	return s.change(ensureContext(ctx), groupID, remote.GroupAssign)
}

// Leave removes the current user from a group; the group's connections disappear from the
// user's tree but stay with the remaining members.
func (s *GroupService) Leave(ctx context.Context, groupID int64) error {
	return s.change(ensureContext(ctx), groupID, remote.GroupRemove)
}

func (s *GroupService) change(ctx context.Context, groupID int64, action remote.GroupAction) error {
	if err := s.client.AssignGroup(ctx, s.client.UserID(), groupID, action); err != nil {
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("group service: %s %d: %w", action, groupID, err)
	}
	if s.tree != nil {
		if err := s.tree.LoadAll(ctx); err != nil {
			return err
		}
	}
	return nil
}
