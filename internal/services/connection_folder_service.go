package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

// FolderRemote is the part of the API client used for folders.
type FolderRemote interface {
	CreateFolder(ctx context.Context, name string) (*remote.Folder, error)
	UpdateFolder(ctx context.Context, id int64, name string) error
	DeleteFolder(ctx context.Context, id int64) error
}

// FolderService manages connection folders.
type FolderService struct {
	client   FolderRemote
	tree     Reloader
	confirm  dialog.Confirmer
	notifier notifications.Notifier
	log      *zap.Logger
}

// NewFolderService constructs a folder service.
func NewFolderService(client FolderRemote, tree Reloader, confirm dialog.Confirmer, notifier notifications.Notifier) (*FolderService, error) {
	if client == nil {
		return nil, errors.New("folder service: remote client is required")
	}
	return &FolderService{
		client:   client,
		tree:     tree,
		confirm:  confirm,
		notifier: notifier,
		log:      logger.WithModule("folders"),
	}, nil
}

// Create adds a folder at the end of the folder list.
func (s *FolderService) Create(ctx context.Context, name string) (*remote.Folder, error) {
	ctx = ensureContext(ctx)
	folder, err := s.client.CreateFolder(ctx, name)
	if err != nil {
		notifications.Failure(s.notifier, err)
		return nil, fmt.Errorf("folder service: create: %w", err)
	}
	notifications.Successf(s.notifier, "Folder %s created", folder.Name)
	s.reload(ctx)
	return folder, nil
}

// Rename renames a folder.
func (s *FolderService) Rename(ctx context.Context, id int64, name string) error {
	ctx = ensureContext(ctx)
	if err := s.client.UpdateFolder(ctx, id, name); err != nil {
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("folder service: rename %d: %w", id, err)
	}
	s.reload(ctx)
	return nil
}

// Delete removes a folder after confirmation. Its connections move to the root level.
// Declining returns (false, nil).
func (s *FolderService) Delete(ctx context.Context, id int64, name string) (bool, error) {
	ctx = ensureContext(ctx)
	if s.confirm != nil {
		prompt := dialog.Prompt{
			Title:        "Delete folder",
			Message:      fmt.Sprintf("Delete folder %s? Its connections move to the top level.", name),
			ConfirmLabel: "Delete",
		}
		if s.confirm.Confirm(ctx, prompt).Wait(ctx) != dialog.Accepted {
			return false, nil
		}
	}
	if err := s.client.DeleteFolder(ctx, id); err != nil {
		notifications.Failure(s.notifier, err)
		return false, fmt.Errorf("folder service: delete %d: %w", id, err)
	}
	notifications.Successf(s.notifier, "Folder %s deleted", name)
	s.reload(ctx)
	return true, nil
}

func (s *FolderService) reload(ctx context.Context) {
	if s.tree == nil {
		return
	}
	if err := s.tree.LoadAll(ctx); err != nil {
		s.log.Warn("reload after mutation failed", zap.Error(err))
	}
}
