package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/remote"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

// ConnectionRemote is the part of the API client used for connections.
type ConnectionRemote interface {
	CreateConnection(ctx context.Context, input remote.ConnectionInput, force bool) (*remote.Connection, error)
	UpdateConnection(ctx context.Context, id int64, input remote.ConnectionInput) error
	DeleteConnection(ctx context.Context, id int64) error
}

// ConnectionService creates, edits and deletes connections.
type ConnectionService struct {
	client   ConnectionRemote
	tree     Reloader
	confirm  dialog.Confirmer
	notifier notifications.Notifier
	log      *zap.Logger
}

// NewConnectionService constructs a connection service.
func NewConnectionService(client ConnectionRemote, tree Reloader, confirm dialog.Confirmer, notifier notifications.Notifier) (*ConnectionService, error) {
	if client == nil {
		return nil, errors.New("connection service: remote client is required")
	}
	return &ConnectionService{
		client:   client,
		tree:     tree,
		confirm:  confirm,
		notifier: notifier,
		log:      logger.WithModule("connections"),
	}, nil
}

// Create registers a connection. When the server reports connections to the same
// server/port, the user is asked whether to create it anyway; declining returns (nil, nil)
// and sends nothing more. A "not found" reply counts as done; the returned connection then
// carries no id.
func (s *ConnectionService) Create(ctx context.Context, input remote.ConnectionInput) (*remote.Connection, error) {
	ctx = ensureContext(ctx)

	created, err := s.client.CreateConnection(ctx, input, false)
	var dupErr *remote.DuplicateError
	if errors.As(err, &dupErr) {
		prompt := dialog.Prompt{
			Title:        "Connection already exists",
			Message:      fmt.Sprintf("%d connection(s) already point at %s:%d. Create another one?", len(dupErr.Duplicates), input.ServerHost, input.RASPort),
			Details:      duplicateSummary(dupErr.Duplicates),
			ConfirmLabel: "Create anyway",
		}
		if s.confirm == nil || s.confirm.Confirm(ctx, prompt).Wait(ctx) != dialog.Accepted {
			s.log.Debug("duplicate connection declined", zap.String("server_host", input.ServerHost))
			return nil, nil
		}
		created, err = s.client.CreateConnection(ctx, input, true)
	}
	if apperrors.IsNotFound(err) {
		// The server already settled the create; the reload picks up whatever exists.
		s.log.Debug("create reported not found", zap.String("display_name", input.DisplayName), zap.Error(err))
		created, err = &remote.Connection{
			DisplayName: input.DisplayName,
			Description: input.Description,
			ServerHost:  input.ServerHost,
			RASPort:     input.RASPort,
			FolderID:    input.FolderID,
		}, nil
	}
	if err != nil {
		notifications.Failure(s.notifier, err)
		return nil, fmt.Errorf("connection service: create: %w", err)
	}

	notifications.Successf(s.notifier, "Connection %s created", input.DisplayName)
	s.reload(ctx)
	return created, nil
}

// Update edits a connection.
func (s *ConnectionService) Update(ctx context.Context, id int64, input remote.ConnectionInput) error {
	ctx = ensureContext(ctx)
	if err := s.client.UpdateConnection(ctx, id, input); err != nil {
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("connection service: update %d: %w", id, err)
	}
	notifications.Successf(s.notifier, "Connection %s updated", input.DisplayName)
	s.reload(ctx)
	return nil
}

// Delete removes one connection. A connection that is already gone counts as deleted.
func (s *ConnectionService) Delete(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	if err := s.client.DeleteConnection(ctx, id); err != nil && !apperrors.IsNotFound(err) {
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("connection service: delete %d: %w", id, err)
	}
	notifications.Successf(s.notifier, "Connection deleted")
	s.reload(ctx)
	return nil
}

func (s *ConnectionService) reload(ctx context.Context) {
	if s.tree == nil {
		return
	}
	if err := s.tree.LoadAll(ctx); err != nil {
		s.log.Warn("reload after mutation failed", zap.Error(err))
	}
}
