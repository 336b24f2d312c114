package remote

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/validator"
)

// ListConnections fetches folders and connections, normalised to dense sibling orders.
func (c *Client) ListConnections(ctx context.Context) (*ConnectionList, error) {
	env, err := c.get(ctx, "connections.list", "/connections/", nil)
	if err != nil {
		return nil, err
	}

	list := &ConnectionList{}
	if list.Folders, err = decodeList[Folder](env, "folders"); err != nil {
		return nil, err
	}
	if list.Connections, err = decodeList[Connection](env, "connections"); err != nil {
		return nil, err
	}
	list.Normalize()
	return list, nil
}

// CreateConnection registers a connection. Without force, a server/port already in use is
// reported as a DuplicateError carrying the conflicting connections.
func (c *Client) CreateConnection(ctx context.Context, input ConnectionInput, force bool) (*Connection, error) {
	if err := validator.Precondition(input); err != nil {
		return nil, err
	}
	body := connectionBody(input)
	if force {
		body["force"] = true
	}

	env, err := c.post(ctx, "connections.create", "/connections/create/", body)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && errors.Is(appErr, apperrors.ErrDuplicate) && env != nil {
			dups, _ := decodeList[Duplicate](env, "duplicates")
			return nil, &DuplicateError{Duplicates: dups, Err: appErr}
		}
		return nil, err
	}

	var created Connection
	if env.Has("connection") {
		if err := env.Decode("connection", &created); err != nil {
			return nil, apperrors.NewTransport(err)
		}
	} else if env.Has("id") {
		if err := env.Decode("id", &created.ID); err != nil {
			return nil, apperrors.NewTransport(err)
		}
	}
	return &created, nil
}

// UpdateConnection edits a connection.
func (c *Client) UpdateConnection(ctx context.Context, id int64, input ConnectionInput) error {
	if err := validator.Precondition(input); err != nil {
		return err
	}
	_, err := c.post(ctx, "connections.update", fmt.Sprintf("/connections/update/%d/", id), connectionBody(input))
	return err
}

// DeleteConnection removes a connection. Not-found replies are returned as errors matching
// apperrors.ErrNotFound; callers decide whether that counts as success.
func (c *Client) DeleteConnection(ctx context.Context, id int64) error {
	_, err := c.post(ctx, "connections.delete", fmt.Sprintf("/connections/delete/%d/", id), nil)
	return err
}

// MoveConnection reparents a connection (nil folder means root) and sets its order.
func (c *Client) MoveConnection(ctx context.Context, id int64, folderID *int64, order int) error {
	body := map[string]any{"folder_id": nil, "order": order}
	if folderID != nil {
		body["folder_id"] = *folderID
	}
	_, err := c.post(ctx, "connections.move", fmt.Sprintf("/connections/%d/move/", id), body)
	return err
}

// ListClusters fetches the clusters of a connection.
func (c *Client) ListClusters(ctx context.Context, connectionID int64) ([]Cluster, error) {
	env, err := c.get(ctx, "clusters.list", fmt.Sprintf("/clusters/%d/", connectionID), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Cluster](env, "clusters")
}

func connectionBody(input ConnectionInput) map[string]any {
	body := map[string]any{
		"display_name": input.DisplayName,
		"description":  input.Description,
		"server_host":  input.ServerHost,
		"ras_port":     input.RASPort,
		"folder_id":    nil,
	}
	if input.FolderID != nil {
		body["folder_id"] = *input.FolderID
	}
	return body
}

// DuplicateError is returned by CreateConnection when the server reports conflicting
// connections.
type DuplicateError struct {
	Duplicates []Duplicate
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%d duplicate connection(s): %v", len(e.Duplicates), e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }
