package remote

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

// CreateFolder creates a folder at the end of the folder list.
func (c *Client) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewPrecondition("folder name is required")
	}
	env, err := c.post(ctx, "folders.create", "/folders/create/", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	folder := &Folder{Name: name}
	if env.Has("folder") {
		if err := env.Decode("folder", folder); err != nil {
			return nil, apperrors.NewTransport(err)
		}
	}
	return folder, nil
}

// UpdateFolder renames a folder.
func (c *Client) UpdateFolder(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewPrecondition("folder name is required")
	}
	_, err := c.post(ctx, "folders.update", fmt.Sprintf("/folders/%d/update/", id), map[string]any{"name": name})
	return err
}

// DeleteFolder deletes a folder; its connections move to the root level remotely.
func (c *Client) DeleteFolder(ctx context.Context, id int64) error {
	_, err := c.post(ctx, "folders.delete", fmt.Sprintf("/folders/%d/delete/", id), nil)
	return err
}

// MoveFolder moves a folder to position order among folders.
func (c *Client) MoveFolder(ctx context.Context, id int64, order int) error {
	_, err := c.post(ctx, "folders.move", fmt.Sprintf("/folders/%d/move/", id), map[string]any{"order": order})
	return err
}
