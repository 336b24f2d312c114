package remote

import (
	"context"
	"fmt"
	"net/url"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/validator"
)

// Augmentation carries extra request fields (cluster admin credentials). Query is added to
// GET requests, Body is merged into POST bodies.
type Augmentation interface {
	ApplyQuery(values url.Values)
	MergeBody(body map[string]any)
}

// ListSection fetches the rows of one section of a cluster.
func (c *Client) ListSection(ctx context.Context, section Section, connectionID int64, clusterUUID string, aug Augmentation) ([]Item, error) {
	if _, err := ParseSection(string(section)); err != nil {
		return nil, apperrors.NewPrecondition(err.Error())
	}
	path, query := section.endpoint(connectionID, clusterUUID)
	if aug != nil {
		aug.ApplyQuery(query)
	}

	env, err := c.get(ctx, "sections."+string(section), path, query)
	if err != nil {
		return nil, err
	}
	rows, err := decodeList[map[string]any](env, string(section))
	if err != nil {
		return nil, err
	}
	return itemsFromPayload(rows), nil
}

// ListAgents fetches the central server (agent) administrators of a connection.
func (c *Client) ListAgents(ctx context.Context, connectionID int64) ([]Item, error) {
	env, err := c.get(ctx, "agents.list", fmt.Sprintf("/agents/%d/", connectionID), nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeList[map[string]any](env, "agents")
	if err != nil {
		return nil, err
	}
	return itemsFromPayload(rows), nil
}

func rulesPath(connectionID int64, clusterUUID, serverUUID string) string {
	return fmt.Sprintf("/rules/%d/%s/%s/", connectionID, url.PathEscape(clusterUUID), url.PathEscape(serverUUID))
}

// ListRules fetches the assignment rules of a working server.
func (c *Client) ListRules(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, aug Augmentation) ([]Rule, error) {
	query := url.Values{}
	if aug != nil {
		aug.ApplyQuery(query)
	}
	env, err := c.get(ctx, "rules.list", rulesPath(connectionID, clusterUUID, serverUUID), query)
	if err != nil {
		return nil, err
	}
	return decodeList[Rule](env, "rules")
}

// CreateRule adds an assignment rule.
func (c *Client) CreateRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, input RuleInput, aug Augmentation) error {
	if err := validator.Precondition(input); err != nil {
		return err
	}
	body := ruleBody(input)
	if aug != nil {
		aug.MergeBody(body)
	}
	_, err := c.post(ctx, "rules.create", rulesPath(connectionID, clusterUUID, serverUUID)+"create/", body)
	return err
}

// UpdateRule replaces an assignment rule.
func (c *Client) UpdateRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID, ruleUUID string, input RuleInput, aug Augmentation) error {
	if err := validator.Precondition(input); err != nil {
		return err
	}
	body := ruleBody(input)
	if aug != nil {
		aug.MergeBody(body)
	}
	path := rulesPath(connectionID, clusterUUID, serverUUID) + url.PathEscape(ruleUUID) + "/update/"
	_, err := c.post(ctx, "rules.update", path, body)
	return err
}

// DeleteRule removes an assignment rule.
func (c *Client) DeleteRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID, ruleUUID string, aug Augmentation) error {
	body := map[string]any{}
	if aug != nil {
		aug.MergeBody(body)
	}
	path := rulesPath(connectionID, clusterUUID, serverUUID) + url.PathEscape(ruleUUID) + "/delete/"
	_, err := c.post(ctx, "rules.delete", path, body)
	return err
}

// ApplyRules asks the cluster to apply assignment rules; full re-applies to existing
// connections as well.
func (c *Client) ApplyRules(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, full bool, aug Augmentation) error {
	body := map[string]any{"full": full}
	if aug != nil {
		aug.MergeBody(body)
	}
	_, err := c.post(ctx, "rules.apply", rulesPath(connectionID, clusterUUID, serverUUID)+"apply/", body)
	return err
}

// AssignGroup adds or removes a user from a shared-ownership group.
func (c *Client) AssignGroup(ctx context.Context, userID, groupID int64, action GroupAction) error {
	if action != GroupAssign && action != GroupRemove {
		return apperrors.NewPrecondition(fmt.Sprintf("unknown group action %q", action))
	}
	if userID <= 0 {
		return apperrors.NewPrecondition("current user id is not configured")
	}
	_, err := c.post(ctx, "groups.assign", "/groups/assign/", map[string]any{
		"user_id":  userID,
		"group_id": groupID,
		"action":   string(action),
	})
	return err
}

func ruleBody(input RuleInput) map[string]any {
	return map[string]any{
		"position":        input.Position,
		"object_type":     input.ObjectType,
		"infobase_name":   input.InfobaseName,
		"rule_type":       input.RuleType,
		"application_ext": input.ApplicationExt,
		"priority":        input.Priority,
	}
}

