package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
)

// RuleRemote is the part of the API client used for assignment rules.
type RuleRemote interface {
	ListRules(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, aug remote.Augmentation) ([]remote.Rule, error)
	CreateRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, input remote.RuleInput, aug remote.Augmentation) error
	UpdateRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID, ruleUUID string, input remote.RuleInput, aug remote.Augmentation) error
	DeleteRule(ctx context.Context, connectionID int64, clusterUUID, serverUUID, ruleUUID string, aug remote.Augmentation) error
	ApplyRules(ctx context.Context, connectionID int64, clusterUUID, serverUUID string, full bool, aug remote.Augmentation) error
}

// Augmenter builds cluster credential augmentations.
type Augmenter interface {
	BuildRequestAugmentation(ctx context.Context, connectionID int64, clusterUUID, method string) overlay.Augmentation
}

// ServerRef names a working server of a cluster.
type ServerRef struct {
	ConnectionID int64
	ClusterUUID  string
	ServerUUID   string
}

// RuleService manages the assignment rules of working servers. Every request carries the
// cluster administrator credentials on record.
type RuleService struct {
	client   RuleRemote
	overlay  Augmenter
	notifier notifications.Notifier
}

// NewRuleService constructs a rule service.
func NewRuleService(client RuleRemote, aug Augmenter, notifier notifications.Notifier) (*RuleService, error) {
	if client == nil {
		return nil, errors.New("rule service: remote client is required")
	}
	return &RuleService{client: client, overlay: aug, notifier: notifier}, nil
}

func (s *RuleService) augment(ctx context.Context, ref ServerRef, method string) remote.Augmentation {
	if s.overlay == nil {
		return nil
	}
	return s.overlay.BuildRequestAugmentation(ctx, ref.ConnectionID, ref.ClusterUUID, method)
}

// List returns the rules of a server.
func (s *RuleService) List(ctx context.Context, ref ServerRef) ([]remote.Rule, error) {
	ctx = ensureContext(ctx)
	rules, err := s.client.ListRules(ctx, ref.ConnectionID, ref.ClusterUUID, ref.ServerUUID, s.augment(ctx, ref, http.MethodGet))
	if err != nil {
		notifications.Failure(s.notifier, err)
		return nil, fmt.Errorf("rule service: list: %w", err)
	}
	return rules, nil
}

// Create adds a rule.
func (s *RuleService) Create(ctx context.Context, ref ServerRef, input remote.RuleInput) error {
	ctx = ensureContext(ctx)
	err := s.client.CreateRule(ctx, ref.ConnectionID, ref.ClusterUUID, ref.ServerUUID, input, s.augment(ctx, ref, http.MethodPost))
	return s.done(err, "create", "Rule created")
}

// Update replaces a rule.
func (s *RuleService) Update(ctx context.Context, ref ServerRef, ruleUUID string, input remote.RuleInput) error {
	ctx = ensureContext(ctx)
	err := s.client.UpdateRule(ctx, ref.ConnectionID, ref.ClusterUUID, ref.ServerUUID, ruleUUID, input, s.augment(ctx, ref, http.MethodPost))
	return s.done(err, "update", "Rule updated")
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, ref ServerRef, ruleUUID string) error {
	ctx = ensureContext(ctx)
	err := s.client.DeleteRule(ctx, ref.ConnectionID, ref.ClusterUUID, ref.ServerUUID, ruleUUID, s.augment(ctx, ref, http.MethodPost))
	return s.done(err, "delete", "Rule deleted")
}

// Apply applies the rules; full also reassigns existing connections.
func (s *RuleService) Apply(ctx context.Context, ref ServerRef, full bool) error {
	ctx = ensureContext(ctx)
	err := s.client.ApplyRules(ctx, ref.ConnectionID, ref.ClusterUUID, ref.ServerUUID, full, s.augment(ctx, ref, http.MethodPost))
	return s.done(err, "apply", "Rules applied")
}

func (s *RuleService) done(err error, op, success string) error {
	if err != nil {
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("rule service: %s: %w", op, err)
	}
	notifications.Successf(s.notifier, "%s", success)
	return nil
}
