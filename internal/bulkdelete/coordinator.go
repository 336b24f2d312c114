package bulkdelete

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/session"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
	"github.com/charlesng35/rasconsole/pkg/metrics"
)

// maxReportedFailures is how many failure messages a Result carries.
const maxReportedFailures = 3

// Remote is the part of the API client used by the coordinator.
type Remote interface {
	DeleteConnection(ctx context.Context, id int64) error
	AssignGroup(ctx context.Context, userID, groupID int64, action remote.GroupAction) error
	UserID() int64
}

// Tree supplies the connection list and is reloaded after changes.
type Tree interface {
	Connections() []remote.Connection
	LoadAll(ctx context.Context) error
}

// ProtectedOutcome is the result of leaving one protected group.
type ProtectedOutcome struct {
	Group Group
	Err   error
}

// Result aggregates a run.
type Result struct {
	Declined  bool
	Deleted   int
	Failed    int
	Failures  []string
	Truncated bool
	Protected []ProtectedOutcome
	// DeletedGroups are the groups that vanish with their connections.
	DeletedGroups []Group
	// Err combines every failure.
	Err error
}

// Coordinator runs bulk deletions.
type Coordinator struct {
	remote   Remote
	tree     Tree
	confirm  dialog.Confirmer
	notifier notifications.Notifier
	log      *zap.Logger
}

// New constructs a Coordinator.
func New(client Remote, t Tree, confirm dialog.Confirmer, notifier notifications.Notifier) *Coordinator {
	return &Coordinator{
		remote:   client,
		tree:     t,
		confirm:  confirm,
		notifier: notifier,
		log:      logger.WithModule("bulkdelete"),
	}
}

// Execute asks for confirmation and then deletes the selection. Membership removals for
// protected groups all complete before the first delete request; deletes are sent one at a
// time. A connection that is already gone counts as deleted.
func (c *Coordinator) Execute(ctx context.Context, selection *session.SelectionSet) (Result, error) {
	if selection.Len() == 0 {
		return Result{}, apperrors.NewPrecondition("no connections selected")
	}

	plan := BuildPlan(selection, c.tree.Connections())
	if plan.IsEmpty() {
		return Result{}, apperrors.ErrNotFound.WithMessage("selected connections are no longer in the tree")
	}
	if len(plan.ProtectedGroups) > 0 && c.remote.UserID() <= 0 {
		return Result{}, apperrors.NewPrecondition("current user id is not configured")
	}

	if c.confirm != nil {
		if c.confirm.Confirm(ctx, confirmPrompt(plan)).Wait(ctx) != dialog.Accepted {
			return Result{Declined: true}, nil
		}
	}

	result := Result{DeletedGroups: plan.DeletedGroups}
	changed := false

	for _, group := range plan.ProtectedGroups {
		err := c.remote.AssignGroup(ctx, c.remote.UserID(), group.ID, remote.GroupRemove)
		result.Protected = append(result.Protected, ProtectedOutcome{Group: group, Err: err})
		if err != nil {
			metrics.BulkDeletions.WithLabelValues("protected_failure").Inc()
			c.log.Warn("leave group failed", zap.Int64("group_id", group.ID), zap.Error(err))
			c.recordFailure(&result, fmt.Sprintf("group %s", groupLabel(group)), err)
			continue
		}
		changed = true
		metrics.BulkDeletions.WithLabelValues("protected").Inc()
		notifications.Infof(c.notifier, "%s preserved for %d remaining member(s) of group %s",
			joinLabels(group.Selected), group.RemainingMembers(), groupLabel(group))
	}

	for _, conn := range plan.Deletions {
		err := c.remote.DeleteConnection(ctx, conn.ID)
		switch {
		case err == nil:
			metrics.BulkDeletions.WithLabelValues("success").Inc()
		case apperrors.IsNotFound(err):
			metrics.BulkDeletions.WithLabelValues("not_found").Inc()
			c.log.Debug("connection already deleted", zap.Int64("connection_id", conn.ID))
			err = nil
		}
		if err != nil {
			metrics.BulkDeletions.WithLabelValues("failure").Inc()
			c.log.Warn("delete failed", zap.Int64("connection_id", conn.ID), zap.Error(err))
			c.recordFailure(&result, conn.Label(), err)
			continue
		}
		result.Deleted++
		changed = true
	}

	c.report(result)
	if changed {
		if err := c.tree.LoadAll(ctx); err != nil {
			c.log.Warn("reload after bulk delete failed", zap.Error(err))
		}
	}
	return result, nil
}

func (c *Coordinator) recordFailure(result *Result, label string, err error) {
	result.Failed++
	result.Err = multierr.Append(result.Err, fmt.Errorf("%s: %w", label, err))
	if len(result.Failures) < maxReportedFailures {
		result.Failures = append(result.Failures, fmt.Sprintf("%s: %s", label, apperrors.UserMessage(err)))
	} else {
		result.Truncated = true
	}
}

func (c *Coordinator) report(result Result) {
	if result.Failed == 0 {
		if result.Deleted > 0 {
			notifications.Successf(c.notifier, "Deleted %d connection(s)", result.Deleted)
		}
		return
	}
	message := fmt.Sprintf("Deleted %d, failed %d: %s", result.Deleted, result.Failed, strings.Join(result.Failures, "; "))
	if result.Truncated {
		message += fmt.Sprintf(" (and %d more)", result.Failed-len(result.Failures))
	}
	notifications.Warnf(c.notifier, "%s", message)
}

func confirmPrompt(plan Plan) dialog.Prompt {
	prompt := dialog.Prompt{
		Title:        "Delete connections",
		Message:      fmt.Sprintf("%d connection(s) will be deleted.", len(plan.Deletions)),
		ConfirmLabel: "Delete",
	}
	for _, group := range plan.DeletedGroups {
		prompt.Details = append(prompt.Details, fmt.Sprintf("Group %s will be deleted", groupLabel(group)))
	}
	for _, group := range plan.ProtectedGroups {
		prompt.Details = append(prompt.Details, fmt.Sprintf(
			"You will leave group %s; its %d connection(s) stay with %d remaining member(s)",
			groupLabel(group), len(group.Selected), group.RemainingMembers()))
	}
	return prompt
}

func groupLabel(group Group) string {
	if name := strings.TrimSpace(group.Name); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", group.ID)
}

func joinLabels(conns []remote.Connection) string {
	labels := make([]string, len(conns))
	for i, conn := range conns {
		labels[i] = conn.Label()
	}
	return strings.Join(labels, ", ")
}
