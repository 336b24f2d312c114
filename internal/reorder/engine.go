package reorder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/session"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
	"github.com/charlesng35/rasconsole/pkg/metrics"
)

// Mover sends move requests.
type Mover interface {
	MoveFolder(ctx context.Context, id int64, order int) error
	MoveConnection(ctx context.Context, id int64, folderID *int64, order int) error
}

// Tree is the part of the tree store the engine needs.
type Tree interface {
	Snapshot(ctx context.Context) tree.Snapshot
	LoadAll(ctx context.Context) error
}

// Engine executes drops.
type Engine struct {
	mover    Mover
	tree     Tree
	session  *session.Context
	notifier notifications.Notifier
	log      *zap.Logger
}

// NewEngine constructs an Engine. The session holds the dragged node.
func NewEngine(mover Mover, t Tree, sess *session.Context, notifier notifications.Notifier) *Engine {
	if sess == nil {
		sess = session.New()
	}
	return &Engine{
		mover:    mover,
		tree:     t,
		session:  sess,
		notifier: notifier,
		log:      logger.WithModule("reorder"),
	}
}

// BeginDrag starts dragging node.
func (e *Engine) BeginDrag(node session.NodeRef) error {
	return e.session.BeginDrag(node)
}

// CancelDrag abandons the current drag.
func (e *Engine) CancelDrag() {
	e.session.EndDrag()
}

// Drop ends the current drag on target. On success the tree is reloaded; on failure the
// tree is left as it was.
func (e *Engine) Drop(ctx context.Context, target session.NodeRef) (Intent, error) {
	dragged, ok := e.session.EndDrag()
	if !ok {
		return Intent{}, apperrors.NewPrecondition("nothing is being dragged")
	}

	intent, err := Plan(e.tree.Snapshot(ctx), dragged, target)
	if err != nil {
		metrics.Reorders.WithLabelValues(string(intent.Kind), "rejected").Inc()
		notifications.Failure(e.notifier, err)
		return intent, err
	}
	if intent.NoOp {
		metrics.Reorders.WithLabelValues(string(intent.Kind), "noop").Inc()
		return intent, nil
	}

	if err := e.send(ctx, intent); err != nil {
		metrics.Reorders.WithLabelValues(string(intent.Kind), "failure").Inc()
		e.log.Warn("move failed", zap.Stringer("intent", intent), zap.Error(err))
		notifications.Failure(e.notifier, err)
		return intent, fmt.Errorf("reorder: %s: %w", intent.Kind, err)
	}
	metrics.Reorders.WithLabelValues(string(intent.Kind), "success").Inc()
	e.log.Info("moved", zap.Stringer("intent", intent))

	if err := e.tree.LoadAll(ctx); err != nil {
		return intent, err
	}
	return intent, nil
}

// Move drags source onto target in one step.
func (e *Engine) Move(ctx context.Context, source, target session.NodeRef) (Intent, error) {
	if err := e.BeginDrag(source); err != nil {
		return Intent{}, apperrors.NewPrecondition(err.Error())
	}
	return e.Drop(ctx, target)
}

func (e *Engine) send(ctx context.Context, intent Intent) error {
	if intent.Kind == FolderToFolder {
		return e.mover.MoveFolder(ctx, intent.Source.ID, intent.Order)
	}
	return e.mover.MoveConnection(ctx, intent.Source.ID, intent.FolderID, intent.Order)
}
