package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/rasconsole/internal/app"
	"github.com/charlesng35/rasconsole/internal/app/maintenance"
	"github.com/charlesng35/rasconsole/internal/bulkdelete"
	"github.com/charlesng35/rasconsole/internal/cache"
	"github.com/charlesng35/rasconsole/internal/database"
	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/reorder"
	"github.com/charlesng35/rasconsole/internal/services"
	"github.com/charlesng35/rasconsole/internal/session"
	"github.com/charlesng35/rasconsole/internal/tree"
	"github.com/charlesng35/rasconsole/internal/uistate"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

// Controller owns one instance of every component. The interactive shell keeps a single
// controller for its whole lifetime; one-shot commands build and close one per run.
type Controller struct {
	Config *app.Config

	Client  *remote.Client
	State   *uistate.State
	Overlay *overlay.Overlay
	Tree    *tree.Store
	Session *session.Context
	Hub     *notifications.Hub

	Reorder     *reorder.Engine
	BulkDelete  *bulkdelete.Coordinator
	Connections *services.ConnectionService
	Folders     *services.FolderService
	Rules       *services.RuleService
	Groups      *services.GroupService
	Cleaner     *maintenance.Cleaner

	db  *gorm.DB
	log *zap.Logger
}

// ControllerOption customises controller construction.
type ControllerOption func(*controllerDeps)

type controllerDeps struct {
	client  *remote.Client
	store   cache.Store
	confirm dialog.Confirmer
}

// WithClient uses an existing API client instead of building one from the config.
func WithClient(client *remote.Client) ControllerOption {
	return func(d *controllerDeps) { d.client = client }
}

// WithStateStore keeps UI state in store instead of opening the state database.
func WithStateStore(store cache.Store) ControllerOption {
	return func(d *controllerDeps) { d.store = store }
}

// WithConfirmer sets how confirmation prompts are answered.
func WithConfirmer(confirm dialog.Confirmer) ControllerOption {
	return func(d *controllerDeps) { d.confirm = confirm }
}

// NewController wires the components described by cfg.
func NewController(ctx context.Context, cfg *app.Config, opts ...ControllerOption) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("controller: config is required")
	}
	deps := controllerDeps{}
	for _, opt := range opts {
		opt(&deps)
	}

	c := &Controller{
		Config:  cfg,
		Session: session.New(),
		Hub:     notifications.NewHub(),
		log:     logger.WithModule("controller"),
	}

	client := deps.client
	if client == nil {
		var err error
		client, err = remote.New(remote.Config{
			BaseURL: cfg.Remote.BaseURL,
			Timeout: cfg.Remote.Timeout,
			UserID:  cfg.Remote.UserID,
			Cookie:  cfg.Remote.Cookie,
		}, remote.WithTokenSource(remote.StaticToken(cfg.Remote.CSRFToken)))
		if err != nil {
			return nil, fmt.Errorf("controller: remote client: %w", err)
		}
	}
	c.Client = client

	store := deps.store
	var stateOpts []uistate.Option
	if store == nil {
		db, err := database.OpenAndMigrate(cfg.State.Database())
		if err != nil {
			return nil, fmt.Errorf("controller: open state database: %w", err)
		}
		c.db = db
		store = cache.NewDatabaseStore(db)

		sealer, err := uistate.LoadSealer(ctx, db, cfg.State.Passphrase)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("controller: credential key: %w", err)
		}
		stateOpts = append(stateOpts, uistate.WithSealer(sealer))
	}
	c.State = uistate.New(store, stateOpts...)
	c.Overlay = overlay.New(c.State)

	c.Tree = tree.New(client,
		tree.WithOverlay(c.Overlay),
		tree.WithFolderState(c.State),
		tree.WithNotifier(c.Hub),
	)
	c.Reorder = reorder.NewEngine(client, c.Tree, c.Session, c.Hub)
	c.BulkDelete = bulkdelete.New(client, c.Tree, deps.confirm, c.Hub)

	var err error
	if c.Connections, err = services.NewConnectionService(client, c.Tree, deps.confirm, c.Hub); err != nil {
		return nil, err
	}
	if c.Folders, err = services.NewFolderService(client, c.Tree, deps.confirm, c.Hub); err != nil {
		return nil, err
	}
	if c.Rules, err = services.NewRuleService(client, c.Overlay, c.Hub); err != nil {
		return nil, err
	}
	if c.Groups, err = services.NewGroupService(client, c.Tree, c.Hub); err != nil {
		return nil, err
	}

	c.Cleaner = maintenance.NewCleaner(client, c.State,
		maintenance.WithSchedule(cfg.Maintenance.PruneSchedule))

	return c, nil
}

// RefreshCluster re-fetches every section of a cluster that is currently expanded, so a
// credential change takes effect on what is on screen.
func (c *Controller) RefreshCluster(ctx context.Context, connectionID int64, clusterUUID string) error {
	snap := c.Tree.Snapshot(ctx)
	if snap.Active == nil || snap.Active.ConnectionID != connectionID {
		return nil
	}
	var errs error
	for _, cluster := range snap.Active.Clusters {
		if cluster.UUID != clusterUUID {
			continue
		}
		for _, section := range cluster.Sections {
			if section.State == tree.StateCollapsed {
				continue
			}
			errs = multierr.Append(errs, c.Tree.ExpandSection(ctx, section.Ref))
		}
	}
	return errs
}

// Close stops background jobs and releases the state database.
func (c *Controller) Close() error {
	if c == nil {
		return nil
	}
	if c.Cleaner != nil {
		<-c.Cleaner.Stop().Done()
	}
	if c.db != nil {
		if err := database.Close(c.db); err != nil {
			c.log.Warn("close state database", zap.Error(err))
			return err
		}
		c.db = nil
	}
	return nil
}
