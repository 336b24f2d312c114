package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

const defaultPruneSpec = "@every 1h"

// Source lists the live folders and connections.
type Source interface {
	ListConnections(ctx context.Context) (*remote.ConnectionList, error)
}

// Pruner removes persisted UI state of entities that no longer exist.
type Pruner interface {
	PruneFolders(ctx context.Context, keep []int64) (int, error)
	PruneCredentials(ctx context.Context, keep []int64) (int, error)
}

// Stats reports how many entries a pass removed.
type Stats struct {
	Folders     int
	Credentials int
}

// Cleaner periodically drops folder flags and cluster credentials left behind by
// folders and connections deleted elsewhere.
type Cleaner struct {
	source   Source
	state    Pruner
	cron     *cron.Cron
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification of the prune job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. With a nil source or state Start and RunOnce do nothing.
func NewCleaner(source Source, state Pruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		source:   source,
		state:    state,
		schedule: defaultPruneSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.source != nil && c.state != nil
}

// Start registers the prune job and launches the scheduler.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		stats, err := c.Prune(context.Background())
		if err != nil {
			c.log.Warn("ui state prune failed", zap.Error(err))
			return
		}
		if stats.Folders > 0 || stats.Credentials > 0 {
			c.log.Info("ui state pruned", zap.Int("folders", stats.Folders), zap.Int("credentials", stats.Credentials))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", c.schedule, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes a single prune pass.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	_, err := c.Prune(ctx)
	return err
}

// Prune fetches the live folder and connection ids and drops every persisted entry that
// refers to anything else. A failed listing prunes nothing.
func (c *Cleaner) Prune(ctx context.Context) (Stats, error) {
	if !c.enabled() {
		return Stats{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	list, err := c.source.ListConnections(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("maintenance: list connections: %w", err)
	}
	if list == nil {
		list = &remote.ConnectionList{}
	}

	folderIDs := make([]int64, 0, len(list.Folders))
	for _, folder := range list.Folders {
		folderIDs = append(folderIDs, folder.ID)
	}
	connectionIDs := make([]int64, 0, len(list.Connections))
	for _, conn := range list.Connections {
		connectionIDs = append(connectionIDs, conn.ID)
	}

	var (
		stats Stats
		errs  error
	)
	if n, err := c.state.PruneFolders(ctx, folderIDs); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		stats.Folders = n
	}
	if n, err := c.state.PruneCredentials(ctx, connectionIDs); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		stats.Credentials = n
	}
	return stats, errs
}
