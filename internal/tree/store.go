// Package tree holds the in-memory resource hierarchy (folders, connections, the clusters
// of the opened connection and their lazily loaded sections) and keeps it in sync with the
// remote API.
//
// The store lock is never held across a remote call. Every load captures the identity of
// the node it targets and re-resolves that node before applying its result; results whose
// node left the view or was superseded by a newer load are dropped.
package tree

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
	"github.com/charlesng35/rasconsole/pkg/metrics"
)

// SectionState is the load state of a section.
type SectionState int

const (
	StateCollapsed SectionState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s SectionState) String() string {
	switch s {
	case StateCollapsed:
		return "collapsed"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("SectionState(%d)", int(s))
	}
}

// SectionRef identifies a section instance. Agents sections use an empty ClusterUUID.
type SectionRef struct {
	ConnectionID int64
	ClusterUUID  string
	Section      remote.Section
}

func (r SectionRef) String() string {
	if r.ClusterUUID == "" {
		return fmt.Sprintf("%d/%s", r.ConnectionID, r.Section)
	}
	return fmt.Sprintf("%d/%s/%s", r.ConnectionID, r.ClusterUUID, r.Section)
}

// Remote is the part of the API client used by the store.
type Remote interface {
	ListConnections(ctx context.Context) (*remote.ConnectionList, error)
	ListClusters(ctx context.Context, connectionID int64) ([]remote.Cluster, error)
	ListSection(ctx context.Context, section remote.Section, connectionID int64, clusterUUID string, aug remote.Augmentation) ([]remote.Item, error)
	ListAgents(ctx context.Context, connectionID int64) ([]remote.Item, error)
}

// Augmenter builds credential augmentations for cluster-scoped requests.
type Augmenter interface {
	BuildRequestAugmentation(ctx context.Context, connectionID int64, clusterUUID, method string) overlay.Augmentation
}

// FolderState persists folder expand flags.
type FolderState interface {
	FolderExpanded(ctx context.Context, folderID int64) bool
	SetFolderExpanded(ctx context.Context, folderID int64, expanded bool) error
}

type sectionNode struct {
	ref        SectionRef
	state      SectionState
	items      []remote.Item
	err        error
	generation uint64
}

type clusterNode struct {
	cluster  remote.Cluster
	sections map[remote.Section]*sectionNode
}

type connectionView struct {
	connectionID int64
	generation   uint64
	loading      bool
	err          error
	clusters     []*clusterNode
	agents       *sectionNode
}

// Store is the resource tree.
type Store struct {
	remote   Remote
	overlay  Augmenter
	folders  FolderState
	notifier notifications.Notifier
	log      *zap.Logger

	mu         sync.Mutex
	generation uint64
	listGen    uint64
	list       *remote.ConnectionList
	active     *connectionView
}

// Option customises a Store.
type Option func(*Store)

// WithOverlay sets the credential augmenter for cluster-scoped loads.
func WithOverlay(aug Augmenter) Option {
	return func(s *Store) { s.overlay = aug }
}

// WithFolderState sets the persisted folder expand flags.
func WithFolderState(folders FolderState) Option {
	return func(s *Store) { s.folders = folders }
}

// WithNotifier sets where load failures are reported.
func WithNotifier(n notifications.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// New constructs a Store.
func New(client Remote, opts ...Option) *Store {
	s := &Store{
		remote: client,
		list:   &remote.ConnectionList{},
		log:    logger.WithModule("tree"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) next() uint64 {
	s.generation++
	return s.generation
}

// LoadAll fetches folders and connections. If the opened connection disappeared, its view
// is dropped.
func (s *Store) LoadAll(ctx context.Context) error {
	s.mu.Lock()
	gen := s.next()
	s.listGen = gen
	s.mu.Unlock()

	list, err := s.remote.ListConnections(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listGen != gen {
		metrics.StaleResults.WithLabelValues("connections").Inc()
		s.log.Debug("discarding superseded connection list")
		return nil
	}
	if err != nil {
		s.log.Warn("load connections failed", zap.Error(err))
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("tree: load connections: %w", err)
	}

	s.list = list
	if s.active != nil && s.connectionIndex(s.active.connectionID) < 0 {
		s.active = nil
	}
	return nil
}

// LoadConnectionTree opens a connection: it fetches its clusters and rebuilds every
// section placeholder in the collapsed state. Nothing below the clusters is fetched.
// Opening a connection replaces the previously opened one immediately, so late results
// for the old view are discarded.
func (s *Store) LoadConnectionTree(ctx context.Context, connectionID int64) error {
	s.mu.Lock()
	view := &connectionView{connectionID: connectionID, generation: s.next(), loading: true}
	s.active = view
	s.mu.Unlock()

	clusters, err := s.remote.ListClusters(ctx, connectionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != view {
		metrics.StaleResults.WithLabelValues("clusters").Inc()
		s.log.Debug("discarding clusters of a closed connection", zap.Int64("connection_id", connectionID))
		return nil
	}
	view.loading = false
	if err != nil {
		view.err = err
		s.log.Warn("load clusters failed", zap.Int64("connection_id", connectionID), zap.Error(err))
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("tree: load clusters of %d: %w", connectionID, err)
	}

	view.clusters = make([]*clusterNode, 0, len(clusters))
	for _, cluster := range clusters {
		node := &clusterNode{cluster: cluster, sections: make(map[remote.Section]*sectionNode, len(remote.Sections))}
		for _, section := range remote.Sections {
			node.sections[section] = &sectionNode{
				ref: SectionRef{ConnectionID: connectionID, ClusterUUID: cluster.UUID, Section: section},
			}
		}
		view.clusters = append(view.clusters, node)
	}
	view.agents = &sectionNode{ref: SectionRef{ConnectionID: connectionID, Section: remote.SectionAgents}}
	return nil
}

// CloseConnection drops the opened connection view.
func (s *Store) CloseConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// ExpandSection loads a section. Expanding a section that is already loading does nothing;
// expanding a loaded section fetches it again. A reference that is not in view is a
// precondition failure.
func (s *Store) ExpandSection(ctx context.Context, ref SectionRef) error {
	s.mu.Lock()
	node := s.resolve(ref)
	if node == nil {
		s.mu.Unlock()
		return apperrors.NewPrecondition(fmt.Sprintf("section %s is not in view", ref))
	}
	if node.state == StateLoading {
		s.mu.Unlock()
		return nil
	}
	node.state = StateLoading
	node.items = nil
	node.err = nil
	node.generation = s.next()
	gen := node.generation
	s.mu.Unlock()

	items, err := s.fetch(ctx, ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.resolve(ref); current != node || node.generation != gen {
		metrics.StaleResults.WithLabelValues("section").Inc()
		s.log.Debug("discarding stale section result", zap.Stringer("section", ref))
		return nil
	}
	if err != nil {
		node.state = StateError
		node.err = err
		metrics.SectionLoads.WithLabelValues(string(ref.Section), "error").Inc()
		s.log.Warn("load section failed", zap.Stringer("section", ref), zap.Error(err))
		notifications.Failure(s.notifier, err)
		return fmt.Errorf("tree: load %s: %w", ref, err)
	}
	node.state = StateLoaded
	node.items = items
	metrics.SectionLoads.WithLabelValues(string(ref.Section), "success").Inc()
	return nil
}

// CollapseSection returns a section to the collapsed state, forgetting its items. A load
// still in flight for it will be discarded.
func (s *Store) CollapseSection(ref SectionRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.resolve(ref)
	if node == nil {
		return
	}
	node.state = StateCollapsed
	node.items = nil
	node.err = nil
	node.generation = s.next()
}

func (s *Store) fetch(ctx context.Context, ref SectionRef) ([]remote.Item, error) {
	if ref.Section == remote.SectionAgents {
		return s.remote.ListAgents(ctx, ref.ConnectionID)
	}
	var aug remote.Augmentation
	if s.overlay != nil && ref.Section.ClusterScoped() {
		aug = s.overlay.BuildRequestAugmentation(ctx, ref.ConnectionID, ref.ClusterUUID, http.MethodGet)
	}
	return s.remote.ListSection(ctx, ref.Section, ref.ConnectionID, ref.ClusterUUID, aug)
}

// resolve finds the section node for ref in the current view. Callers hold s.mu.
func (s *Store) resolve(ref SectionRef) *sectionNode {
	view := s.active
	if view == nil || view.loading || view.connectionID != ref.ConnectionID {
		return nil
	}
	if ref.Section == remote.SectionAgents && ref.ClusterUUID == "" {
		return view.agents
	}
	for _, cluster := range view.clusters {
		if cluster.cluster.UUID == ref.ClusterUUID {
			return cluster.sections[ref.Section]
		}
	}
	return nil
}

// ToggleFolder flips and persists the expand flag of a folder and returns the new value.
func (s *Store) ToggleFolder(ctx context.Context, folderID int64) (bool, error) {
	s.mu.Lock()
	known := false
	for _, folder := range s.list.Folders {
		if folder.ID == folderID {
			known = true
			break
		}
	}
	s.mu.Unlock()
	if !known {
		return false, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("folder %d not found", folderID))
	}
	if s.folders == nil {
		return true, nil
	}

	expanded := !s.folders.FolderExpanded(ctx, folderID)
	if err := s.folders.SetFolderExpanded(ctx, folderID, expanded); err != nil {
		notifications.Failure(s.notifier, err)
		return !expanded, err
	}
	return expanded, nil
}

// Connections returns a copy of the loaded connections.
func (s *Store) Connections() []remote.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Connection(nil), s.list.Connections...)
}

// Connection looks up a loaded connection.
func (s *Store) Connection(id int64) (remote.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.connectionIndex(id); idx >= 0 {
		return s.list.Connections[idx], true
	}
	return remote.Connection{}, false
}

// ActiveConnection returns the id of the opened connection.
func (s *Store) ActiveConnection() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0, false
	}
	return s.active.connectionID, true
}

func (s *Store) connectionIndex(id int64) int {
	for i, conn := range s.list.Connections {
		if conn.ID == id {
			return i
		}
	}
	return -1
}
