package tree

import (
	"context"
	"sort"

	"github.com/charlesng35/rasconsole/internal/remote"
)

// Snapshot is an immutable copy of the tree for rendering and for computing mutations.
type Snapshot struct {
	Folders []FolderView
	// Root holds the connections outside any folder, in order.
	Root []remote.Connection
	// Connections holds every loaded connection.
	Connections []remote.Connection
	Active      *ConnectionView
}

// FolderView is a folder with its expand flag and its connections in order.
type FolderView struct {
	remote.Folder
	Expanded    bool
	Connections []remote.Connection
}

// ConnectionView is the opened connection.
type ConnectionView struct {
	ConnectionID int64
	Loading      bool
	Err          error
	Clusters     []ClusterView
	Agents       SectionView
}

// ClusterView is a cluster with its sections in display order.
type ClusterView struct {
	remote.Cluster
	Sections []SectionView
}

// SectionView is one section.
type SectionView struct {
	Ref   SectionRef
	State SectionState
	Items []remote.Item
	Err   error
}

// FolderIDs returns the folder ids in rendered order.
func (s Snapshot) FolderIDs() []int64 {
	ids := make([]int64, len(s.Folders))
	for i, folder := range s.Folders {
		ids[i] = folder.ID
	}
	return ids
}

// Siblings returns the connections whose folder_id is folderID (nil means the root level)
// in order. Unlike Root it leaves out connections of unknown folders.
func (s Snapshot) Siblings(folderID *int64) []remote.Connection {
	var out []remote.Connection
	for _, conn := range s.Connections {
		if conn.InFolder(folderID) {
			out = append(out, conn)
		}
	}
	return out
}

// Find returns a connection by id.
func (s Snapshot) Find(id int64) (remote.Connection, bool) {
	for _, conn := range s.Connections {
		if conn.ID == id {
			return conn, true
		}
	}
	return remote.Connection{}, false
}

// Snapshot copies the current tree. Folder expand flags are read from the persisted state.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	folders := append([]remote.Folder(nil), s.list.Folders...)
	conns := append([]remote.Connection(nil), s.list.Connections...)
	var active *ConnectionView
	if s.active != nil {
		active = s.active.view()
	}
	s.mu.Unlock()

	sort.SliceStable(folders, func(i, j int) bool { return folders[i].Order < folders[j].Order })
	sort.SliceStable(conns, func(i, j int) bool { return conns[i].Order < conns[j].Order })

	snap := Snapshot{Connections: conns, Active: active}
	index := make(map[int64]int, len(folders))
	for i, folder := range folders {
		expanded := true
		if s.folders != nil {
			expanded = s.folders.FolderExpanded(ctx, folder.ID)
		}
		snap.Folders = append(snap.Folders, FolderView{Folder: folder, Expanded: expanded})
		index[folder.ID] = i
	}
	var orphans []remote.Connection
	for _, conn := range conns {
		if conn.FolderID == nil {
			snap.Root = append(snap.Root, conn)
			continue
		}
		if i, ok := index[*conn.FolderID]; ok {
			snap.Folders[i].Connections = append(snap.Folders[i].Connections, conn)
			continue
		}
		orphans = append(orphans, conn)
	}
	// Connections pointing at an unknown folder are shown after the root level.
	snap.Root = append(snap.Root, orphans...)
	return snap
}

// view copies a connection view. Callers hold the store lock.
func (v *connectionView) view() *ConnectionView {
	out := &ConnectionView{ConnectionID: v.connectionID, Loading: v.loading, Err: v.err}
	if v.agents != nil {
		out.Agents = v.agents.view()
	}
	for _, cluster := range v.clusters {
		cv := ClusterView{Cluster: cluster.cluster}
		for _, section := range remote.Sections {
			if node := cluster.sections[section]; node != nil {
				cv.Sections = append(cv.Sections, node.view())
			}
		}
		out.Clusters = append(out.Clusters, cv)
	}
	return out
}

func (n *sectionNode) view() SectionView {
	return SectionView{
		Ref:   n.ref,
		State: n.state,
		Items: append([]remote.Item(nil), n.items...),
		Err:   n.err,
	}
}

// Section finds a section in the opened connection view.
func (v *ConnectionView) Section(ref SectionRef) (SectionView, bool) {
	if v == nil || v.ConnectionID != ref.ConnectionID {
		return SectionView{}, false
	}
	if ref.Section == remote.SectionAgents && ref.ClusterUUID == "" {
		return v.Agents, v.Agents.Ref == ref
	}
	for _, cluster := range v.Clusters {
		if cluster.UUID != ref.ClusterUUID {
			continue
		}
		for _, section := range cluster.Sections {
			if section.Ref.Section == ref.Section {
				return section, true
			}
		}
	}
	return SectionView{}, false
}
