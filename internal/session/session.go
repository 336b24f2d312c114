// Package session holds the transient interaction state of one user session: the selection
// used by bulk deletion and the node currently being dragged. It replaces ambient globals
// with an explicit value passed to the components that need it.
package session

import (
	"fmt"
	"sort"
	"sync"
)

// NodeKind identifies what a drag source or drop target is.
type NodeKind int

const (
	NodeFolder NodeKind = iota + 1
	NodeConnection
	// NodeEmptyArea is the blank space below the root level; it is only a drop target.
	NodeEmptyArea
)

func (k NodeKind) String() string {
	switch k {
	case NodeFolder:
		return "folder"
	case NodeConnection:
		return "connection"
	case NodeEmptyArea:
		return "empty area"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// NodeRef names a top-level tree node.
type NodeRef struct {
	Kind NodeKind
	ID   int64
}

// Folder returns a reference to a folder node.
func Folder(id int64) NodeRef { return NodeRef{Kind: NodeFolder, ID: id} }

// Connection returns a reference to a connection node.
func Connection(id int64) NodeRef { return NodeRef{Kind: NodeConnection, ID: id} }

// EmptyArea returns the drop target below the root level.
func EmptyArea() NodeRef { return NodeRef{Kind: NodeEmptyArea} }

func (r NodeRef) String() string {
	if r.Kind == NodeEmptyArea {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

// SelectionSet is a set of connection ids.
type SelectionSet struct {
	ids map[int64]struct{}
}

// NewSelectionSet returns a set holding ids.
func NewSelectionSet(ids ...int64) *SelectionSet {
	s := &SelectionSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add selects id.
func (s *SelectionSet) Add(id int64) { s.ids[id] = struct{}{} }

// Remove deselects id.
func (s *SelectionSet) Remove(id int64) { delete(s.ids, id) }

// Toggle flips the selection of id and reports whether it is now selected.
func (s *SelectionSet) Toggle(id int64) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *SelectionSet) IDs() []int64 {
	if s == nil {
		return nil
	}
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Context is the interaction state of one session.
type Context struct {
	mu        sync.Mutex
	selection *SelectionSet
	dragged   *NodeRef
}

// New returns an idle session context.
func New() *Context {
	return &Context{}
}

// BeginBulkDelete enters bulk-deletion mode with an empty selection. Entering the mode
// again starts over.
func (c *Context) BeginBulkDelete() *SelectionSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = NewSelectionSet()
	return c.selection
}

// Selection returns the active selection, if bulk-deletion mode is on.
func (c *Context) Selection() (*SelectionSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection, c.selection != nil
}

// EndBulkDelete leaves bulk-deletion mode and forgets the selection.
func (c *Context) EndBulkDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = nil
}

// BeginDrag records node as the dragged node, replacing any previous one.
func (c *Context) BeginDrag(node NodeRef) error {
	if node.Kind != NodeFolder && node.Kind != NodeConnection {
		return fmt.Errorf("session: %s cannot be dragged", node.Kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragged = &node
	return nil
}

// Dragged returns the node being dragged.
func (c *Context) Dragged() (NodeRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragged == nil {
		return NodeRef{}, false
	}
	return *c.dragged, true
}

// EndDrag clears the dragged node and returns it.
func (c *Context) EndDrag() (NodeRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragged == nil {
		return NodeRef{}, false
	}
	node := *c.dragged
	c.dragged = nil
	return node, true
}
