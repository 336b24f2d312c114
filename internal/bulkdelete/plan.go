// Package bulkdelete deletes a selection of connections while respecting shared-ownership
// groups: a group whose connections are all selected but which has other members is left
// by the current user instead of having its connections deleted.
package bulkdelete

import (
	"sort"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/session"
)

// Group summarises a shared-ownership group touched by the selection.
type Group struct {
	ID           int64
	Name         string
	MembersCount int
	// TotalConnections is the number of the group's connections visible to the user.
	TotalConnections int
	Selected         []remote.Connection
}

// FullyCovered reports whether every connection of the group is selected. An unknown
// total (zero) never counts as covered.
func (g Group) FullyCovered() bool {
	return g.TotalConnections > 0 && len(g.Selected) >= g.TotalConnections
}

// RemainingMembers is the member count after the current user leaves.
func (g Group) RemainingMembers() int {
	if g.MembersCount <= 1 {
		return 0
	}
	return g.MembersCount - 1
}

// Plan is the work derived from a selection.
type Plan struct {
	// Deletions are the connections that get a delete request, in ascending id order.
	Deletions []remote.Connection
	// DeletedGroups disappear remotely together with their sole member's connections.
	DeletedGroups []Group
	// ProtectedGroups are left by the current user; their connections are not deleted.
	ProtectedGroups []Group
	// Missing lists selected ids that are not in the connection list.
	Missing []int64
}

// IsEmpty reports whether the plan sends nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Deletions) == 0 && len(p.ProtectedGroups) == 0
}

// BuildPlan partitions the selected connections by group.
func BuildPlan(selection *session.SelectionSet, connections []remote.Connection) Plan {
	byID := make(map[int64]remote.Connection, len(connections))
	for _, conn := range connections {
		byID[conn.ID] = conn
	}

	var plan Plan
	groups := map[int64]*Group{}
	var ungrouped []remote.Connection
	for _, id := range selection.IDs() {
		conn, ok := byID[id]
		if !ok {
			plan.Missing = append(plan.Missing, id)
			continue
		}
		if conn.GroupID == nil {
			ungrouped = append(ungrouped, conn)
			continue
		}
		group := groups[*conn.GroupID]
		if group == nil {
			group = &Group{
				ID:               *conn.GroupID,
				Name:             conn.GroupName,
				MembersCount:     conn.GroupMembersCount,
				TotalConnections: conn.UserConnectionsInGroup,
			}
			groups[group.ID] = group
		}
		group.Selected = append(group.Selected, conn)
	}

	groupIDs := make([]int64, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	plan.Deletions = ungrouped
	for _, id := range groupIDs {
		group := *groups[id]
		switch {
		case group.FullyCovered() && group.MembersCount > 1:
			plan.ProtectedGroups = append(plan.ProtectedGroups, group)
		case group.FullyCovered():
			plan.DeletedGroups = append(plan.DeletedGroups, group)
			plan.Deletions = append(plan.Deletions, group.Selected...)
		default:
			plan.Deletions = append(plan.Deletions, group.Selected...)
		}
	}
	sort.SliceStable(plan.Deletions, func(i, j int) bool { return plan.Deletions[i].ID < plan.Deletions[j].ID })
	return plan
}
