package cli

import (
	"fmt"
	"strings"

	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

// renderTree prints the folder/connection hierarchy and, below the opened connection, its
// clusters and sections.
func renderTree(snap tree.Snapshot) string {
	root := ltree.Root(titleStyle.Render("Connections")).Enumerator(ltree.RoundedEnumerator)

	for _, folder := range snap.Folders {
		if !folder.Expanded {
			root.Child(fmt.Sprintf("▸ %s %s", folder.Name, dimStyle.Render(fmt.Sprintf("[folder %d, %d]", folder.ID, len(folder.Connections)))))
			continue
		}
		node := ltree.Root(fmt.Sprintf("▾ %s %s", folder.Name, dimStyle.Render(fmt.Sprintf("[folder %d]", folder.ID))))
		for _, conn := range folder.Connections {
			node.Child(connectionNode(conn, snap.Active))
		}
		root.Child(node)
	}
	for _, conn := range snap.Root {
		root.Child(connectionNode(conn, snap.Active))
	}
	return root.String()
}

func connectionNode(conn remote.Connection, active *tree.ConnectionView) any {
	label := fmt.Sprintf("%s %s", conn.Label(), dimStyle.Render(fmt.Sprintf("%s:%d [%d]", conn.ServerHost, conn.RASPort, conn.ID)))
	if conn.GroupID != nil {
		label += dimStyle.Render(fmt.Sprintf(" group %s (%d members)", groupName(conn), conn.GroupMembersCount))
	}
	if active == nil || active.ConnectionID != conn.ID {
		return label
	}

	node := ltree.Root("● " + label)
	switch {
	case active.Loading:
		node.Child(dimStyle.Render("loading…"))
		return node
	case active.Err != nil:
		node.Child(errorStyle.Render(apperrors.UserMessage(active.Err)))
		return node
	}
	for _, cluster := range active.Clusters {
		clusterNode := ltree.Root(fmt.Sprintf("%s %s", clusterName(cluster.Cluster), dimStyle.Render(cluster.UUID)))
		for _, section := range cluster.Sections {
			clusterNode.Child(sectionNode(section))
		}
		node.Child(clusterNode)
	}
	node.Child(sectionNode(active.Agents))
	return node
}

func sectionNode(section tree.SectionView) any {
	name := string(section.Ref.Section)
	switch section.State {
	case tree.StateLoading:
		return dimStyle.Render("… " + name)
	case tree.StateError:
		return errorStyle.Render(fmt.Sprintf("✗ %s: %s", name, apperrors.UserMessage(section.Err)))
	case tree.StateLoaded:
		node := ltree.Root(fmt.Sprintf("▾ %s (%d)", name, len(section.Items)))
		for _, item := range section.Items {
			node.Child(itemLabel(item))
		}
		return node
	default:
		return "▸ " + name
	}
}

func itemLabel(item remote.Item) string {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		name = item.ID
	}
	if item.ID != "" && item.ID != name {
		return fmt.Sprintf("%s %s", name, dimStyle.Render(item.ID))
	}
	return name
}

func clusterName(c remote.Cluster) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func groupName(conn remote.Connection) string {
	if name := strings.TrimSpace(conn.GroupName); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", *conn.GroupID)
}
