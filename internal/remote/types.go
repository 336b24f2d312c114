package remote

import (
	"fmt"
	"sort"
	"strings"
)

// Folder groups connections at the root of the tree.
type Folder struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Connection is a registered RAS endpoint.
type Connection struct {
	ID                     int64  `json:"id"`
	DisplayName            string `json:"display_name"`
	Description            string `json:"description"`
	ServerHost             string `json:"server_host"`
	RASPort                int    `json:"ras_port"`
	FolderID               *int64 `json:"folder_id"`
	Order                  int    `json:"order"`
	GroupID                *int64 `json:"group_id"`
	GroupName              string `json:"group_name"`
	GroupMembersCount      int    `json:"group_members_count"`
	UserConnectionsInGroup int    `json:"user_connections_in_group"`
}

// Label is the text used when listing the connection.
func (c Connection) Label() string {
	if name := strings.TrimSpace(c.DisplayName); name != "" {
		return name
	}
	return fmt.Sprintf("%s:%d", c.ServerHost, c.RASPort)
}

// InFolder reports whether the connection sits in folderID (nil means the root level).
func (c Connection) InFolder(folderID *int64) bool {
	if c.FolderID == nil || folderID == nil {
		return c.FolderID == nil && folderID == nil
	}
	return *c.FolderID == *folderID
}

// ConnectionList is the reply of the connection listing.
type ConnectionList struct {
	Folders     []Folder     `json:"folders"`
	Connections []Connection `json:"connections"`
}

// Normalize sorts folders and connections by their order value, breaking ties by the
// position in the reply, then rewrites order as the dense array position within each
// sibling scope. Stored integers are never trusted literally.
func (l *ConnectionList) Normalize() {
	sort.SliceStable(l.Folders, func(i, j int) bool {
		return l.Folders[i].Order < l.Folders[j].Order
	})
	for i := range l.Folders {
		l.Folders[i].Order = i
	}

	sort.SliceStable(l.Connections, func(i, j int) bool {
		return l.Connections[i].Order < l.Connections[j].Order
	})
	next := map[int64]int{}
	root := 0
	for i := range l.Connections {
		conn := &l.Connections[i]
		if conn.FolderID == nil {
			conn.Order = root
			root++
			continue
		}
		conn.Order = next[*conn.FolderID]
		next[*conn.FolderID]++
	}
}

// ConnectionInput is the create/update payload for a connection.
type ConnectionInput struct {
	DisplayName string `json:"display_name" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=2000"`
	ServerHost  string `json:"server_host" validate:"notblank,max=255"`
	RASPort     int    `json:"ras_port" validate:"min=1,max=65535"`
	FolderID    *int64 `json:"folder_id"`
}

// Duplicate describes an existing connection that conflicts with a create request.
type Duplicate struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	ServerHost  string `json:"server_host"`
	RASPort     int    `json:"ras_port"`
}

// Cluster is a cluster discovered under a connection.
type Cluster struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Item is one leaf row of a loaded section.
type Item struct {
	ID     string
	Name   string
	Fields map[string]any
}

// Rule is an assignment rule of a working server.
type Rule struct {
	UUID           string `json:"uuid"`
	Position       int    `json:"position"`
	ObjectType     string `json:"object_type"`
	InfobaseName   string `json:"infobase_name"`
	RuleType       string `json:"rule_type"`
	ApplicationExt string `json:"application_ext"`
	Priority       int    `json:"priority"`
}

// RuleInput is the create/update payload for an assignment rule.
type RuleInput struct {
	Position       int    `json:"position" validate:"min=0"`
	ObjectType     string `json:"object_type" validate:"notblank"`
	InfobaseName   string `json:"infobase_name"`
	RuleType       string `json:"rule_type" validate:"oneof=auto always never"`
	ApplicationExt string `json:"application_ext"`
	Priority       int    `json:"priority" validate:"min=0"`
}

// GroupAction is the membership operation sent to the group endpoint.
type GroupAction string

const (
	GroupAssign GroupAction = "assign"
	GroupRemove GroupAction = "remove"
)
