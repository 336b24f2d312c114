package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// Section is one lazily loaded category under a cluster.
type Section string

const (
	SectionInfobases   Section = "infobases"
	SectionServers     Section = "servers"
	SectionAdmins      Section = "admins"
	SectionManagers    Section = "managers"
	SectionProcesses   Section = "processes"
	SectionSessions    Section = "sessions"
	SectionLocks       Section = "locks"
	SectionConnections Section = "connections"
	SectionSecurity    Section = "security"
	SectionCounters    Section = "counters"
	SectionLimits      Section = "limits"
)

// SectionAgents lists the central server administrators of a connection. It hangs off
// the connection rather than a cluster and is not part of Sections.
const SectionAgents Section = "agents"

// Sections lists every cluster section in display order.
var Sections = []Section{
	SectionInfobases,
	SectionServers,
	SectionAdmins,
	SectionManagers,
	SectionProcesses,
	SectionSessions,
	SectionLocks,
	SectionConnections,
	SectionSecurity,
	SectionCounters,
	SectionLimits,
}

// ParseSection validates a section name.
func ParseSection(raw string) (Section, error) {
	candidate := Section(strings.ToLower(strings.TrimSpace(raw)))
	for _, section := range Sections {
		if section == candidate {
			return section, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", raw)
}

// ClusterScoped reports whether loads of the section carry cluster admin credentials.
// Every section below a cluster talks to the cluster, so all of them do.
func (s Section) ClusterScoped() bool {
	return s != ""
}

// endpoint returns the path and query of the section listing.
func (s Section) endpoint(connectionID int64, clusterUUID string) (string, url.Values) {
	switch s {
	case SectionAdmins:
		return fmt.Sprintf("/admins/%d/%s/", connectionID, url.PathEscape(clusterUUID)), url.Values{}
	default:
		return fmt.Sprintf("/%s/%d/", s, connectionID), url.Values{"cluster": {clusterUUID}}
	}
}

// itemsFromPayload converts raw rows into Items, picking a stable identifier and label.
func itemsFromPayload(rows []map[string]any) []Item {
	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		item := Item{
			ID:     firstString(row, "uuid", "id", "process", "session", "name"),
			Name:   firstString(row, "name", "descr", "display_name", "user_name", "host", "uuid"),
			Fields: row,
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("#%d", i)
		}
		if item.Name == "" {
			item.Name = item.ID
		}
		items = append(items, item)
	}
	return items
}

func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		switch value := row[key].(type) {
		case string:
			if strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		case float64:
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}
