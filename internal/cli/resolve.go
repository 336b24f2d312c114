package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

// Arguments name nodes by id or by (case-insensitive) name. A name matching more than one
// node is rejected.

func resolveConnection(snap tree.Snapshot, arg string) (remote.Connection, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if conn, ok := snap.Find(id); ok {
			return conn, nil
		}
	}
	var matches []remote.Connection
	for _, conn := range snap.Connections {
		if strings.EqualFold(conn.Label(), arg) || strings.EqualFold(conn.DisplayName, arg) {
			matches = append(matches, conn)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return remote.Connection{}, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("connection %q not found", arg))
	default:
		return remote.Connection{}, apperrors.NewPrecondition(fmt.Sprintf("%d connections are named %q; use the id", len(matches), arg))
	}
}

func resolveFolder(snap tree.Snapshot, arg string) (remote.Folder, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for _, folder := range snap.Folders {
			if folder.ID == id {
				return folder.Folder, nil
			}
		}
	}
	var matches []remote.Folder
	for _, folder := range snap.Folders {
		if strings.EqualFold(strings.TrimSpace(folder.Name), arg) {
			matches = append(matches, folder.Folder)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return remote.Folder{}, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("folder %q not found", arg))
	default:
		return remote.Folder{}, apperrors.NewPrecondition(fmt.Sprintf("%d folders are named %q; use the id", len(matches), arg))
	}
}

func resolveCluster(view *tree.ConnectionView, arg string) (remote.Cluster, error) {
	if view == nil {
		return remote.Cluster{}, apperrors.NewPrecondition("no connection is open")
	}
	arg = strings.TrimSpace(arg)
	var matches []remote.Cluster
	for _, cluster := range view.Clusters {
		if cluster.UUID == arg {
			return cluster.Cluster, nil
		}
		if strings.EqualFold(strings.TrimSpace(cluster.Name), arg) {
			matches = append(matches, cluster.Cluster)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return remote.Cluster{}, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("cluster %q not found", arg))
	default:
		return remote.Cluster{}, apperrors.NewPrecondition(fmt.Sprintf("%d clusters are named %q; use the uuid", len(matches), arg))
	}
}

// sectionRef builds the reference for "<cluster> <section>" or "agents".
func sectionRef(view *tree.ConnectionView, connectionID int64, args []string) (tree.SectionRef, error) {
	if len(args) == 1 && strings.EqualFold(strings.TrimSpace(args[0]), string(remote.SectionAgents)) {
		return tree.SectionRef{ConnectionID: connectionID, Section: remote.SectionAgents}, nil
	}
	if len(args) != 2 {
		return tree.SectionRef{}, apperrors.NewPrecondition("expected <cluster> <section> or agents")
	}
	cluster, err := resolveCluster(view, args[0])
	if err != nil {
		return tree.SectionRef{}, err
	}
	section, err := remote.ParseSection(args[1])
	if err != nil {
		return tree.SectionRef{}, apperrors.NewPrecondition(err.Error())
	}
	return tree.SectionRef{ConnectionID: connectionID, ClusterUUID: cluster.UUID, Section: section}, nil
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewPrecondition(fmt.Sprintf("invalid %s id %q", kind, raw))
	}
	return id, nil
}
