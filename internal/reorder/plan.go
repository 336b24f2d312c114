// Package reorder turns drag-and-drop gestures over the top-level tree into folder and
// connection move requests. Moves are pessimistic: nothing changes locally until the
// server acknowledged the move and the tree was reloaded.
package reorder

import (
	"fmt"

	"github.com/charlesng35/rasconsole/internal/session"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

// IntentKind classifies a drop by dragged and target node kinds.
type IntentKind string

const (
	FolderToFolder         IntentKind = "folder_to_folder"
	ConnectionToFolder     IntentKind = "connection_to_folder"
	ConnectionToConnection IntentKind = "connection_to_connection"
	ConnectionToEmptyArea  IntentKind = "connection_to_empty_area"
)

// Intent is a planned move. FolderID is only meaningful for connection moves; nil means
// the root level.
type Intent struct {
	Kind     IntentKind
	Source   session.NodeRef
	Target   session.NodeRef
	FolderID *int64
	Order    int
	// NoOp is set when the drop would not change anything and no request is needed.
	NoOp bool
}

func (i Intent) String() string {
	if i.NoOp {
		return fmt.Sprintf("%s: %s onto %s (no-op)", i.Kind, i.Source, i.Target)
	}
	folder := "root"
	if i.FolderID != nil {
		folder = fmt.Sprintf("folder %d", *i.FolderID)
	}
	if i.Kind == FolderToFolder {
		return fmt.Sprintf("%s: %s to position %d", i.Kind, i.Source, i.Order)
	}
	return fmt.Sprintf("%s: %s to %s position %d", i.Kind, i.Source, folder, i.Order)
}

// Plan classifies a drop of dragged onto target against the rendered tree.
func Plan(snap tree.Snapshot, dragged, target session.NodeRef) (Intent, error) {
	intent := Intent{Source: dragged, Target: target}

	switch dragged.Kind {
	case session.NodeFolder:
		if target.Kind != session.NodeFolder {
			return intent, apperrors.NewPrecondition(fmt.Sprintf("a folder cannot be dropped on %s", target.Kind))
		}
		intent.Kind = FolderToFolder
		ids := snap.FolderIDs()
		from, to := indexOf(ids, dragged.ID), indexOf(ids, target.ID)
		if from < 0 || to < 0 {
			return intent, apperrors.ErrNotFound.WithMessage("folder is no longer in the tree")
		}
		intent.Order = to
		intent.NoOp = from == to
		return intent, nil

	case session.NodeConnection:
		source, ok := snap.Find(dragged.ID)
		if !ok {
			return intent, apperrors.ErrNotFound.WithMessage("connection is no longer in the tree")
		}
		switch target.Kind {
		case session.NodeFolder:
			intent.Kind = ConnectionToFolder
			if indexOf(snap.FolderIDs(), target.ID) < 0 {
				return intent, apperrors.ErrNotFound.WithMessage("folder is no longer in the tree")
			}
			folderID := target.ID
			intent.FolderID = &folderID
			// Dropping on a folder header appends.
			intent.Order = len(snap.Siblings(&folderID))
			return intent, nil

		case session.NodeConnection:
			intent.Kind = ConnectionToConnection
			dest, ok := snap.Find(target.ID)
			if !ok {
				return intent, apperrors.ErrNotFound.WithMessage("connection is no longer in the tree")
			}
			intent.FolderID = copyID(dest.FolderID)
			siblings := snap.Siblings(dest.FolderID)
			for i, conn := range siblings {
				if conn.ID == dest.ID {
					intent.Order = i
					break
				}
			}
			intent.NoOp = source.ID == dest.ID
			return intent, nil

		case session.NodeEmptyArea:
			intent.Kind = ConnectionToEmptyArea
			intent.Order = len(snap.Siblings(nil))
			return intent, nil
		}
	}
	return intent, apperrors.NewPrecondition(fmt.Sprintf("cannot drop %s on %s", dragged.Kind, target.Kind))
}

func indexOf(ids []int64, id int64) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
