package bulkdelete_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/charlesng35/rasconsole/internal/bulkdelete"
	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/remote/remotetest"
	"github.com/charlesng35/rasconsole/internal/session"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

const userID = 7

type env struct {
	fake    *remotetest.Server
	client  *remote.Client
	store   *tree.Store
	confirm *dialog.Scripted
	notes   *notifications.Recorder
	coord   *bulkdelete.Coordinator
}

func newEnv(t *testing.T, decisions ...dialog.Decision) *env {
	t.Helper()
	if len(decisions) == 0 {
		decisions = []dialog.Decision{dialog.Accepted}
	}
	fake := remotetest.New(t)
	client := fake.Client(t, userID)
	e := &env{
		fake:    fake,
		client:  client,
		store:   tree.New(client),
		confirm: dialog.NewScripted(decisions...),
		notes:   &notifications.Recorder{},
	}
	e.coord = bulkdelete.New(client, e.store, e.confirm, e.notes)
	return e
}

func (e *env) load(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.LoadAll(context.Background()))
	e.fake.ResetRequests()
}

func grouped(name string, groupID int64, members, total int) remote.Connection {
	return remote.Connection{
		DisplayName:            name,
		ServerHost:             name + ".local",
		RASPort:                1545,
		GroupID:                &groupID,
		GroupName:              "G",
		GroupMembersCount:      members,
		UserConnectionsInGroup: total,
	}
}

func deletePath(id int64) string {
	return "/connections/delete/" + strconv.FormatInt(id, 10) + "/"
}

func TestProtectedGroupIsLeftNotDeleted(t *testing.T) {
	e := newEnv(t)
	a := e.fake.AddConnection(grouped("connA", 5, 3, 2))
	b := e.fake.AddConnection(grouped("connB", 5, 3, 2))
	e.load(t)

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(a.ID, b.ID))
	require.NoError(t, err)

	assigns := e.fake.RequestsTo(http.MethodPost, "/groups/assign/")
	require.Len(t, assigns, 1)
	require.Equal(t, "remove", assigns[0].Body["action"])
	require.EqualValues(t, 5, assigns[0].Body["group_id"])
	require.EqualValues(t, userID, assigns[0].Body["user_id"])
	require.Empty(t, e.fake.RequestsTo(http.MethodPost, deletePath(a.ID)))
	require.Empty(t, e.fake.RequestsTo(http.MethodPost, deletePath(b.ID)))

	require.Zero(t, result.Deleted)
	require.Zero(t, result.Failed)
	require.Len(t, result.Protected, 1)
	require.NoError(t, result.Protected[0].Err)
	require.Equal(t, 2, result.Protected[0].Group.RemainingMembers())

	all := e.notes.All()
	require.NotEmpty(t, all)
	require.Equal(t, "connA, connB preserved for 2 remaining member(s) of group G", all[0].Message)

	prompts := e.confirm.Prompts()
	require.Len(t, prompts, 1)
	require.Contains(t, prompts[0].Details[0], "You will leave group G")
}

func TestSoleMemberGroupIsDeletedNormally(t *testing.T) {
	e := newEnv(t)
	a := e.fake.AddConnection(grouped("a", 6, 1, 2))
	b := e.fake.AddConnection(grouped("b", 6, 1, 2))
	e.load(t)

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(a.ID, b.ID))
	require.NoError(t, err)
	require.Empty(t, e.fake.RequestsTo(http.MethodPost, "/groups/assign/"))
	require.Len(t, e.fake.RequestsTo(http.MethodPost, deletePath(a.ID)), 1)
	require.Len(t, e.fake.RequestsTo(http.MethodPost, deletePath(b.ID)), 1)
	require.Equal(t, 2, result.Deleted)
	require.Len(t, result.DeletedGroups, 1)
	require.Equal(t, "Group G will be deleted", e.confirm.Prompts()[0].Details[0])

	// The tree was reloaded.
	require.Len(t, e.fake.RequestsTo(http.MethodGet, "/connections/"), 1)
	require.Empty(t, e.store.Connections())
}

func TestPartiallySelectedGroupIsDeletedNormally(t *testing.T) {
	e := newEnv(t)
	a := e.fake.AddConnection(grouped("a", 8, 4, 3))
	b := e.fake.AddConnection(grouped("b", 8, 4, 3))
	e.fake.AddConnection(grouped("c", 8, 4, 3))
	e.load(t)

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(a.ID, b.ID))
	require.NoError(t, err)
	require.Empty(t, e.fake.RequestsTo(http.MethodPost, "/groups/assign/"))
	require.Equal(t, 2, result.Deleted)
	require.Empty(t, result.DeletedGroups)
}

func TestUnknownGroupTotalIsDeletedNormally(t *testing.T) {
	g := int64(9)
	conns := []remote.Connection{
		{ID: 1, GroupID: &g, GroupMembersCount: 3, UserConnectionsInGroup: 0},
	}
	plan := bulkdelete.BuildPlan(session.NewSelectionSet(1), conns)
	require.Empty(t, plan.ProtectedGroups)
	require.Empty(t, plan.DeletedGroups)
	require.Len(t, plan.Deletions, 1)
	require.Equal(t, int64(1), plan.Deletions[0].ID)
}

func TestMembershipRemovalPrecedesDeletes(t *testing.T) {
	e := newEnv(t)
	plain := e.fake.AddConnection(remote.Connection{DisplayName: "plain", ServerHost: "p", RASPort: 1})
	a := e.fake.AddConnection(grouped("a", 9, 2, 1))
	e.load(t)

	_, err := e.coord.Execute(context.Background(), session.NewSelectionSet(plain.ID, a.ID))
	require.NoError(t, err)

	mutations := e.fake.Mutations()
	require.Len(t, mutations, 2)
	require.Equal(t, "/groups/assign/", mutations[0].Path)
	require.Equal(t, deletePath(plain.ID), mutations[1].Path)
}

func TestAlreadyDeletedCountsAsSuccess(t *testing.T) {
	e := newEnv(t)
	gone := e.fake.AddConnection(remote.Connection{DisplayName: "gone", ServerHost: "g", RASPort: 1})
	e.load(t)
	require.NoError(t, e.client.DeleteConnection(context.Background(), gone.ID))

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(gone.ID))
	require.NoError(t, err)
	require.Equal(t, 1, result.Deleted)
	require.Zero(t, result.Failed)
	require.NoError(t, result.Err)
	last, _ := e.notes.Last()
	require.Equal(t, notifications.LevelSuccess, last.Level)
}

func TestFailuresAreAggregatedAndTruncated(t *testing.T) {
	e := newEnv(t)
	var ids []int64
	for i := 0; i < 6; i++ {
		conn := e.fake.AddConnection(remote.Connection{DisplayName: "c" + strconv.Itoa(i), ServerHost: "h", RASPort: 1})
		ids = append(ids, conn.ID)
		if i > 0 {
			e.fake.FailOnce(http.MethodPost, deletePath(conn.ID), http.StatusInternalServerError, "boom "+strconv.Itoa(i))
		}
	}
	e.load(t)

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(ids...))
	require.NoError(t, err)
	require.Equal(t, 1, result.Deleted)
	require.Equal(t, 5, result.Failed)
	require.Equal(t, []string{"c1: boom 1", "c2: boom 2", "c3: boom 3"}, result.Failures)
	require.True(t, result.Truncated)
	require.Len(t, multierr.Errors(result.Err), 5)
	require.True(t, errors.Is(result.Err, apperrors.ErrRemote))

	last, _ := e.notes.Last()
	require.Equal(t, notifications.LevelWarning, last.Level)
	require.Equal(t, "Deleted 1, failed 5: c1: boom 1; c2: boom 2; c3: boom 3 (and 2 more)", last.Message)

	// Requests were sent one per connection.
	require.Len(t, e.fake.Mutations(), 6)
}

func TestDeclinedConfirmationSendsNothing(t *testing.T) {
	e := newEnv(t, dialog.Declined)
	a := e.fake.AddConnection(remote.Connection{DisplayName: "a", ServerHost: "a", RASPort: 1})
	e.load(t)

	result, err := e.coord.Execute(context.Background(), session.NewSelectionSet(a.ID))
	require.NoError(t, err)
	require.True(t, result.Declined)
	require.Empty(t, e.fake.Requests())
	require.Len(t, e.store.Connections(), 1)
}

func TestEmptySelectionIsPrecondition(t *testing.T) {
	e := newEnv(t)
	_, err := e.coord.Execute(context.Background(), session.NewSelectionSet())
	require.True(t, errors.Is(err, apperrors.ErrPrecondition))
	require.Empty(t, e.confirm.Prompts())
}

func TestBuildPlanReportsMissing(t *testing.T) {
	g := int64(1)
	conns := []remote.Connection{
		{ID: 1},
		{ID: 2, GroupID: &g, GroupMembersCount: 2, UserConnectionsInGroup: 1},
	}
	plan := bulkdelete.BuildPlan(session.NewSelectionSet(1, 2, 3), conns)
	require.Equal(t, []int64{3}, plan.Missing)
	require.Len(t, plan.Deletions, 1)
	require.Len(t, plan.ProtectedGroups, 1)
	require.False(t, plan.IsEmpty())
}
