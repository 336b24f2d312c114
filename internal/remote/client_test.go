package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/remote/remotetest"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

type queryAug map[string]string

func (q queryAug) ApplyQuery(values url.Values) {
	for k, v := range q {
		values.Set(k, v)
	}
}

func (q queryAug) MergeBody(body map[string]any) {
	for k, v := range q {
		body[k] = v
	}
}

func int64p(v int64) *int64 { return &v }

func TestListConnectionsNormalizesOrder(t *testing.T) {
	fake := remotetest.New(t)
	folder := fake.AddFolder("prod")
	fake.AddConnection(remote.Connection{DisplayName: "b", ServerHost: "b", RASPort: 1545, FolderID: int64p(folder.ID), Order: 7})
	fake.AddConnection(remote.Connection{DisplayName: "a", ServerHost: "a", RASPort: 1545, FolderID: int64p(folder.ID), Order: 3})
	fake.AddConnection(remote.Connection{DisplayName: "root", ServerHost: "r", RASPort: 1545, Order: 3})
	fake.AddConnection(remote.Connection{DisplayName: "tie", ServerHost: "t", RASPort: 1545, Order: 3})

	client := fake.Client(t, 1)
	list, err := client.ListConnections(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Folders, 1)
	require.Len(t, list.Connections, 4)

	got := map[string]int{}
	for _, conn := range list.Connections {
		got[conn.DisplayName] = conn.Order
	}
	require.Equal(t, map[string]int{"a": 0, "b": 1, "root": 0, "tie": 1}, got)
}

func TestCreateConnectionReportsDuplicates(t *testing.T) {
	fake := remotetest.New(t)
	existing := fake.AddConnection(remote.Connection{DisplayName: "main", ServerHost: "ras.local", RASPort: 1545})
	client := fake.Client(t, 1)

	input := remote.ConnectionInput{DisplayName: "copy", ServerHost: "ras.local", RASPort: 1545}
	_, err := client.CreateConnection(context.Background(), input, false)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrDuplicate))

	var dupErr *remote.DuplicateError
	require.True(t, errors.As(err, &dupErr))
	require.Len(t, dupErr.Duplicates, 1)
	require.Equal(t, existing.ID, dupErr.Duplicates[0].ID)
	require.Equal(t, "main", dupErr.Duplicates[0].DisplayName)

	created, err := client.CreateConnection(context.Background(), input, true)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	creates := fake.RequestsTo(http.MethodPost, "/connections/create/")
	require.Len(t, creates, 2)
	require.Equal(t, true, creates[1].Body["force"])
}

func TestCreateConnectionPreconditionSendsNothing(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 1)

	_, err := client.CreateConnection(context.Background(), remote.ConnectionInput{ServerHost: "x", RASPort: 0}, false)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrPrecondition))
	require.Empty(t, fake.Requests())
}

func TestMutationWithoutCSRFTokenSendsNothing(t *testing.T) {
	fake := remotetest.New(t)
	client, err := remote.New(remote.Config{BaseURL: fake.URL()})
	require.NoError(t, err)

	err = client.DeleteConnection(context.Background(), 1)
	require.True(t, errors.Is(err, apperrors.ErrCSRFMissing))

	err = client.MoveConnection(context.Background(), 1, nil, 0)
	require.True(t, errors.Is(err, apperrors.ErrCSRFMissing))
	require.Empty(t, fake.Requests())

	// Reads do not need a token.
	_, err = client.ListConnections(context.Background())
	require.NoError(t, err)
}

func TestDeleteMissingConnectionIsNotFound(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 1)

	err := client.DeleteConnection(context.Background(), 404)
	require.Error(t, err)
	require.True(t, apperrors.IsNotFound(err))
}

func TestTransportAndRemoteErrorsAreClassified(t *testing.T) {
	fake := remotetest.New(t)
	conn := fake.AddConnection(remote.Connection{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	client := fake.Client(t, 1)

	fake.FailOnce(http.MethodGet, "/connections/", 0, "")
	_, err := client.ListConnections(context.Background())
	require.True(t, apperrors.IsTransport(err))

	fake.FailOnce(http.MethodPost, "/connections/update/"+itoa(conn.ID)+"/", http.StatusBadRequest, "Port is busy")
	err = client.UpdateConnection(context.Background(), conn.ID, remote.ConnectionInput{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	require.True(t, errors.Is(err, apperrors.ErrRemote))
	require.Equal(t, "Port is busy", apperrors.UserMessage(err))

	_, err = client.ListConnections(context.Background())
	require.NoError(t, err)
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	client, err := remote.New(remote.Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = client.ListConnections(context.Background())
	require.True(t, apperrors.IsTransport(err))
}

func TestMoveConnectionSendsFolderAndOrder(t *testing.T) {
	fake := remotetest.New(t)
	folder := fake.AddFolder("f")
	conn := fake.AddConnection(remote.Connection{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	client := fake.Client(t, 1)

	require.NoError(t, client.MoveConnection(context.Background(), conn.ID, int64p(folder.ID), 0))
	require.NoError(t, client.MoveConnection(context.Background(), conn.ID, nil, 0))

	moves := fake.RequestsTo(http.MethodPost, "/connections/"+itoa(conn.ID)+"/move/")
	require.Len(t, moves, 2)
	require.EqualValues(t, folder.ID, moves[0].Body["folder_id"])
	require.Nil(t, moves[1].Body["folder_id"])
	require.Contains(t, moves[1].Body, "folder_id")
}

func TestListSectionUsesEndpointAndAugmentation(t *testing.T) {
	fake := remotetest.New(t)
	conn := fake.AddConnection(remote.Connection{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	fake.SetSection(remote.SectionServers, conn.ID, "cl-1", map[string]any{"uuid": "srv-1", "name": "central"})
	fake.SetSection(remote.SectionAdmins, conn.ID, "cl-1", map[string]any{"name": "admin"})
	fake.RequireClusterAdmin(conn.ID, "cl-1", "root", "pw")
	client := fake.Client(t, 1)

	_, err := client.ListSection(context.Background(), remote.SectionServers, conn.ID, "cl-1", nil)
	require.True(t, errors.Is(err, apperrors.ErrForbidden))

	aug := queryAug{"cluster_admin": "root", "cluster_password": "pw"}
	items, err := client.ListSection(context.Background(), remote.SectionServers, conn.ID, "cl-1", aug)
	require.NoError(t, err)
	require.Equal(t, []remote.Item{{ID: "srv-1", Name: "central", Fields: map[string]any{"uuid": "srv-1", "name": "central"}}}, items)

	admins, err := client.ListSection(context.Background(), remote.SectionAdmins, conn.ID, "cl-1", aug)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, "admin", admins[0].Name)

	servers := fake.RequestsTo(http.MethodGet, "/servers/"+itoa(conn.ID)+"/")
	require.Len(t, servers, 2)
	require.Equal(t, "cl-1", servers[1].Query.Get("cluster"))
	require.Equal(t, "root", servers[1].Query.Get("cluster_admin"))
	require.Len(t, fake.RequestsTo(http.MethodGet, "/admins/"+itoa(conn.ID)+"/cl-1/"), 1)
}

func TestRulesCRUDMergesCredentialsIntoBody(t *testing.T) {
	fake := remotetest.New(t)
	conn := fake.AddConnection(remote.Connection{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	fake.RequireClusterAdmin(conn.ID, "cl", "root", "")
	client := fake.Client(t, 1)
	aug := queryAug{"cluster_admin": "root"}
	ctx := context.Background()

	input := remote.RuleInput{ObjectType: "infobase", InfobaseName: "erp", RuleType: "auto"}
	require.NoError(t, client.CreateRule(ctx, conn.ID, "cl", "srv", input, aug))

	rules, err := client.ListRules(ctx, conn.ID, "cl", "srv", aug)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "erp", rules[0].InfobaseName)

	input.Priority = 5
	require.NoError(t, client.UpdateRule(ctx, conn.ID, "cl", "srv", rules[0].UUID, input, aug))
	require.NoError(t, client.ApplyRules(ctx, conn.ID, "cl", "srv", true, aug))
	require.NoError(t, client.DeleteRule(ctx, conn.ID, "cl", "srv", rules[0].UUID, aug))

	err = client.CreateRule(ctx, conn.ID, "cl", "srv", remote.RuleInput{ObjectType: "x", RuleType: "sometimes"}, aug)
	require.True(t, errors.Is(err, apperrors.ErrPrecondition))

	for _, req := range fake.Mutations() {
		require.Equal(t, "root", req.Body["cluster_admin"], req.Path)
	}
}

func TestFolderLifecycle(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 1)
	ctx := context.Background()

	_, err := client.CreateFolder(ctx, "  ")
	require.True(t, errors.Is(err, apperrors.ErrPrecondition))

	a, err := client.CreateFolder(ctx, "a")
	require.NoError(t, err)
	b, err := client.CreateFolder(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, client.MoveFolder(ctx, b.ID, 0))
	require.NoError(t, client.UpdateFolder(ctx, a.ID, "renamed"))

	folders := fake.Folders()
	require.Equal(t, []remote.Folder{{ID: b.ID, Name: "b", Order: 0}, {ID: a.ID, Name: "renamed", Order: 1}}, folders)

	require.NoError(t, client.DeleteFolder(ctx, a.ID))
	require.Len(t, fake.Folders(), 1)
}

func TestAssignGroupSendsCurrentUser(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 42)

	require.NoError(t, client.AssignGroup(context.Background(), client.UserID(), 9, remote.GroupRemove))
	reqs := fake.RequestsTo(http.MethodPost, "/groups/assign/")
	require.Len(t, reqs, 1)
	require.EqualValues(t, 42, reqs[0].Body["user_id"])
	require.EqualValues(t, 9, reqs[0].Body["group_id"])
	require.Equal(t, "remove", reqs[0].Body["action"])

	err := client.AssignGroup(context.Background(), 42, 9, remote.GroupAction("promote"))
	require.True(t, errors.Is(err, apperrors.ErrPrecondition))
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := remote.New(remote.Config{})
	require.Error(t, err)
	_, err = remote.New(remote.Config{BaseURL: "ftp://host"})
	require.Error(t, err)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
