package services_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/rasconsole/internal/cache"
	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/remote/remotetest"
	"github.com/charlesng35/rasconsole/internal/services"
	"github.com/charlesng35/rasconsole/internal/tree"
	"github.com/charlesng35/rasconsole/internal/uistate"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

func newConnectionService(t *testing.T, decisions ...dialog.Decision) (*services.ConnectionService, *remotetest.Server, *dialog.Scripted, *notifications.Recorder, *tree.Store) {
	t.Helper()
	fake := remotetest.New(t)
	client := fake.Client(t, 1)
	store := tree.New(client)
	confirm := dialog.NewScripted(decisions...)
	notes := &notifications.Recorder{}
	svc, err := services.NewConnectionService(client, store, confirm, notes)
	require.NoError(t, err)
	return svc, fake, confirm, notes, store
}

func TestCreateConnectionReloadsTree(t *testing.T) {
	svc, fake, confirm, _, store := newConnectionService(t)

	created, err := svc.Create(context.Background(), remote.ConnectionInput{DisplayName: "prod", ServerHost: "ras", RASPort: 1545})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Empty(t, confirm.Prompts())
	require.Len(t, store.Connections(), 1)
	require.Len(t, fake.RequestsTo(http.MethodGet, "/connections/"), 1)
}

func TestDuplicateDeclinedSendsOneCreate(t *testing.T) {
	svc, fake, confirm, notes, _ := newConnectionService(t, dialog.Declined)
	for i := 0; i < 7; i++ {
		fake.AddConnection(remote.Connection{DisplayName: "dup" + strconv.Itoa(i), ServerHost: "ras", RASPort: 1545})
	}

	created, err := svc.Create(context.Background(), remote.ConnectionInput{DisplayName: "new", ServerHost: "ras", RASPort: 1545})
	require.NoError(t, err)
	require.Nil(t, created)
	require.Len(t, fake.RequestsTo(http.MethodPost, "/connections/create/"), 1)
	require.Len(t, fake.Connections(), 7)
	require.Empty(t, notes.All())

	prompts := confirm.Prompts()
	require.Len(t, prompts, 1)
	require.Len(t, prompts[0].Details, 6)
	require.Equal(t, "dup0 (ras:1545)", prompts[0].Details[0])
	require.Equal(t, "and 2 more", prompts[0].Details[5])
}

func TestDuplicateConfirmedRetriesWithForce(t *testing.T) {
	svc, fake, _, _, _ := newConnectionService(t, dialog.Accepted)
	fake.AddConnection(remote.Connection{DisplayName: "main", ServerHost: "ras", RASPort: 1545})

	created, err := svc.Create(context.Background(), remote.ConnectionInput{DisplayName: "copy", ServerHost: "ras", RASPort: 1545})
	require.NoError(t, err)
	require.NotNil(t, created)

	creates := fake.RequestsTo(http.MethodPost, "/connections/create/")
	require.Len(t, creates, 2)
	require.NotContains(t, creates[0].Body, "force")
	require.Equal(t, true, creates[1].Body["force"])
	require.Len(t, fake.Connections(), 2)
}

func TestCreateFailureIsSurfaced(t *testing.T) {
	svc, fake, _, notes, _ := newConnectionService(t)
	fake.FailOnce(http.MethodPost, "/connections/create/", http.StatusBadRequest, "RAS is unreachable")

	_, err := svc.Create(context.Background(), remote.ConnectionInput{DisplayName: "x", ServerHost: "ras", RASPort: 1545})
	require.True(t, errors.Is(err, apperrors.ErrRemote))
	last, _ := notes.Last()
	require.Equal(t, "RAS is unreachable", last.Message)
}

func TestCreateNotFoundCountsAsDone(t *testing.T) {
	svc, fake, _, notes, _ := newConnectionService(t)
	fake.FailOnce(http.MethodPost, "/connections/create/", http.StatusNotFound, "Connection not found")

	created, err := svc.Create(context.Background(), remote.ConnectionInput{DisplayName: "ghost", ServerHost: "ras", RASPort: 1545})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Zero(t, created.ID)
	require.Equal(t, "ghost", created.DisplayName)
	require.Len(t, fake.RequestsTo(http.MethodPost, "/connections/create/"), 1)
	require.Len(t, fake.RequestsTo(http.MethodGet, "/connections/"), 1)
	last, _ := notes.Last()
	require.Equal(t, notifications.LevelSuccess, last.Level)
}

func TestDeleteMissingConnectionSucceeds(t *testing.T) {
	svc, _, _, notes, _ := newConnectionService(t)
	require.NoError(t, svc.Delete(context.Background(), 4040))
	last, _ := notes.Last()
	require.Equal(t, notifications.LevelSuccess, last.Level)
}

func TestFolderServiceDeleteNeedsConfirmation(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 1)
	folder := fake.AddFolder("old")
	confirm := dialog.NewScripted(dialog.Declined, dialog.Accepted)
	svc, err := services.NewFolderService(client, tree.New(client), confirm, nil)
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), folder.ID, folder.Name)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Empty(t, fake.Mutations())

	deleted, err = svc.Delete(context.Background(), folder.ID, folder.Name)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Empty(t, fake.Folders())

	created, err := svc.Create(context.Background(), "new")
	require.NoError(t, err)
	require.NoError(t, svc.Rename(context.Background(), created.ID, "renamed"))
	require.Equal(t, "renamed", fake.Folders()[0].Name)
}

func TestRuleServiceCarriesClusterCredentials(t *testing.T) {
	fake := remotetest.New(t)
	conn := fake.AddConnection(remote.Connection{DisplayName: "c", ServerHost: "h", RASPort: 1545})
	fake.RequireClusterAdmin(conn.ID, "cl", "admin", "secret")

	state := uistate.New(cache.NewMemoryStore())
	require.NoError(t, state.SetCredential(context.Background(), conn.ID, "cl", uistate.CredentialRecord{Admin: "admin", Password: "secret"}))
	svc, err := services.NewRuleService(fake.Client(t, 1), overlay.New(state), nil)
	require.NoError(t, err)

	ref := services.ServerRef{ConnectionID: conn.ID, ClusterUUID: "cl", ServerUUID: "srv"}
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, ref, remote.RuleInput{ObjectType: "infobase", RuleType: "always"}))
	rules, err := svc.List(ctx, ref)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.NoError(t, svc.Update(ctx, ref, rules[0].UUID, remote.RuleInput{ObjectType: "infobase", RuleType: "never"}))
	require.NoError(t, svc.Apply(ctx, ref, false))
	require.NoError(t, svc.Delete(ctx, ref, rules[0].UUID))

	for _, req := range fake.Mutations() {
		require.Equal(t, "admin", req.Body["cluster_admin"])
		require.Equal(t, "secret", req.Body["cluster_password"])
	}
}

func TestGroupServiceLeaveReloads(t *testing.T) {
	fake := remotetest.New(t)
	client := fake.Client(t, 3)
	group := int64(11)
	fake.AddConnection(remote.Connection{DisplayName: "shared", ServerHost: "h", RASPort: 1, GroupID: &group, GroupMembersCount: 2, UserConnectionsInGroup: 1})
	store := tree.New(client)
	require.NoError(t, store.LoadAll(context.Background()))

	svc, err := services.NewGroupService(client, store, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Leave(context.Background(), group))
	require.Empty(t, store.Connections())

	require.NoError(t, svc.Join(context.Background(), group))
	reqs := fake.RequestsTo(http.MethodPost, "/groups/assign/")
	require.Len(t, reqs, 2)
	require.Equal(t, "assign", reqs[1].Body["action"])
}

func TestConstructorsRequireClient(t *testing.T) {
	_, err := services.NewConnectionService(nil, nil, nil, nil)
	require.Error(t, err)
	_, err = services.NewFolderService(nil, nil, nil, nil)
	require.Error(t, err)
	_, err = services.NewRuleService(nil, nil, nil)
	require.Error(t, err)
	_, err = services.NewGroupService(nil, nil, nil)
	require.Error(t, err)
}
