package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/rasconsole/internal/app"
	"github.com/charlesng35/rasconsole/internal/cache"
	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/remote/remotetest"
	"github.com/charlesng35/rasconsole/internal/uistate"
)

type harness struct {
	fake   *remotetest.Server
	store  cache.Store
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	h := &harness{
		fake:   remotetest.New(t),
		store:  cache.NewMemoryStore(),
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	h.app = NewApp(strings.NewReader(input), h.out, h.errOut)
	h.app.config = &app.Config{
		Remote:      app.RemoteConfig{BaseURL: h.fake.URL(), UserID: 7},
		Maintenance: app.MaintenanceConfig{PruneSchedule: "@every 1h"},
		Metrics:     app.MetricsConfig{Enabled: true},
	}
	h.app.NewController = func(ctx context.Context, cfg *app.Config) (*Controller, error) {
		return NewController(ctx, cfg,
			WithClient(h.fake.Client(t, 7)),
			WithStateStore(h.store),
			WithConfirmer(&terminalConfirmer{app: h.app}))
	}
	t.Cleanup(func() { _ = h.app.Close() })
	return h
}

func (h *harness) run(args ...string) int {
	return h.app.run(context.Background(), args)
}

// seed creates folder Prod holding alpha, and beta at the top level.
func (h *harness) seed() (remote.Folder, remote.Connection, remote.Connection) {
	folder := h.fake.AddFolder("Prod")
	alpha := h.fake.AddConnection(remote.Connection{DisplayName: "alpha", ServerHost: "alpha.local", RASPort: 1545, FolderID: &folder.ID})
	beta := h.fake.AddConnection(remote.Connection{DisplayName: "beta", ServerHost: "beta.local", RASPort: 1545, Order: 0})
	return folder, alpha, beta
}

func TestTreeRendersFoldersAndConnections(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	require.Equal(t, 0, h.run("tree"), h.errOut.String())
	out := h.out.String()
	require.Contains(t, out, "▾ Prod")
	require.Contains(t, out, "alpha")
	require.Contains(t, out, "beta")
	require.Less(t, strings.Index(out, "alpha"), strings.Index(out, "beta"), "folders come before top-level connections")
}

func TestFolderTogglePersistsFlag(t *testing.T) {
	h := newHarness(t, "")
	folder, _, _ := h.seed()

	require.Equal(t, 0, h.run("folder", "toggle", "Prod"), h.errOut.String())
	require.Contains(t, h.out.String(), "▸ Prod")

	state := uistate.New(h.store)
	require.False(t, state.FolderExpanded(context.Background(), folder.ID))
}

func TestExpandLoadsSection(t *testing.T) {
	h := newHarness(t, "")
	_, alpha, _ := h.seed()
	h.fake.SetClusters(alpha.ID, remote.Cluster{UUID: "c1", Name: "Main"})
	h.fake.SetSection(remote.SectionServers, alpha.ID, "c1", map[string]any{"uuid": "s1", "name": "srv-1"})

	require.Equal(t, 0, h.run("expand", "alpha", "Main", "servers"), h.errOut.String())
	out := h.out.String()
	require.Contains(t, out, "Main")
	require.Contains(t, out, "▾ servers (1)")
	require.Contains(t, out, "srv-1")
	require.Contains(t, out, "▸ infobases")
}

func TestExpandRejectsUnknownSection(t *testing.T) {
	h := newHarness(t, "")
	_, alpha, _ := h.seed()
	h.fake.SetClusters(alpha.ID, remote.Cluster{UUID: "c1", Name: "Main"})

	require.Equal(t, 1, h.run("expand", "alpha", "Main", "bogus"))
	require.Contains(t, h.errOut.String(), "unknown section")
}

func TestLoadFailureIsReportedOnce(t *testing.T) {
	h := newHarness(t, "")
	h.fake.Fail(http.MethodGet, "/connections/", http.StatusInternalServerError, "backend exploded")

	require.Equal(t, 1, h.run("tree"))
	require.Equal(t, 1, strings.Count(h.errOut.String(), "backend exploded"), h.errOut.String())
}

func TestConnectionCreateDuplicateDeclined(t *testing.T) {
	h := newHarness(t, "n\n")
	h.seed()

	require.Equal(t, 0, h.run("connection", "create", "--name", "again", "--host", "beta.local"), h.errOut.String())
	require.Contains(t, h.out.String(), "cancelled")
	require.Contains(t, h.errOut.String(), "Create anyway? [y/N]")
	require.Len(t, h.fake.Connections(), 2)
}

func TestConnectionCreateDuplicateAccepted(t *testing.T) {
	h := newHarness(t, "y\n")
	h.seed()

	require.Equal(t, 0, h.run("connection", "create", "--name", "again", "--host", "beta.local", "--folder", "Prod"), h.errOut.String())
	require.Contains(t, h.out.String(), "created")
	require.Len(t, h.fake.Connections(), 3)
}

func TestConnectionMoveIntoFolder(t *testing.T) {
	h := newHarness(t, "")
	folder, _, beta := h.seed()

	require.Equal(t, 0, h.run("connection", "move", "beta", "--folder", "Prod"), h.errOut.String())
	moved, ok := h.fake.Connection(beta.ID)
	require.True(t, ok)
	require.NotNil(t, moved.FolderID)
	require.Equal(t, folder.ID, *moved.FolderID)
	require.Equal(t, 1, moved.Order)
}

func TestConnectionMoveRequiresTarget(t *testing.T) {
	h := newHarness(t, "")
	h.seed()

	require.Equal(t, 1, h.run("connection", "move", "beta"))
	require.Contains(t, h.errOut.String(), "--folder, --onto or --root")
	require.Empty(t, h.fake.Mutations())
}

func TestBulkDeleteCommand(t *testing.T) {
	h := newHarness(t, "y\n")
	h.seed()

	require.Equal(t, 0, h.run("delete", "alpha", "beta"), h.errOut.String())
	require.Contains(t, h.out.String(), "deleted 2, failed 0")
	require.Empty(t, h.fake.Connections())
}

func TestBulkDeleteDeclinedSendsNothing(t *testing.T) {
	h := newHarness(t, "\n")
	h.seed()

	require.Equal(t, 0, h.run("delete", "alpha", "beta"), h.errOut.String())
	require.Contains(t, h.out.String(), "cancelled")
	require.Empty(t, h.fake.Mutations())
}

func TestCredsSetShowAndRules(t *testing.T) {
	h := newHarness(t, "")
	_, alpha, _ := h.seed()
	h.fake.SetClusters(alpha.ID, remote.Cluster{UUID: "c1", Name: "Main"})
	h.fake.RequireClusterAdmin(alpha.ID, "c1", "adm", "s3cret")
	h.fake.SetRules(alpha.ID, "c1", "srv", remote.Rule{UUID: "rule-1", ObjectType: "infobase", RuleType: "auto"})

	require.Equal(t, 1, h.run("rules", "list", "alpha", "Main", "srv"))

	require.Equal(t, 0, h.run("creds", "set", "alpha", "Main", "--admin", "adm", "--password", "s3cret"), h.errOut.String())
	require.Equal(t, 0, h.run("creds", "show", "alpha"), h.errOut.String())
	require.Contains(t, h.out.String(), "adm")
	require.Contains(t, h.out.String(), overlay.MaskedPassword)
	require.NotContains(t, h.out.String(), "s3cret")

	require.Equal(t, 0, h.run("rules", "list", "alpha", "Main", "srv"), h.errOut.String())
	require.Contains(t, h.out.String(), "rule-1")

	require.Equal(t, 0, h.run("creds", "clear", "alpha", "Main"), h.errOut.String())
	h.out.Reset()
	require.Equal(t, 0, h.run("creds", "show", "alpha"), h.errOut.String())
	require.Contains(t, h.out.String(), "no stored credentials")
}

func TestShellKeepsOneController(t *testing.T) {
	h := newHarness(t, "tree\nfolder toggle Prod\nmetrics\nexit\n")
	h.seed()

	require.Equal(t, 0, h.run("shell"), h.errOut.String())
	require.Len(t, h.fake.RequestsTo(http.MethodGet, "/connections/"), 1)
	require.Contains(t, h.out.String(), "▸ Prod")
	require.Contains(t, h.out.String(), "rasconsole_remote_requests_total")
}

func TestShellContinuesAfterErrors(t *testing.T) {
	h := newHarness(t, "open nowhere\n'unterminated\ntree\n")
	h.seed()

	require.Equal(t, 0, h.run("shell"))
	require.Contains(t, h.errOut.String(), `connection "nowhere" not found`)
	require.Contains(t, h.errOut.String(), "unterminated")
	require.Equal(t, 2, strings.Count(h.out.String(), "Connections"))
}

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{line: ``, want: nil},
		{line: `tree`, want: []string{"tree"}},
		{line: `  open   alpha `, want: []string{"open", "alpha"}},
		{line: `expand "prod ras" Main x`, want: []string{"expand", "prod ras", "Main", "x"}},
		{line: `creds set a b --password ''`, want: []string{"creds", "set", "a", "b", "--password", ""}},
		{line: `say it\'s`, want: []string{"say", "it's"}},
	}
	for _, tc := range cases {
		got, err := splitArgs(tc.line)
		require.NoError(t, err, tc.line)
		require.Equal(t, tc.want, got, tc.line)
	}

	_, err := splitArgs(`open "alpha`)
	require.Error(t, err)
	_, err = splitArgs(`open \`)
	require.Error(t, err)
}
