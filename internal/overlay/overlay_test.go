package overlay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/rasconsole/internal/cache"
	"github.com/charlesng35/rasconsole/internal/uistate"
)

func newOverlay(t *testing.T) (*Overlay, *uistate.State) {
	t.Helper()
	state := uistate.New(cache.NewMemoryStore())
	return New(state), state
}

func TestAugmentationEmptyWithoutLogin(t *testing.T) {
	ctx := context.Background()
	o, state := newOverlay(t)

	require.True(t, o.BuildRequestAugmentation(ctx, 1, "c", http.MethodGet).IsEmpty())

	require.NoError(t, state.SetCredential(ctx, 1, "c", uistate.CredentialRecord{Password: "orphan"}))
	require.True(t, o.BuildRequestAugmentation(ctx, 1, "c", http.MethodPost).IsEmpty(),
		"a password without a login is not sent")
}

func TestAugmentationForReadRequests(t *testing.T) {
	ctx := context.Background()
	o, state := newOverlay(t)

	require.NoError(t, state.SetCredential(ctx, 1, "c", uistate.CredentialRecord{Admin: "admin"}))
	aug := o.BuildRequestAugmentation(ctx, 1, "c", http.MethodGet)
	require.Equal(t, "admin", aug.Query.Get(FieldClusterAdmin))
	require.False(t, aug.Query.Has(FieldClusterPassword))
	require.Empty(t, aug.Body)

	require.NoError(t, state.SetCredential(ctx, 1, "c", uistate.CredentialRecord{Admin: "admin", Password: "secret"}))
	aug = o.BuildRequestAugmentation(ctx, 1, "c", http.MethodGet)
	values := url.Values{"cluster": {"c"}}
	aug.ApplyQuery(values)
	require.Equal(t, "c", values.Get("cluster"), "augmentation is additive")
	require.Equal(t, "secret", values.Get(FieldClusterPassword))
}

func TestAugmentationForMutations(t *testing.T) {
	ctx := context.Background()
	o, state := newOverlay(t)
	require.NoError(t, state.SetCredential(ctx, 1, "c", uistate.CredentialRecord{Admin: "admin", Password: "secret"}))

	aug := o.BuildRequestAugmentation(ctx, 1, "c", http.MethodPost)
	require.Empty(t, aug.Query)

	body := map[string]any{"name": "rule"}
	aug.MergeBody(body)
	require.Equal(t, map[string]any{"name": "rule", FieldClusterAdmin: "admin", FieldClusterPassword: "secret"}, body)

	require.True(t, o.BuildRequestAugmentation(ctx, 1, "other", http.MethodPost).IsEmpty(), "scoped to its cluster")
}

func TestResolvePasswordPolicy(t *testing.T) {
	cases := []struct {
		name     string
		field    string
		touched  bool
		existing string
		want     string
	}{
		{"masked untouched keeps stored", MaskedPassword, false, "old", "old"},
		{"masked retyped is never stored literally", MaskedPassword, true, "old", "old"},
		{"new literal stored verbatim", "new", true, "old", "new"},
		{"emptied and touched clears", "", true, "old", ""},
		{"empty untouched without password stays empty", "", false, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolvePassword(tc.field, tc.touched, tc.existing))
		})
	}
}

func TestEditSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	o, state := newOverlay(t)
	require.NoError(t, state.SetCredential(ctx, 4, "c", uistate.CredentialRecord{Admin: "admin", Password: "old"}))

	session := o.BeginEdit(ctx, 4, "c")
	require.Equal(t, MaskedPassword, session.PasswordField())
	require.Equal(t, "admin", session.Admin())

	session.SetAdmin("root")
	record, err := o.Save(ctx, session)
	require.NoError(t, err)
	require.Equal(t, uistate.CredentialRecord{Admin: "root", Password: "old"}, record)
	require.Equal(t, "old", state.Credential(ctx, 4, "c").Password)

	session = o.BeginEdit(ctx, 4, "c")
	session.SetPassword("new")
	_, err = o.Save(ctx, session)
	require.NoError(t, err)
	require.Equal(t, "new", state.Credential(ctx, 4, "c").Password)

	session = o.BeginEdit(ctx, 4, "c")
	session.SetPassword("")
	_, err = o.Save(ctx, session)
	require.NoError(t, err)
	require.Empty(t, state.Credential(ctx, 4, "c").Password)
	require.Equal(t, "root", state.Credential(ctx, 4, "c").Admin)
}

func TestBeginEditWithoutPasswordShowsEmptyField(t *testing.T) {
	ctx := context.Background()
	o, _ := newOverlay(t)

	session := o.BeginEdit(ctx, 1, "c")
	require.Empty(t, session.PasswordField())
	session.SetAdmin("admin")
	record, err := o.Save(ctx, session)
	require.NoError(t, err)
	require.Empty(t, record.Password)
}

func TestSaveAndRefreshWritesBeforeRefresh(t *testing.T) {
	ctx := context.Background()
	o, _ := newOverlay(t)

	session := o.BeginEdit(ctx, 2, "c")
	session.SetAdmin("admin")
	session.SetPassword("pw")

	var seen Augmentation
	_, err := o.SaveAndRefresh(ctx, session, func(ctx context.Context) error {
		seen = o.BuildRequestAugmentation(ctx, 2, "c", http.MethodGet)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "pw", seen.Query.Get(FieldClusterPassword))

	boom := errors.New("refresh failed")
	_, err = o.SaveAndRefresh(ctx, o.BeginEdit(ctx, 2, "c"), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	o, state := newOverlay(t)
	require.NoError(t, state.SetCredential(ctx, 3, "c", uistate.CredentialRecord{Admin: "a", Password: "b"}))

	require.NoError(t, o.Clear(ctx, 3, "c"))
	require.True(t, o.BuildRequestAugmentation(ctx, 3, "c", http.MethodGet).IsEmpty())
}
