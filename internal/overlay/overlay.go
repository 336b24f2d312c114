// Package overlay merges client-held cluster administrator credentials into outgoing
// requests. Credentials never leave the workstation except as part of a request that
// targets their cluster.
package overlay

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/uistate"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

// Request field names understood by the remote API.
const (
	FieldClusterAdmin    = "cluster_admin"
	FieldClusterPassword = "cluster_password"
)

// CredentialStore is the subset of the persistent UI state used by the overlay.
type CredentialStore interface {
	Credential(ctx context.Context, connectionID int64, clusterUUID string) uistate.CredentialRecord
	SetCredential(ctx context.Context, connectionID int64, clusterUUID string, record uistate.CredentialRecord) error
	ClearCredential(ctx context.Context, connectionID int64, clusterUUID string) error
}

// Augmentation is the credential contribution to one request. Exactly one of Query and
// Body is populated, depending on the request method.
type Augmentation struct {
	Query url.Values
	Body  map[string]any
}

// IsEmpty reports whether the augmentation adds nothing.
func (a Augmentation) IsEmpty() bool {
	return len(a.Query) == 0 && len(a.Body) == 0
}

// ApplyQuery adds the query parameters to values.
func (a Augmentation) ApplyQuery(values url.Values) {
	for key, items := range a.Query {
		for _, item := range items {
			values.Add(key, item)
		}
	}
}

// MergeBody copies the body fields into body, overwriting fields of the same name.
func (a Augmentation) MergeBody(body map[string]any) {
	for key, value := range a.Body {
		body[key] = value
	}
}

// Overlay builds augmentations from stored credential records.
type Overlay struct {
	store CredentialStore
	log   *zap.Logger
}

// New constructs an Overlay.
func New(store CredentialStore) *Overlay {
	return &Overlay{
		store: store,
		log:   logger.WithModule("overlay"),
	}
}

// BuildRequestAugmentation returns the credential fields for a request against a cluster.
// Read-style requests get query parameters; mutations get body fields. Without a stored
// login the augmentation is empty and the request runs under the connection's own rights.
func (o *Overlay) BuildRequestAugmentation(ctx context.Context, connectionID int64, clusterUUID, method string) Augmentation {
	if o == nil || o.store == nil || strings.TrimSpace(clusterUUID) == "" {
		return Augmentation{}
	}

	record := o.store.Credential(ctx, connectionID, clusterUUID)
	if !record.HasLogin() {
		return Augmentation{}
	}

	fields := map[string]string{FieldClusterAdmin: strings.TrimSpace(record.Admin)}
	if record.Password != "" {
		fields[FieldClusterPassword] = record.Password
	}

	if isReadMethod(method) {
		query := url.Values{}
		for key, value := range fields {
			query.Set(key, value)
		}
		return Augmentation{Query: query}
	}

	body := make(map[string]any, len(fields))
	for key, value := range fields {
		body[key] = value
	}
	return Augmentation{Body: body}
}

func isReadMethod(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
