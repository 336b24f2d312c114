// Package uistate persists client-local UI state: folder expand flags and the
// per-cluster administrator credentials used by the request overlay.
//
// Reads never fail. A missing, unreadable or malformed entry yields the default value
// and is logged, so a corrupt state file can never block the tree from rendering.
package uistate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/cache"
	"github.com/charlesng35/rasconsole/pkg/crypto"
	"github.com/charlesng35/rasconsole/pkg/logger"
	"github.com/charlesng35/rasconsole/pkg/validator"
)

// Namespaces of the two persisted regions.
const (
	NamespaceFolderExpanded = "folder_expanded"
	NamespaceCredentials    = "cluster_credentials"
)

// CredentialRecord holds the secondary cluster administrator login for one cluster.
type CredentialRecord struct {
	Admin    string `json:"admin" validate:"max=256"`
	Password string `json:"password" validate:"max=1024"`
}

// HasLogin reports whether an administrator login is on record.
func (r CredentialRecord) HasLogin() bool {
	return strings.TrimSpace(r.Admin) != ""
}

// IsEmpty reports whether neither field is set.
func (r CredentialRecord) IsEmpty() bool {
	return !r.HasLogin() && r.Password == ""
}

// CredentialKey addresses a credential record.
type CredentialKey struct {
	ConnectionID int64
	ClusterUUID  string
}

func (k CredentialKey) String() string {
	return fmt.Sprintf("%d:%s", k.ConnectionID, strings.TrimSpace(k.ClusterUUID))
}

// ParseCredentialKey parses the "{connectionId}:{clusterUuid}" form.
func ParseCredentialKey(raw string) (CredentialKey, bool) {
	connPart, uuidPart, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(uuidPart) == "" {
		return CredentialKey{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(connPart), 10, 64)
	if err != nil {
		return CredentialKey{}, false
	}
	return CredentialKey{ConnectionID: id, ClusterUUID: strings.TrimSpace(uuidPart)}, true
}

// State is the typed facade over the namespaced store.
type State struct {
	store  cache.Store
	sealer *crypto.Sealer
	log    *zap.Logger
}

// Option customises a State.
type Option func(*State)

// WithSealer encrypts stored passwords.
func WithSealer(sealer *crypto.Sealer) Option {
	return func(s *State) {
		s.sealer = sealer
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *State) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a State. A nil store falls back to process memory.
func New(store cache.Store, opts ...Option) *State {
	s := &State{
		store: store,
		log:   logger.WithModule("uistate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.log.Warn("no persistent store configured; ui state will not survive restarts")
		s.store = cache.NewMemoryStore()
	}
	return s
}

// FolderExpanded returns the persisted expand flag of a folder. Folders are expanded
// unless explicitly collapsed.
func (s *State) FolderExpanded(ctx context.Context, folderID int64) bool {
	raw, ok := s.read(ctx, NamespaceFolderExpanded, folderKey(folderID))
	if !ok {
		return true
	}
	expanded, ok := decodeBool(raw)
	if !ok {
		s.log.Warn("malformed folder expand flag; using default",
			zap.Int64("folder_id", folderID), zap.ByteString("value", raw))
		return true
	}
	return expanded
}

// SetFolderExpanded persists the expand flag of a folder.
func (s *State) SetFolderExpanded(ctx context.Context, folderID int64, expanded bool) error {
	payload, _ := json.Marshal(expanded)
	if err := s.store.Set(ctx, NamespaceFolderExpanded, folderKey(folderID), payload); err != nil {
		s.log.Warn("persist folder expand flag failed", zap.Int64("folder_id", folderID), zap.Error(err))
		return fmt.Errorf("uistate: set folder expanded: %w", err)
	}
	return nil
}

// ExpandedFolders returns every persisted folder flag that decodes cleanly.
func (s *State) ExpandedFolders(ctx context.Context) map[int64]bool {
	entries, err := s.store.List(ctx, NamespaceFolderExpanded)
	if err != nil {
		s.log.Warn("list folder expand flags failed", zap.Error(err))
		return map[int64]bool{}
	}
	out := make(map[int64]bool, len(entries))
	for key, raw := range entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if expanded, ok := decodeBool(raw); ok {
			out[id] = expanded
		}
	}
	return out
}

// PruneFolders drops flags of folders not present in keep and returns how many were removed.
func (s *State) PruneFolders(ctx context.Context, keep []int64) (int, error) {
	entries, err := s.store.List(ctx, NamespaceFolderExpanded)
	if err != nil {
		return 0, fmt.Errorf("uistate: list folder flags: %w", err)
	}
	alive := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		alive[folderKey(id)] = struct{}{}
	}
	var stale []string
	for key := range entries {
		if _, ok := alive[key]; !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.store.Delete(ctx, NamespaceFolderExpanded, stale...); err != nil {
		return 0, fmt.Errorf("uistate: prune folder flags: %w", err)
	}
	return len(stale), nil
}

// PruneCredentials drops records whose connection is not present in keep. Malformed keys
// are dropped as well.
func (s *State) PruneCredentials(ctx context.Context, keep []int64) (int, error) {
	entries, err := s.store.List(ctx, NamespaceCredentials)
	if err != nil {
		return 0, fmt.Errorf("uistate: list credentials: %w", err)
	}
	alive := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		alive[id] = struct{}{}
	}
	var stale []string
	for rawKey := range entries {
		key, ok := ParseCredentialKey(rawKey)
		if ok {
			if _, live := alive[key.ConnectionID]; live {
				continue
			}
		}
		stale = append(stale, rawKey)
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.store.Delete(ctx, NamespaceCredentials, stale...); err != nil {
		return 0, fmt.Errorf("uistate: prune credentials: %w", err)
	}
	return len(stale), nil
}

// Credential returns the record for a cluster, or an empty record.
func (s *State) Credential(ctx context.Context, connectionID int64, clusterUUID string) CredentialRecord {
	key := CredentialKey{ConnectionID: connectionID, ClusterUUID: clusterUUID}
	raw, ok := s.read(ctx, NamespaceCredentials, key.String())
	if !ok {
		return CredentialRecord{}
	}
	return s.decodeCredential(key.String(), raw)
}

// SetCredential replaces the record for a cluster. The write completes before the call
// returns, so a refresh issued afterwards always sees the new record.
func (s *State) SetCredential(ctx context.Context, connectionID int64, clusterUUID string, record CredentialRecord) error {
	if strings.TrimSpace(clusterUUID) == "" {
		return fmt.Errorf("uistate: set credential: cluster uuid is required")
	}
	record.Admin = strings.TrimSpace(record.Admin)
	if err := validator.Precondition(record); err != nil {
		return err
	}

	sealed, err := s.sealer.Seal(record.Password)
	if err != nil {
		return fmt.Errorf("uistate: seal password: %w", err)
	}
	payload, err := json.Marshal(CredentialRecord{Admin: record.Admin, Password: sealed})
	if err != nil {
		return fmt.Errorf("uistate: encode credential: %w", err)
	}

	key := CredentialKey{ConnectionID: connectionID, ClusterUUID: clusterUUID}
	if err := s.store.Set(ctx, NamespaceCredentials, key.String(), payload); err != nil {
		s.log.Warn("persist credential failed", zap.String("key", key.String()), zap.Error(err))
		return fmt.Errorf("uistate: set credential: %w", err)
	}
	return nil
}

// ClearCredential removes the record for a cluster.
func (s *State) ClearCredential(ctx context.Context, connectionID int64, clusterUUID string) error {
	key := CredentialKey{ConnectionID: connectionID, ClusterUUID: clusterUUID}
	if err := s.store.Delete(ctx, NamespaceCredentials, key.String()); err != nil {
		return fmt.Errorf("uistate: clear credential: %w", err)
	}
	return nil
}

// Credentials returns all records of a connection keyed by cluster uuid.
func (s *State) Credentials(ctx context.Context, connectionID int64) map[string]CredentialRecord {
	entries, err := s.store.List(ctx, NamespaceCredentials)
	if err != nil {
		s.log.Warn("list credentials failed", zap.Error(err))
		return map[string]CredentialRecord{}
	}
	out := make(map[string]CredentialRecord)
	for rawKey, raw := range entries {
		key, ok := ParseCredentialKey(rawKey)
		if !ok || key.ConnectionID != connectionID {
			continue
		}
		out[key.ClusterUUID] = s.decodeCredential(rawKey, raw)
	}
	return out
}

func (s *State) read(ctx context.Context, namespace, key string) ([]byte, bool) {
	raw, ok, err := s.store.Get(ctx, namespace, key)
	if err != nil {
		s.log.Warn("read ui state failed; using default",
			zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, ok
}

func (s *State) decodeCredential(key string, raw []byte) CredentialRecord {
	var record CredentialRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		s.log.Warn("malformed credential record; using default", zap.String("key", key), zap.Error(err))
		return CredentialRecord{}
	}
	if err := validator.ValidateStruct(record); err != nil {
		s.log.Warn("invalid credential record; using default", zap.String("key", key), zap.Error(err))
		return CredentialRecord{}
	}
	password, err := s.sealer.Open(record.Password)
	if err != nil {
		s.log.Warn("stored password unreadable; dropping it", zap.String("key", key), zap.Error(err))
		password = ""
	}
	record.Password = password
	return record
}

func folderKey(folderID int64) string {
	return strconv.FormatInt(folderID, 10)
}

// decodeBool accepts JSON booleans and the "true"/"false" strings older builds wrote.
func decodeBool(raw []byte) (bool, bool) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}
