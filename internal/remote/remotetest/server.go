// Package remotetest provides an in-memory fake of the RAS administration API for tests.
// It records every request, enforces the CSRF header on mutations and can be told to fail
// or hold specific endpoints.
package remotetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/rasconsole/internal/remote"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/response"
)

// CSRFToken is the token the fake accepts on mutations.
const CSRFToken = "test-csrf-token"

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type failure struct {
	status    int
	message   string
	remaining int
}

type clusterAuth struct {
	admin    string
	password string
}

// Gate blocks matching requests until released.
type Gate struct {
	arrived     chan struct{}
	release     chan struct{}
	arriveOnce  sync.Once
	releaseOnce sync.Once
}

// Arrived is closed when the first matching request reaches the fake.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets every held request proceed.
func (g *Gate) Release() {
	g.releaseOnce.Do(func() { close(g.release) })
}

// Server is the fake backend.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	nextID      int64
	folders     []remote.Folder
	connections []remote.Connection
	clusters    map[int64][]remote.Cluster
	sections    map[string][]map[string]any
	agents      map[int64][]map[string]any
	rules       map[string][]remote.Rule
	auth        map[string]clusterAuth
	requests    []Request
	failures    map[string]*failure
	gates       map[string]*Gate
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s := &Server{
		nextID:   100,
		clusters: map[int64][]remote.Cluster{},
		sections: map[string][]map[string]any{},
		agents:   map[int64][]map[string]any{},
		rules:    map[string][]remote.Rule{},
		auth:     map[string]clusterAuth{},
		failures: map[string]*failure{},
		gates:    map[string]*Gate{},
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the base url of the fake.
func (s *Server) URL() string {
	return s.srv.URL
}

// Client returns a remote client wired to the fake with a valid CSRF token.
func (s *Server) Client(t testing.TB, userID int64) *remote.Client {
	t.Helper()
	client, err := remote.New(remote.Config{BaseURL: s.URL(), UserID: userID},
		remote.WithTokenSource(remote.StaticToken(CSRFToken)))
	if err != nil {
		t.Fatalf("remotetest: new client: %v", err)
	}
	return client
}

// AddFolder appends a folder and returns it.
func (s *Server) AddFolder(name string) remote.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	folder := remote.Folder{ID: s.allocID(), Name: name, Order: len(s.folders)}
	s.folders = append(s.folders, folder)
	return folder
}

// AddConnection stores conn as given, allocating an id when it has none.
func (s *Server) AddConnection(conn remote.Connection) remote.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn.ID == 0 {
		conn.ID = s.allocID()
	}
	s.connections = append(s.connections, conn)
	return conn
}

// SetClusters replaces the clusters of a connection.
func (s *Server) SetClusters(connectionID int64, clusters ...remote.Cluster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[connectionID] = clusters
}

// SetSection replaces the rows served for a section of a cluster.
func (s *Server) SetSection(section remote.Section, connectionID int64, clusterUUID string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionKey(string(section), connectionID, clusterUUID)] = rows
}

// SetAgents replaces the agent administrators of a connection.
func (s *Server) SetAgents(connectionID int64, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[connectionID] = rows
}

// SetRules replaces the rules of a working server.
func (s *Server) SetRules(connectionID int64, clusterUUID, serverUUID string, rules ...remote.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[sectionKey(serverUUID, connectionID, clusterUUID)] = rules
}

// RequireClusterAdmin makes cluster-scoped reads fail with 403 unless the given cluster
// admin credentials are supplied.
func (s *Server) RequireClusterAdmin(connectionID int64, clusterUUID, admin, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth[fmt.Sprintf("%d:%s", connectionID, clusterUUID)] = clusterAuth{admin: admin, password: password}
}

// Fail makes every request to method+path fail with status and message.
func (s *Server) Fail(method, path string, status int, message string) {
	s.setFailure(method, path, status, message, -1)
}

// FailOnce makes the next request to method+path fail.
func (s *Server) FailOnce(method, path string, status int, message string) {
	s.setFailure(method, path, status, message, 1)
}

func (s *Server) setFailure(method, path string, status int, message string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, message: message, remaining: times}
}

// Hold blocks requests to method+path until the returned gate is released.
func (s *Server) Hold(method, path string) *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.gates[method+" "+path] = gate
	return gate
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the recorded requests matching method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// Mutations returns the recorded non-GET requests.
func (s *Server) Mutations() []Request {
	var out []Request
	for _, req := range s.Requests() {
		if req.Method != http.MethodGet {
			out = append(out, req)
		}
	}
	return out
}

// ResetRequests forgets recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Folders returns the stored folders sorted by order.
func (s *Server) Folders() []remote.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]remote.Folder(nil), s.folders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Connections returns the stored connections.
func (s *Server) Connections() []remote.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Connection(nil), s.connections...)
}

// Connection looks up a stored connection.
func (s *Server) Connection(id int64) (remote.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.connectionIndex(id); idx >= 0 {
		return s.connections[idx], true
	}
	return remote.Connection{}, false
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record, s.csrf, s.gate, s.inject)

	r.GET("/connections/", s.listConnections)
	r.POST("/connections/create/", s.createConnection)
	r.POST("/connections/update/:id/", s.updateConnection)
	r.POST("/connections/delete/:id/", s.deleteConnection)
	r.POST("/connections/:id/move/", s.moveConnection)
	r.GET("/clusters/:conn/", s.listClusters)

	r.POST("/folders/create/", s.createFolder)
	r.POST("/folders/:id/update/", s.updateFolder)
	r.POST("/folders/:id/delete/", s.deleteFolder)
	r.POST("/folders/:id/move/", s.moveFolder)

	r.GET("/admins/:conn/:cluster/", s.listAdmins)
	for _, section := range remote.Sections {
		if section == remote.SectionAdmins {
			continue
		}
		r.GET("/"+string(section)+"/:conn/", s.listSection(section))
	}
	r.GET("/agents/:conn/", s.listAgents)

	rules := r.Group("/rules/:conn/:cluster/:server")
	rules.GET("/", s.listRules)
	rules.POST("/create/", s.createRule)
	rules.POST("/apply/", s.applyRules)
	rules.POST("/:rule/update/", s.updateRule)
	rules.POST("/:rule/delete/", s.deleteRule)

	r.POST("/groups/assign/", s.assignGroup)
	return r
}

func (s *Server) record(c *gin.Context) {
	req := Request{Method: c.Request.Method, Path: c.Request.URL.Path, Query: c.Request.URL.Query()}
	if c.Request.Body != nil {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Body)
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) csrf(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.GetHeader("X-CSRFToken") != CSRFToken {
		response.Error(c, apperrors.ErrForbidden.WithMessage("CSRF token missing or incorrect"))
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) gate(c *gin.Context) {
	s.mu.Lock()
	gate := s.gates[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if gate != nil {
		gate.arriveOnce.Do(func() { close(gate.arrived) })
		select {
		case <-gate.release:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path
	s.mu.Lock()
	fail := s.failures[key]
	if fail != nil && fail.remaining > 0 {
		fail.remaining--
		if fail.remaining == 0 {
			delete(s.failures, key)
		}
	}
	s.mu.Unlock()
	if fail == nil {
		c.Next()
		return
	}
	if fail.status == 0 {
		c.String(http.StatusBadGateway, "<html>bad gateway</html>")
		c.Abort()
		return
	}
	c.JSON(fail.status, gin.H{"success": false, "error": fail.message})
	c.Abort()
}

func (s *Server) listConnections(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	response.Success(c, http.StatusOK, gin.H{
		"folders":     append([]remote.Folder{}, s.folders...),
		"connections": append([]remote.Connection{}, s.connections...),
	})
}

func (s *Server) createConnection(c *gin.Context) {
	var payload struct {
		remote.ConnectionInput
		Force bool `json:"force"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !payload.Force {
		var dups []remote.Duplicate
		for _, conn := range s.connections {
			if strings.EqualFold(conn.ServerHost, payload.ServerHost) && conn.RASPort == payload.RASPort {
				dups = append(dups, remote.Duplicate{ID: conn.ID, DisplayName: conn.DisplayName, ServerHost: conn.ServerHost, RASPort: conn.RASPort})
			}
		}
		if len(dups) > 0 {
			response.Error(c, apperrors.ErrDuplicate.WithMessage("Connection to this server already exists").
				WithDetails(map[string]any{"duplicates": dups}))
			return
		}
	}

	conn := remote.Connection{
		ID:          s.allocID(),
		DisplayName: payload.DisplayName,
		Description: payload.Description,
		ServerHost:  payload.ServerHost,
		RASPort:     payload.RASPort,
		FolderID:    payload.FolderID,
		Order:       len(s.scope(payload.FolderID)),
	}
	s.connections = append(s.connections, conn)
	response.Success(c, http.StatusOK, gin.H{"connection": conn})
}

func (s *Server) updateConnection(c *gin.Context) {
	var payload remote.ConnectionInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.connectionIndex(paramID(c, "id"))
	if idx < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Connection not found"))
		return
	}
	conn := &s.connections[idx]
	conn.DisplayName = payload.DisplayName
	conn.Description = payload.Description
	conn.ServerHost = payload.ServerHost
	conn.RASPort = payload.RASPort
	response.Success(c, http.StatusOK, gin.H{"connection": *conn})
}

func (s *Server) deleteConnection(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.connectionIndex(paramID(c, "id"))
	if idx < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Connection not found"))
		return
	}
	removed := s.connections[idx]
	s.connections = append(s.connections[:idx], s.connections[idx+1:]...)
	s.renumber(removed.FolderID)
	response.Success(c, http.StatusOK, nil)
}

func (s *Server) moveConnection(c *gin.Context) {
	var payload struct {
		FolderID *int64 `json:"folder_id"`
		Order    int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := paramID(c, "id")
	idx := s.connectionIndex(id)
	if idx < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Connection not found"))
		return
	}
	if payload.FolderID != nil && s.folderIndex(*payload.FolderID) < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Folder not found"))
		return
	}

	oldFolder := s.connections[idx].FolderID
	s.connections[idx].FolderID = payload.FolderID
	s.connections[idx].Order = -1
	s.renumber(oldFolder)

	siblings := s.scope(payload.FolderID)
	var ordered []int
	for _, i := range siblings {
		if s.connections[i].ID != id {
			ordered = append(ordered, i)
		}
	}
	at := clamp(payload.Order, len(ordered))
	ordered = append(ordered[:at], append([]int{idx}, ordered[at:]...)...)
	for pos, i := range ordered {
		s.connections[i].Order = pos
	}
	response.Success(c, http.StatusOK, nil)
}

func (s *Server) listClusters(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := paramID(c, "conn")
	if s.connectionIndex(id) < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Connection not found"))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"clusters": append([]remote.Cluster{}, s.clusters[id]...)})
}

func (s *Server) createFolder(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		response.Error(c, apperrors.ErrRemote.WithMessage("Folder name is required"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	folder := remote.Folder{ID: s.allocID(), Name: payload.Name, Order: len(s.folders)}
	s.folders = append(s.folders, folder)
	response.Success(c, http.StatusOK, gin.H{"folder": folder})
}

func (s *Server) updateFolder(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.folderIndex(paramID(c, "id"))
	if idx < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Folder not found"))
		return
	}
	s.folders[idx].Name = payload.Name
	response.Success(c, http.StatusOK, gin.H{"folder": s.folders[idx]})
}

func (s *Server) deleteFolder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := paramID(c, "id")
	idx := s.folderIndex(id)
	if idx < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Folder not found"))
		return
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
	sort.SliceStable(s.folders, func(i, j int) bool { return s.folders[i].Order < s.folders[j].Order })
	for i := range s.folders {
		s.folders[i].Order = i
	}

	root := len(s.scope(nil))
	for i := range s.connections {
		if s.connections[i].FolderID != nil && *s.connections[i].FolderID == id {
			s.connections[i].FolderID = nil
			s.connections[i].Order = root
			root++
		}
	}
	response.Success(c, http.StatusOK, nil)
}

func (s *Server) moveFolder(c *gin.Context) {
	var payload struct {
		Order int `json:"order"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := paramID(c, "id")
	if s.folderIndex(id) < 0 {
		response.Error(c, apperrors.ErrNotFound.WithMessage("Folder not found"))
		return
	}
	sort.SliceStable(s.folders, func(i, j int) bool { return s.folders[i].Order < s.folders[j].Order })
	var moved remote.Folder
	rest := make([]remote.Folder, 0, len(s.folders))
	for _, folder := range s.folders {
		if folder.ID == id {
			moved = folder
			continue
		}
		rest = append(rest, folder)
	}
	at := clamp(payload.Order, len(rest))
	s.folders = append(rest[:at], append([]remote.Folder{moved}, rest[at:]...)...)
	for i := range s.folders {
		s.folders[i].Order = i
	}
	response.Success(c, http.StatusOK, nil)
}

func (s *Server) listAdmins(c *gin.Context) {
	s.serveSection(c, remote.SectionAdmins, c.Param("cluster"))
}

func (s *Server) listSection(section remote.Section) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.serveSection(c, section, c.Query("cluster"))
	}
}

func (s *Server) serveSection(c *gin.Context, section remote.Section, clusterUUID string) {
	connID := paramID(c, "conn")
	if !s.authorized(c, connID, clusterUUID) {
		response.Error(c, apperrors.ErrForbidden.WithMessage("Cluster administrator authentication failed"))
		return
	}
	s.mu.Lock()
	rows := append([]map[string]any{}, s.sections[sectionKey(string(section), connID, clusterUUID)]...)
	s.mu.Unlock()
	response.Success(c, http.StatusOK, gin.H{string(section): rows})
}

func (s *Server) listAgents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	response.Success(c, http.StatusOK, gin.H{"agents": append([]map[string]any{}, s.agents[paramID(c, "conn")]...)})
}

func (s *Server) rulesKey(c *gin.Context) string {
	return sectionKey(c.Param("server"), paramID(c, "conn"), c.Param("cluster"))
}

func (s *Server) listRules(c *gin.Context) {
	if !s.authorized(c, paramID(c, "conn"), c.Param("cluster")) {
		response.Error(c, apperrors.ErrForbidden.WithMessage("Cluster administrator authentication failed"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	response.Success(c, http.StatusOK, gin.H{"rules": append([]remote.Rule{}, s.rules[s.rulesKey(c)]...)})
}

func (s *Server) createRule(c *gin.Context) {
	if !s.authorized(c, paramID(c, "conn"), c.Param("cluster")) {
		response.Error(c, apperrors.ErrForbidden.WithMessage("Cluster administrator authentication failed"))
		return
	}
	var input remote.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.rulesKey(c)
	rule := ruleFromInput(fmt.Sprintf("rule-%d", s.allocID()), input)
	s.rules[key] = append(s.rules[key], rule)
	response.Success(c, http.StatusOK, gin.H{"rule": rule})
}

func (s *Server) updateRule(c *gin.Context) {
	var input remote.RuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.rulesKey(c)
	for i, rule := range s.rules[key] {
		if rule.UUID == c.Param("rule") {
			s.rules[key][i] = ruleFromInput(rule.UUID, input)
			response.Success(c, http.StatusOK, nil)
			return
		}
	}
	response.Error(c, apperrors.ErrNotFound.WithMessage("Rule not found"))
}

func (s *Server) deleteRule(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.rulesKey(c)
	for i, rule := range s.rules[key] {
		if rule.UUID == c.Param("rule") {
			s.rules[key] = append(s.rules[key][:i], s.rules[key][i+1:]...)
			response.Success(c, http.StatusOK, nil)
			return
		}
	}
	response.Error(c, apperrors.ErrNotFound.WithMessage("Rule not found"))
}

func (s *Server) applyRules(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"applied": true})
}

func (s *Server) assignGroup(c *gin.Context) {
	var payload struct {
		UserID  int64  `json:"user_id"`
		GroupID int64  `json:"group_id"`
		Action  string `json:"action"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, apperrors.ErrRemote.WithMessage(err.Error()))
		return
	}
	if payload.Action != string(remote.GroupRemove) {
		response.Success(c, http.StatusOK, nil)
		return
	}

	// The leaving member no longer sees the group's connections.
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.connections[:0]
	for _, conn := range s.connections {
		if conn.GroupID != nil && *conn.GroupID == payload.GroupID {
			continue
		}
		kept = append(kept, conn)
	}
	s.connections = kept
	response.Success(c, http.StatusOK, nil)
}

func (s *Server) authorized(c *gin.Context, connectionID int64, clusterUUID string) bool {
	s.mu.Lock()
	want, ok := s.auth[fmt.Sprintf("%d:%s", connectionID, clusterUUID)]
	s.mu.Unlock()
	if !ok {
		return true
	}
	admin, password := c.Query("cluster_admin"), c.Query("cluster_password")
	if c.Request.Method != http.MethodGet {
		var body map[string]any
		if raw, err := c.GetRawData(); err == nil {
			_ = json.Unmarshal(raw, &body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		}
		admin, _ = body["cluster_admin"].(string)
		password, _ = body["cluster_password"].(string)
	}
	return admin == want.admin && password == want.password
}

// scope returns the indexes of the connections in folderID sorted by order.
func (s *Server) scope(folderID *int64) []int {
	var idx []int
	for i, conn := range s.connections {
		if conn.InFolder(folderID) && conn.Order >= 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.connections[idx[a]].Order < s.connections[idx[b]].Order
	})
	return idx
}

func (s *Server) renumber(folderID *int64) {
	for pos, i := range s.scope(folderID) {
		s.connections[i].Order = pos
	}
}

func (s *Server) connectionIndex(id int64) int {
	for i, conn := range s.connections {
		if conn.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) folderIndex(id int64) int {
	for i, folder := range s.folders {
		if folder.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func ruleFromInput(uuid string, input remote.RuleInput) remote.Rule {
	return remote.Rule{
		UUID:           uuid,
		Position:       input.Position,
		ObjectType:     input.ObjectType,
		InfobaseName:   input.InfobaseName,
		RuleType:       input.RuleType,
		ApplicationExt: input.ApplicationExt,
		Priority:       input.Priority,
	}
}

func sectionKey(kind string, connectionID int64, clusterUUID string) string {
	return fmt.Sprintf("%s|%d|%s", kind, connectionID, clusterUUID)
}

func paramID(c *gin.Context, name string) int64 {
	id, _ := strconv.ParseInt(c.Param(name), 10, 64)
	return id
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}
