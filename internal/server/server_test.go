package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskgrid/internal/auth"
	"taskgrid/internal/models"
	"taskgrid/internal/storage/sqlite"
	"taskgrid/internal/tracker"
)

type testEnv struct {
	t      *testing.T
	srv    *Server
	svc    *tracker.Service
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, opts, nil)
}

func newTestEnvWithLogger(t *testing.T, opts Options, logger *slog.Logger) *testEnv {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if opts.Ping == nil {
		opts.Ping = store.Ping
	}
	svc := tracker.New(store, nil)
	tokens := auth.NewTokens("test-secret", time.Hour)
	return &testEnv{t: t, srv: New(svc, tokens, logger, opts), svc: svc, tokens: tokens}
}

func (e *testEnv) member(name string, role models.Role) models.TeamMember {
	e.t.Helper()
	email, password := name+"@example.com", "pw-"+name
	m, err := e.svc.CreateMember(context.Background(), tracker.System, tracker.MemberInput{
		Name: &name, Email: &email, Role: &role, Password: &password,
	})
	if err != nil {
		e.t.Fatalf("create member: %v", err)
	}
	return m
}

func (e *testEnv) token(name string, role models.Role) string {
	e.t.Helper()
	token, err := e.tokens.Issue(models.Caller{Name: name, Role: role})
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["message"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	down := newTestEnv(t, Options{Ping: func(context.Context) error { return errors.New("disk gone") }})
	rec = down.do(http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.member("Alice", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/login", "", body{"name": "Alice", "role": "Admin", "password": "pw-Alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[loginResponse](t, rec)
	caller, err := env.tokens.Parse(resp.Token)
	if err != nil || caller.Name != "Alice" || caller.Role != models.RoleAdmin {
		t.Fatalf("token does not carry the identity: %+v, %v", caller, err)
	}

	wrongPassword := env.do(http.MethodPost, "/api/login", "", body{"name": "Alice", "role": "Admin", "password": "nope"})
	unknownUser := env.do(http.MethodPost, "/api/login", "", body{"name": "Mallory", "role": "Admin", "password": "pw-Alice"})
	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 twice, got %d and %d", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("login failures differ: %s vs %s", wrongPassword.Body, unknownUser.Body)
	}

	rejected := []struct {
		name string
		req  body
	}{
		{name: "unknown role", req: body{"name": "Alice", "role": "Manager", "password": "pw-Alice"}},
		{name: "misspelled role", req: body{"name": "Alice", "role": "TeamMember", "password": "pw-Alice"}},
		{name: "other role", req: body{"name": "Alice", "role": "Team Member", "password": "pw-Alice"}},
		{name: "empty password", req: body{"name": "Alice", "role": "Admin", "password": ""}},
		{name: "empty name", req: body{"name": "", "role": "Admin", "password": "pw-Alice"}},
		{name: "empty body", req: body{}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/login", "", tt.req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body)
			}
			if rec.Body.String() != wrongPassword.Body.String() {
				t.Fatalf("expected the wrong-password body, got %s", rec.Body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("name=Alice"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	env.srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-JSON body, got %d", rec.Code)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "foreign", token: func() string {
			s, _ := auth.NewTokens("other-secret", time.Hour).Issue(models.Caller{Name: "Alice", Role: models.RoleAdmin})
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/projects", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if message(t, rec) == "" {
				t.Fatal("expected a message body")
			}
		})
	}
}

func TestTaskFlow(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.member("Alice", models.RoleAdmin)
	bobMember := env.member("Bob", models.RoleTeamMember)
	adminToken := env.token("Alice", models.RoleAdmin)
	bobToken := env.token("Bob", models.RoleTeamMember)

	rec := env.do(http.MethodPost, "/api/projects", adminToken, body{"title": "Launch", "startDate": "2024-05-01T00:00:00Z"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", rec.Code, rec.Body)
	}
	project := decode[models.Project](t, rec)
	if project.StartDate != "2024-05-01" {
		t.Fatalf("expected normalised start date, got %q", project.StartDate)
	}

	rec = env.do(http.MethodPost, "/api/projects", bobToken, body{"title": "Side"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("team member create project: expected 403, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/tasks", adminToken, body{
		"title": "Write docs", "description": "user guide", "dueDate": "2024-06-01",
		"assignedTo": bobMember.ID, "project": project.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body)
	}
	task := decode[models.Task](t, rec)

	rec = env.do(http.MethodGet, "/api/tasks?assignedTo=Bob", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: %d %s", rec.Code, rec.Body)
	}
	listed := decode[[]models.ExpandedTask](t, rec)
	if len(listed) != 1 || listed[0].Project.Title != "Launch" || listed[0].AssignedTo.Name != "Bob" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	rec = env.do(http.MethodGet, "/api/tasks?assignedTo=Nobody", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown assignee: expected 404, got %d", rec.Code)
	}

	rec = env.do(http.MethodPut, "/api/tasks/"+task.ID, bobToken, body{"status": "Blocked"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", rec.Code)
	}
	rec = env.do(http.MethodPut, "/api/tasks/"+task.ID, bobToken, body{"title": "Rewrite", "status": "Done"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("title change by team member: expected 403, got %d", rec.Code)
	}
	rec = env.do(http.MethodPut, "/api/tasks/"+task.ID, bobToken, body{"status": "Done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status change by owner: %d %s", rec.Code, rec.Body)
	}
	if updated := decode[models.Task](t, rec); updated.Status != models.StatusDone || updated.Title != "Write docs" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	rec = env.do(http.MethodGet, "/api/tasks/stats", bobToken, nil)
	if stats := decode[models.TaskStats](t, rec); rec.Code != http.StatusOK || stats.Completed != 1 {
		t.Fatalf("stats: %d %+v", rec.Code, stats)
	}

	rec = env.do(http.MethodDelete, "/api/projects/"+project.ID, adminToken, nil)
	if rec.Code != http.StatusOK || message(t, rec) != "Project deleted" {
		t.Fatalf("delete project: %d %s", rec.Code, rec.Body)
	}
	rec = env.do(http.MethodGet, "/api/tasks/"+task.ID, adminToken, nil)
	if got := decode[models.ExpandedTask](t, rec); got.Project.Title != models.Unresolved {
		t.Fatalf("expected unresolved project, got %+v", got.Project)
	}

	rec = env.do(http.MethodDelete, "/api/tasks/"+task.ID, bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("team member delete: expected 403, got %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/api/tasks/"+task.ID, adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete task: %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/api/tasks/"+task.ID, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, "/api/tasks/not-an-id", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", rec.Code)
	}
}

func TestMemberEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.member("Alice", models.RoleAdmin)
	adminToken := env.token("Alice", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/teammembers", adminToken, body{"name": "Bob", "email": "bob", "role": "Team Member", "password": "pw"})
	if rec.Code != http.StatusBadRequest || message(t, rec) != "email must be a valid email" {
		t.Fatalf("bad email: %d %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodPost, "/api/teammembers", adminToken, body{"name": "Bob", "email": "bob@example.com", "role": "Team Member", "password": "pw"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member: %d %s", rec.Code, rec.Body)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("assword")) {
		t.Fatalf("password material leaked: %s", rec.Body)
	}
	created := decode[models.TeamMember](t, rec)

	rec = env.do(http.MethodPut, "/api/teammembers/"+created.ID, adminToken, body{"email": "robert@example.com"})
	if updated := decode[models.TeamMember](t, rec); rec.Code != http.StatusOK || updated.Email != "robert@example.com" {
		t.Fatalf("update member: %d %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodGet, "/api/teammembers", env.token("Bob", models.RoleTeamMember), nil)
	if members := decode[[]models.TeamMember](t, rec); rec.Code != http.StatusOK || len(members) != 2 {
		t.Fatalf("list members: %d %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodDelete, "/api/teammembers/"+created.ID, adminToken, nil)
	if rec.Code != http.StatusOK || message(t, rec) != "Team member deleted" {
		t.Fatalf("delete member: %d %s", rec.Code, rec.Body)
	}
	rec = env.do(http.MethodGet, "/api/teammembers/"+created.ID, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted member: expected 404, got %d", rec.Code)
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>taskgrid</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	env := newTestEnv(t, Options{StaticDir: dir})

	rec := env.do(http.MethodGet, "/board/42", "", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("taskgrid")) {
		t.Fatalf("expected SPA fallback, got %d %s", rec.Code, rec.Body)
	}

	rec = env.do(http.MethodGet, "/api/unknown", "", nil)
	if rec.Code != http.StatusNotFound || message(t, rec) != "endpoint not found" {
		t.Fatalf("expected JSON 404, got %d %s", rec.Code, rec.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, Options{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.srv.Engine().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q (status %d)", got, rec.Code)
	}
}

func TestRejectionsLoggedAtInfo(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	env := newTestEnvWithLogger(t, Options{}, logger)

	rec := env.do(http.MethodPost, "/api/projects", env.token("Bob", models.RoleTeamMember), body{"title": "Side"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(logs.String(), "request rejected") || !strings.Contains(logs.String(), "status=403") {
		t.Fatalf("expected the rejection in the info log, got:\n%s", logs.String())
	}

	logs.Reset()
	env.do(http.MethodGet, "/api/projects", "", nil)
	if !strings.Contains(logs.String(), "request rejected") || !strings.Contains(logs.String(), "status=401") {
		t.Fatalf("expected the 401 in the info log, got:\n%s", logs.String())
	}
}

type body = map[string]any
