package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-admin/internal/app"
	"github.com/odyssey-erp/odyssey-admin/internal/auth"
	"github.com/odyssey-erp/odyssey-admin/internal/observability"
	"github.com/odyssey-erp/odyssey-admin/internal/permissions"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/roles"
	"github.com/odyssey-erp/odyssey-admin/internal/seed"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
	"github.com/odyssey-erp/odyssey-admin/internal/testing/memstore"
	"github.com/odyssey-erp/odyssey-admin/internal/users"
	_ "github.com/odyssey-erp/odyssey-admin/testing"
)

const (
	adminEmail    = "admin@test.local"
	adminPassword = "correctpass"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	_, err := seed.Run(context.Background(), store.Seed(), seed.Admin{Name: "Admin", Email: adminEmail, Password: adminPassword}, logger)
	require.NoError(t, err)

	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000}
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "admin_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	tokens := auth.NewTokenIssuer("jwtsecret", time.Hour)
	mw := rbac.Middleware{Service: rbac.NewService(store.RBAC()), Tokens: tokens, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessions,
		CSRFManager:        csrf,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(store.Auth()), tokens, sessions, csrf, mw),
		PermissionsHandler: permissions.NewHandler(logger, permissions.NewService(store.Permissions())),
		RolesHandler:       roles.NewHandler(logger, roles.NewService(store.Roles())),
		UsersHandler:       users.NewHandler(logger, users.NewService(store.Users()).WithBcryptCost(bcrypt.MinCost)),
		ProfileHandler:     users.NewProfileHandler(logger, users.NewProfileService(store.Users()), sessions),
		RBACMiddleware:     mw,
		Metrics:            observability.NewMetrics(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t      *testing.T
	base   string
	http   *http.Client
	csrf   string
	bearer string
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set(shared.CSRFHeader, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp, payload
}

func (c *client) login(email, password string) {
	c.t.Helper()
	resp, payload := c.do(http.MethodGet, "/auth/csrf", nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	c.csrf = payload["csrf_token"].(string)

	resp, _ = c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusSeeOther, resp.StatusCode)

	resp, payload = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	c.csrf = payload["csrf_token"].(string)
}

func firstID(t *testing.T, payload map[string]any, resource string) int64 {
	t.Helper()
	page := payload[resource].(map[string]any)
	data := page["data"].([]any)
	require.NotEmpty(t, data)
	return int64(data[0].(map[string]any)["id"].(float64))
}

func TestAuditorCanListButNotMutate(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login(adminEmail, adminPassword)

	resp, _ := admin.do(http.MethodPost, "/roles", map[string]any{
		"name":                "auditor",
		"selectedPermissions": []string{"users index", "roles index"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/roles", resp.Header.Get("Location"))

	resp, _ = admin.do(http.MethodPost, "/users", map[string]any{
		"name":                  "Audrey Auditor",
		"email":                 "audrey@example.com",
		"password":              "secret",
		"password_confirmation": "secret",
		"selectedRoles":         []string{"auditor"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, payload := admin.do(http.MethodGet, "/users?search=audrey", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	audreyID := firstID(t, payload, "users")

	auditor := newClient(t, srv)
	auditor.login("audrey@example.com", "secret")

	resp, payload = auditor.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"users index": true, "roles index": true}, payload["permissions"])

	resp, _ = auditor.do(http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = auditor.do(http.MethodGet, "/roles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = auditor.do(http.MethodGet, "/permissions", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = auditor.do(http.MethodGet, "/roles/create", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = auditor.do(http.MethodDelete, "/users/"+strconv.FormatInt(audreyID, 10), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, payload = admin.do(http.MethodGet, "/users?search=audrey", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, audreyID, firstID(t, payload, "users"))
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login(adminEmail, adminPassword)

	admin.csrf = "forged"
	resp, payload := admin.do(http.MethodPost, "/permissions", map[string]string{"name": "reports index"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Invalid CSRF Token", payload["title"])

	admin.csrf = ""
	resp, _ = admin.do(http.MethodPost, "/auth/login", map[string]string{"email": adminEmail, "password": adminPassword})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBearerTokenSkipsCSRF(t *testing.T) {
	srv := newServer(t)
	api := newClient(t, srv)

	resp, payload := api.do(http.MethodPost, "/auth/token", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	api.bearer = payload["access_token"].(string)

	resp, _ = api.do(http.MethodPost, "/permissions", map[string]string{"name": "reports index"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, payload = api.do(http.MethodGet, "/permissions?search=reports", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"search": "reports"}, payload["filters"])
}

func TestAnonymousRequests(t *testing.T) {
	srv := newServer(t)
	anon := newClient(t, srv)

	for _, path := range []string{"/users", "/roles", "/permissions", "/profile", "/auth/me"} {
		resp, _ := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, payload := anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])

	resp, _ = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = anon.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserShowIsNotRouted(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login(adminEmail, adminPassword)

	resp, _ := admin.do(http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRejectedRequestsAreCounted(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login(adminEmail, adminPassword)

	admin.csrf = "forged"
	resp, _ := admin.do(http.MethodPost, "/permissions", map[string]string{"name": "reports index"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	scrape, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer scrape.Body.Close()
	body, err := io.ReadAll(scrape.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `odyssey_admin_access_denied_total{code="403"`)
	assert.Contains(t, string(body), `odyssey_admin_http_requests_total{code="403"`)
}
