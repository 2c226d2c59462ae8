package users_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/users"
)

func (f fixture) router(caller rbac.Caller) http.Handler {
	h := users.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.users)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithCaller(req.Context(), caller)))
		})
	})
	r.Route(users.IndexPath, h.MountRoutes)
	return r
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateValidationErrors(t *testing.T) {
	f := newFixture(t, "editor")
	h := f.router(f.admin)

	rec := send(h, http.MethodPost, "/users", `{"name":"Ev","email":"not-an-email","password":"abcd","password_confirmation":"abce","selectedRoles":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "name")
	assert.Contains(t, problem.Errors, "email")
	assert.Contains(t, problem.Errors, "password")
	assert.Contains(t, problem.Errors, "selectedRoles")
}

func TestHandlerCreateListAndUpdate(t *testing.T) {
	f := newFixture(t, "editor", "viewer")
	h := f.router(f.admin)

	rec := send(h, http.MethodPost, "/users", `{"name":"Eve Editor","email":"eve@example.com","password":"abcd","password_confirmation":"abcd","selectedRoles":["editor"]}`)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, users.IndexPath, rec.Header().Get("Location"))

	rec = send(h, http.MethodGet, "/users?search=EVE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var list users.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Users.Data, 1)
	id := list.Users.Data[0].ID
	assert.Equal(t, "EVE", list.Filters.Search)

	rec = send(h, http.MethodPut, "/users/"+strconv.FormatInt(id, 10), `{"name":"Eve Viewer","email":"eve@example.com","selectedRoles":["viewer"]}`)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	u, err := f.store.Users().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Eve Viewer", u.Name)
	assert.Equal(t, []string{"viewer"}, roleNames(u))
}

func TestHandlerDeniedWithoutCapability(t *testing.T) {
	f := newFixture(t, "editor")
	h := f.router(rbac.NewCaller(2, []string{"users index"}))

	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/users", "").Code)
	assert.Equal(t, http.StatusForbidden, send(h, http.MethodGet, "/users/create", "").Code)
	assert.Equal(t, http.StatusForbidden, send(h, http.MethodDelete, "/users/1", "").Code)
}

func TestHandlerEditFormMissingUser(t *testing.T) {
	f := newFixture(t, "editor")
	rec := send(f.router(f.admin), http.MethodGet, "/users/99/edit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerDeniesBeforeReadingBody(t *testing.T) {
	f := newFixture(t, "editor")
	h := f.router(rbac.NewCaller(2, []string{"users index"}))
	before := f.store.Snapshot()

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPost, "/users", `{"name":`).Code)
	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPatch, "/users/1", `{"name":`).Code)
	assert.Equal(t, before, f.store.Snapshot())
}
