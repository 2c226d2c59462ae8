package roles_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/roles"
	"github.com/odyssey-erp/odyssey-admin/internal/testing/memstore"
)

func (f fixture) router(caller rbac.Caller) http.Handler {
	h := roles.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.roles)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithCaller(req.Context(), caller)))
		})
	})
	r.Route(roles.IndexPath, h.MountRoutes)
	return r
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDeniesBeforeReadingBody(t *testing.T) {
	f := newFixture(t, "perm a")
	h := f.router(memstore.CallerWith(2, rbac.RolesIndex))
	before := f.store.Snapshot()

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPost, "/roles", `{`).Code)
	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPut, "/roles/1", `{`).Code)
	assert.Equal(t, before, f.store.Snapshot())
}

func TestHandlerMalformedBodyIs400ForPermittedCaller(t *testing.T) {
	f := newFixture(t, "perm a")
	h := f.router(f.admin)

	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/roles", `{`).Code)
}
