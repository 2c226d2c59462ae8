package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", fmt.Errorf("users delete: %w", shared.ErrForbidden), http.StatusForbidden},
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized},
		{"malformed", fmt.Errorf("%w: eof", ErrMalformedBody), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, nil, tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRespondErrorValidationCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, nil, shared.NewValidationError("name", "The name has already been taken."))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "The name has already been taken.", body.Errors["name"])
}

func TestBackUsesSameOriginReferer(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "http://admin.local/users/3", nil)
	req.Header.Set("Referer", "http://admin.local/users?page=2")
	assert.Equal(t, "/users?page=2", backLocation(req, "/users"))

	req.Header.Set("Referer", "http://evil.example/phish")
	assert.Equal(t, "/users", backLocation(req, "/users"))

	req.Header.Del("Referer")
	assert.Equal(t, "/users", backLocation(req, "/users"))
}
