package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// TokenVerifier validates bearer tokens and returns the subject user ID.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Tokens  TokenVerifier
	Logger  *slog.Logger
}

// Authenticate resolves the request's caller from a bearer token or the session
// and stores it in the request context. Requests without an identity get 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.currentUserID(r)
		if err != nil {
			httpx.RespondError(w, m.Logger, err)
			return
		}
		caller, err := m.Service.Resolve(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Session or token outlived the account.
				httpx.RespondError(w, m.Logger, shared.ErrUnauthenticated)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("rbac resolve caller", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			httpx.RespondError(w, m.Logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
	})
}

func (m Middleware) currentUserID(r *http.Request) (int64, error) {
	if token, ok := BearerToken(r); ok {
		if m.Tokens == nil {
			return 0, shared.ErrUnauthenticated
		}
		id, err := m.Tokens.Verify(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("rbac bearer token rejected", slog.Any("error", err))
			}
			return 0, shared.ErrUnauthenticated
		}
		return id, nil
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, shared.ErrUnauthenticated
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, shared.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, shared.ErrUnauthenticated
	}
	return id, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
