package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const badCredentialsMessage = "These credentials do not match our records."

// MePath is where a successful login redirects to.
const MePath = "/auth/me"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	tokens         *TokenIssuer
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbac           rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenIssuer, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		tokens:         tokens,
		sessionManager: sessions,
		csrfManager:    csrf,
		rbac:           rbac,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.handleCSRF)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/token", h.handleToken)
	r.With(h.rbac.Authenticate).Get("/me", h.handleMe)
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type meResponse struct {
	User        *User           `json:"user"`
	Permissions map[string]bool `json:"permissions"`
	CSRFToken   string          `json:"csrf_token,omitempty"`
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, csrfResponse{CSRFToken: token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, h.logger, errors.New("session middleware not installed"))
		return
	}
	user, err := h.authenticate(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	h.sessionManager.Renew(sess)
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	sess.Delete(shared.CSRFSessionKey)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	httpx.SeeOther(w, r, MePath)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(user.ID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.User(r.Context(), caller.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp := meResponse{User: user, Permissions: caller.Permissions()}
	if _, bearer := rbac.BearerToken(r); !bearer {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			resp.CSRFToken, _ = h.csrfManager.EnsureToken(sess)
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// authenticate decodes and checks credentials. Bad credentials surface as a
// validation failure on the email field.
func (h *Handler) authenticate(r *http.Request) (*User, error) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		return nil, err
	}
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	user, err := h.service.Authenticate(r.Context(), in.Email, in.Password)
	if errors.Is(err, shared.ErrInvalidCredentials) {
		h.logger.Warn("login failed", slog.String("email", in.Email))
		return nil, shared.NewValidationError("email", badCredentialsMessage)
	}
	return user, err
}
