package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	logger   *slog.Logger
	service  *ProfileService
	sessions *shared.SessionManager
}

// NewProfileHandler builds ProfileHandler instance.
func NewProfileHandler(logger *slog.Logger, service *ProfileService, sessions *shared.SessionManager) *ProfileHandler {
	return &ProfileHandler{logger: logger, service: service, sessions: sessions}
}

// MountRoutes registers profile routes. Callers must be authenticated upstream.
func (h *ProfileHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Patch("/", h.update)
	r.Delete("/", h.destroy)
}

func (h *ProfileHandler) show(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.Show(r.Context(), caller.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in ProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if _, err := h.service.Update(r.Context(), caller.UserID, in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.SeeOther(w, r, ProfilePath)
}

func (h *ProfileHandler) destroy(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in DeleteAccountInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller.UserID, in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if h.sessions != nil {
		h.sessions.Destroy(shared.SessionFromContext(r.Context()))
	}
	httpx.SeeOther(w, r, "/")
}
