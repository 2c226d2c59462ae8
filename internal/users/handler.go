package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const (
	// IndexPath is where create and update redirect to.
	IndexPath = "/users"
	// ProfilePath is where profile updates redirect to.
	ProfilePath = "/profile"
)

// Handler exposes user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes. Callers must be authenticated upstream.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/create", h.createForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.destroy)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.List(r.Context(), caller, shared.ParseListFilters(r.URL.Query()))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	form, err := h.service.CreateForm(r.Context(), caller)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, form)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err == nil {
		err = caller.Require(rbac.UsersCreate)
	}
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if _, err := h.service.Create(r.Context(), caller, in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.SeeOther(w, r, IndexPath)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	form, err := h.service.EditForm(r.Context(), caller, id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, form)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err == nil {
		err = caller.Require(rbac.UsersEdit)
	}
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if _, err := h.service.Update(r.Context(), caller, id, in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.SeeOther(w, r, IndexPath)
}

func (h *Handler) destroy(w http.ResponseWriter, r *http.Request) {
	caller, err := rbac.RequestCaller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Back(w, r, IndexPath)
}
