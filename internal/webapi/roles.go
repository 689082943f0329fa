package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func (h *handlers) roleRoutes(r chi.Router) {
	r.Get("/", h.getRoles)
	r.Post("/", h.createRole)
	r.Put("/", h.updateRole)
	r.Get("/name/{name}", h.findRoleByName)
	r.Get("/{id}", h.findRoleByID)
	r.Delete("/{id}", h.deleteRole)
}

func (h *handlers) getRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.services.Roles.GetRoles(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *handlers) createRole(w http.ResponseWriter, r *http.Request) {
	var role domain.Role
	if err := decodeJSON(r, &role); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Roles.CreateRole(r.Context(), &role); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *handlers) updateRole(w http.ResponseWriter, r *http.Request) {
	var role domain.Role
	if err := decodeJSON(r, &role); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Roles.UpdateRole(r.Context(), &role); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *handlers) findRoleByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	role, err := h.services.Roles.FindRoleByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFound(w, role)
}

func (h *handlers) findRoleByName(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	role, err := h.services.Roles.FindRoleByName(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFound(w, role)
}

func (h *handlers) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	role, err := h.services.Roles.FindRoleByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if role == nil {
		writeDeleted(w, false)
		return
	}
	if err := h.services.Roles.DeleteRole(r.Context(), role); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDeleted(w, true)
}
