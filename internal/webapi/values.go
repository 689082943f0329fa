package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handlers) valueRoutes(r chi.Router) {
	r.Get("/", h.getValues)
	r.Post("/", h.addValue)
	r.Get("/{id}", h.getValue)
	r.Put("/{id}", h.editValue)
	r.Delete("/{id}", h.deleteValue)
}

func (h *handlers) getValues(w http.ResponseWriter, r *http.Request) {
	values, err := h.services.Values.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (h *handlers) getValue(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, ok, err := h.services.Values.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		writeFound[string](w, nil)
		return
	}
	writeFound(w, &value)
}

func (h *handlers) addValue(w http.ResponseWriter, r *http.Request) {
	var value string
	if err := decodeJSON(r, &value); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.services.Values.Add(r.Context(), value); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, value)
}

func (h *handlers) editValue(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var value string
	if err := decodeJSON(r, &value); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.services.Values.Edit(r.Context(), id, value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, false)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func (h *handlers) deleteValue(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	deleted, err := h.services.Values.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDeleted(w, deleted)
}
