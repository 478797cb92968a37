package handler

import (
	"net/http"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
)

type AuthorHandler struct {
	service *service.AuthorService
}

func NewAuthorHandler(service *service.AuthorService) *AuthorHandler {
	return &AuthorHandler{service: service}
}

func (h *AuthorHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	authors, meta, err := h.service.List(r.Context(), model.AuthorQuery{
		Search:   strings.TrimSpace(query.Get("search")),
		Ordering: strings.TrimSpace(query.Get("ordering")),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		PageSize: parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, authors, &meta)
}

func (h *AuthorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrAuthorNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	author, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, author, nil)
}

func (h *AuthorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.AuthorInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	author, err := h.service.Create(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, author, nil)
}

func (h *AuthorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrAuthorNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.AuthorInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	author, err := h.service.Update(r.Context(), id, payload, r.Method == http.MethodPatch, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, author, nil)
}

func (h *AuthorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrAuthorNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
