package handler

import (
	"net/http"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
)

type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	authorID, err := optionalInt64(query.Get("author"), "author")
	if err != nil {
		writeError(w, err)
		return
	}

	posts, meta, err := h.service.List(r.Context(), model.PostQuery{
		Search:   strings.TrimSpace(query.Get("search")),
		Ordering: strings.TrimSpace(query.Get("ordering")),
		AuthorID: authorID,
		ViewerID: identityFromRequest(r).UserID(),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		PageSize: parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, posts, &meta)
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	posts, meta, err := h.service.Feed(r.Context(), identityFromRequest(r).UserID(),
		parseIntOrDefault(query.Get("page"), 1), parseIntOrDefault(query.Get("page_size"), 0))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, posts, &meta)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrPostNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Get(r.Context(), id, identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, post, nil)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.PostInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Create(r.Context(), identityFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, post, nil)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrPostNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.PostInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.service.Update(r.Context(), identityFromRequest(r), id, payload, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, post, nil)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrPostNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), identityFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrPostNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	result, created, err := h.service.Like(r.Context(), identityFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSuccess(w, status, result, nil)
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrPostNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Unlike(r.Context(), identityFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
