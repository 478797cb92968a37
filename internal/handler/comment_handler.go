package handler

import (
	"net/http"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
)

type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	postID, err := optionalInt64(query.Get("post"), "post")
	if err != nil {
		writeError(w, err)
		return
	}
	authorID, err := optionalInt64(query.Get("author"), "author")
	if err != nil {
		writeError(w, err)
		return
	}

	comments, meta, err := h.service.List(r.Context(), model.CommentQuery{
		PostID:   postID,
		AuthorID: authorID,
		Search:   strings.TrimSpace(query.Get("search")),
		Ordering: strings.TrimSpace(query.Get("ordering")),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		PageSize: parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comments, &meta)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrCommentNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CommentInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.service.Create(r.Context(), identityFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, comment, nil)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrCommentNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CommentInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.service.Update(r.Context(), identityFromRequest(r), id, payload, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrCommentNotFound)
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
