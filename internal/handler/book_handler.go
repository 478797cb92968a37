package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
	"go-bookshelf-api/pkg/apierror"
)

type BookHandler struct {
	service *service.BookService
}

func NewBookHandler(service *service.BookService) *BookHandler {
	return &BookHandler{service: service}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	authorID, err := optionalInt64(query.Get("author"), "author")
	if err != nil {
		writeError(w, err)
		return
	}

	var year *int
	if raw := strings.TrimSpace(query.Get("publication_year")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeError(w, apierror.Validation(map[string]string{"publication_year": "Enter a number."}))
			return
		}
		parsed := int(v)
		year = &parsed
	}

	books, meta, err := h.service.List(r.Context(), model.BookQuery{
		PublicationYear: year,
		AuthorID:        authorID,
		Search:          strings.TrimSpace(query.Get("search")),
		Ordering:        strings.TrimSpace(query.Get("ordering")),
		Page:            parseIntOrDefault(query.Get("page"), 1),
		PageSize:        parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, books, &meta)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrBookNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, book, nil)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.BookInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	book, err := h.service.Create(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, book, nil)
}

// Update serves both PUT (every field required) and PATCH.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrBookNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.BookInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	book, err := h.service.Update(r.Context(), id, payload, r.Method == http.MethodPatch, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, book, nil)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrBookNotFound)
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
