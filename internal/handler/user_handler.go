package handler

import (
	"net/http"
	"strings"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	users, meta, err := h.service.List(r.Context(), model.UserListQuery{
		Search:   strings.TrimSpace(query.Get("search")),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		PageSize: parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users, &meta)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, model.ErrUserNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, summary, nil)
}

func (h *UserHandler) SetGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, model.ErrUserNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateGroupsRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.SetGroups(r.Context(), userID, payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, groups, nil)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, model.ErrUserNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	result, created, err := h.service.Follow(r.Context(), identityFromRequest(r).User, targetID)
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

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetID, err := pathID(r, model.ErrUserNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Unfollow(r.Context(), identityFromRequest(r).User, targetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
