package handler

import (
	"net/http"
	"strconv"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
	"go-bookshelf-api/internal/websocket"
)

type NotificationHandler struct {
	service *service.NotificationService
	hub     *websocket.Hub
}

func NewNotificationHandler(service *service.NotificationService, hub *websocket.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	unreadOnly, _ := strconv.ParseBool(query.Get("unread"))

	list, meta, err := h.service.List(r.Context(), model.NotificationQuery{
		RecipientID: identityFromRequest(r).UserID(),
		UnreadOnly:  unreadOnly,
		Page:        parseIntOrDefault(query.Get("page"), 1),
		PageSize:    parseIntOrDefault(query.Get("page_size"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, list, &meta)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, model.ErrNotificationNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	notification, err := h.service.MarkRead(r.Context(), id, identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, notification, nil)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.MarkAllRead(r.Context(), identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, resp, nil)
}

// Stream upgrades to a WebSocket that receives the caller's new
// notifications.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, identityFromRequest(r).UserID())
}
