package handler

import (
	"errors"
	"net/http"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/service"
	"go-bookshelf-api/pkg/apierror"
)

// multipartOverhead leaves room for form boundaries and headers on top of
// the image itself.
const multipartOverhead = 1 << 20

type ProfileHandler struct {
	users         *service.UserService
	avatars       *service.AvatarService
	maxAvatarSize int64
}

func NewProfileHandler(users *service.UserService, avatars *service.AvatarService, maxAvatarSize int64) *ProfileHandler {
	return &ProfileHandler{users: users, avatars: avatars, maxAvatarSize: maxAvatarSize}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateProfileRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	partial := r.Method == http.MethodPatch
	profile, err := h.users.UpdateProfile(r.Context(), identityFromRequest(r).UserID(), payload, partial, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	if h.maxAvatarSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apierror.Validation(map[string]string{"picture": "Image file too large."}))
			return
		}
		writeError(w, apierror.New("BAD_REQUEST", "invalid multipart body", err.Error(), http.StatusBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("picture")
	if err != nil {
		writeError(w, apierror.Validation(map[string]string{"picture": "No file was submitted."}))
		return
	}
	defer file.Close()

	profile, err := h.avatars.Upload(r.Context(), identityFromRequest(r).UserID(), header.Filename, file, header.Size)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *ProfileHandler) DeletePicture(w http.ResponseWriter, r *http.Request) {
	profile, err := h.avatars.Delete(r.Context(), identityFromRequest(r).UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}
