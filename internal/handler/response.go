package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

const maxJSONBody = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Fields = apiErr.Fields
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "INVALID_CREDENTIALS"
		body.Message = "Unable to log in with provided credentials."
	} else if errors.Is(err, model.ErrNotAuthenticated) {
		status = http.StatusUnauthorized
		body.Code = "NOT_AUTHENTICATED"
		body.Message = "Authentication credentials were not provided."
	} else if errors.Is(err, model.ErrTokenNotFound) {
		status = http.StatusUnauthorized
		body.Code = "NOT_AUTHENTICATED"
		body.Message = "Invalid token."
	} else if errors.Is(err, model.ErrUserInactive) {
		status = http.StatusUnauthorized
		body.Code = "NOT_AUTHENTICATED"
		body.Message = "User inactive or deleted."
	} else if errors.Is(err, model.ErrNotOwner) {
		status = http.StatusForbidden
		body.Code = "PERMISSION_DENIED"
		body.Message = "You can only modify content that you created."
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "PERMISSION_DENIED"
		body.Message = "You do not have permission to perform this action."
	} else if isNotFound(err) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Not found."
	} else if errors.Is(err, model.ErrDuplicate) {
		status = http.StatusBadRequest
		body.Code = "INTEGRITY_ERROR"
		body.Message = "The record conflicts with an existing one."
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Token")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func isNotFound(err error) bool {
	for _, target := range []error{
		model.ErrUserNotFound,
		model.ErrGroupNotFound,
		model.ErrAuthorNotFound,
		model.ErrBookNotFound,
		model.ErrPostNotFound,
		model.ErrCommentNotFound,
		model.ErrNotificationNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON reads a JSON object into dst. An empty body decodes as an empty
// object so that required-field validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	err := decoder.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		message := "Incorrect type."
		switch typeErr.Type.Kind() {
		case reflect.Int, reflect.Int64:
			message = "A valid integer is required."
		case reflect.String:
			message = "Not a valid string."
		}
		return apierror.Validation(map[string]string{typeErr.Field: message})
	}

	return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
}

// pathID parses a numeric URL parameter. Non-numeric ids are reported with
// notFound so they are indistinguishable from unknown ones.
func pathID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

// optionalInt64 returns nil for an absent filter. A malformed value is a
// validation error on that field.
func optionalInt64(raw string, field string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apierror.Validation(map[string]string{field: "Enter a number."})
	}
	return &v, nil
}
