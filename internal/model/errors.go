package model

import (
	"errors"
	"fmt"
)

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive or deleted")
	ErrGroupNotFound      = errors.New("group not found")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")

	// Catalogue related errors
	ErrAuthorNotFound = errors.New("author not found")
	ErrBookNotFound   = errors.New("book not found")

	// Social related errors
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Permission/Access related errors
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden        = errors.New("forbidden")
	ErrNotOwner         = fmt.Errorf("%w: not the content owner", ErrForbidden)

	// Storage related errors
	ErrDuplicate = errors.New("duplicate record")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

// ConstraintError reports a write rejected by a database constraint. It
// matches ErrDuplicate for unique violations and ErrInvalidInput for foreign
// key and check violations.
type ConstraintError struct {
	Constraint string
	Unique     bool
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return "constraint " + e.Constraint + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func (e *ConstraintError) Is(target error) bool {
	if e.Unique {
		return target == ErrDuplicate
	}
	return target == ErrInvalidInput
}
