// Package permission decides whether an identity may perform a request.
// Policies are evaluated before any handler runs, so a denied request never
// reaches the data layer.
package permission

import (
	"net/http"

	"go-bookshelf-api/internal/model"
)

// Policy grants or denies access for an identity and HTTP method. identity
// is nil for anonymous requests.
type Policy interface {
	Allows(identity *model.Identity, method string) bool
}

type PolicyFunc func(identity *model.Identity, method string) bool

func (f PolicyFunc) Allows(identity *model.Identity, method string) bool {
	return f(identity, method)
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func authenticated(identity *model.Identity) bool {
	return identity != nil && identity.User.IsActive
}

var (
	AllowAny = PolicyFunc(func(*model.Identity, string) bool { return true })

	IsAuthenticated = PolicyFunc(func(identity *model.Identity, _ string) bool {
		return authenticated(identity)
	})

	IsAuthenticatedOrReadOnly = PolicyFunc(func(identity *model.Identity, method string) bool {
		return IsSafeMethod(method) || authenticated(identity)
	})

	IsAdmin = PolicyFunc(func(identity *model.Identity, _ string) bool {
		return identity.IsStaff()
	})

	IsAdminOrReadOnly = PolicyFunc(func(identity *model.Identity, method string) bool {
		return IsSafeMethod(method) || identity.IsStaff()
	})
)

// HasPermission requires the identity to hold codename through a group or
// superuser status.
func HasPermission(codename string) Policy {
	return PolicyFunc(func(identity *model.Identity, _ string) bool {
		return identity.HasPermission(codename)
	})
}

// Evaluate checks every policy. A denial for an anonymous caller is
// model.ErrNotAuthenticated; a denial for a known caller is model.ErrForbidden.
func Evaluate(identity *model.Identity, method string, policies ...Policy) error {
	for _, policy := range policies {
		if policy.Allows(identity, method) {
			continue
		}

		if !authenticated(identity) {
			return model.ErrNotAuthenticated
		}
		return model.ErrForbidden
	}

	return nil
}

// CheckOwner is the object-level rule for user-authored content: anyone may
// read it, only its author may change it.
func CheckOwner(identity *model.Identity, method string, ownerID int64) error {
	if IsSafeMethod(method) {
		return nil
	}
	if !authenticated(identity) {
		return model.ErrNotAuthenticated
	}
	if identity.User.ID != ownerID {
		return model.ErrNotOwner
	}
	return nil
}
