package handler

import (
	"net/http"

	"go-bookshelf-api/internal/middleware"
	"go-bookshelf-api/internal/model"
)

// actorFromRequest describes who performed a write, for the audit trail.
// Anonymous callers are recorded by address only.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}
	if identity := identityFromRequest(r); identity != nil {
		actor.UserID = identity.User.ID
		actor.Username = identity.User.Username
	}
	return actor
}

func identityFromRequest(r *http.Request) *model.Identity {
	identity, _ := middleware.IdentityFromContext(r.Context())
	return identity
}
