package httputil

import (
	"context"
	"net/http"

	"pmnarchive/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity adds the authenticated identity to the request context
func WithIdentity(r *http.Request, identity models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, identity)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the authenticated identity from the request context.
// Returns the zero Identity if the auth middleware did not run.
func GetIdentity(r *http.Request) models.Identity {
	identity, ok := r.Context().Value(identityKey).(models.Identity)
	if !ok {
		return models.Identity{}
	}
	return identity
}
