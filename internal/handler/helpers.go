package handler

import (
	"errors"
	"net/http"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses. Conflict
// errors from the deletion guard carry the blocking child counts as
// extension members.
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		extras := map[string]interface{}{}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
		if conflictErr.ChildFolders > 0 || conflictErr.ChildDocs > 0 {
			extras["child_folders"] = conflictErr.ChildFolders
			extras["child_documents"] = conflictErr.ChildDocs
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
