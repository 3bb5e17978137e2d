package handler

import (
	"log/slog"
	"net/http"

	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/httputil"
)

// ShareHandler handles document share HTTP requests
type ShareHandler struct {
	shareService archiveSvc.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService archiveSvc.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// CreateShare grants access on a document to another user
// POST /api/documents/{id}/shares
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req archiveSvc.CreateShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	share, err := h.shareService.CreateShare(r.Context(), identity, documentID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, share)
}

// ListShares lists the grants on a document
// GET /api/documents/{id}/shares
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	shares, err := h.shareService.ListShares(r.Context(), identity, documentID)
	if err != nil {
		handleError(w, err)
		return
	}

	if shares == nil {
		shares = []archive.Share{}
	}
	httputil.RespondJSON(w, http.StatusOK, shares)
}

// RevokeShare removes a grant
// DELETE /api/shares/{id}
func (h *ShareHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "share ID is required")
		return
	}

	if err := h.shareService.RevokeShare(r.Context(), identity, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
