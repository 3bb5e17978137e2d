package archive

import (
	"context"

	"pmnarchive/internal/domain/models"
	"pmnarchive/internal/domain/models/archive"
)

// ShareService handles document share grants. Grants never extend to
// folder-level move or delete rights.
type ShareService interface {
	// CreateShare grants access on a document to another user
	CreateShare(ctx context.Context, identity models.Identity, documentID string, req *CreateShareRequest) (*archive.Share, error)

	// ListShares lists the grants on a document
	ListShares(ctx context.Context, identity models.Identity, documentID string) ([]archive.Share, error)

	// RevokeShare removes a grant. Revoking an absent grant succeeds.
	RevokeShare(ctx context.Context, identity models.Identity, shareID string) error
}

// CreateShareRequest represents a share grant request
type CreateShareRequest struct {
	GrantedTo string `json:"granted_to"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
	CanShare  bool   `json:"can_share"`
}
