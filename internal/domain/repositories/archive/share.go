package archive

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
)

// ShareRepository defines data access operations for document share grants
type ShareRepository interface {
	// Create creates a share grant
	Create(ctx context.Context, share *archive.Share) error

	// GetByID retrieves a share grant by ID
	GetByID(ctx context.Context, id string) (*archive.Share, error)

	// Delete revokes a share grant. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// ListByDocument lists grants on a document
	ListByDocument(ctx context.Context, documentID string) ([]archive.Share, error)

	// GetForUser returns the grant a user holds on a document, or nil
	GetForUser(ctx context.Context, documentID, userID string) (*archive.Share, error)
}
