package archive

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create creates a new document record
	Create(ctx context.Context, doc *archive.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*archive.Document, error)

	// Update updates an existing document
	Update(ctx context.Context, doc *archive.Document) error

	// Delete deletes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// ListByFolder lists documents in a folder (nil = root level)
	ListByFolder(ctx context.Context, folderID *string) ([]archive.Document, error)

	// CountByFolder returns the number of documents in a folder
	CountByFolder(ctx context.Context, folderID string) (int, error)

	// GetAll retrieves all document metadata as a flat list
	GetAll(ctx context.Context) ([]archive.Document, error)
}
