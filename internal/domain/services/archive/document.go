package archive

import (
	"context"

	"pmnarchive/internal/domain/models"
	"pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/httputil"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument registers an uploaded file's metadata
	CreateDocument(ctx context.Context, identity models.Identity, req *CreateDocumentRequest) (*archive.Document, error)

	// GetDocument retrieves a document by ID
	GetDocument(ctx context.Context, identity models.Identity, id string) (*archive.Document, error)

	// UpdateDocument applies a rename / move / recategorize
	UpdateDocument(ctx context.Context, identity models.Identity, id string, req *UpdateDocumentRequest) (*archive.Document, error)

	// DeleteDocument deletes a document. Unconditional: documents have no
	// children to protect. Deleting an already-absent id succeeds.
	DeleteDocument(ctx context.Context, identity models.Identity, id string) error
}

// CreateDocumentRequest registers uploaded file metadata
type CreateDocumentRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"` // null for root
	SizeBytes   int64   `json:"size_bytes"`
	ContentType string  `json:"content_type"`
	StorageKey  string  `json:"storage_key"`
}

// UpdateDocumentRequest represents a document update request.
// FolderID uses tri-state PATCH semantics like folder moves.
type UpdateDocumentRequest struct {
	Name     *string                 `json:"name,omitempty"`
	Category *string                 `json:"category,omitempty"`
	FolderID httputil.OptionalString `json:"folder_id,omitempty"`
}
