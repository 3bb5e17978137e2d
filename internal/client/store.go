// Package client implements the polling archive client: a local snapshot
// of the folder tree, optimistic mutations reconciled against the server,
// persisted expand/collapse state, and retrying uploads.
package client

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

// Store is the engine's view of the archive backend. Implementations
// translate failures into domain errors: transport failures map to
// domain.TransientError, everything else to the matching typed error.
type Store interface {
	// FetchArchive returns the flat folder and document collections
	FetchArchive(ctx context.Context) ([]archive.Folder, []archive.Document, error)

	// CreateFolder creates a folder and returns the stored record
	CreateFolder(ctx context.Context, req *archiveSvc.CreateFolderRequest) (*archive.Folder, error)

	// UpdateFolder applies a partial folder update
	UpdateFolder(ctx context.Context, folderID string, req *archiveSvc.UpdateFolderRequest) (*archive.Folder, error)

	// ReorderFolders assigns new sort positions to one parent's children
	ReorderFolders(ctx context.Context, parentID *string, orderedIDs []string) error

	// DeleteFolder deletes a folder
	DeleteFolder(ctx context.Context, folderID string) error

	// CreateDocument registers an uploaded file's metadata
	CreateDocument(ctx context.Context, req *archiveSvc.CreateDocumentRequest) (*archive.Document, error)

	// DeleteDocument deletes a document
	DeleteDocument(ctx context.Context, documentID string) error
}
