package archive

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create creates a new folder. The folder number is assigned
	// server-side when the caller has not set one.
	Create(ctx context.Context, folder *archive.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*archive.Folder, error)

	// Update updates a folder
	Update(ctx context.Context, folder *archive.Folder) error

	// Delete deletes a folder. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// ListChildren lists immediate child folders ordered by sort order,
	// then creation time
	ListChildren(ctx context.Context, parentID *string) ([]archive.Folder, error)

	// GetAll retrieves every folder as a flat list
	GetAll(ctx context.Context) ([]archive.Folder, error)

	// GetParentID returns the parent id of a folder without loading the
	// full record. Used by the cycle guard's upward walk.
	GetParentID(ctx context.Context, id string) (*string, error)

	// CountChildren returns the number of immediate child folders
	CountChildren(ctx context.Context, parentID string) (int, error)

	// GetPath computes the breadcrumb display path for a folder
	GetPath(ctx context.Context, folderID *string) (string, error)

	// NextFolderNumber reserves the next sequential D-NNNN number
	NextFolderNumber(ctx context.Context) (string, error)
}
