package archive

import (
	"context"

	"pmnarchive/internal/domain/models"
	"pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/httputil"
)

// FolderService handles folder business logic. Every mutation re-validates
// the ownership, acyclicity and deletion invariants against authoritative
// repository data regardless of which caller produced the request.
type FolderService interface {
	// CreateFolder creates a new folder owned by the acting identity.
	// Category and status default to the parent's values when unset.
	CreateFolder(ctx context.Context, identity models.Identity, req *CreateFolderRequest) (*archive.Folder, error)

	// GetFolder retrieves a folder with its computed path
	GetFolder(ctx context.Context, id string) (*archive.Folder, error)

	// GetContents lists a folder's child folders and documents
	// (nil = root level)
	GetContents(ctx context.Context, folderID *string) (*FolderContents, error)

	// UpdateFolder applies a rename / recategorize / move / number edit.
	// A parent change stamps last_moved_at/last_moved_by and emits an
	// audit record.
	UpdateFolder(ctx context.Context, identity models.Identity, id string, req *UpdateFolderRequest) (*archive.Folder, error)

	// Move reparents a folder (nil = to root)
	Move(ctx context.Context, identity models.Identity, folderID string, newParentID *string) (*archive.Folder, error)

	// Reorder assigns sequential sort order to one parent's children
	// following the given list. Folders under other parents are untouched.
	Reorder(ctx context.Context, identity models.Identity, parentID *string, orderedIDs []string) error

	// DeleteFolder deletes a folder. Fails with a conflict naming the
	// blocking counts while the folder still has children; deleting an
	// already-absent id succeeds.
	DeleteFolder(ctx context.Context, identity models.Identity, id string) error

	// ListAudit returns the folder's move history, newest first
	ListAudit(ctx context.Context, folderID string, limit int) ([]archive.MoveAudit, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // null for root
	Category string  `json:"category,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// UpdateFolderRequest represents a folder update request.
// ParentID uses tri-state PATCH semantics: absent = don't move,
// null = move to root, value = move under that folder.
type UpdateFolderRequest struct {
	Name         *string                 `json:"name,omitempty"`
	Category     *string                 `json:"category,omitempty"`
	Status       *string                 `json:"status,omitempty"`
	FolderNumber *string                 `json:"folder_number,omitempty"` // admin only
	ParentID     httputil.OptionalString `json:"parent_id,omitempty"`
}

// ReorderRequest represents a sibling reorder request
type ReorderRequest struct {
	ParentID   *string  `json:"parent_id"` // null for root-level siblings
	OrderedIDs []string `json:"ordered_ids"`
}

// FolderContents represents a folder with its children
type FolderContents struct {
	Folder    *archive.Folder    `json:"folder,omitempty"` // null for root
	Folders   []archive.Folder   `json:"folders"`
	Documents []archive.Document `json:"documents"`
}
