package archive

import "time"

// TreeNode represents the root of the archive tree
type TreeNode struct {
	Folders   []*FolderTreeNode  `json:"folders"`
	Documents []DocumentTreeNode `json:"documents"`
}

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	ParentID     *string            `json:"parent_id"`
	FolderNumber *string            `json:"folder_number,omitempty"`
	Order        int                `json:"order"`
	Category     string             `json:"category"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	Folders      []*FolderTreeNode  `json:"folders"` // Pointers for proper nesting
	Documents    []DocumentTreeNode `json:"documents"`
}

// DocumentTreeNode represents a document in the tree (metadata only)
type DocumentTreeNode struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FolderID  *string   `json:"folder_id"`
	Category  string    `json:"category"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}
