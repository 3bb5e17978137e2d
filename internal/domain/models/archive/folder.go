package archive

import (
	"time"
)

// Folder is a named, owned container in the archive hierarchy.
//
// CreatedBy is provenance: it is set exactly once at creation and never
// changes afterwards. ParentID edges must stay acyclic; the write path
// enforces both through the guard package.
type Folder struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	ParentID     *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	FolderNumber *string    `json:"folder_number,omitempty" db:"folder_number"`
	Order        int        `json:"order" db:"sort_order"`
	Category     string     `json:"category" db:"category"`
	Status       string     `json:"status" db:"status"`
	Path         string     `json:"path,omitempty"` // Computed display path, not stored in DB
	LastMovedAt  *time.Time `json:"last_moved_at,omitempty" db:"last_moved_at"`
	LastMovedBy  *string    `json:"last_moved_by,omitempty" db:"last_moved_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder sits at the top level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
