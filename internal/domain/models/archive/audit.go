package archive

import (
	"time"
)

// MoveAudit records a successful reparent of a folder. One row per move,
// written in the same transaction as the parent change.
type MoveAudit struct {
	ID          string    `json:"id" db:"id"`
	FolderID    string    `json:"folder_id" db:"folder_id"`
	FolderName  string    `json:"folder_name" db:"folder_name"`
	OldParentID *string   `json:"old_parent_id" db:"old_parent_id"`
	NewParentID *string   `json:"new_parent_id" db:"new_parent_id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	MovedBy     string    `json:"moved_by" db:"moved_by"`
	MovedAt     time.Time `json:"moved_at" db:"moved_at"`
}
