package archive

import (
	"time"
)

// Share is a per-document access grant. Grants apply to documents only:
// they never extend to folder-level move or delete rights, which stay
// owner-or-admin.
type Share struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	GrantedBy  string    `json:"granted_by" db:"granted_by"`
	GrantedTo  string    `json:"granted_to" db:"granted_to"`
	CanRead    bool      `json:"can_read" db:"can_read"`
	CanWrite   bool      `json:"can_write" db:"can_write"`
	CanDelete  bool      `json:"can_delete" db:"can_delete"`
	CanShare   bool      `json:"can_share" db:"can_share"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
