package archive

import (
	"time"
)

// Document is an uploaded file's metadata record. Documents reference at
// most one folder and do not form their own hierarchy. File content lives
// behind StorageKey in external blob storage.
type Document struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	FolderID    *string   `json:"folder_id" db:"folder_id"` // NULL = root level
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	ContentType string    `json:"content_type" db:"content_type"`
	StorageKey  string    `json:"storage_key" db:"storage_key"`
	Path        string    `json:"path,omitempty"` // Computed display path, not stored in DB
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
