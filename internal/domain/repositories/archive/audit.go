package archive

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
)

// AuditRepository persists folder move audit records
type AuditRepository interface {
	// Create records a move. Called inside the move transaction.
	Create(ctx context.Context, audit *archive.MoveAudit) error

	// ListByFolder lists moves of a folder, newest first
	ListByFolder(ctx context.Context, folderID string, limit int) ([]archive.MoveAudit, error)
}
