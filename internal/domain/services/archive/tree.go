package archive

import (
	"context"

	"pmnarchive/internal/domain/models/archive"
)

// TreeService builds the nested folder/document tree
type TreeService interface {
	// GetTree returns the full archive tree
	GetTree(ctx context.Context) (*archive.TreeNode, error)
}
