package archive

import (
	"context"
	"log/slog"
	"sort"

	archiveModels "pmnarchive/internal/domain/models/archive"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

type treeService struct {
	folderRepo archiveRepo.FolderRepository
	docRepo    archiveRepo.DocumentRepository
	logger     *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	folderRepo archiveRepo.FolderRepository,
	docRepo archiveRepo.DocumentRepository,
	logger *slog.Logger,
) archiveSvc.TreeService {
	return &treeService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		logger:     logger,
	}
}

// GetTree builds the nested folder/document tree in three passes:
// create all folder nodes, link children to parents, then attach
// documents. Folders whose parent no longer exists surface at the root
// rather than disappearing.
func (s *treeService) GetTree(ctx context.Context) (*archiveModels.TreeNode, error) {
	folders, err := s.folderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := s.docRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	// Pass 1: a node per folder
	nodes := make(map[string]*archiveModels.FolderTreeNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &archiveModels.FolderTreeNode{
			ID:           f.ID,
			Name:         f.Name,
			ParentID:     f.ParentID,
			FolderNumber: f.FolderNumber,
			Order:        f.Order,
			Category:     f.Category,
			Status:       f.Status,
			CreatedAt:    f.CreatedAt,
			Folders:      []*archiveModels.FolderTreeNode{},
			Documents:    []archiveModels.DocumentTreeNode{},
		}
	}

	// Pass 2: link children to parents
	root := &archiveModels.TreeNode{
		Folders:   []*archiveModels.FolderTreeNode{},
		Documents: []archiveModels.DocumentTreeNode{},
	}
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID == nil {
			root.Folders = append(root.Folders, node)
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			s.logger.Warn("folder has dangling parent, surfacing at root",
				"folder_id", f.ID,
				"parent_id", *f.ParentID,
			)
			root.Folders = append(root.Folders, node)
			continue
		}
		parent.Folders = append(parent.Folders, node)
	}

	// Pass 3: attach documents
	for _, d := range docs {
		docNode := archiveModels.DocumentTreeNode{
			ID:        d.ID,
			Name:      d.Name,
			FolderID:  d.FolderID,
			Category:  d.Category,
			SizeBytes: d.SizeBytes,
			UpdatedAt: d.UpdatedAt,
		}
		if d.FolderID == nil {
			root.Documents = append(root.Documents, docNode)
			continue
		}
		folder, ok := nodes[*d.FolderID]
		if !ok {
			root.Documents = append(root.Documents, docNode)
			continue
		}
		folder.Documents = append(folder.Documents, docNode)
	}

	sortFolderNodes(root.Folders)
	for _, node := range nodes {
		sortFolderNodes(node.Folders)
		sortDocumentNodes(node.Documents)
	}
	sortDocumentNodes(root.Documents)

	return root, nil
}

// sortFolderNodes orders siblings by their sort position, oldest first
// on ties
func sortFolderNodes(nodes []*archiveModels.FolderTreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}

func sortDocumentNodes(nodes []archiveModels.DocumentTreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
}
