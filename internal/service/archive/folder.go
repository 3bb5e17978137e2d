package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/config"
	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	archiveModels "pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/domain/repositories"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/taxonomy"
)

type folderService struct {
	folderRepo archiveRepo.FolderRepository
	docRepo    archiveRepo.DocumentRepository
	auditRepo  archiveRepo.AuditRepository
	txManager  repositories.TransactionManager
	taxonomy   *taxonomy.Registry
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo archiveRepo.FolderRepository,
	docRepo archiveRepo.DocumentRepository,
	auditRepo archiveRepo.AuditRepository,
	txManager repositories.TransactionManager,
	taxonomy *taxonomy.Registry,
	logger *slog.Logger,
) archiveSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		taxonomy:   taxonomy,
		logger:     logger,
	}
}

// CreateFolder creates a new folder owned by the acting identity.
// Category and status default to the parent's values, then to the taxonomy
// defaults at root level. The folder number is assigned sequentially inside
// the creation transaction.
func (s *folderService) CreateFolder(ctx context.Context, identity models.Identity, req *archiveSvc.CreateFolderRequest) (*archiveModels.Folder, error) {
	if err := validateCreateFolderRequest(req, s.taxonomy); err != nil {
		return nil, err
	}
	if err := guard.CheckOwnershipPresent(identity.ID); err != nil {
		return nil, err
	}

	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	category := req.Category
	status := req.Status

	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		// Sub-folders inherit classification from their parent by default
		if category == "" {
			category = parent.Category
		}
		if status == "" {
			status = parent.Status
		}
	}
	if category == "" {
		category = s.taxonomy.DefaultCategory()
	}
	if status == "" {
		status = s.taxonomy.DefaultStatus()
	}

	order, err := s.nextSiblingOrder(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &archiveModels.Folder{
		Name:      strings.TrimSpace(req.Name),
		CreatedBy: identity.ID,
		ParentID:  req.ParentID,
		Order:     order,
		Category:  category,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		number, err := s.folderRepo.NextFolderNumber(txCtx)
		if err != nil {
			return err
		}
		folder.FolderNumber = &number
		return s.folderRepo.Create(txCtx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"folder_number", folder.FolderNumber,
		"parent_id", folder.ParentID,
		"created_by", folder.CreatedBy,
	)

	return folder, nil
}

// GetFolder retrieves a folder with its computed path
func (s *folderService) GetFolder(ctx context.Context, id string) (*archiveModels.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)
	return folder, nil
}

// GetContents lists a folder's child folders and documents (nil = root)
func (s *folderService) GetContents(ctx context.Context, folderID *string) (*archiveSvc.FolderContents, error) {
	var folder *archiveModels.Folder
	var err error

	if folderID != nil && *folderID != "" {
		folder, err = s.GetFolder(ctx, *folderID)
		if err != nil {
			return nil, err
		}
	} else {
		folderID = nil
	}

	children, err := s.folderRepo.ListChildren(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}

	docs, err := s.docRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return &archiveSvc.FolderContents{
		Folder:    folder,
		Folders:   children,
		Documents: docs,
	}, nil
}

// UpdateFolder applies a rename / recategorize / move / number edit
func (s *folderService) UpdateFolder(ctx context.Context, identity models.Identity, id string, req *archiveSvc.UpdateFolderRequest) (*archiveModels.Folder, error) {
	if err := validateUpdateFolderRequest(req, s.taxonomy); err != nil {
		return nil, err
	}

	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(identity, folder); err != nil {
		return nil, err
	}

	if req.Name != nil {
		folder.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		folder.Category = *req.Category
	}
	if req.Status != nil {
		folder.Status = *req.Status
	}
	if req.FolderNumber != nil {
		// Number edits are an administrative correction, not a user rename
		if !identity.Role.IsAdmin() {
			return nil, &domain.ForbiddenError{Message: "only administrators can edit folder numbers"}
		}
		if err := guard.CheckFolderNumber(req.FolderNumber); err != nil {
			return nil, err
		}
		folder.FolderNumber = req.FolderNumber
	}

	// Tri-state: only move if the field was present in the request
	if req.ParentID.Present {
		return s.moveLoaded(ctx, identity, folder, req.ParentID.Value)
	}

	// Ownership is re-checked on every write path, not only moves
	if err := guard.CheckOwnershipPresent(folder.CreatedBy); err != nil {
		return nil, err
	}

	folder.UpdatedAt = time.Now()
	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	s.logger.Info("folder updated",
		"id", folder.ID,
		"name", folder.Name,
		"category", folder.Category,
		"status", folder.Status,
	)

	return folder, nil
}

// Move reparents a folder (nil = to root)
func (s *folderService) Move(ctx context.Context, identity models.Identity, folderID string, newParentID *string) (*archiveModels.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(identity, folder); err != nil {
		return nil, err
	}

	return s.moveLoaded(ctx, identity, folder, newParentID)
}

// moveLoaded performs the validated reparent of an already-loaded,
// already-authorized folder. The parent change, the move stamp and the
// audit record commit in one transaction; a guard failure leaves the
// store untouched.
func (s *folderService) moveLoaded(ctx context.Context, identity models.Identity, folder *archiveModels.Folder, newParentID *string) (*archiveModels.Folder, error) {
	if newParentID != nil && *newParentID == "" {
		newParentID = nil
	}

	if err := guard.CheckOwnershipPresent(folder.CreatedBy); err != nil {
		return nil, err
	}
	// Re-validate against authoritative parent chains, never a client
	// snapshot. Concurrent movers are serialized by the write; whichever
	// lands second is checked against the chain the first one produced.
	if err := guard.CheckMove(ctx, s.parentLookup(), folder.ID, newParentID); err != nil {
		return nil, err
	}

	oldParentID := folder.ParentID
	now := time.Now()

	order, err := s.nextSiblingOrder(ctx, newParentID)
	if err != nil {
		return nil, err
	}

	folder.ParentID = newParentID
	folder.Order = order
	folder.LastMovedAt = &now
	folder.LastMovedBy = &identity.ID
	folder.UpdatedAt = now

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.folderRepo.Update(txCtx, folder); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &archiveModels.MoveAudit{
			FolderID:    folder.ID,
			FolderName:  folder.Name,
			OldParentID: oldParentID,
			NewParentID: newParentID,
			OwnerID:     folder.CreatedBy,
			MovedBy:     identity.ID,
			MovedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.attachPath(ctx, folder)

	s.logger.Info("folder moved",
		"id", folder.ID,
		"name", folder.Name,
		"old_parent_id", oldParentID,
		"new_parent_id", newParentID,
		"moved_by", identity.ID,
	)

	return folder, nil
}

// Reorder assigns sequential sort order to one parent's children following
// the given list. The list must be a full permutation of the current
// children; folders under any other parent are never touched.
func (s *folderService) Reorder(ctx context.Context, identity models.Identity, parentID *string, orderedIDs []string) error {
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if len(orderedIDs) == 0 {
		return &domain.ValidationError{Message: "ordered_ids must not be empty"}
	}

	children, err := s.folderRepo.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}

	byID := make(map[string]*archiveModels.Folder, len(children))
	for i := range children {
		byID[children[i].ID] = &children[i]
	}

	if len(orderedIDs) != len(children) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("ordered_ids must list all %d children of the parent, got %d", len(children), len(orderedIDs)),
		}
	}

	seen := make(map[string]bool, len(orderedIDs))
	var changed []*archiveModels.Folder
	for position, id := range orderedIDs {
		folder, ok := byID[id]
		if !ok {
			return &domain.ValidationError{Message: fmt.Sprintf("folder %s is not a child of the given parent", id)}
		}
		if seen[id] {
			return &domain.ValidationError{Message: fmt.Sprintf("folder %s listed twice", id)}
		}
		seen[id] = true

		if folder.Order != position {
			if err := s.authorizeMutation(identity, folder); err != nil {
				return err
			}
			folder.Order = position
			changed = append(changed, folder)
		}
	}

	if len(changed) == 0 {
		return nil
	}

	now := time.Now()
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, folder := range changed {
			folder.UpdatedAt = now
			if err := s.folderRepo.Update(txCtx, folder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("siblings reordered",
		"parent_id", parentID,
		"children", len(orderedIDs),
		"writes", len(changed),
	)

	return nil
}

// DeleteFolder deletes a folder once it has no children. Deleting an
// already-absent id succeeds so retried deletes stay safe.
func (s *folderService) DeleteFolder(ctx context.Context, identity models.Identity, id string) error {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.authorizeMutation(identity, folder); err != nil {
		return err
	}

	childFolders, err := s.folderRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	childDocs, err := s.docRepo.CountByFolder(ctx, id)
	if err != nil {
		return err
	}
	if err := guard.CheckDelete(folder.Name, childFolders, childDocs); err != nil {
		return err
	}

	if err := s.folderRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("folder deleted",
		"id", id,
		"name", folder.Name,
		"deleted_by", identity.ID,
	)

	return nil
}

// ListAudit returns the folder's move history, newest first
func (s *folderService) ListAudit(ctx context.Context, folderID string, limit int) ([]archiveModels.MoveAudit, error) {
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > config.MaxAuditListLimit {
		limit = config.MaxAuditListLimit
	}

	return s.auditRepo.ListByFolder(ctx, folderID, limit)
}

// authorizeMutation allows the folder's owner and administrators through.
// Document share grants carry no folder rights.
func (s *folderService) authorizeMutation(identity models.Identity, folder *archiveModels.Folder) error {
	if identity.ID == folder.CreatedBy || identity.Role.IsAdmin() {
		return nil
	}
	return &domain.ForbiddenError{
		Message: fmt.Sprintf("not allowed to modify folder %q: requires ownership or an administrative role", folder.Name),
	}
}

// parentLookup adapts the repository to the guard's upward walk
func (s *folderService) parentLookup() guard.ParentLookup {
	return guard.ParentLookupFunc(func(ctx context.Context, folderID string) (*string, bool, error) {
		parentID, err := s.folderRepo.GetParentID(ctx, folderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
		return parentID, true, nil
	})
}

// nextSiblingOrder returns an order value placing a folder after the
// current last child of parentID
func (s *folderService) nextSiblingOrder(ctx context.Context, parentID *string) (int, error) {
	siblings, err := s.folderRepo.ListChildren(ctx, parentID)
	if err != nil {
		return 0, fmt.Errorf("list siblings: %w", err)
	}
	if len(siblings) == 0 {
		return 0, nil
	}
	return siblings[len(siblings)-1].Order + 1, nil
}

// attachPath computes the display path, falling back to the bare name if
// the chain cannot be resolved
func (s *folderService) attachPath(ctx context.Context, folder *archiveModels.Folder) {
	path, err := s.folderRepo.GetPath(ctx, &folder.ID)
	if err != nil {
		s.logger.Warn("failed to compute path", "folder_id", folder.ID, "error", err)
		folder.Path = folder.Name
		return
	}
	folder.Path = path
}
