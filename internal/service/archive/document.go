package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	archiveModels "pmnarchive/internal/domain/models/archive"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/taxonomy"
)

type documentService struct {
	docRepo    archiveRepo.DocumentRepository
	folderRepo archiveRepo.FolderRepository
	shareRepo  archiveRepo.ShareRepository
	taxonomy   *taxonomy.Registry
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo archiveRepo.DocumentRepository,
	folderRepo archiveRepo.FolderRepository,
	shareRepo archiveRepo.ShareRepository,
	taxonomy *taxonomy.Registry,
	logger *slog.Logger,
) archiveSvc.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		folderRepo: folderRepo,
		shareRepo:  shareRepo,
		taxonomy:   taxonomy,
		logger:     logger,
	}
}

// CreateDocument registers an uploaded file's metadata. The destination
// folder must exist; category defaults to the folder's category.
func (s *documentService) CreateDocument(ctx context.Context, identity models.Identity, req *archiveSvc.CreateDocumentRequest) (*archiveModels.Document, error) {
	if err := validateCreateDocumentRequest(req, s.taxonomy); err != nil {
		return nil, err
	}
	if err := guard.CheckOwnershipPresent(identity.ID); err != nil {
		return nil, err
	}

	if req.FolderID != nil && *req.FolderID == "" {
		req.FolderID = nil
	}

	category := req.Category
	if req.FolderID != nil {
		folder, err := s.folderRepo.GetByID(ctx, *req.FolderID)
		if err != nil {
			return nil, fmt.Errorf("destination folder: %w", err)
		}
		if category == "" {
			category = folder.Category
		}
	}
	if category == "" {
		category = s.taxonomy.DefaultCategory()
	}

	now := time.Now()
	doc := &archiveModels.Document{
		Name:        strings.TrimSpace(req.Name),
		Category:    category,
		FolderID:    req.FolderID,
		UploadedBy:  identity.ID,
		SizeBytes:   req.SizeBytes,
		ContentType: req.ContentType,
		StorageKey:  req.StorageKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document registered",
		"id", doc.ID,
		"name", doc.Name,
		"folder_id", doc.FolderID,
		"uploaded_by", doc.UploadedBy,
		"size_bytes", doc.SizeBytes,
	)

	return doc, nil
}

// GetDocument retrieves a document. Readable by the uploader, admins and
// holders of a read grant.
func (s *documentService) GetDocument(ctx context.Context, identity models.Identity, id string) (*archiveModels.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, doc, func(sh *archiveModels.Share) bool { return sh.CanRead }); err != nil {
		return nil, err
	}

	s.attachPath(ctx, doc)
	return doc, nil
}

// UpdateDocument applies a rename / move / recategorize
func (s *documentService) UpdateDocument(ctx context.Context, identity models.Identity, id string, req *archiveSvc.UpdateDocumentRequest) (*archiveModels.Document, error) {
	if req.Name == nil && req.Category == nil && !req.FolderID.Present {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, identity, doc, func(sh *archiveModels.Share) bool { return sh.CanWrite }); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &domain.ValidationError{Message: "name must not be empty"}
		}
		doc.Name = name
	}
	if req.Category != nil {
		if !s.taxonomy.ValidCategory(*req.Category) {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown category %q", *req.Category)}
		}
		doc.Category = *req.Category
	}
	if req.FolderID.Present {
		if req.FolderID.Value != nil && *req.FolderID.Value != "" {
			if _, err := s.folderRepo.GetByID(ctx, *req.FolderID.Value); err != nil {
				return nil, fmt.Errorf("destination folder: %w", err)
			}
			doc.FolderID = req.FolderID.Value
		} else {
			doc.FolderID = nil
		}
	}

	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.attachPath(ctx, doc)

	s.logger.Info("document updated",
		"id", doc.ID,
		"name", doc.Name,
		"folder_id", doc.FolderID,
	)

	return doc, nil
}

// DeleteDocument deletes a document. Unconditional: documents have no
// children to protect. Deleting an already-absent id succeeds.
func (s *documentService) DeleteDocument(ctx context.Context, identity models.Identity, id string) error {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.authorize(ctx, identity, doc, func(sh *archiveModels.Share) bool { return sh.CanDelete }); err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		"id", id,
		"name", doc.Name,
		"deleted_by", identity.ID,
	)

	return nil
}

// authorize allows the uploader, admins, and holders of a share grant
// whose relevant flag passes the allowed check
func (s *documentService) authorize(ctx context.Context, identity models.Identity, doc *archiveModels.Document, allowed func(*archiveModels.Share) bool) error {
	if identity.ID == doc.UploadedBy || identity.Role.IsAdmin() {
		return nil
	}

	share, err := s.shareRepo.GetForUser(ctx, doc.ID, identity.ID)
	if err != nil {
		return err
	}
	if share != nil && allowed(share) {
		return nil
	}

	return &domain.ForbiddenError{
		Message: fmt.Sprintf("not allowed to access document %q", doc.Name),
	}
}

func (s *documentService) attachPath(ctx context.Context, doc *archiveModels.Document) {
	folderPath, err := s.folderRepo.GetPath(ctx, doc.FolderID)
	if err != nil {
		s.logger.Warn("failed to compute document path", "doc_id", doc.ID, "error", err)
		doc.Path = doc.Name
		return
	}
	if folderPath == "" {
		doc.Path = doc.Name
		return
	}
	doc.Path = folderPath + " > " + doc.Name
}
