package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	archiveModels "pmnarchive/internal/domain/models/archive"
	archiveRepo "pmnarchive/internal/domain/repositories/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

type shareService struct {
	shareRepo archiveRepo.ShareRepository
	docRepo   archiveRepo.DocumentRepository
	logger    *slog.Logger
}

// NewShareService creates a new share service
func NewShareService(
	shareRepo archiveRepo.ShareRepository,
	docRepo archiveRepo.DocumentRepository,
	logger *slog.Logger,
) archiveSvc.ShareService {
	return &shareService{
		shareRepo: shareRepo,
		docRepo:   docRepo,
		logger:    logger,
	}
}

// CreateShare grants access on a document. Only the uploader, admins, and
// holders of a can_share grant may grant access to others.
func (s *shareService) CreateShare(ctx context.Context, identity models.Identity, documentID string, req *archiveSvc.CreateShareRequest) (*archiveModels.Share, error) {
	if req.GrantedTo == "" {
		return nil, &domain.ValidationError{Message: "granted_to is required"}
	}
	if !req.CanRead && !req.CanWrite && !req.CanDelete && !req.CanShare {
		return nil, &domain.ValidationError{Message: "at least one permission must be granted"}
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if req.GrantedTo == doc.UploadedBy {
		return nil, &domain.ValidationError{Message: "cannot grant access to the document's uploader"}
	}

	if err := s.authorizeGrant(ctx, identity, doc); err != nil {
		return nil, err
	}

	share := &archiveModels.Share{
		DocumentID: documentID,
		GrantedBy:  identity.ID,
		GrantedTo:  req.GrantedTo,
		CanRead:    req.CanRead,
		CanWrite:   req.CanWrite,
		CanDelete:  req.CanDelete,
		CanShare:   req.CanShare,
		CreatedAt:  time.Now(),
	}

	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}

	s.logger.Info("share granted",
		"id", share.ID,
		"document_id", documentID,
		"granted_by", share.GrantedBy,
		"granted_to", share.GrantedTo,
	)

	return share, nil
}

// ListShares lists the grants on a document
func (s *shareService) ListShares(ctx context.Context, identity models.Identity, documentID string) ([]archiveModels.Share, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeGrant(ctx, identity, doc); err != nil {
		return nil, err
	}

	return s.shareRepo.ListByDocument(ctx, documentID)
}

// RevokeShare removes a grant. Revoking an absent grant succeeds.
func (s *shareService) RevokeShare(ctx context.Context, identity models.Identity, shareID string) error {
	share, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	// The grantor can always take back their own grant; otherwise the
	// same rule as granting applies.
	if share.GrantedBy != identity.ID {
		doc, err := s.docRepo.GetByID(ctx, share.DocumentID)
		if err != nil {
			return err
		}
		if err := s.authorizeGrant(ctx, identity, doc); err != nil {
			return err
		}
	}

	if err := s.shareRepo.Delete(ctx, shareID); err != nil {
		return err
	}

	s.logger.Info("share revoked",
		"id", shareID,
		"document_id", share.DocumentID,
		"revoked_by", identity.ID,
	)

	return nil
}

func (s *shareService) authorizeGrant(ctx context.Context, identity models.Identity, doc *archiveModels.Document) error {
	if identity.ID == doc.UploadedBy || identity.Role.IsAdmin() {
		return nil
	}

	share, err := s.shareRepo.GetForUser(ctx, doc.ID, identity.ID)
	if err != nil {
		return err
	}
	if share != nil && share.CanShare {
		return nil
	}

	return &domain.ForbiddenError{
		Message: fmt.Sprintf("not allowed to manage shares on document %q", doc.Name),
	}
}
