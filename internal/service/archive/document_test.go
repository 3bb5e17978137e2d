package archive

import (
	"context"
	"errors"
	"testing"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	archiveModels "pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/httputil"
	"pmnarchive/internal/taxonomy"
)

type docFixture struct {
	svc        archiveSvc.DocumentService
	shares     archiveSvc.ShareService
	docRepo    *fakeDocRepo
	folderRepo *fakeFolderRepo
	shareRepo  *fakeShareRepo
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	tax, err := taxonomy.NewRegistry()
	if err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}

	docRepo := newFakeDocRepo()
	folderRepo := newFakeFolderRepo()
	shareRepo := newFakeShareRepo()

	return &docFixture{
		svc:        NewDocumentService(docRepo, folderRepo, shareRepo, tax, testLogger()),
		shares:     NewShareService(shareRepo, docRepo, testLogger()),
		docRepo:    docRepo,
		folderRepo: folderRepo,
		shareRepo:  shareRepo,
	}
}

func TestCreateDocument(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	folder := fx.folderRepo.add(archiveModels.Folder{Name: "Finance", CreatedBy: owner.ID, Category: "financial", Status: "active"})

	doc, err := fx.svc.CreateDocument(ctx, owner, &archiveSvc.CreateDocumentRequest{
		Name:        "invoice.pdf",
		FolderID:    &folder.ID,
		SizeBytes:   2048,
		ContentType: "application/pdf",
		StorageKey:  "uploads/invoice.pdf",
	})
	if err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}
	if doc.UploadedBy != owner.ID {
		t.Errorf("UploadedBy = %q, want %q", doc.UploadedBy, owner.ID)
	}
	// Unset category comes from the destination folder
	if doc.Category != "financial" {
		t.Errorf("Category = %q, want inherited %q", doc.Category, "financial")
	}

	_, err = fx.svc.CreateDocument(ctx, owner, &archiveSvc.CreateDocumentRequest{
		Name:     "lost.pdf",
		FolderID: ptr("nope"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CreateDocument() with missing folder error = %v, want not found", err)
	}

	_, err = fx.svc.CreateDocument(ctx, owner, &archiveSvc.CreateDocumentRequest{Name: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateDocument() with empty name error = %v, want validation", err)
	}
}

func TestDocumentAccess(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	doc := &archiveModels.Document{Name: "minutes.pdf", UploadedBy: owner.ID, Category: "general"}
	fx.docRepo.Create(ctx, doc)

	t.Run("uploader reads", func(t *testing.T) {
		if _, err := fx.svc.GetDocument(ctx, owner, doc.ID); err != nil {
			t.Errorf("GetDocument() by uploader error: %v", err)
		}
	})

	t.Run("admin reads", func(t *testing.T) {
		if _, err := fx.svc.GetDocument(ctx, admin, doc.ID); err != nil {
			t.Errorf("GetDocument() by admin error: %v", err)
		}
	})

	t.Run("stranger rejected", func(t *testing.T) {
		if _, err := fx.svc.GetDocument(ctx, other, doc.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("GetDocument() by stranger error = %v, want forbidden", err)
		}
	})

	t.Run("read grant opens read but not write", func(t *testing.T) {
		fx.shareRepo.Create(ctx, &archiveModels.Share{
			DocumentID: doc.ID, GrantedBy: owner.ID, GrantedTo: other.ID, CanRead: true,
		})

		if _, err := fx.svc.GetDocument(ctx, other, doc.ID); err != nil {
			t.Errorf("GetDocument() with read grant error: %v", err)
		}

		_, err := fx.svc.UpdateDocument(ctx, other, doc.ID, &archiveSvc.UpdateDocumentRequest{Name: ptr("renamed.pdf")})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("UpdateDocument() with read-only grant error = %v, want forbidden", err)
		}

		err = fx.svc.DeleteDocument(ctx, other, doc.ID)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("DeleteDocument() with read-only grant error = %v, want forbidden", err)
		}
	})
}

func TestUpdateDocument(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	folder := fx.folderRepo.add(archiveModels.Folder{Name: "Reports", CreatedBy: owner.ID, Category: "general", Status: "active"})
	doc := &archiveModels.Document{Name: "draft.pdf", UploadedBy: owner.ID, Category: "general"}
	fx.docRepo.Create(ctx, doc)

	t.Run("empty patch rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &archiveSvc.UpdateDocumentRequest{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("UpdateDocument() with no fields error = %v, want validation", err)
		}
	})

	t.Run("move into folder", func(t *testing.T) {
		updated, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &archiveSvc.UpdateDocumentRequest{
			FolderID: httputil.OptionalString{Present: true, Value: &folder.ID},
		})
		if err != nil {
			t.Fatalf("UpdateDocument() error: %v", err)
		}
		if updated.FolderID == nil || *updated.FolderID != folder.ID {
			t.Errorf("FolderID = %v, want %s", updated.FolderID, folder.ID)
		}
		if updated.Path != "Reports > draft.pdf" {
			t.Errorf("Path = %q, want %q", updated.Path, "Reports > draft.pdf")
		}
		// The uploader stamp survives every update
		if updated.UploadedBy != owner.ID {
			t.Errorf("UploadedBy = %q, want %q", updated.UploadedBy, owner.ID)
		}
	})

	t.Run("move to missing folder rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &archiveSvc.UpdateDocumentRequest{
			FolderID: httputil.OptionalString{Present: true, Value: ptr("nope")},
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("UpdateDocument() to missing folder error = %v, want not found", err)
		}
	})

	t.Run("explicit null moves to root", func(t *testing.T) {
		updated, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &archiveSvc.UpdateDocumentRequest{
			FolderID: httputil.OptionalString{Present: true, Value: nil},
		})
		if err != nil {
			t.Fatalf("UpdateDocument() error: %v", err)
		}
		if updated.FolderID != nil {
			t.Errorf("FolderID = %v, want nil", updated.FolderID)
		}
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &archiveSvc.UpdateDocumentRequest{Category: ptr("bogus")})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("UpdateDocument() with unknown category error = %v, want validation", err)
		}
	})
}

func TestDeleteDocumentIdempotent(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	doc := &archiveModels.Document{Name: "old.pdf", UploadedBy: owner.ID}
	fx.docRepo.Create(ctx, doc)

	if err := fx.svc.DeleteDocument(ctx, owner, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error: %v", err)
	}
	if err := fx.svc.DeleteDocument(ctx, owner, doc.ID); err != nil {
		t.Errorf("DeleteDocument() of absent id error = %v, want nil", err)
	}
}

func TestCreateShare(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	doc := &archiveModels.Document{Name: "shared.pdf", UploadedBy: owner.ID}
	fx.docRepo.Create(ctx, doc)

	tests := []struct {
		name    string
		req     *archiveSvc.CreateShareRequest
		wantErr error
	}{
		{
			name: "missing grantee",
			req:  &archiveSvc.CreateShareRequest{CanRead: true},
			wantErr: domain.ErrValidation,
		},
		{
			name: "no permissions",
			req:  &archiveSvc.CreateShareRequest{GrantedTo: other.ID},
			wantErr: domain.ErrValidation,
		},
		{
			name: "grant to uploader",
			req:  &archiveSvc.CreateShareRequest{GrantedTo: owner.ID, CanRead: true},
			wantErr: domain.ErrValidation,
		},
		{
			name: "valid grant",
			req:  &archiveSvc.CreateShareRequest{GrantedTo: other.ID, CanRead: true, CanWrite: true},
		},
		{
			name: "duplicate grant",
			req:  &archiveSvc.CreateShareRequest{GrantedTo: other.ID, CanRead: true},
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, err := fx.shares.CreateShare(ctx, owner, doc.ID, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateShare() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateShare() error: %v", err)
			}
			if share.GrantedBy != owner.ID || share.GrantedTo != other.ID {
				t.Errorf("share = %+v, want granted by %s to %s", share, owner.ID, other.ID)
			}
		})
	}
}

func TestShareAuthorization(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	doc := &archiveModels.Document{Name: "shared.pdf", UploadedBy: owner.ID}
	fx.docRepo.Create(ctx, doc)

	stranger := other
	third := models.Identity{ID: "third-1", Role: models.RoleStandard, Active: true}

	// A stranger cannot grant or list
	if _, err := fx.shares.CreateShare(ctx, stranger, doc.ID, &archiveSvc.CreateShareRequest{GrantedTo: third.ID, CanRead: true}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("CreateShare() by stranger error = %v, want forbidden", err)
	}
	if _, err := fx.shares.ListShares(ctx, stranger, doc.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ListShares() by stranger error = %v, want forbidden", err)
	}

	// A can_share grant delegates the right to grant further
	if _, err := fx.shares.CreateShare(ctx, owner, doc.ID, &archiveSvc.CreateShareRequest{GrantedTo: stranger.ID, CanRead: true, CanShare: true}); err != nil {
		t.Fatalf("CreateShare() error: %v", err)
	}
	delegated, err := fx.shares.CreateShare(ctx, stranger, doc.ID, &archiveSvc.CreateShareRequest{GrantedTo: third.ID, CanRead: true})
	if err != nil {
		t.Fatalf("CreateShare() via can_share grant error: %v", err)
	}

	// The grantor can revoke their own grant even without can_share left
	if err := fx.shares.RevokeShare(ctx, stranger, delegated.ID); err != nil {
		t.Errorf("RevokeShare() by grantor error: %v", err)
	}

	// Revoking an absent grant succeeds
	if err := fx.shares.RevokeShare(ctx, stranger, delegated.ID); err != nil {
		t.Errorf("RevokeShare() of absent grant error = %v, want nil", err)
	}
}

func TestRevokeShareStranger(t *testing.T) {
	fx := newDocFixture(t)
	ctx := context.Background()

	doc := &archiveModels.Document{Name: "shared.pdf", UploadedBy: owner.ID}
	fx.docRepo.Create(ctx, doc)

	share, err := fx.shares.CreateShare(ctx, owner, doc.ID, &archiveSvc.CreateShareRequest{GrantedTo: other.ID, CanRead: true})
	if err != nil {
		t.Fatalf("CreateShare() error: %v", err)
	}

	stranger := models.Identity{ID: "third-1", Role: models.RoleStandard, Active: true}
	if err := fx.shares.RevokeShare(ctx, stranger, share.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("RevokeShare() by stranger error = %v, want forbidden", err)
	}
	if err := fx.shares.RevokeShare(ctx, owner, share.ID); err != nil {
		t.Errorf("RevokeShare() by uploader error: %v", err)
	}
}
