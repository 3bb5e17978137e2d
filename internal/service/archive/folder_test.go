package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models"
	archiveModels "pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/httputil"
	"pmnarchive/internal/taxonomy"
)

var (
	owner = models.Identity{ID: "owner-1", Role: models.RoleStandard, Active: true}
	admin = models.Identity{ID: "admin-1", Role: models.RoleAdmin, Active: true}
	other = models.Identity{ID: "other-1", Role: models.RoleStandard, Active: true}
)

type folderFixture struct {
	svc        archiveSvc.FolderService
	folderRepo *fakeFolderRepo
	docRepo    *fakeDocRepo
	auditRepo  *fakeAuditRepo
}

func newFolderFixture(t *testing.T) *folderFixture {
	t.Helper()
	tax, err := taxonomy.NewRegistry()
	if err != nil {
		t.Fatalf("load taxonomy: %v", err)
	}

	folderRepo := newFakeFolderRepo()
	docRepo := newFakeDocRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewFolderService(folderRepo, docRepo, auditRepo, &fakeTxManager{}, tax, testLogger())

	return &folderFixture{
		svc:        svc,
		folderRepo: folderRepo,
		docRepo:    docRepo,
		auditRepo:  auditRepo,
	}
}

func TestCreateFolder(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	first, err := fx.svc.CreateFolder(ctx, owner, &archiveSvc.CreateFolderRequest{Name: "Board"})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}
	if first.CreatedBy != owner.ID {
		t.Errorf("CreatedBy = %q, want %q", first.CreatedBy, owner.ID)
	}
	if first.FolderNumber == nil || *first.FolderNumber != "D-0001" {
		t.Errorf("FolderNumber = %v, want D-0001", first.FolderNumber)
	}
	if first.Category == "" || first.Status == "" {
		t.Errorf("defaults not applied: category=%q status=%q", first.Category, first.Status)
	}
	if first.Order != 0 {
		t.Errorf("Order = %d, want 0", first.Order)
	}

	second, err := fx.svc.CreateFolder(ctx, owner, &archiveSvc.CreateFolderRequest{Name: "Finance"})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}
	if second.FolderNumber == nil || *second.FolderNumber != "D-0002" {
		t.Errorf("FolderNumber = %v, want D-0002", second.FolderNumber)
	}
	if second.Order != 1 {
		t.Errorf("sibling Order = %d, want 1", second.Order)
	}
}

func TestCreateFolderInheritsClassification(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	parent, err := fx.svc.CreateFolder(ctx, owner, &archiveSvc.CreateFolderRequest{Name: "Finance", Category: "financial"})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}

	child, err := fx.svc.CreateFolder(ctx, owner, &archiveSvc.CreateFolderRequest{Name: "Invoices", ParentID: &parent.ID})
	if err != nil {
		t.Fatalf("CreateFolder() error: %v", err)
	}
	if child.Category != "financial" {
		t.Errorf("child Category = %q, want inherited %q", child.Category, "financial")
	}
	if child.Path != "Finance > Invoices" {
		t.Errorf("child Path = %q, want %q", child.Path, "Finance > Invoices")
	}
}

func TestCreateFolderValidation(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *archiveSvc.CreateFolderRequest
		wantErr error
	}{
		{
			name:    "empty name",
			req:     &archiveSvc.CreateFolderRequest{Name: ""},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "slash in name",
			req:     &archiveSvc.CreateFolderRequest{Name: "a/b"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown category",
			req:     &archiveSvc.CreateFolderRequest{Name: "X", Category: "bogus"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing parent",
			req:     &archiveSvc.CreateFolderRequest{Name: "X", ParentID: ptr("nope")},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.CreateFolder(ctx, owner, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateFolder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateFolderRequiresOwner(t *testing.T) {
	fx := newFolderFixture(t)

	anonymous := models.Identity{ID: ""}
	_, err := fx.svc.CreateFolder(context.Background(), anonymous, &archiveSvc.CreateFolderRequest{Name: "X"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CreateFolder() without identity error = %v, want validation error", err)
	}
}

func TestUpdateFolderOwnership(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	folder := fx.folderRepo.add(archiveModels.Folder{Name: "Reports", CreatedBy: owner.ID, Category: "general", Status: "active"})

	// Non-owners without an admin role are rejected
	_, err := fx.svc.UpdateFolder(ctx, other, folder.ID, &archiveSvc.UpdateFolderRequest{Name: ptr("Hijacked")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("UpdateFolder() by non-owner error = %v, want forbidden", err)
	}

	// Admins may modify anyone's folder
	updated, err := fx.svc.UpdateFolder(ctx, admin, folder.ID, &archiveSvc.UpdateFolderRequest{Name: ptr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateFolder() by admin error: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", updated.Name)
	}
	// Ownership never changes on update
	if updated.CreatedBy != owner.ID {
		t.Errorf("CreatedBy changed to %q, want %q", updated.CreatedBy, owner.ID)
	}
}

func TestUpdateFolderNumberAdminOnly(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	folder := fx.folderRepo.add(archiveModels.Folder{Name: "Reports", CreatedBy: owner.ID, Category: "general", Status: "active"})

	_, err := fx.svc.UpdateFolder(ctx, owner, folder.ID, &archiveSvc.UpdateFolderRequest{FolderNumber: ptr("D-9999")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("UpdateFolder() number edit by owner error = %v, want forbidden", err)
	}

	_, err = fx.svc.UpdateFolder(ctx, admin, folder.ID, &archiveSvc.UpdateFolderRequest{FolderNumber: ptr("bogus")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateFolder() malformed number error = %v, want validation", err)
	}

	updated, err := fx.svc.UpdateFolder(ctx, admin, folder.ID, &archiveSvc.UpdateFolderRequest{FolderNumber: ptr("D-9999")})
	if err != nil {
		t.Fatalf("UpdateFolder() number edit by admin error: %v", err)
	}
	if updated.FolderNumber == nil || *updated.FolderNumber != "D-9999" {
		t.Errorf("FolderNumber = %v, want D-9999", updated.FolderNumber)
	}
}

func TestMove(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	a := fx.folderRepo.add(archiveModels.Folder{Name: "A", CreatedBy: owner.ID, Category: "general", Status: "active"})
	b := fx.folderRepo.add(archiveModels.Folder{Name: "B", CreatedBy: owner.ID, ParentID: &a.ID, Category: "general", Status: "active"})
	c := fx.folderRepo.add(archiveModels.Folder{Name: "C", CreatedBy: owner.ID, ParentID: &b.ID, Category: "general", Status: "active"})
	dest := fx.folderRepo.add(archiveModels.Folder{Name: "Dest", CreatedBy: owner.ID, Category: "general", Status: "active", Order: 1})
	fx.folderRepo.add(archiveModels.Folder{Name: "Existing", CreatedBy: owner.ID, ParentID: &dest.ID, Order: 3, Category: "general", Status: "active"})

	t.Run("cycle rejected", func(t *testing.T) {
		_, err := fx.svc.Move(ctx, owner, a.ID, &c.ID)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Move() under own descendant error = %v, want validation", err)
		}
	})

	t.Run("self move rejected", func(t *testing.T) {
		_, err := fx.svc.Move(ctx, owner, a.ID, &a.ID)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Move() into itself error = %v, want validation", err)
		}
	})

	t.Run("missing destination rejected", func(t *testing.T) {
		_, err := fx.svc.Move(ctx, owner, b.ID, ptr("nope"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Move() to missing parent error = %v, want not found", err)
		}
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		_, err := fx.svc.Move(ctx, other, b.ID, &dest.ID)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Move() by non-owner error = %v, want forbidden", err)
		}
	})

	t.Run("valid move stamps audit trail", func(t *testing.T) {
		moved, err := fx.svc.Move(ctx, admin, c.ID, &dest.ID)
		if err != nil {
			t.Fatalf("Move() error: %v", err)
		}
		if moved.ParentID == nil || *moved.ParentID != dest.ID {
			t.Errorf("ParentID = %v, want %s", moved.ParentID, dest.ID)
		}
		// Appended after the existing child with order 3
		if moved.Order != 4 {
			t.Errorf("Order = %d, want 4", moved.Order)
		}
		if moved.LastMovedAt == nil || moved.LastMovedBy == nil || *moved.LastMovedBy != admin.ID {
			t.Errorf("move stamp = %v/%v, want set by %s", moved.LastMovedAt, moved.LastMovedBy, admin.ID)
		}
		// Ownership survives a move by an administrator
		if moved.CreatedBy != owner.ID {
			t.Errorf("CreatedBy = %q, want %q", moved.CreatedBy, owner.ID)
		}

		if len(fx.auditRepo.audits) != 1 {
			t.Fatalf("audit records = %d, want 1", len(fx.auditRepo.audits))
		}
		audit := fx.auditRepo.audits[0]
		if audit.FolderID != c.ID || audit.MovedBy != admin.ID || audit.OwnerID != owner.ID {
			t.Errorf("audit = %+v, want folder %s moved by %s", audit, c.ID, admin.ID)
		}
		if audit.OldParentID == nil || *audit.OldParentID != b.ID {
			t.Errorf("audit OldParentID = %v, want %s", audit.OldParentID, b.ID)
		}
	})

	t.Run("move to root allowed", func(t *testing.T) {
		moved, err := fx.svc.Move(ctx, owner, b.ID, nil)
		if err != nil {
			t.Fatalf("Move() to root error: %v", err)
		}
		if moved.ParentID != nil {
			t.Errorf("ParentID = %v, want nil", moved.ParentID)
		}
	})
}

func TestUpdateFolderTriStateParent(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	parent := fx.folderRepo.add(archiveModels.Folder{Name: "P", CreatedBy: owner.ID, Category: "general", Status: "active"})
	child := fx.folderRepo.add(archiveModels.Folder{Name: "C", CreatedBy: owner.ID, ParentID: &parent.ID, Category: "general", Status: "active"})

	// Absent parent_id must not move the folder
	updated, err := fx.svc.UpdateFolder(ctx, owner, child.ID, &archiveSvc.UpdateFolderRequest{Name: ptr("C2")})
	if err != nil {
		t.Fatalf("UpdateFolder() error: %v", err)
	}
	if updated.ParentID == nil || *updated.ParentID != parent.ID {
		t.Errorf("rename moved the folder: ParentID = %v", updated.ParentID)
	}
	if updated.LastMovedAt != nil {
		t.Errorf("rename stamped LastMovedAt = %v, want nil", updated.LastMovedAt)
	}

	// Explicit null moves to root
	updated, err = fx.svc.UpdateFolder(ctx, owner, child.ID, &archiveSvc.UpdateFolderRequest{
		ParentID: httputil.OptionalString{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("UpdateFolder() error: %v", err)
	}
	if updated.ParentID != nil {
		t.Errorf("ParentID = %v, want nil (root)", updated.ParentID)
	}
	if updated.LastMovedAt == nil {
		t.Error("move did not stamp LastMovedAt")
	}
}

func TestReorder(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	parent := fx.folderRepo.add(archiveModels.Folder{Name: "P", CreatedBy: owner.ID, Category: "general", Status: "active"})
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f0 := fx.folderRepo.add(archiveModels.Folder{Name: "F0", CreatedBy: owner.ID, ParentID: &parent.ID, Order: 0, CreatedAt: base, Category: "general", Status: "active"})
	f1 := fx.folderRepo.add(archiveModels.Folder{Name: "F1", CreatedBy: owner.ID, ParentID: &parent.ID, Order: 1, CreatedAt: base, Category: "general", Status: "active"})
	f2 := fx.folderRepo.add(archiveModels.Folder{Name: "F2", CreatedBy: owner.ID, ParentID: &parent.ID, Order: 2, CreatedAt: base, Category: "general", Status: "active"})
	// A folder under a different parent must never be touched
	outside := fx.folderRepo.add(archiveModels.Folder{Name: "Outside", CreatedBy: owner.ID, Order: 7, Category: "general", Status: "active"})

	t.Run("partial list rejected", func(t *testing.T) {
		err := fx.svc.Reorder(ctx, owner, &parent.ID, []string{f2.ID, f0.ID})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Reorder() with partial list error = %v, want validation", err)
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		err := fx.svc.Reorder(ctx, owner, &parent.ID, []string{f0.ID, f0.ID, f1.ID})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Reorder() with duplicate error = %v, want validation", err)
		}
	})

	t.Run("foreign folder rejected", func(t *testing.T) {
		err := fx.svc.Reorder(ctx, owner, &parent.ID, []string{f0.ID, f1.ID, outside.ID})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Reorder() with foreign folder error = %v, want validation", err)
		}
	})

	t.Run("only changed rows written", func(t *testing.T) {
		fx.folderRepo.updates = nil
		if err := fx.svc.Reorder(ctx, owner, &parent.ID, []string{f0.ID, f2.ID, f1.ID}); err != nil {
			t.Fatalf("Reorder() error: %v", err)
		}
		// f0 keeps position 0; only f1 and f2 swap
		if len(fx.folderRepo.updates) != 2 {
			t.Errorf("writes = %d, want 2", len(fx.folderRepo.updates))
		}

		children, _ := fx.folderRepo.ListChildren(ctx, &parent.ID)
		got := []string{children[0].ID, children[1].ID, children[2].ID}
		want := []string{f0.ID, f2.ID, f1.ID}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("children[%d] = %s, want %s", i, got[i], want[i])
			}
		}

		untouched, _ := fx.folderRepo.GetByID(ctx, outside.ID)
		if untouched.Order != 7 {
			t.Errorf("outside folder Order = %d, want 7 untouched", untouched.Order)
		}
	})

	t.Run("no-op permutation writes nothing", func(t *testing.T) {
		fx.folderRepo.updates = nil
		if err := fx.svc.Reorder(ctx, owner, &parent.ID, []string{f0.ID, f2.ID, f1.ID}); err != nil {
			t.Fatalf("Reorder() error: %v", err)
		}
		if len(fx.folderRepo.updates) != 0 {
			t.Errorf("writes = %d, want 0", len(fx.folderRepo.updates))
		}
	})
}

func TestDeleteFolder(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	parent := fx.folderRepo.add(archiveModels.Folder{Name: "P", CreatedBy: owner.ID, Category: "general", Status: "active"})
	child := fx.folderRepo.add(archiveModels.Folder{Name: "C", CreatedBy: owner.ID, ParentID: &parent.ID, Category: "general", Status: "active"})
	fx.docRepo.Create(ctx, &archiveModels.Document{Name: "doc.pdf", FolderID: &parent.ID, UploadedBy: owner.ID})

	t.Run("non-empty folder blocked with counts", func(t *testing.T) {
		err := fx.svc.DeleteFolder(ctx, owner, parent.ID)
		var conflictErr *domain.ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("DeleteFolder() error = %v, want ConflictError", err)
		}
		if conflictErr.ChildFolders != 1 || conflictErr.ChildDocs != 1 {
			t.Errorf("conflict counts = %d/%d, want 1/1", conflictErr.ChildFolders, conflictErr.ChildDocs)
		}
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		err := fx.svc.DeleteFolder(ctx, other, child.ID)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("DeleteFolder() by non-owner error = %v, want forbidden", err)
		}
	})

	t.Run("empty folder deleted", func(t *testing.T) {
		if err := fx.svc.DeleteFolder(ctx, owner, child.ID); err != nil {
			t.Fatalf("DeleteFolder() error: %v", err)
		}
		if _, err := fx.folderRepo.GetByID(ctx, child.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("folder still present after delete")
		}
	})

	t.Run("repeat delete succeeds", func(t *testing.T) {
		if err := fx.svc.DeleteFolder(ctx, owner, child.ID); err != nil {
			t.Errorf("DeleteFolder() of absent id error = %v, want nil", err)
		}
	})
}

func TestListAudit(t *testing.T) {
	fx := newFolderFixture(t)
	ctx := context.Background()

	folder := fx.folderRepo.add(archiveModels.Folder{Name: "F", CreatedBy: owner.ID, Category: "general", Status: "active"})
	for i := 0; i < 5; i++ {
		fx.auditRepo.Create(ctx, &archiveModels.MoveAudit{FolderID: folder.ID, MovedBy: owner.ID})
	}

	audits, err := fx.svc.ListAudit(ctx, folder.ID, 3)
	if err != nil {
		t.Fatalf("ListAudit() error: %v", err)
	}
	if len(audits) != 3 {
		t.Errorf("ListAudit() returned %d records, want 3", len(audits))
	}

	if _, err := fx.svc.ListAudit(ctx, "nope", 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ListAudit() of missing folder error = %v, want not found", err)
	}
}
