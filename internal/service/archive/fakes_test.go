package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/domain"
	archiveModels "pmnarchive/internal/domain/models/archive"
	"pmnarchive/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(s string) *string { return &s }

// fakeFolderRepo is an in-memory FolderRepository for service tests
type fakeFolderRepo struct {
	folders map[string]archiveModels.Folder
	nextNum int
	// failures by method name, returned once then cleared
	failOn map[string]error
	// update history for immutability assertions
	updates []archiveModels.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{
		folders: map[string]archiveModels.Folder{},
		failOn:  map[string]error{},
	}
}

func (r *fakeFolderRepo) fail(method string) error {
	if err, ok := r.failOn[method]; ok {
		delete(r.failOn, method)
		return err
	}
	return nil
}

func (r *fakeFolderRepo) add(f archiveModels.Folder) archiveModels.Folder {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	r.folders[f.ID] = f
	return f
}

func (r *fakeFolderRepo) Create(ctx context.Context, folder *archiveModels.Folder) error {
	if err := r.fail("Create"); err != nil {
		return err
	}
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	r.folders[folder.ID] = *folder
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id string) (*archiveModels.Folder, error) {
	if err := r.fail("GetByID"); err != nil {
		return nil, err
	}
	f, ok := r.folders[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", id)}
	}
	out := f
	return &out, nil
}

func (r *fakeFolderRepo) Update(ctx context.Context, folder *archiveModels.Folder) error {
	if err := r.fail("Update"); err != nil {
		return err
	}
	stored, ok := r.folders[folder.ID]
	if !ok {
		return &domain.NotFoundError{Message: "folder not found"}
	}
	// Mirrors the real repository: ownership changes are rejected
	if err := guard.CheckOwnershipUnchanged(stored.CreatedBy, folder.CreatedBy); err != nil {
		return err
	}
	r.folders[folder.ID] = *folder
	r.updates = append(r.updates, *folder)
	return nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	if err := r.fail("Delete"); err != nil {
		return err
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) ListChildren(ctx context.Context, parentID *string) ([]archiveModels.Folder, error) {
	if err := r.fail("ListChildren"); err != nil {
		return nil, err
	}
	var out []archiveModels.Folder
	for _, f := range r.folders {
		if sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeFolderRepo) GetAll(ctx context.Context) ([]archiveModels.Folder, error) {
	var out []archiveModels.Folder
	for _, f := range r.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFolderRepo) GetParentID(ctx context.Context, id string) (*string, error) {
	f, ok := r.folders[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}
	return f.ParentID, nil
}

func (r *fakeFolderRepo) CountChildren(ctx context.Context, parentID string) (int, error) {
	n := 0
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFolderRepo) GetPath(ctx context.Context, folderID *string) (string, error) {
	if folderID == nil {
		return "", nil
	}
	var names []string
	current, ok := r.folders[*folderID]
	if !ok {
		return "", nil
	}
	for depth := 0; depth < 50; depth++ {
		names = append([]string{current.Name}, names...)
		if current.ParentID == nil {
			break
		}
		parent, ok := r.folders[*current.ParentID]
		if !ok {
			break
		}
		current = parent
	}
	return strings.Join(names, " > "), nil
}

func (r *fakeFolderRepo) NextFolderNumber(ctx context.Context) (string, error) {
	if err := r.fail("NextFolderNumber"); err != nil {
		return "", err
	}
	r.nextNum++
	return fmt.Sprintf("D-%04d", r.nextNum), nil
}

// fakeDocRepo is an in-memory DocumentRepository
type fakeDocRepo struct {
	docs map[string]archiveModels.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]archiveModels.Document{}}
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *archiveModels.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*archiveModels.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found", id)}
	}
	out := d
	return &out, nil
}

func (r *fakeDocRepo) Update(ctx context.Context, doc *archiveModels.Document) error {
	stored, ok := r.docs[doc.ID]
	if !ok {
		return &domain.NotFoundError{Message: "document not found"}
	}
	next := *doc
	next.UploadedBy = stored.UploadedBy
	r.docs[doc.ID] = next
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

func (r *fakeDocRepo) ListByFolder(ctx context.Context, folderID *string) ([]archiveModels.Document, error) {
	var out []archiveModels.Document
	for _, d := range r.docs {
		if sameParent(d.FolderID, folderID) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDocRepo) CountByFolder(ctx context.Context, folderID string) (int, error) {
	n := 0
	for _, d := range r.docs {
		if d.FolderID != nil && *d.FolderID == folderID {
			n++
		}
	}
	return n, nil
}

func (r *fakeDocRepo) GetAll(ctx context.Context) ([]archiveModels.Document, error) {
	var out []archiveModels.Document
	for _, d := range r.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeAuditRepo records move audits in memory
type fakeAuditRepo struct {
	audits []archiveModels.MoveAudit
}

func (r *fakeAuditRepo) Create(ctx context.Context, audit *archiveModels.MoveAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	r.audits = append(r.audits, *audit)
	return nil
}

func (r *fakeAuditRepo) ListByFolder(ctx context.Context, folderID string, limit int) ([]archiveModels.MoveAudit, error) {
	var out []archiveModels.MoveAudit
	for i := len(r.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if r.audits[i].FolderID == folderID {
			out = append(out, r.audits[i])
		}
	}
	return out, nil
}

// fakeShareRepo is an in-memory ShareRepository
type fakeShareRepo struct {
	shares map[string]archiveModels.Share
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: map[string]archiveModels.Share{}}
}

func (r *fakeShareRepo) Create(ctx context.Context, share *archiveModels.Share) error {
	if share.ID == "" {
		share.ID = uuid.NewString()
	}
	for _, s := range r.shares {
		if s.DocumentID == share.DocumentID && s.GrantedTo == share.GrantedTo {
			return &domain.ConflictError{Message: "share already exists"}
		}
	}
	r.shares[share.ID] = *share
	return nil
}

func (r *fakeShareRepo) GetByID(ctx context.Context, id string) (*archiveModels.Share, error) {
	s, ok := r.shares[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "share not found"}
	}
	out := s
	return &out, nil
}

func (r *fakeShareRepo) Delete(ctx context.Context, id string) error {
	delete(r.shares, id)
	return nil
}

func (r *fakeShareRepo) ListByDocument(ctx context.Context, documentID string) ([]archiveModels.Share, error) {
	var out []archiveModels.Share
	for _, s := range r.shares {
		if s.DocumentID == documentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShareRepo) GetForUser(ctx context.Context, documentID, userID string) (*archiveModels.Share, error) {
	for _, s := range r.shares {
		if s.DocumentID == documentID && s.GrantedTo == userID {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

// fakeTxManager runs the function directly; the fakes have no
// transaction semantics to roll back
type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
