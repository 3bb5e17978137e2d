package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

// MemStore is an in-memory Store enforcing the same write invariants as
// the server. It backs engine tests and offline development without a
// running backend.
type MemStore struct {
	mu        sync.Mutex
	userID    string
	folders   map[string]archive.Folder
	docs      map[string]archive.Document
	nextNum   int
	failNext  error
	failCount int
}

// NewMemStore creates an empty in-memory store acting as the given user
func NewMemStore(userID string) *MemStore {
	return &MemStore{
		userID:  userID,
		folders: map[string]archive.Folder{},
		docs:    map[string]archive.Document{},
	}
}

// FailNext makes the next n calls return err, then recover. Used to
// exercise retry and rollback paths.
func (s *MemStore) FailNext(err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
	s.failCount = n
}

func (s *MemStore) injectedFailure() error {
	if s.failCount > 0 {
		s.failCount--
		return s.failNext
	}
	return nil
}

// FetchArchive returns copies of the flat collections
func (s *MemStore) FetchArchive(ctx context.Context) ([]archive.Folder, []archive.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return nil, nil, err
	}

	folders := make([]archive.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		folders = append(folders, f)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].ID < folders[j].ID })

	docs := make([]archive.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return folders, docs, nil
}

// CreateFolder creates a folder with a sequential folder number
func (s *MemStore) CreateFolder(ctx context.Context, req *archiveSvc.CreateFolderRequest) (*archive.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return nil, err
	}

	if err := guard.CheckName(req.Name); err != nil {
		return nil, err
	}
	if err := guard.CheckOwnershipPresent(s.userID); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if _, ok := s.folders[*req.ParentID]; !ok {
			return nil, &domain.NotFoundError{Message: "parent folder not found"}
		}
	}

	s.nextNum++
	num := fmt.Sprintf("D-%04d", s.nextNum)
	now := time.Now()
	folder := archive.Folder{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		CreatedBy:    s.userID,
		ParentID:     req.ParentID,
		FolderNumber: &num,
		Order:        len(s.childrenOf(req.ParentID)),
		Category:     req.Category,
		Status:       req.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.folders[folder.ID] = folder
	return &folder, nil
}

// UpdateFolder applies a partial update with the server's guards
func (s *MemStore) UpdateFolder(ctx context.Context, folderID string, req *archiveSvc.UpdateFolderRequest) (*archive.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return nil, err
	}

	folder, ok := s.folders[folderID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "folder not found"}
	}

	if req.Name != nil {
		if err := guard.CheckName(*req.Name); err != nil {
			return nil, err
		}
		folder.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		folder.Category = *req.Category
	}
	if req.Status != nil {
		folder.Status = *req.Status
	}
	if req.FolderNumber != nil {
		if err := guard.CheckFolderNumber(req.FolderNumber); err != nil {
			return nil, err
		}
		folder.FolderNumber = req.FolderNumber
	}
	if req.ParentID.Present {
		err := guard.CheckMove(ctx, guard.ParentLookupFunc(
			func(_ context.Context, id string) (*string, bool, error) {
				f, ok := s.folders[id]
				if !ok {
					return nil, false, nil
				}
				return f.ParentID, true, nil
			}), folderID, req.ParentID.Value)
		if err != nil {
			return nil, err
		}
		folder.ParentID = req.ParentID.Value
		folder.Order = len(s.childrenOf(req.ParentID.Value))
		now := time.Now()
		folder.LastMovedAt = &now
		movedBy := s.userID
		folder.LastMovedBy = &movedBy
	}

	folder.UpdatedAt = time.Now()
	s.folders[folderID] = folder
	return &folder, nil
}

// ReorderFolders assigns sequential order following orderedIDs
func (s *MemStore) ReorderFolders(ctx context.Context, parentID *string, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return err
	}

	siblings := s.childrenOf(parentID)
	if err := checkPermutation(siblings, orderedIDs); err != nil {
		return err
	}

	for i, id := range orderedIDs {
		f := s.folders[id]
		f.Order = i
		s.folders[id] = f
	}
	return nil
}

// DeleteFolder deletes a childless folder; absent ids succeed
func (s *MemStore) DeleteFolder(ctx context.Context, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return err
	}

	folder, ok := s.folders[folderID]
	if !ok {
		return nil
	}

	childDocs := 0
	for _, d := range s.docs {
		if d.FolderID != nil && *d.FolderID == folderID {
			childDocs++
		}
	}
	if err := guard.CheckDelete(folder.Name, len(s.childrenOf(&folderID)), childDocs); err != nil {
		return err
	}

	delete(s.folders, folderID)
	return nil
}

// CreateDocument registers a document
func (s *MemStore) CreateDocument(ctx context.Context, req *archiveSvc.CreateDocumentRequest) (*archive.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return nil, err
	}

	if err := guard.CheckName(req.Name); err != nil {
		return nil, err
	}
	if req.FolderID != nil {
		if _, ok := s.folders[*req.FolderID]; !ok {
			return nil, &domain.NotFoundError{Message: "destination folder not found"}
		}
	}

	now := time.Now()
	doc := archive.Document{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		FolderID:    req.FolderID,
		UploadedBy:  s.userID,
		SizeBytes:   req.SizeBytes,
		ContentType: req.ContentType,
		StorageKey:  req.StorageKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.docs[doc.ID] = doc
	return &doc, nil
}

// DeleteDocument deletes a document; absent ids succeed
func (s *MemStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injectedFailure(); err != nil {
		return err
	}
	delete(s.docs, documentID)
	return nil
}

func (s *MemStore) childrenOf(parentID *string) []archive.Folder {
	var out []archive.Folder
	for _, f := range s.folders {
		if parentKeyEqual(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
