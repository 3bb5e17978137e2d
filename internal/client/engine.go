package client

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pmnarchive/internal/archive/guard"
	"pmnarchive/internal/archive/tree"
	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/httputil"
)

// MutationState tracks an optimistic mutation's lifecycle
type MutationState string

const (
	// MutationPending means the change is applied locally and in flight
	MutationPending MutationState = "pending"
	// MutationConfirmed means the server accepted the change
	MutationConfirmed MutationState = "confirmed"
	// MutationFailed means the server rejected the change and the local
	// state was rolled back
	MutationFailed MutationState = "failed"
)

// MutationKind names the operation a mutation performs
type MutationKind string

const (
	MutationCreateFolder MutationKind = "create_folder"
	MutationRename       MutationKind = "rename"
	MutationMove         MutationKind = "move"
	MutationReorder      MutationKind = "reorder"
	MutationDelete       MutationKind = "delete"
)

// Mutation records one optimistic change and its outcome
type Mutation struct {
	ID        string
	Kind      MutationKind
	FolderID  string
	State     MutationState
	Err       error
	StartedAt time.Time
}

// Engine keeps a local copy of the archive, applies mutations
// optimistically before the server answers, and rolls them back on
// rejection. A poll refresh replaces the local copy wholesale; the server
// is always the authority and local divergence never outlives the next
// successful fetch.
type Engine struct {
	store  Store
	logger *slog.Logger

	mu        sync.Mutex
	folders   map[string]archive.Folder
	docs      map[string]archive.Document
	expanded  map[string]bool
	mutations map[string]*Mutation
}

// NewEngine creates an engine backed by the given store
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		logger:    logger,
		folders:   map[string]archive.Folder{},
		docs:      map[string]archive.Document{},
		expanded:  map[string]bool{},
		mutations: map[string]*Mutation{},
	}
}

// Refresh fetches the archive and replaces the local copy
func (e *Engine) Refresh(ctx context.Context) error {
	folders, docs, err := e.store.FetchArchive(ctx)
	if err != nil {
		return err
	}
	e.ApplyArchive(folders, docs)
	return nil
}

// ApplyArchive replaces the local copy with an authoritative fetch.
// Settled mutations are dropped; expand state for folders that no longer
// exist is pruned. Expand state is keyed by folder id, so renames and
// moves do not disturb it.
func (e *Engine) ApplyArchive(folders []archive.Folder, docs []archive.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.folders = make(map[string]archive.Folder, len(folders))
	for _, f := range folders {
		e.folders[f.ID] = f
	}
	e.docs = make(map[string]archive.Document, len(docs))
	for _, d := range docs {
		e.docs[d.ID] = d
	}

	for id := range e.expanded {
		if _, ok := e.folders[id]; !ok {
			delete(e.expanded, id)
		}
	}
	for id, m := range e.mutations {
		if m.State != MutationPending {
			delete(e.mutations, id)
		}
	}
}

// Snapshot returns an immutable view of the current local state
func (e *Engine) Snapshot() *tree.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *tree.Snapshot {
	folders := make([]archive.Folder, 0, len(e.folders))
	for _, f := range e.folders {
		folders = append(folders, f)
	}
	docs := make([]archive.Document, 0, len(e.docs))
	for _, d := range e.docs {
		docs = append(docs, d)
	}
	return tree.NewSnapshot(folders, docs)
}

// CreateFolder creates a folder through the store and adds the stored
// record to the local copy. Creation is not optimistic: the server
// assigns the id and folder number.
func (e *Engine) CreateFolder(ctx context.Context, req *archiveSvc.CreateFolderRequest) (*archive.Folder, error) {
	if err := guard.CheckName(req.Name); err != nil {
		return nil, err
	}

	m := e.beginMutation(MutationCreateFolder, "")

	folder, err := e.store.CreateFolder(ctx, req)
	if err != nil {
		e.settleMutation(m, err)
		return nil, err
	}

	e.mu.Lock()
	e.folders[folder.ID] = *folder
	m.FolderID = folder.ID
	e.mu.Unlock()
	e.settleMutation(m, nil)

	return folder, nil
}

// Rename renames a folder optimistically
func (e *Engine) Rename(ctx context.Context, folderID, name string) error {
	if err := guard.CheckName(name); err != nil {
		return err
	}

	e.mu.Lock()
	prev, ok := e.folders[folderID]
	if !ok {
		e.mu.Unlock()
		return &domain.NotFoundError{Message: "folder not found"}
	}
	next := prev
	next.Name = name
	e.folders[folderID] = next
	e.mu.Unlock()

	m := e.beginMutation(MutationRename, folderID)

	_, err := e.store.UpdateFolder(ctx, folderID, &archiveSvc.UpdateFolderRequest{Name: &name})
	if err != nil {
		e.restoreFolder(prev)
		e.resyncAfterRejection(ctx, err)
		e.settleMutation(m, err)
		return err
	}
	e.settleMutation(m, nil)
	return nil
}

// Move reparents a folder optimistically (nil = to root). The local
// guard pass gives immediate feedback; the server re-validates against
// authoritative data.
func (e *Engine) Move(ctx context.Context, folderID string, newParentID *string) error {
	e.mu.Lock()
	prev, ok := e.folders[folderID]
	if !ok {
		e.mu.Unlock()
		return &domain.NotFoundError{Message: "folder not found"}
	}

	snap := e.snapshotLocked()
	err := guard.CheckMove(ctx, guard.ParentLookupFunc(
		func(_ context.Context, id string) (*string, bool, error) {
			parentID, ok := snap.ParentID(id)
			return parentID, ok, nil
		}), folderID, newParentID)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	next := prev
	next.ParentID = newParentID
	next.Order = len(snap.ChildrenOf(newParentID))
	e.folders[folderID] = next
	e.mu.Unlock()

	m := e.beginMutation(MutationMove, folderID)

	stored, err := e.store.UpdateFolder(ctx, folderID, &archiveSvc.UpdateFolderRequest{
		ParentID: httputil.OptionalString{Present: true, Value: newParentID},
	})
	if err != nil {
		e.restoreFolder(prev)
		e.resyncAfterRejection(ctx, err)
		e.settleMutation(m, err)
		return err
	}

	e.mu.Lock()
	e.folders[folderID] = *stored
	e.mu.Unlock()
	e.settleMutation(m, nil)
	return nil
}

// Reorder applies a new sibling order optimistically. orderedIDs must be
// a permutation of the parent's current children; folders under other
// parents keep their positions.
func (e *Engine) Reorder(ctx context.Context, parentID *string, orderedIDs []string) error {
	e.mu.Lock()
	snap := e.snapshotLocked()
	siblings := snap.ChildrenOf(parentID)
	if err := checkPermutation(siblings, orderedIDs); err != nil {
		e.mu.Unlock()
		return err
	}

	prev := make([]archive.Folder, len(siblings))
	copy(prev, siblings)
	for i, id := range orderedIDs {
		f := e.folders[id]
		f.Order = i
		e.folders[id] = f
	}
	e.mu.Unlock()

	m := e.beginMutation(MutationReorder, "")

	if err := e.store.ReorderFolders(ctx, parentID, orderedIDs); err != nil {
		e.mu.Lock()
		for _, f := range prev {
			if _, ok := e.folders[f.ID]; ok {
				e.folders[f.ID] = f
			}
		}
		e.mu.Unlock()
		e.resyncAfterRejection(ctx, err)
		e.settleMutation(m, err)
		return err
	}
	e.settleMutation(m, nil)
	return nil
}

// Delete removes a folder optimistically. The local guard rejects
// deletion while children are visible in the snapshot.
func (e *Engine) Delete(ctx context.Context, folderID string) error {
	e.mu.Lock()
	prev, ok := e.folders[folderID]
	if !ok {
		e.mu.Unlock()
		return nil
	}

	snap := e.snapshotLocked()
	id := folderID
	childFolders := len(snap.ChildrenOf(&id))
	childDocs := len(snap.DocumentsOf(&id))
	if err := guard.CheckDelete(prev.Name, childFolders, childDocs); err != nil {
		e.mu.Unlock()
		return err
	}

	delete(e.folders, folderID)
	e.mu.Unlock()

	m := e.beginMutation(MutationDelete, folderID)

	if err := e.store.DeleteFolder(ctx, folderID); err != nil {
		e.restoreFolder(prev)
		e.resyncAfterRejection(ctx, err)
		e.settleMutation(m, err)
		return err
	}

	e.mu.Lock()
	delete(e.expanded, folderID)
	e.mu.Unlock()
	e.settleMutation(m, nil)
	return nil
}

// DropOnto resolves a drag-and-drop: dropping a folder onto one of its
// current siblings reorders it into the slot before that sibling;
// dropping it anywhere else moves it inside the target.
func (e *Engine) DropOnto(ctx context.Context, draggedID, targetID string) error {
	if draggedID == targetID {
		return nil
	}

	e.mu.Lock()
	dragged, ok := e.folders[draggedID]
	if !ok {
		e.mu.Unlock()
		return &domain.NotFoundError{Message: "dragged folder not found"}
	}
	target, ok := e.folders[targetID]
	if !ok {
		e.mu.Unlock()
		return &domain.NotFoundError{Message: "drop target not found"}
	}

	sibling := parentKeyEqual(dragged.ParentID, target.ParentID)
	var orderedIDs []string
	if sibling {
		snap := e.snapshotLocked()
		for _, f := range snap.ChildrenOf(dragged.ParentID) {
			if f.ID == draggedID {
				continue
			}
			if f.ID == targetID {
				orderedIDs = append(orderedIDs, draggedID)
			}
			orderedIDs = append(orderedIDs, f.ID)
		}
	}
	parentID := dragged.ParentID
	e.mu.Unlock()

	if sibling {
		return e.Reorder(ctx, parentID, orderedIDs)
	}
	return e.Move(ctx, draggedID, &targetID)
}

// ToggleExpanded flips a folder's expand state and returns the new value
func (e *Engine) ToggleExpanded(folderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded[folderID] = !e.expanded[folderID]
	return e.expanded[folderID]
}

// IsExpanded reports a folder's expand state
func (e *Engine) IsExpanded(folderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[folderID]
}

// ExpandedFolderIDs returns the expanded folder ids, sorted for stable
// persistence
func (e *Engine) ExpandedFolderIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.expanded))
	for id, open := range e.expanded {
		if open {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetExpandedFolderIDs restores persisted expand state
func (e *Engine) SetExpandedFolderIDs(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded = make(map[string]bool, len(ids))
	for _, id := range ids {
		e.expanded[id] = true
	}
}

// Mutations returns all tracked mutations, oldest first
func (e *Engine) Mutations() []Mutation {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Mutation, 0, len(e.mutations))
	for _, m := range e.mutations {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (e *Engine) beginMutation(kind MutationKind, folderID string) *Mutation {
	m := &Mutation{
		ID:        uuid.NewString(),
		Kind:      kind,
		FolderID:  folderID,
		State:     MutationPending,
		StartedAt: time.Now(),
	}
	e.mu.Lock()
	e.mutations[m.ID] = m
	e.mu.Unlock()
	return m
}

func (e *Engine) settleMutation(m *Mutation, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		m.State = MutationFailed
		m.Err = err
		e.logger.Warn("mutation rejected, rolled back",
			"kind", m.Kind,
			"folder_id", m.FolderID,
			"error", err,
		)
		return
	}
	m.State = MutationConfirmed
}

// restoreFolder puts a folder's previous value back after a rejected
// mutation. If a refresh replaced the whole copy in the meantime the
// refreshed value wins.
func (e *Engine) restoreFolder(prev archive.Folder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.folders[prev.ID] = prev
}

// resyncAfterRejection re-fetches the archive after the server rejects an
// optimistic mutation. The rollback already undid the local change; the
// fetch reconciles whatever divergence the rejection implies, such as a
// folder another session deleted. Transient failures skip the fetch, which
// would fail the same way.
func (e *Engine) resyncAfterRejection(ctx context.Context, rejection error) {
	if errors.Is(rejection, domain.ErrTransient) || ctx.Err() != nil {
		return
	}
	if err := e.Refresh(ctx); err != nil {
		e.logger.Warn("resync after rejected mutation failed", "error", err)
	}
}

func checkPermutation(siblings []archive.Folder, orderedIDs []string) error {
	if len(orderedIDs) != len(siblings) {
		return &domain.ValidationError{Message: "ordered ids must list every child of the parent exactly once"}
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return &domain.ValidationError{Message: "ordered ids contain a duplicate"}
		}
		seen[id] = true
	}
	for _, f := range siblings {
		if !seen[f.ID] {
			return &domain.ValidationError{Message: "ordered ids must list every child of the parent exactly once"}
		}
	}
	return nil
}

func parentKeyEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
