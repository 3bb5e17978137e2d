// Package tree provides an in-memory, read-only view over the flat folder
// and document collections. It is used by the polling client to answer
// path, children and ancestry queries without round-trips, and is rebuilt
// wholesale from each authoritative fetch.
package tree

import (
	"sort"
	"strings"

	"pmnarchive/internal/domain/models/archive"
)

// MaxDepth bounds upward walks over parent pointers. Chains deeper than
// this are treated as corrupted and truncated rather than followed.
const MaxDepth = 50

// PathSeparator joins folder names in breadcrumb paths.
const PathSeparator = " > "

// rootKey indexes root-level children (ParentID == nil).
const rootKey = ""

// Snapshot is an immutable view over folders and documents keyed by id.
type Snapshot struct {
	folders  map[string]archive.Folder
	children map[string][]archive.Folder
	docs     map[string][]archive.Document
}

// NewSnapshot builds a snapshot from flat folder and document lists.
func NewSnapshot(folders []archive.Folder, docs []archive.Document) *Snapshot {
	s := &Snapshot{
		folders:  make(map[string]archive.Folder, len(folders)),
		children: make(map[string][]archive.Folder),
		docs:     make(map[string][]archive.Document),
	}

	for _, f := range folders {
		s.folders[f.ID] = f
		s.children[parentKey(f.ParentID)] = append(s.children[parentKey(f.ParentID)], f)
	}
	for key := range s.children {
		sortSiblings(s.children[key])
	}

	for _, d := range docs {
		s.docs[parentKey(d.FolderID)] = append(s.docs[parentKey(d.FolderID)], d)
	}
	for key := range s.docs {
		docs := s.docs[key]
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	}

	return s
}

// Folder looks up a folder by id.
func (s *Snapshot) Folder(id string) (archive.Folder, bool) {
	f, ok := s.folders[id]
	return f, ok
}

// Len returns the number of folders in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.folders)
}

// PathOf walks parent pointers upward and returns the breadcrumb path,
// e.g. "Grandparent > Parent > Child". The walk stops silently at the
// depth cap or at a dangling reference and returns the partial path
// collected so far; corrupted data must not make reads fail.
func (s *Snapshot) PathOf(folderID string) string {
	names := make([]string, 0, 8)

	current, ok := s.folders[folderID]
	if !ok {
		return ""
	}

	for depth := 0; depth < MaxDepth; depth++ {
		names = append(names, current.Name)
		if current.ParentID == nil {
			break
		}
		parent, ok := s.folders[*current.ParentID]
		if !ok {
			break
		}
		current = parent
	}

	// Reverse into root-first order
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator)
}

// ChildrenOf returns the immediate child folders of the given parent
// (nil = root level), sorted by order then creation time.
func (s *Snapshot) ChildrenOf(parentID *string) []archive.Folder {
	children := s.children[parentKey(parentID)]
	out := make([]archive.Folder, len(children))
	copy(out, children)
	return out
}

// DocumentsOf returns the documents directly inside the given folder
// (nil = root level).
func (s *Snapshot) DocumentsOf(folderID *string) []archive.Document {
	docs := s.docs[parentKey(folderID)]
	out := make([]archive.Document, len(docs))
	copy(out, docs)
	return out
}

// IsDescendant walks upward from nodeID and reports whether
// candidateAncestorID is found before reaching a root or the depth cap.
func (s *Snapshot) IsDescendant(candidateAncestorID, nodeID string) bool {
	current, ok := s.folders[nodeID]
	if !ok {
		return false
	}

	for depth := 0; depth < MaxDepth; depth++ {
		if current.ID == candidateAncestorID {
			return true
		}
		if current.ParentID == nil {
			return false
		}
		parent, ok := s.folders[*current.ParentID]
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

// ParentID implements the guard package's parent lookup over the snapshot.
func (s *Snapshot) ParentID(folderID string) (*string, bool) {
	f, ok := s.folders[folderID]
	if !ok {
		return nil, false
	}
	return f.ParentID, true
}

func parentKey(id *string) string {
	if id == nil {
		return rootKey
	}
	return *id
}

func sortSiblings(folders []archive.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].Order != folders[j].Order {
			return folders[i].Order < folders[j].Order
		}
		return folders[i].CreatedAt.Before(folders[j].CreatedAt)
	})
}
