// Package guard implements the archive's write invariants: ownership
// presence and immutability, acyclic parent chains, and the childless
// deletion precondition.
//
// The same checks run in two places. The polling client calls them against
// its local snapshot for immediate feedback; the services call them against
// authoritative repository data before every write. The client pass is
// UX only; the service pass is the enforcement boundary.
package guard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pmnarchive/internal/config"
	"pmnarchive/internal/domain"
)

// MaxAncestorDepth bounds the upward walk of the cycle check.
const MaxAncestorDepth = 50

// folderNumberPattern matches the human-readable folder identifier, D-NNNN.
var folderNumberPattern = regexp.MustCompile(`^D-\d{4}$`)

// ParentLookup resolves a folder's parent id against some backing state.
// ok is false when the folder does not exist there.
type ParentLookup interface {
	ParentID(ctx context.Context, folderID string) (parentID *string, ok bool, err error)
}

// ParentLookupFunc adapts a function to the ParentLookup interface.
type ParentLookupFunc func(ctx context.Context, folderID string) (*string, bool, error)

// ParentID implements ParentLookup.
func (f ParentLookupFunc) ParentID(ctx context.Context, folderID string) (*string, bool, error) {
	return f(ctx, folderID)
}

// CheckName validates a folder or document display name.
func CheckName(name string) error {
	err := validation.Validate(strings.TrimSpace(name),
		validation.Required.Error("name must not be empty"),
		validation.Length(1, config.MaxFolderNameLength),
	)
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid name: %v", err)}
	}
	return nil
}

// CheckFolderNumber validates the optional D-NNNN folder number.
func CheckFolderNumber(number *string) error {
	if number == nil || *number == "" {
		return nil
	}
	if !folderNumberPattern.MatchString(*number) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("folder number %q does not match pattern D-NNNN", *number),
		}
	}
	return nil
}

// CheckOwnershipPresent rejects any write that would persist a folder
// without an owner. A record with no created_by is unreachable through
// normal writes; this is the backstop that keeps it that way.
func CheckOwnershipPresent(createdBy string) error {
	if strings.TrimSpace(createdBy) == "" {
		return &domain.ValidationError{Message: "created_by is required and must not be empty"}
	}
	return nil
}

// CheckOwnershipUnchanged rejects an update that changes the stored owner.
func CheckOwnershipUnchanged(stored, next string) error {
	if stored != next {
		return &domain.ValidationError{
			Message: "created_by is immutable and cannot be changed",
		}
	}
	return nil
}

// CheckMove validates a reparent of folderID under newParentID
// (nil = root). It rejects self-moves and any move that would place the
// folder under its own descendant, by walking upward from the new parent
// through lookup until a root, the folder itself, or the depth cap.
func CheckMove(ctx context.Context, lookup ParentLookup, folderID string, newParentID *string) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == folderID {
		return &domain.ValidationError{Message: "cannot move a folder into itself"}
	}

	current := *newParentID
	for depth := 0; depth < MaxAncestorDepth; depth++ {
		parent, ok, err := lookup.ParentID(ctx, current)
		if err != nil {
			return err
		}
		if !ok {
			if depth == 0 {
				return &domain.NotFoundError{
					Message: fmt.Sprintf("destination folder %s not found", current),
				}
			}
			// Dangling reference mid-chain: treat as reaching a root.
			return nil
		}
		if parent == nil {
			return nil
		}
		if *parent == folderID {
			return &domain.ValidationError{
				Message: "cannot move a folder into one of its own sub-folders",
			}
		}
		current = *parent
	}

	// Depth cap reached without finding a root. The chain is either
	// corrupt or already cyclic; refuse to extend it.
	return &domain.ValidationError{
		Message: fmt.Sprintf("parent chain exceeds %d levels", MaxAncestorDepth),
	}
}

// CheckDelete enforces the childless deletion precondition.
func CheckDelete(folderName string, childFolders, childDocs int) error {
	if childFolders == 0 && childDocs == 0 {
		return nil
	}
	return &domain.ConflictError{
		Message: fmt.Sprintf("cannot delete folder %q: it contains %d sub-folder(s) and %d document(s)",
			folderName, childFolders, childDocs),
		ResourceType: "folder",
		ChildFolders: childFolders,
		ChildDocs:    childDocs,
	}
}
