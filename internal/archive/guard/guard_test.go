package guard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pmnarchive/internal/domain"
)

// mapLookup backs CheckMove tests with a parent map keyed by folder id
func mapLookup(parents map[string]*string) ParentLookup {
	return ParentLookupFunc(func(_ context.Context, id string) (*string, bool, error) {
		p, ok := parents[id]
		return p, ok, nil
	})
}

func ptr(s string) *string { return &s }

func TestCheckMove(t *testing.T) {
	// a → b → c chain, d is a root sibling
	parents := map[string]*string{
		"a": nil,
		"b": ptr("a"),
		"c": ptr("b"),
		"d": nil,
	}

	tests := []struct {
		name        string
		folderID    string
		newParentID *string
		wantErr     error
	}{
		{
			name:        "move to root always allowed",
			folderID:    "c",
			newParentID: nil,
		},
		{
			name:        "move under unrelated folder",
			folderID:    "b",
			newParentID: ptr("d"),
		},
		{
			name:        "move under own child rejected",
			folderID:    "a",
			newParentID: ptr("b"),
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "move under own grandchild rejected",
			folderID:    "a",
			newParentID: ptr("c"),
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "move into itself rejected",
			folderID:    "a",
			newParentID: ptr("a"),
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "missing destination rejected",
			folderID:    "a",
			newParentID: ptr("nope"),
			wantErr:     domain.ErrNotFound,
		},
		{
			name:        "move up the chain allowed",
			folderID:    "c",
			newParentID: ptr("a"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMove(context.Background(), mapLookup(parents), tt.folderID, tt.newParentID)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckMove() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckMove() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckMoveDanglingMidChain(t *testing.T) {
	// b's parent points at a folder the lookup no longer knows
	parents := map[string]*string{
		"b": ptr("ghost"),
	}

	if err := CheckMove(context.Background(), mapLookup(parents), "a", ptr("b")); err != nil {
		t.Errorf("CheckMove() with dangling mid-chain parent should pass, got %v", err)
	}
}

func TestCheckMoveDepthCap(t *testing.T) {
	// Build a chain longer than the cap
	parents := map[string]*string{"f0": nil}
	for i := 1; i <= MaxAncestorDepth+5; i++ {
		parents[fmt.Sprintf("f%d", i)] = ptr(fmt.Sprintf("f%d", i-1))
	}

	deepest := fmt.Sprintf("f%d", MaxAncestorDepth+5)
	err := CheckMove(context.Background(), mapLookup(parents), "x", ptr(deepest))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CheckMove() past depth cap should fail validation, got %v", err)
	}
}

func TestCheckMoveCyclicChainTerminates(t *testing.T) {
	// Pre-existing cycle in the data must not hang the walk
	parents := map[string]*string{
		"a": ptr("b"),
		"b": ptr("a"),
	}

	err := CheckMove(context.Background(), mapLookup(parents), "x", ptr("a"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CheckMove() over cyclic chain should fail validation, got %v", err)
	}
}

func TestCheckFolderNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  *string
		wantErr bool
	}{
		{name: "nil allowed", number: nil},
		{name: "empty allowed", number: ptr("")},
		{name: "well formed", number: ptr("D-0042")},
		{name: "too few digits", number: ptr("D-042"), wantErr: true},
		{name: "too many digits", number: ptr("D-00042"), wantErr: true},
		{name: "wrong prefix", number: ptr("F-0042"), wantErr: true},
		{name: "lowercase prefix", number: ptr("d-0042"), wantErr: true},
		{name: "trailing junk", number: ptr("D-0042x"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFolderNumber(tt.number)
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CheckFolderNumber() error = %v, want validation error", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckFolderNumber() unexpected error: %v", err)
			}
		})
	}
}

func TestCheckOwnership(t *testing.T) {
	if err := CheckOwnershipPresent(""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CheckOwnershipPresent(\"\") error = %v, want validation error", err)
	}
	if err := CheckOwnershipPresent("   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CheckOwnershipPresent(blank) error = %v, want validation error", err)
	}
	if err := CheckOwnershipPresent("user-1"); err != nil {
		t.Errorf("CheckOwnershipPresent() unexpected error: %v", err)
	}

	if err := CheckOwnershipUnchanged("user-1", "user-2"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("CheckOwnershipUnchanged() error = %v, want validation error", err)
	}
	if err := CheckOwnershipUnchanged("user-1", "user-1"); err != nil {
		t.Errorf("CheckOwnershipUnchanged() unexpected error: %v", err)
	}
}

func TestCheckDelete(t *testing.T) {
	tests := []struct {
		name         string
		childFolders int
		childDocs    int
		wantErr      bool
	}{
		{name: "empty folder deletable", childFolders: 0, childDocs: 0},
		{name: "child folders block", childFolders: 2, childDocs: 0, wantErr: true},
		{name: "documents block", childFolders: 0, childDocs: 3, wantErr: true},
		{name: "both block", childFolders: 1, childDocs: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDelete("Reports", tt.childFolders, tt.childDocs)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("CheckDelete() unexpected error: %v", err)
				}
				return
			}

			var conflictErr *domain.ConflictError
			if !errors.As(err, &conflictErr) {
				t.Fatalf("CheckDelete() error = %v, want ConflictError", err)
			}
			if conflictErr.ChildFolders != tt.childFolders || conflictErr.ChildDocs != tt.childDocs {
				t.Errorf("CheckDelete() counts = %d/%d, want %d/%d",
					conflictErr.ChildFolders, conflictErr.ChildDocs, tt.childFolders, tt.childDocs)
			}
		})
	}
}
