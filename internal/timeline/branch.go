package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/homestage/internal/scene"
)

// Branch is one line of history. A non-root branch shares its parent's
// events up to ForkIndex, then diverges with its own journal. ForkIndex and
// BaseSeq are fixed at creation and never change.
type Branch struct {
	ID   string
	Name string
	// ParentID is empty for the root branch. Parents are referenced by id,
	// never by pointer, so branch trees stay acyclic and cheap to copy.
	ParentID string
	// ForkIndex is the index into the parent's events where this branch
	// diverges: the branch inherits parent events [0, ForkIndex).
	ForkIndex int
	// BaseSeq is the sequence number of the lineage event at the fork point;
	// own events continue the lineage at BaseSeq+1.
	BaseSeq   uint64
	Events    []Entry
	Snapshots []Snapshot
}

// Snapshot caches the full reconstructed state after the event at AtIndex.
// AtIndex -1 means "before this branch's first own event". Snapshots within
// a branch are ordered ascending by AtIndex, and every branch holds at least
// the one at -1.
type Snapshot struct {
	AtIndex int
	Version uint64
	State   scene.State
}

// CreateBranch forks the active branch at the current cursor: the new branch
// diverges at ForkIndex = cursor+1, starts with zero own events and a cursor
// of -1, and eagerly caches a snapshot at -1 holding the reconstructed
// fork-point state. The new branch becomes active.
func (tl Timeline) CreateBranch(name string) (Timeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tl, ErrBranchNameEmpty
	}

	branchID, err := tl.opts.GenerateID()
	if err != nil {
		return tl, fmt.Errorf("generate branch id: %w", err)
	}

	parent := tl.branches[tl.activeBranchID]
	forkIndex := tl.cursor + 1
	forkState := tl.reconstructBranch(parent, tl.cursor)

	child := Branch{
		ID:        branchID,
		Name:      name,
		ParentID:  parent.ID,
		ForkIndex: forkIndex,
		BaseSeq:   parent.BaseSeq + uint64(forkIndex),
		Snapshots: []Snapshot{{
			AtIndex: -1,
			Version: forkState.Version,
			State:   forkState,
		}},
	}

	next := tl.withBranch(child)
	next.activeBranchID = child.ID
	next.cursor = -1
	return next, nil
}

// CommonAncestor finds the nearest shared point in the histories of two
// branches: the branch holding it and the event index within that branch.
// This is the merge base for a three-way merge of the two branch tips.
func (tl Timeline) CommonAncestor(branchA, branchB string) (string, int, error) {
	first, ok := tl.branches[branchA]
	if !ok {
		return "", 0, ErrBranchNotFound
	}
	second, ok := tl.branches[branchB]
	if !ok {
		return "", 0, ErrBranchNotFound
	}

	// Walk the first branch's ancestor chain, recording the deepest index of
	// each ancestor that is part of the shared history.
	limits := make(map[string]int)
	for current, limit := first, len(first.Events)-1; ; {
		limits[current.ID] = limit
		if current.ParentID == "" {
			break
		}
		limit = current.ForkIndex - 1
		current = tl.branches[current.ParentID]
	}

	for current, limit := second, len(second.Events)-1; ; {
		if firstLimit, shared := limits[current.ID]; shared {
			index := firstLimit
			if limit < index {
				index = limit
			}
			return current.ID, index, nil
		}
		if current.ParentID == "" {
			break
		}
		limit = current.ForkIndex - 1
		current = tl.branches[current.ParentID]
	}

	// Unreachable while exactly one root branch exists.
	return "", 0, ErrBranchNotFound
}

func sortBranches(branches []Branch, rootID string) {
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].ID == rootID {
			return true
		}
		if branches[j].ID == rootID {
			return false
		}
		if branches[i].Name != branches[j].Name {
			return branches[i].Name < branches[j].Name
		}
		return branches[i].ID < branches[j].ID
	})
}
