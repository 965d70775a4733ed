package timeline

import (
	"sort"

	"github.com/louisbranch/homestage/internal/scene"
)

// ReconstructAt rebuilds the state of a branch at an event index: a binary
// search finds the latest snapshot at or before the index, then the events
// after it replay through the reducer. Indexes outside [-1, length-1] clamp,
// matching SeekTo. The result is a pure function of the timeline value, so
// repeated calls return structurally identical states.
func (tl Timeline) ReconstructAt(branchID string, index int) (scene.State, error) {
	branch, ok := tl.branches[branchID]
	if !ok {
		return scene.State{}, ErrBranchNotFound
	}
	return tl.reconstructBranch(branch, index), nil
}

// ReconstructCurrent rebuilds the state at the active branch's cursor.
func (tl Timeline) ReconstructCurrent() scene.State {
	return tl.reconstructBranch(tl.branches[tl.activeBranchID], tl.cursor)
}

// reconstructBranch resolves the replay base, then folds events forward.
//
// Every branch carries a snapshot at index -1, so the local snapshot list
// normally covers any target and the parent chain is left alone. The parent
// fallback only runs for a branch missing a covering snapshot, which keeps
// reconstruction from re-deriving ancestor state it already cached at fork
// time.
func (tl Timeline) reconstructBranch(branch Branch, index int) scene.State {
	if index < -1 {
		index = -1
	}
	if index > len(branch.Events)-1 {
		index = len(branch.Events) - 1
	}

	var state scene.State
	start := 0
	if snap, ok := nearestSnapshot(branch.Snapshots, index); ok {
		state = snap.State.Clone()
		start = snap.AtIndex + 1
	} else if branch.ParentID != "" {
		parent := tl.branches[branch.ParentID]
		state = tl.reconstructBranch(parent, branch.ForkIndex-1)
	} else {
		state = tl.opts.Empty(tl.rootBranchID)
	}

	for i := start; i <= index; i++ {
		state = tl.opts.Apply(state, branch.Events[i].Event)
	}
	return state
}

// nearestSnapshot returns the snapshot with the greatest AtIndex <= index.
// Snapshots are ordered ascending by AtIndex.
func nearestSnapshot(snapshots []Snapshot, index int) (Snapshot, bool) {
	firstAfter := sort.Search(len(snapshots), func(i int) bool {
		return snapshots[i].AtIndex > index
	})
	if firstAfter == 0 {
		return Snapshot{}, false
	}
	return snapshots[firstAfter-1], true
}
