// Package timeline implements the branching, scrubbable event store behind a
// live staging session. A Timeline value owns a tree of branches, each with
// its own ordered event journal and sparse snapshot list; every mutating
// operation returns a new Timeline value built by copy-on-write over the
// branch map, so older values remain valid reconstruction inputs.
package timeline

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/homestage/internal/platform/errors"
	"github.com/louisbranch/homestage/internal/platform/id"
	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/event"
	"github.com/louisbranch/homestage/internal/scene/projection"
)

// DefaultSnapshotInterval is the number of events between replay snapshots
// when Options does not override it.
const DefaultSnapshotInterval = 50

var (
	// ErrTimelineIDRequired indicates a missing scene id at construction.
	ErrTimelineIDRequired = apperrors.New(apperrors.CodeTimelineIDRequired, "timeline scene id is required")
	// ErrBranchNameEmpty indicates a missing branch name.
	ErrBranchNameEmpty = apperrors.New(apperrors.CodeBranchNameEmpty, "branch name is required")
	// ErrBranchNotFound indicates a branch id the timeline never produced.
	// It is the only hard failure this package surfaces to callers.
	ErrBranchNotFound = apperrors.New(apperrors.CodeBranchNotFound, "branch not found")
)

// ApplyFunc is the external state reducer: pure, total, deterministic.
type ApplyFunc func(scene.State, event.Event) scene.State

// EmptyFunc is the external initial-state factory.
type EmptyFunc func(id string) scene.State

// Options configures a new Timeline. Zero values select the canonical scene
// projector, the default snapshot interval, wall-clock time and generated
// branch ids.
type Options struct {
	// SnapshotInterval bounds replay cost: a full-state snapshot is captured
	// every SnapshotInterval events. Snapshots trade memory for bounded
	// reconstruction time and never affect reconstruction results.
	SnapshotInterval int
	Apply            ApplyFunc
	Empty            EmptyFunc
	Now              func() time.Time
	GenerateID       func() (string, error)
}

func (o Options) normalized() Options {
	if o.SnapshotInterval <= 0 {
		o.SnapshotInterval = DefaultSnapshotInterval
	}
	if o.Apply == nil {
		o.Apply = projection.Apply
	}
	if o.Empty == nil {
		o.Empty = projection.Empty
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.GenerateID == nil {
		o.GenerateID = id.NewID
	}
	return o
}

// Entry is one journaled event with its stamped sequence number. Seq is
// strictly increasing along a branch's lineage, including inherited parent
// events.
type Entry struct {
	Seq        uint64
	RecordedAt time.Time
	Event      event.Event
}

// Marker is a read projection of one journal entry for scrubber UIs.
type Marker struct {
	Index    int
	Seq      uint64
	Category event.Category
}

// Timeline is the whole versioned store: branch tree, active branch pointer
// and cursor. The zero value is not usable; construct with New.
type Timeline struct {
	rootBranchID   string
	activeBranchID string
	// cursor is the scrub position within the active branch's own events;
	// -1 addresses the state before the branch's first own event.
	cursor   int
	branches map[string]Branch
	opts     Options
}

// New creates a timeline with a single root branch holding no events and one
// snapshot at index -1 with the empty state.
func New(sceneID string, options Options) (Timeline, error) {
	sceneID = strings.TrimSpace(sceneID)
	if sceneID == "" {
		return Timeline{}, ErrTimelineIDRequired
	}
	opts := options.normalized()

	root := Branch{
		ID:   sceneID,
		Name: "main",
		Snapshots: []Snapshot{{
			AtIndex: -1,
			State:   opts.Empty(sceneID),
		}},
	}
	return Timeline{
		rootBranchID:   root.ID,
		activeBranchID: root.ID,
		cursor:         -1,
		branches:       map[string]Branch{root.ID: root},
		opts:           opts,
	}, nil
}

// RootBranchID returns the id of the root branch.
func (tl Timeline) RootBranchID() string { return tl.rootBranchID }

// ActiveBranchID returns the id of the branch the cursor scrubs.
func (tl Timeline) ActiveBranchID() string { return tl.activeBranchID }

// Cursor returns the current scrub position within the active branch.
func (tl Timeline) Cursor() int { return tl.cursor }

// ActiveBranchLength returns the active branch's own event count.
func (tl Timeline) ActiveBranchLength() int {
	return len(tl.branches[tl.activeBranchID].Events)
}

// Branch returns the branch with the given id.
func (tl Timeline) Branch(branchID string) (Branch, error) {
	branch, ok := tl.branches[branchID]
	if !ok {
		return Branch{}, ErrBranchNotFound
	}
	return branch, nil
}

// Branches lists every branch, root first, children ordered by name then id.
func (tl Timeline) Branches() []Branch {
	listed := make([]Branch, 0, len(tl.branches))
	for _, branch := range tl.branches {
		listed = append(listed, branch)
	}
	sortBranches(listed, tl.rootBranchID)
	return listed
}

// EventMarkers projects the active branch's own events into scrubber
// markers, classifying each event into its UI category.
func (tl Timeline) EventMarkers() []Marker {
	branch := tl.branches[tl.activeBranchID]
	markers := make([]Marker, 0, len(branch.Events))
	for i, entry := range branch.Events {
		markers = append(markers, Marker{
			Index:    i,
			Seq:      entry.Seq,
			Category: event.Classify(entry.Event),
		})
	}
	return markers
}

// SeekTo sets the cursor, clamping index into [-1, length-1]. It never fails
// and recomputes nothing: scrubber drags past either end simply pin.
func (tl Timeline) SeekTo(index int) Timeline {
	length := len(tl.branches[tl.activeBranchID].Events)
	if index < -1 {
		index = -1
	}
	if index > length-1 {
		index = length - 1
	}
	next := tl
	next.cursor = index
	return next
}

// SwitchBranch activates the branch and resets the cursor to that branch's
// own tail. Branches do not align wall-clock time across each other.
func (tl Timeline) SwitchBranch(branchID string) (Timeline, error) {
	branch, ok := tl.branches[branchID]
	if !ok {
		return tl, ErrBranchNotFound
	}
	next := tl
	next.activeBranchID = branchID
	next.cursor = len(branch.Events) - 1
	return next, nil
}

// AppendEvent appends to the active branch at cursor+1. When the cursor sits
// behind the tail, the discarded future (events and snapshots past the
// cursor) is truncated first: a new edit after scrubbing back invalidates
// redo. The cursor advances to the new tail, and a snapshot is captured
// whenever the event count crosses a multiple of the snapshot interval.
func (tl Timeline) AppendEvent(evt event.Event) Timeline {
	branch := tl.branches[tl.activeBranchID]
	events := branch.Events
	snapshots := branch.Snapshots
	if tl.cursor < len(events)-1 {
		events = events[:tl.cursor+1]
		snapshots = snapshotsUpTo(snapshots, tl.cursor)
	}

	appended := make([]Entry, len(events), len(events)+1)
	copy(appended, events)
	appended = append(appended, Entry{
		Seq:        branch.BaseSeq + uint64(len(appended)) + 1,
		RecordedAt: tl.opts.Now().UTC(),
		Event:      evt,
	})

	branch.Events = appended
	branch.Snapshots = copySnapshots(snapshots)

	next := tl.withBranch(branch)
	next.cursor = len(appended) - 1

	if len(appended)%tl.opts.SnapshotInterval == 0 {
		state := next.reconstructBranch(branch, next.cursor)
		branch.Snapshots = append(branch.Snapshots, Snapshot{
			AtIndex: next.cursor,
			Version: state.Version,
			State:   state,
		})
		next = next.withBranch(branch)
	}
	return next
}

// AppendEvents appends events in order; a fold of AppendEvent.
func (tl Timeline) AppendEvents(events []event.Event) Timeline {
	next := tl
	for _, evt := range events {
		next = next.AppendEvent(evt)
	}
	return next
}

// withBranch returns a timeline whose branch map is copied with the given
// branch replaced. The copy keeps older Timeline values immutable.
func (tl Timeline) withBranch(branch Branch) Timeline {
	branches := make(map[string]Branch, len(tl.branches)+1)
	for key, value := range tl.branches {
		branches[key] = value
	}
	branches[branch.ID] = branch

	next := tl
	next.branches = branches
	return next
}

func snapshotsUpTo(snapshots []Snapshot, index int) []Snapshot {
	kept := snapshots
	for len(kept) > 0 && kept[len(kept)-1].AtIndex > index {
		kept = kept[:len(kept)-1]
	}
	return kept
}

func copySnapshots(snapshots []Snapshot) []Snapshot {
	copied := make([]Snapshot, len(snapshots))
	copy(copied, snapshots)
	return copied
}
