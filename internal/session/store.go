// Package session owns a live timeline for a single editing session. The
// timeline itself is a pure value; Store serialises a strict sequence of
// operations onto it (single-writer discipline), and carries the ambient
// concerns the functional core stays free of: logging, tracing and
// operational telemetry.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/diff"
	"github.com/louisbranch/homestage/internal/scene/event"
	"github.com/louisbranch/homestage/internal/scene/merge"
	"github.com/louisbranch/homestage/internal/telemetry"
	"github.com/louisbranch/homestage/internal/timeline"
)

const tracerName = "homestage/session"

// Options configures a session store. Zero values select a discarding
// logger, no telemetry and default timeline options.
type Options struct {
	Logger    *slog.Logger
	Telemetry *telemetry.Emitter
	Timeline  timeline.Options
}

// Store is the single logical owner of a timeline value. All methods are
// safe for concurrent use; operations apply in mutex order.
type Store struct {
	mu      sync.Mutex
	current timeline.Timeline
	pending *merge.Result

	logger  *slog.Logger
	tracer  trace.Tracer
	emitter *telemetry.Emitter
}

// NewStore creates a session store around a fresh timeline for the scene.
func NewStore(sceneID string, options Options) (*Store, error) {
	tl, err := timeline.New(sceneID, options.Timeline)
	if err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		current: tl,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		emitter: options.Telemetry,
	}, nil
}

// Timeline returns the current timeline value. The value is immutable; the
// caller may reconstruct or diff against it freely.
func (s *Store) Timeline() timeline.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Append journals one event on the active branch and returns the new cursor.
func (s *Store) Append(ctx context.Context, evt event.Event) (int, error) {
	ctx, span := s.tracer.Start(ctx, "session.append")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	s.current = s.current.AppendEvent(evt)
	cursor := s.current.Cursor()

	branchID := s.current.ActiveBranchID()
	span.SetAttributes(
		attribute.String("branch_id", branchID),
		attribute.Int("cursor", cursor),
	)
	s.logger.DebugContext(ctx, "event appended",
		"branch_id", branchID,
		"cursor", cursor,
		"category", string(event.Classify(evt)),
	)
	s.emit(ctx, "append", branchID, started, nil)
	return cursor, nil
}

// AppendBatch journals events in order and returns the final cursor.
func (s *Store) AppendBatch(ctx context.Context, events []event.Event) (int, error) {
	ctx, span := s.tracer.Start(ctx, "session.append_batch")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	s.current = s.current.AppendEvents(events)

	branchID := s.current.ActiveBranchID()
	span.SetAttributes(
		attribute.String("branch_id", branchID),
		attribute.Int("event_count", len(events)),
	)
	s.emit(ctx, "append_batch", branchID, started, map[string]any{"event_count": len(events)})
	return s.current.Cursor(), nil
}

// Seek scrubs the active branch cursor and returns the clamped position.
func (s *Store) Seek(ctx context.Context, index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.current.SeekTo(index)
	s.logger.DebugContext(ctx, "cursor moved",
		"branch_id", s.current.ActiveBranchID(),
		"cursor", s.current.Cursor(),
	)
	return s.current.Cursor()
}

// Fork creates a branch at the current cursor and activates it.
func (s *Store) Fork(ctx context.Context, name string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "session.fork")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	next, err := s.current.CreateBranch(name)
	if err != nil {
		s.emit(ctx, "fork", s.current.ActiveBranchID(), started, map[string]any{"error": err.Error()})
		return "", err
	}
	s.current = next

	branchID := s.current.ActiveBranchID()
	span.SetAttributes(attribute.String("branch_id", branchID))
	s.logger.InfoContext(ctx, "branch forked",
		"branch_id", branchID,
		"branch_name", name,
	)
	s.emit(ctx, "fork", branchID, started, nil)
	return branchID, nil
}

// Switch activates another branch; the cursor resets to its tail.
func (s *Store) Switch(ctx context.Context, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.SwitchBranch(branchID)
	if err != nil {
		return err
	}
	s.current = next
	s.logger.InfoContext(ctx, "branch activated",
		"branch_id", branchID,
		"cursor", s.current.Cursor(),
	)
	return nil
}

// Current reconstructs the state at the active branch's cursor.
func (s *Store) Current(ctx context.Context) scene.State {
	ctx, span := s.tracer.Start(ctx, "session.reconstruct")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	state := s.current.ReconstructCurrent()
	s.emit(ctx, "reconstruct", s.current.ActiveBranchID(), started, nil)
	return state
}

// Markers lists scrubber markers for the active branch.
func (s *Store) Markers() []timeline.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.EventMarkers()
}

// Branches lists every branch of the timeline.
func (s *Store) Branches() []timeline.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Branches()
}

// DiffBranches compares the tip states of two branches.
func (s *Store) DiffBranches(ctx context.Context, fromID, toID string) (diff.Diff, error) {
	ctx, span := s.tracer.Start(ctx, "session.diff")
	defer span.End()

	s.mu.Lock()
	tl := s.current
	s.mu.Unlock()

	started := time.Now()
	before, err := tipState(tl, fromID)
	if err != nil {
		return diff.Diff{}, err
	}
	after, err := tipState(tl, toID)
	if err != nil {
		return diff.Diff{}, err
	}
	computed := diff.Compute(before, after)
	s.emit(ctx, "diff", fromID, started, map[string]any{
		"added":    computed.Added,
		"removed":  computed.Removed,
		"moved":    computed.Moved,
		"modified": computed.Modified,
	})
	return computed, nil
}

// MergeBranches three-way merges the tips of two branches against their
// common ancestor. The result is retained as the pending merge so that
// ResolveConflict can settle conflicts one at a time.
func (s *Store) MergeBranches(ctx context.Context, branchA, branchB string) (merge.Result, error) {
	ctx, span := s.tracer.Start(ctx, "session.merge")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	ancestorBranch, ancestorIndex, err := s.current.CommonAncestor(branchA, branchB)
	if err != nil {
		return merge.Result{}, err
	}
	base, err := s.current.ReconstructAt(ancestorBranch, ancestorIndex)
	if err != nil {
		return merge.Result{}, err
	}
	tipA, err := tipState(s.current, branchA)
	if err != nil {
		return merge.Result{}, err
	}
	tipB, err := tipState(s.current, branchB)
	if err != nil {
		return merge.Result{}, err
	}

	result := merge.ThreeWay(base, tipA, tipB)
	s.pending = &result

	span.SetAttributes(
		attribute.Int("conflicts", len(result.Conflicts)),
		attribute.Int("auto_merged", len(result.AutoMerged)),
	)
	s.logger.InfoContext(ctx, "branches merged",
		"branch_a", branchA,
		"branch_b", branchB,
		"conflicts", len(result.Conflicts),
		"auto_merged", len(result.AutoMerged),
	)
	s.emit(ctx, "merge", branchA, started, map[string]any{
		"conflicts":   len(result.Conflicts),
		"auto_merged": len(result.AutoMerged),
	})
	return result, nil
}

// ResolveConflict settles one conflict of the pending merge. Resolving an
// unknown item id is a no-op, matching the merge engine.
func (s *Store) ResolveConflict(ctx context.Context, itemID string, resolution merge.Resolution) (merge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return merge.Result{}, nil
	}
	resolved, err := merge.Resolve(*s.pending, itemID, resolution)
	if err != nil {
		return *s.pending, err
	}
	s.pending = &resolved
	s.logger.InfoContext(ctx, "conflict resolved",
		"item_id", itemID,
		"resolution", string(resolution),
		"remaining", len(resolved.Conflicts),
	)
	return resolved, nil
}

// PendingMerge returns the retained merge result, if any.
func (s *Store) PendingMerge() (merge.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return merge.Result{}, false
	}
	return *s.pending, true
}

func (s *Store) emit(ctx context.Context, operation, branchID string, started time.Time, attrs map[string]any) {
	err := s.emitter.Emit(ctx, telemetry.Event{
		Operation:  operation,
		BranchID:   branchID,
		Duration:   time.Since(started),
		Attributes: attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "telemetry emit failed", "operation", operation, "error", err)
	}
}

func tipState(tl timeline.Timeline, branchID string) (scene.State, error) {
	branch, err := tl.Branch(branchID)
	if err != nil {
		return scene.State{}, err
	}
	return tl.ReconstructAt(branchID, len(branch.Events)-1)
}
