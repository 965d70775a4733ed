package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/diff"
	"github.com/louisbranch/homestage/internal/scene/event"
	"github.com/louisbranch/homestage/internal/scene/merge"
	"github.com/louisbranch/homestage/internal/telemetry"
	"github.com/louisbranch/homestage/internal/timeline"
)

func newTestStore(t *testing.T) (*Store, *telemetry.Memory) {
	t.Helper()
	memory := telemetry.NewMemory()
	ids := 0
	store, err := NewStore("loft", Options{
		Telemetry: telemetry.NewEmitter(memory),
		Timeline: timeline.Options{
			Now: func() time.Time {
				return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
			},
			GenerateID: func() (string, error) {
				ids++
				return map[int]string{1: "branch-a", 2: "branch-b"}[ids], nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, memory
}

func placeEvent(itemID string, position scene.Vec3) event.Event {
	return event.ItemPlaced{Item: scene.Item{
		ID:            itemID,
		FurnitureType: "sofa",
		Position:      position,
		Scale:         scene.Vec3{1, 1, 1},
	}}
}

func TestStoreAppendAndReconstruct(t *testing.T) {
	store, memory := newTestStore(t)
	ctx := context.Background()

	cursor, err := store.Append(ctx, placeEvent("sofa", scene.Vec3{1, 0, 2}))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if cursor != 0 {
		t.Fatalf("cursor = %d, want 0", cursor)
	}

	state := store.Current(ctx)
	if state.Items["sofa"].Position != (scene.Vec3{1, 0, 2}) {
		t.Fatalf("position = %v, want placed position", state.Items["sofa"].Position)
	}

	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("telemetry events = %d, want append and reconstruct", len(events))
	}
	if events[0].Operation != "append" || events[0].BranchID != "loft" {
		t.Fatalf("events[0] = %+v, want append on loft", events[0])
	}
	if events[1].Operation != "reconstruct" {
		t.Fatalf("events[1].Operation = %q, want reconstruct", events[1].Operation)
	}
}

func TestStoreAppendBatch(t *testing.T) {
	store, memory := newTestStore(t)
	ctx := context.Background()

	cursor, err := store.AppendBatch(ctx, []event.Event{
		placeEvent("sofa", scene.Vec3{}),
		placeEvent("lamp", scene.Vec3{2, 0, 0}),
	})
	if err != nil {
		t.Fatalf("append batch: %v", err)
	}
	if cursor != 1 {
		t.Fatalf("cursor = %d, want 1", cursor)
	}

	events := memory.Events()
	if len(events) != 1 || events[0].Operation != "append_batch" {
		t.Fatalf("telemetry = %+v, want single append_batch", events)
	}
	if got := events[0].Attributes["event_count"]; got != 2 {
		t.Fatalf("event_count = %v, want 2", got)
	}
}

func TestStoreSeekThenAppendDropsRedo(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendBatch(ctx, []event.Event{
		placeEvent("sofa", scene.Vec3{}),
		placeEvent("lamp", scene.Vec3{}),
		placeEvent("rug", scene.Vec3{}),
	}); err != nil {
		t.Fatalf("append batch: %v", err)
	}

	if got := store.Seek(ctx, 0); got != 0 {
		t.Fatalf("seek = %d, want 0", got)
	}
	if _, err := store.Append(ctx, placeEvent("plant", scene.Vec3{})); err != nil {
		t.Fatalf("append: %v", err)
	}

	state := store.Current(ctx)
	if len(state.Items) != 2 {
		t.Fatalf("items = %d, want sofa and plant only", len(state.Items))
	}
	if _, ok := state.Items["lamp"]; ok {
		t.Fatal("truncated event still visible")
	}
}

func TestStoreForkAndSwitch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, placeEvent("sofa", scene.Vec3{})); err != nil {
		t.Fatalf("append: %v", err)
	}

	branchID, err := store.Fork(ctx, "cozy variant")
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if branchID != "branch-a" {
		t.Fatalf("branch id = %q, want branch-a", branchID)
	}
	if got := store.Timeline().ActiveBranchID(); got != branchID {
		t.Fatalf("active = %q, want forked branch", got)
	}

	if err := store.Switch(ctx, "loft"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := store.Switch(ctx, "ghost"); !errors.Is(err, timeline.ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}
}

func TestStoreForkEmptyName(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Fork(context.Background(), " "); !errors.Is(err, timeline.ErrBranchNameEmpty) {
		t.Fatalf("err = %v, want ErrBranchNameEmpty", err)
	}
}

func TestStoreDiffBranches(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, placeEvent("sofa", scene.Vec3{})); err != nil {
		t.Fatalf("append: %v", err)
	}
	branchID, err := store.Fork(ctx, "variant")
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if _, err := store.Append(ctx, event.ItemMoved{ItemID: "sofa", Position: scene.Vec3{3, 0, 0}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	computed, err := store.DiffBranches(ctx, "loft", branchID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if computed.Moved != 1 {
		t.Fatalf("moved = %d, want 1", computed.Moved)
	}
	entries := computed.ByStatus(diff.StatusMoved)
	if len(entries) != 1 || entries[0].ItemID != "sofa" {
		t.Fatalf("moved entries = %+v, want sofa", entries)
	}

	if _, err := store.DiffBranches(ctx, "loft", "ghost"); !errors.Is(err, timeline.ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}
}

func TestStoreMergeAndResolve(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, placeEvent("sofa", scene.Vec3{})); err != nil {
		t.Fatalf("append: %v", err)
	}
	branchID, err := store.Fork(ctx, "variant")
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if _, err := store.Append(ctx, event.ItemMoved{ItemID: "sofa", Position: scene.Vec3{3, 0, 0}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Switch(ctx, "loft"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if _, err := store.Append(ctx, event.ItemRemoved{ItemID: "sofa"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	result, err := store.MergeBranches(ctx, "loft", branchID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Kind != merge.KindMoveRemove {
		t.Fatalf("conflicts = %+v, want one move-remove", result.Conflicts)
	}
	if _, ok := store.PendingMerge(); !ok {
		t.Fatal("merge result not retained as pending")
	}

	resolved, err := store.ResolveConflict(ctx, "sofa", merge.ResolutionUseB)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.Conflicts) != 0 {
		t.Fatalf("conflicts = %d, want 0", len(resolved.Conflicts))
	}
	if resolved.Merged.Items["sofa"].Position != (scene.Vec3{3, 0, 0}) {
		t.Fatalf("position = %v, want B's move", resolved.Merged.Items["sofa"].Position)
	}

	pending, ok := store.PendingMerge()
	if !ok || len(pending.Conflicts) != 0 {
		t.Fatalf("pending = %+v, want resolved result retained", pending)
	}
}

func TestStoreResolveWithoutPendingMerge(t *testing.T) {
	store, _ := newTestStore(t)

	result, err := store.ResolveConflict(context.Background(), "sofa", merge.ResolutionUseA)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(result.Conflicts) != 0 || result.Merged.Items != nil {
		t.Fatalf("result = %+v, want zero value", result)
	}
}

func TestStoreMergeUnknownBranch(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.MergeBranches(context.Background(), "loft", "ghost"); !errors.Is(err, timeline.ErrBranchNotFound) {
		t.Fatalf("err = %v, want ErrBranchNotFound", err)
	}
}
