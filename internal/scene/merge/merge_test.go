package merge

import (
	"testing"

	"github.com/louisbranch/homestage/internal/scene"
)

func baseScene(items ...scene.Item) scene.State {
	state := scene.Empty("loft")
	for _, item := range items {
		if item.Scale == (scene.Vec3{}) {
			item.Scale = scene.Vec3{1, 1, 1}
		}
		state.Items[item.ID] = item
	}
	return state
}

func withMove(state scene.State, itemID string, position scene.Vec3) scene.State {
	next := state.Clone()
	item := next.Items[itemID]
	item.Position = position
	next.Items[itemID] = item
	next.Version++
	return next
}

func withRemove(state scene.State, itemID string) scene.State {
	next := state.Clone()
	delete(next.Items, itemID)
	next.Version++
	return next
}

func withAdd(state scene.State, item scene.Item) scene.State {
	next := state.Clone()
	if item.Scale == (scene.Vec3{}) {
		item.Scale = scene.Vec3{1, 1, 1}
	}
	next.Items[item.ID] = item
	next.Version++
	return next
}

func TestThreeWayDisjointChangesMergeCleanly(t *testing.T) {
	base := baseScene(
		scene.Item{ID: "sofa", FurnitureType: "sofa"},
		scene.Item{ID: "table", FurnitureType: "table"},
	)
	branchA := withMove(base, "sofa", scene.Vec3{2, 0, 0})
	branchB := withAdd(withRemove(base, "table"), scene.Item{ID: "rug", FurnitureType: "rug"})

	result := ThreeWay(base, branchA, branchB)
	if len(result.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none for disjoint changes", result.Conflicts)
	}
	if result.Merged.Items["sofa"].Position != (scene.Vec3{2, 0, 0}) {
		t.Fatalf("sofa position = %v, want A's move", result.Merged.Items["sofa"].Position)
	}
	if _, ok := result.Merged.Items["table"]; ok {
		t.Fatal("expected table removed by B")
	}
	if _, ok := result.Merged.Items["rug"]; !ok {
		t.Fatal("expected rug added by B")
	}
}

func TestThreeWayConcurrentMovesCommute(t *testing.T) {
	base := baseScene(scene.Item{ID: "sofa", FurnitureType: "sofa"})
	branchA := withMove(base, "sofa", scene.Vec3{3, 0, 0})
	branchB := withMove(base, "sofa", scene.Vec3{0, 0, 4})

	forward := ThreeWay(base, branchA, branchB)
	backward := ThreeWay(base, branchB, branchA)

	want := scene.Vec3{3, 0, 4}
	if forward.Merged.Items["sofa"].Position != want {
		t.Fatalf("merged position = %v, want %v", forward.Merged.Items["sofa"].Position, want)
	}
	if backward.Merged.Items["sofa"].Position != want {
		t.Fatalf("merged position (swapped args) = %v, want %v", backward.Merged.Items["sofa"].Position, want)
	}
	if len(forward.Conflicts) != 0 || len(backward.Conflicts) != 0 {
		t.Fatal("concurrent pure moves must auto-merge")
	}
	if len(forward.AutoMerged) != 1 || forward.AutoMerged[0] != "sofa" {
		t.Fatalf("auto-merged = %v, want [sofa]", forward.AutoMerged)
	}
}

func TestThreeWayBothAddedPrefersA(t *testing.T) {
	base := baseScene()
	branchA := withAdd(base, scene.Item{ID: "lamp", FurnitureType: "floor-lamp"})
	branchB := withAdd(base, scene.Item{ID: "lamp", FurnitureType: "desk-lamp"})

	result := ThreeWay(base, branchA, branchB)
	if len(result.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none under the A-wins policy", result.Conflicts)
	}
	if result.Merged.Items["lamp"].FurnitureType != "floor-lamp" {
		t.Fatalf("lamp = %q, want A's value", result.Merged.Items["lamp"].FurnitureType)
	}
}

func TestThreeWayConflictKinds(t *testing.T) {
	base := baseScene(scene.Item{ID: "sofa", FurnitureType: "sofa"})

	withModify := func(state scene.State, itemID string) scene.State {
		next := state.Clone()
		item := next.Items[itemID]
		item.Rotation = scene.Vec3{0, 45, 0}
		next.Items[itemID] = item
		next.Version++
		return next
	}

	tests := []struct {
		name     string
		branchA  scene.State
		branchB  scene.State
		wantKind ConflictKind
	}{
		{
			name:     "move vs remove",
			branchA:  withMove(base, "sofa", scene.Vec3{1, 0, 0}),
			branchB:  withRemove(base, "sofa"),
			wantKind: KindMoveRemove,
		},
		{
			name:     "remove vs modify",
			branchA:  withRemove(base, "sofa"),
			branchB:  withModify(base, "sofa"),
			wantKind: KindModifyRemove,
		},
		{
			name:     "both modified",
			branchA:  withModify(base, "sofa"),
			branchB:  withMove(withModify(base, "sofa"), "sofa", scene.Vec3{2, 0, 0}),
			wantKind: KindBothModified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ThreeWay(base, tt.branchA, tt.branchB)
			if len(result.Conflicts) != 1 {
				t.Fatalf("conflicts = %d, want 1", len(result.Conflicts))
			}
			conflict := result.Conflicts[0]
			if conflict.Kind != tt.wantKind {
				t.Fatalf("kind = %q, want %q", conflict.Kind, tt.wantKind)
			}
			if conflict.ItemID != "sofa" {
				t.Fatalf("item = %q, want sofa", conflict.ItemID)
			}
			if conflict.Base == nil {
				t.Fatal("conflict must carry the base value")
			}

			placeholder, ok := result.Merged.Items["sofa"]
			if !ok {
				t.Fatal("merged state must keep the base value as a placeholder")
			}
			if placeholder != base.Items["sofa"] {
				t.Fatalf("placeholder = %+v, want base value", placeholder)
			}
		})
	}
}

func TestThreeWayOneSidedChangeWins(t *testing.T) {
	base := baseScene(scene.Item{ID: "sofa", FurnitureType: "sofa"})
	branchA := withMove(base, "sofa", scene.Vec3{5, 0, 0})

	result := ThreeWay(base, branchA, base)
	if result.Merged.Items["sofa"].Position != (scene.Vec3{5, 0, 0}) {
		t.Fatalf("position = %v, want A's move", result.Merged.Items["sofa"].Position)
	}

	result = ThreeWay(base, base, withRemove(base, "sofa"))
	if _, ok := result.Merged.Items["sofa"]; ok {
		t.Fatal("expected one-sided removal to win")
	}
}

func TestThreeWayMetadataRules(t *testing.T) {
	base := baseScene()
	base.Name = "draft"
	base.Version = 3

	branchA := base.Clone()
	branchA.Name = "draft-a"
	branchA.Version = 7
	branchA.Groups["g1"] = scene.Group{ID: "g1", Name: "seating"}
	branchA.Scenarios["s1"] = scene.Scenario{ID: "s1", Name: "cozy"}

	branchB := base.Clone()
	branchB.Name = "draft-b"
	branchB.Version = 5
	branchB.Groups["g2"] = scene.Group{ID: "g2", Name: "lighting"}
	branchB.Scenarios["s2"] = scene.Scenario{ID: "s2", Name: "bright"}

	result := ThreeWay(base, branchA, branchB)
	if result.Merged.Name != "draft-b" {
		t.Fatalf("name = %q, want right-biased %q", result.Merged.Name, "draft-b")
	}
	if result.Merged.Version != 7 {
		t.Fatalf("version = %d, want max 7", result.Merged.Version)
	}
	if _, ok := result.Merged.Groups["g1"]; !ok {
		t.Fatal("expected groups union to keep g1")
	}
	if _, ok := result.Merged.Groups["g2"]; !ok {
		t.Fatal("expected groups union to keep g2")
	}
	if len(result.Merged.Scenarios) != 2 {
		t.Fatalf("scenarios = %d, want union of both", len(result.Merged.Scenarios))
	}
}

func TestThreeWayNameSingleDivergence(t *testing.T) {
	base := baseScene()
	base.Name = "draft"

	branchA := base.Clone()
	branchA.Name = "staging-v2"
	branchB := base.Clone()

	result := ThreeWay(base, branchA, branchB)
	if result.Merged.Name != "staging-v2" {
		t.Fatalf("name = %q, want the diverged side", result.Merged.Name)
	}
}

func TestThreeWayBothRemovedAgrees(t *testing.T) {
	base := baseScene(scene.Item{ID: "sofa", FurnitureType: "sofa"})
	result := ThreeWay(base, withRemove(base, "sofa"), withRemove(base, "sofa"))
	if len(result.Conflicts) != 0 {
		t.Fatalf("conflicts = %v, want none when both removed", result.Conflicts)
	}
	if _, ok := result.Merged.Items["sofa"]; ok {
		t.Fatal("expected item absent when both branches removed it")
	}
}
