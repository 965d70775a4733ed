// Package merge reconciles two divergent scene states against their common
// ancestor. Disjoint and one-sided changes are taken directly, concurrent
// pure moves are combined by summing displacements, and everything else
// surfaces as an explicit, resolvable conflict.
package merge

import (
	"sort"

	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/diff"
)

// ConflictKind names why two branches could not be reconciled automatically.
type ConflictKind string

const (
	KindBothMoved    ConflictKind = "both-moved"
	KindBothModified ConflictKind = "both-modified"
	KindMoveRemove   ConflictKind = "move-remove"
	KindModifyRemove ConflictKind = "modify-remove"
)

// Conflict is one item whose concurrent changes require explicit resolution.
// The merged state keeps the base value as a placeholder until resolved.
type Conflict struct {
	ItemID string
	Kind   ConflictKind
	// Base, A and B hold the item value in each state; nil means the item
	// is absent there (removed, or never added).
	Base *scene.Item
	A    *scene.Item
	B    *scene.Item
}

// Result is the outcome of a three-way merge.
type Result struct {
	Merged scene.State
	// AutoMerged lists item ids reconciled by displacement summing.
	AutoMerged []string
	// Conflicts lists items still awaiting resolution, in id order.
	Conflicts []Conflict
}

// ThreeWay merges two states that diverged from a common base. The item
// resolution table:
//
//	unchanged/unchanged  -> keep base
//	changed/unchanged    -> take the changed side
//	moved/moved          -> base position + both displacements
//	added/added          -> take A (documented tie-break policy)
//	removed vs moved     -> conflict move-remove, base kept as placeholder
//	removed vs modified  -> conflict modify-remove, base kept as placeholder
//	otherwise both dirty -> conflict both-moved or both-modified
func ThreeWay(base, branchA, branchB scene.State) Result {
	diffA := diff.Compute(base, branchA)
	diffB := diff.Compute(base, branchB)

	entriesA := entriesByID(diffA)
	entriesB := entriesByID(diffB)

	merged := scene.State{
		ID:        base.ID,
		Name:      mergeName(base, branchA, branchB),
		Version:   maxVersion(branchA.Version, branchB.Version),
		Archived:  mergeArchived(base, branchA, branchB),
		Items:     make(map[string]scene.Item),
		Groups:    unionGroups(branchA, branchB),
		Scenarios: unionScenarios(branchA, branchB),
	}

	result := Result{Merged: merged}
	for _, id := range unionItemIDs(base, branchA, branchB) {
		mergeItem(&result, id, base, entriesA[id], entriesB[id])
	}
	return result
}

func mergeItem(result *Result, id string, base scene.State, entryA, entryB diff.ItemDiff) {
	statusA := status(entryA)
	statusB := status(entryB)
	baseItem, inBase := base.Items[id]

	switch {
	case statusA == diff.StatusUnchanged && statusB == diff.StatusUnchanged:
		if inBase {
			result.Merged.Items[id] = baseItem
		}

	case statusB == diff.StatusUnchanged:
		takeSide(result, id, entryA)

	case statusA == diff.StatusUnchanged:
		takeSide(result, id, entryB)

	case statusA == diff.StatusMoved && statusB == diff.StatusMoved &&
		entryA.Displacement != nil && entryB.Displacement != nil:
		// Two independent drags of a rigid object commute as translations.
		moved := baseItem
		moved.Position = baseItem.Position.Add(*entryA.Displacement).Add(*entryB.Displacement)
		result.Merged.Items[id] = moved
		result.AutoMerged = append(result.AutoMerged, id)

	case statusA == diff.StatusAdded && statusB == diff.StatusAdded:
		// Same id added on both branches: branch A wins. Deterministic
		// tie-break, not a provable law.
		result.Merged.Items[id] = *entryA.After

	case statusA == diff.StatusRemoved && statusB == diff.StatusRemoved:
		// Both branches agree the item is gone.

	default:
		conflict := Conflict{
			ItemID: id,
			Kind:   conflictKind(statusA, statusB),
			A:      entryA.After,
			B:      entryB.After,
		}
		if inBase {
			placeholder := baseItem
			conflict.Base = &placeholder
			result.Merged.Items[id] = baseItem
		}
		result.Conflicts = append(result.Conflicts, conflict)
	}
}

func takeSide(result *Result, id string, entry diff.ItemDiff) {
	switch entry.Status {
	case diff.StatusRemoved:
		// Omitted from the merged state.
	case diff.StatusAdded, diff.StatusMoved, diff.StatusModified:
		result.Merged.Items[id] = *entry.After
	}
}

func conflictKind(statusA, statusB diff.Status) ConflictKind {
	removed := statusA == diff.StatusRemoved || statusB == diff.StatusRemoved
	if removed {
		if statusA == diff.StatusMoved || statusB == diff.StatusMoved {
			return KindMoveRemove
		}
		return KindModifyRemove
	}
	if statusA == diff.StatusMoved && statusB == diff.StatusMoved {
		return KindBothMoved
	}
	return KindBothModified
}

func status(entry diff.ItemDiff) diff.Status {
	if entry.Status == "" {
		return diff.StatusUnchanged
	}
	return entry.Status
}

func entriesByID(d diff.Diff) map[string]diff.ItemDiff {
	entries := make(map[string]diff.ItemDiff, len(d.Items))
	for _, entry := range d.Items {
		entries[entry.ItemID] = entry
	}
	return entries
}

func unionItemIDs(base, branchA, branchB scene.State) []string {
	seen := make(map[string]struct{}, len(base.Items)+len(branchA.Items)+len(branchB.Items))
	for _, state := range []scene.State{base, branchA, branchB} {
		for id := range state.Items {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mergeName keeps whichever branch diverged from the base name, right-biased
// when both did.
func mergeName(base, branchA, branchB scene.State) string {
	name := base.Name
	if branchA.Name != base.Name {
		name = branchA.Name
	}
	if branchB.Name != base.Name {
		name = branchB.Name
	}
	return name
}

func mergeArchived(base, branchA, branchB scene.State) bool {
	archived := base.Archived
	if branchA.Archived != base.Archived {
		archived = branchA.Archived
	}
	if branchB.Archived != base.Archived {
		archived = branchB.Archived
	}
	return archived
}

func maxVersion(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func unionGroups(branchA, branchB scene.State) map[string]scene.Group {
	groups := make(map[string]scene.Group, len(branchA.Groups)+len(branchB.Groups))
	for _, state := range []scene.State{branchA, branchB} {
		for id, group := range state.Groups {
			copied := group
			if group.ItemIDs != nil {
				copied.ItemIDs = make([]string, len(group.ItemIDs))
				copy(copied.ItemIDs, group.ItemIDs)
			}
			groups[id] = copied
		}
	}
	return groups
}

func unionScenarios(branchA, branchB scene.State) map[string]scene.Scenario {
	scenarios := make(map[string]scene.Scenario, len(branchA.Scenarios)+len(branchB.Scenarios))
	for _, state := range []scene.State{branchA, branchB} {
		for id, scenario := range state.Scenarios {
			scenarios[id] = scenario
		}
	}
	return scenarios
}
