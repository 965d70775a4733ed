// Package diff compares two projected scene states item by item. Compute is
// a pure function; results list every item present in either state exactly
// once, in id order.
package diff

import (
	"sort"

	"github.com/louisbranch/homestage/internal/scene"
)

// Tolerance is the absolute per-axis tolerance used when comparing spatial
// transforms. Displacements are computed exactly; only equality checks are
// tolerant.
const Tolerance = 1e-6

// Status classifies how an item changed between two states.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusMoved     Status = "moved"
	StatusModified  Status = "modified"
	StatusUnchanged Status = "unchanged"
)

// ItemDiff describes one item's change between the compared states.
type ItemDiff struct {
	ItemID string
	Status Status
	// Before is the item in the first state, nil when added.
	Before *scene.Item
	// After is the item in the second state, nil when removed.
	After *scene.Item
	// Displacement is after.Position - before.Position, set only for moved
	// entries and computed exactly (no tolerance applied).
	Displacement *scene.Vec3
}

// Diff is the aggregate comparison of two states.
type Diff struct {
	Items []ItemDiff

	Added     int
	Removed   int
	Moved     int
	Modified  int
	Unchanged int
}

// Compute compares two states. Compute(a, b) and Compute(b, a) are mirror
// images: added and removed swap, moved entries carry inverse displacements.
func Compute(before, after scene.State) Diff {
	ids := make([]string, 0, len(before.Items)+len(after.Items))
	for id := range after.Items {
		ids = append(ids, id)
	}
	for id := range before.Items {
		if _, ok := after.Items[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := Diff{Items: make([]ItemDiff, 0, len(ids))}
	for _, id := range ids {
		entry := classify(id, before.Items, after.Items)
		switch entry.Status {
		case StatusAdded:
			result.Added++
		case StatusRemoved:
			result.Removed++
		case StatusMoved:
			result.Moved++
		case StatusModified:
			result.Modified++
		case StatusUnchanged:
			result.Unchanged++
		}
		result.Items = append(result.Items, entry)
	}
	return result
}

// Changed returns the entries whose status is not unchanged.
func (d Diff) Changed() []ItemDiff {
	return d.filter(func(entry ItemDiff) bool { return entry.Status != StatusUnchanged })
}

// ByStatus returns the entries with the given status.
func (d Diff) ByStatus(status Status) []ItemDiff {
	return d.filter(func(entry ItemDiff) bool { return entry.Status == status })
}

func (d Diff) filter(keep func(ItemDiff) bool) []ItemDiff {
	filtered := make([]ItemDiff, 0, len(d.Items))
	for _, entry := range d.Items {
		if keep(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func classify(id string, before, after map[string]scene.Item) ItemDiff {
	beforeItem, inBefore := before[id]
	afterItem, inAfter := after[id]

	switch {
	case !inBefore && inAfter:
		return ItemDiff{ItemID: id, Status: StatusAdded, After: &afterItem}
	case inBefore && !inAfter:
		return ItemDiff{ItemID: id, Status: StatusRemoved, Before: &beforeItem}
	}

	sameType := beforeItem.FurnitureType == afterItem.FurnitureType
	sameGroup := beforeItem.GroupID == afterItem.GroupID
	samePosition := beforeItem.Position.WithinTolerance(afterItem.Position, Tolerance)
	sameRotation := beforeItem.Rotation.WithinTolerance(afterItem.Rotation, Tolerance)
	sameScale := beforeItem.Scale.WithinTolerance(afterItem.Scale, Tolerance)

	switch {
	case sameType && sameGroup && samePosition && sameRotation && sameScale:
		return ItemDiff{ItemID: id, Status: StatusUnchanged, Before: &beforeItem, After: &afterItem}
	case sameType && sameGroup && sameRotation && sameScale:
		displacement := afterItem.Position.Sub(beforeItem.Position)
		return ItemDiff{
			ItemID:       id,
			Status:       StatusMoved,
			Before:       &beforeItem,
			After:        &afterItem,
			Displacement: &displacement,
		}
	default:
		return ItemDiff{ItemID: id, Status: StatusModified, Before: &beforeItem, After: &afterItem}
	}
}
