// Package projection implements the canonical scene reducer: a pure fold of
// events into projected scene state. The timeline core consumes the reducer
// through an injectable function and defaults to Apply.
package projection

import (
	"github.com/louisbranch/homestage/internal/scene"
	"github.com/louisbranch/homestage/internal/scene/event"
)

// Apply folds a single event into the state and returns the next state. It
// is pure and total: the input state is never mutated, events referencing
// unknown items are skipped, and every applied event bumps Version exactly
// once.
func Apply(state scene.State, evt event.Event) scene.State {
	next := state.Clone()
	next.Version++

	switch typed := evt.(type) {
	case event.ItemPlaced:
		placeItem(&next, typed.Item)
	case event.ItemRemoved:
		removeItem(&next, typed.ItemID)
	case event.ItemMoved:
		moveItem(&next, typed.ItemID, typed.Position)
	case event.ItemsMoved:
		for _, move := range typed.Moves {
			moveItem(&next, move.ItemID, move.Position)
		}
	case event.ItemRotated:
		rotateItem(&next, typed.ItemID, typed.Rotation)
	case event.ItemsRotated:
		for _, rotation := range typed.Rotations {
			rotateItem(&next, rotation.ItemID, rotation.Rotation)
		}
	case event.ItemScaled:
		if item, ok := next.Items[typed.ItemID]; ok {
			item.Scale = typed.Scale
			next.Items[typed.ItemID] = item
		}
	case event.GroupCreated:
		createGroup(&next, typed.Group)
	case event.GroupDissolved:
		dissolveGroup(&next, typed.GroupID)
	case event.ItemsGrouped:
		groupItems(&next, typed.GroupID, typed.ItemIDs)
	case event.ItemsUngrouped:
		ungroupItems(&next, typed.ItemIDs)
	}

	return next
}

// Empty returns the initial state for a scene id.
func Empty(id string) scene.State {
	return scene.Empty(id)
}

func placeItem(state *scene.State, item scene.Item) {
	if item.ID == "" {
		return
	}
	if item.Scale == (scene.Vec3{}) {
		item.Scale = scene.Vec3{1, 1, 1}
	}
	state.Items[item.ID] = item
}

func removeItem(state *scene.State, itemID string) {
	item, ok := state.Items[itemID]
	if !ok {
		return
	}
	if item.GroupID != "" {
		detachFromGroup(state, item.GroupID, itemID)
	}
	delete(state.Items, itemID)
}

func moveItem(state *scene.State, itemID string, position scene.Vec3) {
	if item, ok := state.Items[itemID]; ok {
		item.Position = position
		state.Items[itemID] = item
	}
}

func rotateItem(state *scene.State, itemID string, rotation scene.Vec3) {
	if item, ok := state.Items[itemID]; ok {
		item.Rotation = rotation
		state.Items[itemID] = item
	}
}

func createGroup(state *scene.State, group scene.Group) {
	if group.ID == "" {
		return
	}
	members := make([]string, 0, len(group.ItemIDs))
	for _, itemID := range group.ItemIDs {
		item, ok := state.Items[itemID]
		if !ok {
			continue
		}
		if item.GroupID != "" {
			detachFromGroup(state, item.GroupID, itemID)
		}
		item.GroupID = group.ID
		state.Items[itemID] = item
		members = append(members, itemID)
	}
	group.ItemIDs = members
	state.Groups[group.ID] = group
}

func dissolveGroup(state *scene.State, groupID string) {
	group, ok := state.Groups[groupID]
	if !ok {
		return
	}
	for _, itemID := range group.ItemIDs {
		if item, ok := state.Items[itemID]; ok && item.GroupID == groupID {
			item.GroupID = ""
			state.Items[itemID] = item
		}
	}
	delete(state.Groups, groupID)
}

func groupItems(state *scene.State, groupID string, itemIDs []string) {
	group, ok := state.Groups[groupID]
	if !ok {
		return
	}
	for _, itemID := range itemIDs {
		item, ok := state.Items[itemID]
		if !ok || item.GroupID == groupID {
			continue
		}
		if item.GroupID != "" {
			detachFromGroup(state, item.GroupID, itemID)
		}
		item.GroupID = groupID
		state.Items[itemID] = item
		group.ItemIDs = append(group.ItemIDs, itemID)
	}
	state.Groups[groupID] = group
}

func ungroupItems(state *scene.State, itemIDs []string) {
	for _, itemID := range itemIDs {
		item, ok := state.Items[itemID]
		if !ok || item.GroupID == "" {
			continue
		}
		detachFromGroup(state, item.GroupID, itemID)
		item.GroupID = ""
		state.Items[itemID] = item
	}
}

func detachFromGroup(state *scene.State, groupID, itemID string) {
	group, ok := state.Groups[groupID]
	if !ok {
		return
	}
	members := group.ItemIDs[:0:0]
	for _, member := range group.ItemIDs {
		if member != itemID {
			members = append(members, member)
		}
	}
	group.ItemIDs = members
	state.Groups[groupID] = group
}
