// Package event defines the closed set of domain events a staging scene
// records. Events form a sum type: the sealed Event interface is implemented
// only by the payload structs in this package, so reducers and classifiers
// can type-switch exhaustively.
package event

import "github.com/louisbranch/homestage/internal/scene"

// Event is the sealed interface implemented by every scene event payload.
type Event interface {
	isEvent()
}

// ItemPlaced records a new item added to the scene.
type ItemPlaced struct {
	Item scene.Item
}

// ItemRemoved records an item removed from the scene.
type ItemRemoved struct {
	ItemID string
}

// ItemMoved records a single item translated to a new position.
type ItemMoved struct {
	ItemID   string
	Position scene.Vec3
}

// ItemsMoved records a batch of items translated in one gesture.
type ItemsMoved struct {
	Moves []ItemMove
}

// ItemMove is one entry of a batch move.
type ItemMove struct {
	ItemID   string
	Position scene.Vec3
}

// ItemRotated records a single item rotated to a new orientation.
type ItemRotated struct {
	ItemID   string
	Rotation scene.Vec3
}

// ItemsRotated records a batch of items rotated in one gesture.
type ItemsRotated struct {
	Rotations []ItemRotation
}

// ItemRotation is one entry of a batch rotate.
type ItemRotation struct {
	ItemID   string
	Rotation scene.Vec3
}

// ItemScaled records an item resized to a new scale.
type ItemScaled struct {
	ItemID string
	Scale  scene.Vec3
}

// GroupCreated records a new group formed from existing items.
type GroupCreated struct {
	Group scene.Group
}

// GroupDissolved records a group removed; its members become ungrouped.
type GroupDissolved struct {
	GroupID string
}

// ItemsGrouped records items added to an existing group.
type ItemsGrouped struct {
	GroupID string
	ItemIDs []string
}

// ItemsUngrouped records items detached from their groups.
type ItemsUngrouped struct {
	ItemIDs []string
}

func (ItemPlaced) isEvent()     {}
func (ItemRemoved) isEvent()    {}
func (ItemMoved) isEvent()      {}
func (ItemsMoved) isEvent()     {}
func (ItemRotated) isEvent()    {}
func (ItemsRotated) isEvent()   {}
func (ItemScaled) isEvent()     {}
func (GroupCreated) isEvent()   {}
func (GroupDissolved) isEvent() {}
func (ItemsGrouped) isEvent()   {}
func (ItemsUngrouped) isEvent() {}
