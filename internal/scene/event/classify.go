package event

// Category buckets events for timeline markers (UI coloring). Unknown event
// types classify as CategoryOther so new kinds never break callers.
type Category string

const (
	CategoryAdd    Category = "add"
	CategoryRemove Category = "remove"
	CategoryMove   Category = "move"
	CategoryRotate Category = "rotate"
	CategoryScale  Category = "scale"
	CategoryGroup  Category = "group"
	CategoryOther  Category = "other"
)

// Classify maps an event to its marker category. It is total: events outside
// the known set fall through to CategoryOther.
func Classify(evt Event) Category {
	switch evt.(type) {
	case ItemPlaced:
		return CategoryAdd
	case ItemRemoved:
		return CategoryRemove
	case ItemMoved, ItemsMoved:
		return CategoryMove
	case ItemRotated, ItemsRotated:
		return CategoryRotate
	case ItemScaled:
		return CategoryScale
	case GroupCreated, GroupDissolved, ItemsGrouped, ItemsUngrouped:
		return CategoryGroup
	default:
		return CategoryOther
	}
}
