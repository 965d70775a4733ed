// Package scene defines the projected aggregate state of a staging scene:
// identifiable furniture items with spatial transforms, plus groups and
// saved scenarios. The timeline core replays events into this state; the
// diff and merge engines interpret its item fields.
package scene

// Vec3 is a three-component vector used for positions, rotations and scales.
type Vec3 [3]float64

// Add returns the componentwise sum of v and other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v[0] + other[0], v[1] + other[1], v[2] + other[2]}
}

// Sub returns the componentwise difference of v and other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v[0] - other[0], v[1] - other[1], v[2] - other[2]}
}

// WithinTolerance reports whether every component of v is within tol of the
// corresponding component of other.
func (v Vec3) WithinTolerance(other Vec3, tol float64) bool {
	for i := range v {
		delta := v[i] - other[i]
		if delta < 0 {
			delta = -delta
		}
		if delta > tol {
			return false
		}
	}
	return true
}

// Item is a single furniture item placed in a scene.
type Item struct {
	ID            string
	FurnitureType string
	Position      Vec3
	Rotation      Vec3
	Scale         Vec3
	// GroupID is the owning group, empty when the item is ungrouped.
	GroupID string
}

// Group is a named collection of item ids that move together in the editor.
type Group struct {
	ID      string
	Name    string
	ItemIDs []string
}

// Scenario is a saved arrangement label. The timeline core carries scenarios
// through merges without interpreting them.
type Scenario struct {
	ID          string
	Name        string
	Description string
}

// State is the projected aggregate a timeline reconstructs. Version is a
// monotonic counter bumped once per applied event.
type State struct {
	ID        string
	Name      string
	Version   uint64
	Archived  bool
	Items     map[string]Item
	Groups    map[string]Group
	Scenarios map[string]Scenario
}

// Empty returns the initial state for a new scene.
func Empty(id string) State {
	return State{
		ID:        id,
		Items:     make(map[string]Item),
		Groups:    make(map[string]Group),
		Scenarios: make(map[string]Scenario),
	}
}

// Clone returns a deep copy of the state. Snapshots hold clones so replay
// and caller mutation never alias a cached state.
func (s State) Clone() State {
	cloned := s
	if s.Items != nil {
		cloned.Items = make(map[string]Item, len(s.Items))
		for key, value := range s.Items {
			cloned.Items[key] = value
		}
	}
	if s.Groups != nil {
		cloned.Groups = make(map[string]Group, len(s.Groups))
		for key, value := range s.Groups {
			group := value
			if value.ItemIDs != nil {
				group.ItemIDs = make([]string, len(value.ItemIDs))
				copy(group.ItemIDs, value.ItemIDs)
			}
			cloned.Groups[key] = group
		}
	}
	if s.Scenarios != nil {
		cloned.Scenarios = make(map[string]Scenario, len(s.Scenarios))
		for key, value := range s.Scenarios {
			cloned.Scenarios[key] = value
		}
	}
	return cloned
}
