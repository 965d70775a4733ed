package merge

import (
	apperrors "github.com/louisbranch/homestage/internal/platform/errors"
	"github.com/louisbranch/homestage/internal/scene"
)

// Resolution selects how a single conflict is settled.
type Resolution string

const (
	ResolutionUseA    Resolution = "use-a"
	ResolutionUseB    Resolution = "use-b"
	ResolutionUseBase Resolution = "use-base"
	// ResolutionMergeDisplacements recomputes each side's displacement from
	// base independently and sums them onto the base position. Usable even
	// when the classifier fell through to both-modified because of
	// accompanying non-positional changes.
	ResolutionMergeDisplacements Resolution = "merge-displacements"
)

// ErrInvalidResolution indicates a resolution value outside the known set.
var ErrInvalidResolution = apperrors.New(apperrors.CodeMergeInvalidResolution, "unknown merge resolution")

// Resolve applies one resolution to the pending conflict for itemID and
// returns a new Result. Resolving an unknown item id is a no-op, so callers
// may retry or replay resolutions safely.
func Resolve(result Result, itemID string, resolution Resolution) (Result, error) {
	index := -1
	for i, conflict := range result.Conflicts {
		if conflict.ItemID == itemID {
			index = i
			break
		}
	}
	if index == -1 {
		return result, nil
	}
	conflict := result.Conflicts[index]

	resolved := Result{
		Merged:     result.Merged.Clone(),
		AutoMerged: append([]string(nil), result.AutoMerged...),
		Conflicts:  make([]Conflict, 0, len(result.Conflicts)-1),
	}
	resolved.Conflicts = append(resolved.Conflicts, result.Conflicts[:index]...)
	resolved.Conflicts = append(resolved.Conflicts, result.Conflicts[index+1:]...)

	switch resolution {
	case ResolutionUseA:
		applyChoice(&resolved.Merged, itemID, conflict.A)
	case ResolutionUseB:
		applyChoice(&resolved.Merged, itemID, conflict.B)
	case ResolutionUseBase:
		applyChoice(&resolved.Merged, itemID, conflict.Base)
	case ResolutionMergeDisplacements:
		applyChoice(&resolved.Merged, itemID, mergeDisplacements(conflict))
	default:
		return result, ErrInvalidResolution
	}
	return resolved, nil
}

func applyChoice(state *scene.State, itemID string, choice *scene.Item) {
	if choice == nil {
		delete(state.Items, itemID)
		return
	}
	state.Items[itemID] = *choice
}

// mergeDisplacements sums both sides' positional deltas onto the base item.
// A side that removed the item contributes a zero displacement.
func mergeDisplacements(conflict Conflict) *scene.Item {
	if conflict.Base == nil {
		// No base to displace from; fall back to whichever side exists.
		if conflict.A != nil {
			return conflict.A
		}
		return conflict.B
	}

	merged := *conflict.Base
	position := conflict.Base.Position
	if conflict.A != nil {
		position = position.Add(conflict.A.Position.Sub(conflict.Base.Position))
	}
	if conflict.B != nil {
		position = position.Add(conflict.B.Position.Sub(conflict.Base.Position))
	}
	merged.Position = position
	return &merged
}
