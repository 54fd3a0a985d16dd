package nodes

import (
	"fmt"
	"slices"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// Set is a set of peer ids. Sets returned by the registry are live views of
// its internal state and must not be modified.
type Set map[peer.ID]struct{}

func (s Set) Contains(id peer.ID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int { return len(s) }

// IDs returns the members in ascending id order.
func (s Set) IDs() []peer.ID {
	ids := make([]peer.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, peer.ID.Compare)
	return ids
}

// State names the population a tracked peer belongs to.
type State uint8

const (
	Available State = iota
	NotReachable
	Quarantined
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case NotReachable:
		return "unreachable"
	case Quarantined:
		return "quarantined"
	default:
		return "unknown"
	}
}

func ParseState(s string) (State, error) {
	switch s {
	case "available":
		return Available, nil
	case "unreachable", "not_reachable":
		return NotReachable, nil
	case "quarantined":
		return Quarantined, nil
	default:
		return 0, fmt.Errorf("nodes: unknown state %q", s)
	}
}
