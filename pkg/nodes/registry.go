package nodes

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
)

var ErrInvalidCapacity = errors.New("nodes: capacity must be positive")

// Registry owns every known peer record.
//
// Invariant: available, notReachable and quarantined are pairwise disjoint
// and their union is exactly the key set of all. Ids in available map to
// reachable nodes, ids in notReachable to unreachable ones.
type Registry struct {
	all      *simplelru.LRU[peer.ID, *peer.Node]
	capacity int

	available    Set
	notReachable Set
	quarantined  Set

	clock clock.Clock
	stats Stats
}

type Option func(*Registry)

// WithClock sets the time source used to stamp node logs.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

func New(capacity int, opts ...Option) (*Registry, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	r := &Registry{
		capacity:     capacity,
		available:    make(Set),
		notReachable: make(Set),
		quarantined:  make(Set),
		clock:        clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	all, err := simplelru.NewLRU[peer.ID, *peer.Node](capacity, r.onRemoved)
	if err != nil {
		return nil, err
	}
	r.all = all
	return r, nil
}

// onRemoved runs for every entry leaving the LRU, whatever the reason.
func (r *Registry) onRemoved(id peer.ID, _ *peer.Node) {
	delete(r.available, id)
	delete(r.notReachable, id)
	delete(r.quarantined, id)
}

func (r *Registry) Len() int      { return r.all.Len() }
func (r *Registry) Capacity() int { return r.capacity }
func (r *Registry) Stats() Stats  { return r.stats }

// Contains reports whether id is tracked, without touching recency.
func (r *Registry) Contains(id peer.ID) bool {
	return r.all.Contains(id)
}

// Peek returns the node for id without touching recency or membership.
// The returned node may be mutated in place, as long as its reachability is
// left alone: address changes must go through an OccupiedEntry.
func (r *Registry) Peek(id peer.ID) (*peer.Node, bool) {
	return r.all.Peek(id)
}

// Get is Peek but marks the entry as most recently used.
func (r *Registry) Get(id peer.ID) (*peer.Node, bool) {
	return r.all.Get(id)
}

// Entry returns the vacant or occupied entry for id. Use a type switch to
// reach the operations that are only valid in one of the two states.
func (r *Registry) Entry(id peer.ID) Entry {
	if r.all.Contains(id) {
		return &OccupiedEntry{registry: r, id: id}
	}
	return &VacantEntry{registry: r, id: id}
}

// Remove drops id from the registry and every population.
func (r *Registry) Remove(id peer.ID) bool {
	return r.all.Remove(id)
}

func (r *Registry) AvailableNodes() Set   { return r.available }
func (r *Registry) UnreachableNodes() Set { return r.notReachable }
func (r *Registry) QuarantinedNodes() Set { return r.quarantined }

// Nodes returns the population for state.
func (r *Registry) Nodes(state State) Set {
	switch state {
	case Available:
		return r.available
	case NotReachable:
		return r.notReachable
	default:
		return r.quarantined
	}
}

// State returns the population id currently belongs to.
func (r *Registry) State(id peer.ID) (State, bool) {
	switch {
	case r.available.Contains(id):
		return Available, true
	case r.notReachable.Contains(id):
		return NotReachable, true
	case r.quarantined.Contains(id):
		return Quarantined, true
	default:
		return 0, false
	}
}

// AllAvailableNodes resolves every available id, these are the peers that
// are publicly reachable and not quarantined.
//
// This is linear in the population with a cache probe per element. Keep it
// off hot paths.
func (r *Registry) AllAvailableNodes() []*peer.Node {
	return r.resolve(r.available)
}

// AllQuarantinedNodes resolves every quarantined id. Same cost warning as
// AllAvailableNodes.
func (r *Registry) AllQuarantinedNodes() []*peer.Node {
	return r.resolve(r.quarantined)
}

// AllUnreachableNodes resolves every peer that is connected to us without
// being publicly reachable. Same cost warning as AllAvailableNodes.
func (r *Registry) AllUnreachableNodes() []*peer.Node {
	return r.resolve(r.notReachable)
}

func (r *Registry) resolve(s Set) []*peer.Node {
	out := make([]*peer.Node, 0, len(s))
	for id := range s {
		if n, ok := r.all.Peek(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func (r *Registry) NodeCount() Count {
	return Count{
		All:          r.all.Len(),
		Quarantined:  len(r.quarantined),
		NotReachable: len(r.notReachable),
		Available:    len(r.available),
	}
}

// Reset runs p over every tracked node and applies the reports. Forgotten
// nodes are dropped once the pass is over.
//
// Unlike OccupiedEntry.Modify, a None report does not look at reachability:
// nothing mutated the node during the pass.
func (r *Registry) Reset(p policy.Policy) {
	var forget []peer.ID
	for _, id := range r.all.Keys() {
		n, ok := r.all.Peek(id)
		if !ok {
			continue
		}
		if r.apply(id, n, p.Check(n)) {
			forget = append(forget, id)
		}
	}
	for _, id := range forget {
		if r.all.Remove(id) {
			r.stats.Forgotten++
		}
	}
}

func (r *Registry) insert(n *peer.Node) {
	id := n.ID()
	// Make room ourselves so the LRU never evicts on Add; the loop also
	// catches up if the cache is somehow over budget.
	for r.all.Len() >= r.capacity {
		if _, _, ok := r.all.RemoveOldest(); !ok {
			break
		}
		r.stats.Evicted++
	}
	if n.Reachable() {
		r.available[id] = struct{}{}
	} else {
		r.notReachable[id] = struct{}{}
	}
	r.all.Add(id, n)
}

// apply is the single place where policy reports move ids between
// populations. It returns true when the node must be removed from the
// cache, which is left to the caller.
func (r *Registry) apply(id peer.ID, n *peer.Node, report policy.Report) bool {
	switch report {
	case policy.Forget:
		delete(r.available, id)
		delete(r.notReachable, id)
		delete(r.quarantined, id)
		return true
	case policy.Quarantine:
		delete(r.available, id)
		delete(r.notReachable, id)
		r.quarantined[id] = struct{}{}
		n.Logs().Quarantine(r.clock.Now())
	case policy.LiftQuarantine:
		delete(r.quarantined, id)
		delete(r.available, id)
		delete(r.notReachable, id)
		if n.Reachable() {
			r.available[id] = struct{}{}
		} else {
			r.notReachable[id] = struct{}{}
		}
		n.Logs().LiftQuarantine(r.clock.Now())
	}
	return false
}

// migrate moves id between available and notReachable after a mutation
// flipped the node's reachability. Quarantined ids are left alone.
func (r *Registry) migrate(id peer.ID, wasReachable, nowReachable bool) {
	switch {
	case wasReachable && !nowReachable && r.available.Contains(id):
		delete(r.available, id)
		r.notReachable[id] = struct{}{}
	case !wasReachable && nowReachable && r.notReachable.Contains(id):
		delete(r.notReachable, id)
		r.available[id] = struct{}{}
	}
}
