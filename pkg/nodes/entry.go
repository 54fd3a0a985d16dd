package nodes

import (
	"fmt"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
)

// Entry is either a *VacantEntry or an *OccupiedEntry.
type Entry interface {
	Key() peer.ID
	// OrInsert inserts n if the entry is vacant.
	OrInsert(n *peer.Node)
	// OrInsertWith inserts the result of fn if the entry is vacant. fn is
	// not called otherwise.
	OrInsertWith(fn func() *peer.Node)
	// AndModify modifies the node if the entry is occupied. The boolean is
	// false when the entry was vacant.
	AndModify(p policy.Policy, fn func(*peer.Node)) (policy.Report, bool)
}

// VacantEntry is the entry of an id the registry does not track.
type VacantEntry struct {
	registry *Registry
	id       peer.ID
}

func (e *VacantEntry) Key() peer.ID { return e.id }

// Insert adds n to the registry. The least recently used node is evicted
// first if the registry is full. Inserting a node whose id differs from the
// entry key, or inserting into an id that has been added since the entry
// was obtained, panics.
func (e *VacantEntry) Insert(n *peer.Node) {
	if n.ID() != e.id {
		panic(fmt.Sprintf("nodes: inserting node %s into entry %s", n.ID(), e.id))
	}
	if e.registry.all.Contains(e.id) {
		panic(fmt.Sprintf("nodes: insert into occupied entry %s", e.id))
	}
	e.registry.insert(n)
}

func (e *VacantEntry) OrInsert(n *peer.Node)             { e.Insert(n) }
func (e *VacantEntry) OrInsertWith(fn func() *peer.Node) { e.Insert(fn()) }

func (e *VacantEntry) AndModify(policy.Policy, func(*peer.Node)) (policy.Report, bool) {
	return policy.None, false
}

// OccupiedEntry is the entry of a tracked id.
type OccupiedEntry struct {
	registry *Registry
	id       peer.ID
}

func (e *OccupiedEntry) Key() peer.ID { return e.id }

// Modify applies fn to the node, marks it most recently used, then asks p
// what to do with the result and applies the transition. A reachability
// flip caused by fn is honoured even when p reports None.
func (e *OccupiedEntry) Modify(p policy.Policy, fn func(*peer.Node)) policy.Report {
	r := e.registry
	n, ok := r.all.Get(e.id)
	if !ok {
		panic(fmt.Sprintf("nodes: entry %s no longer occupied", e.id))
	}

	wasReachable := n.Reachable()
	fn(n)
	report := p.Check(n)

	if report == policy.None {
		r.migrate(e.id, wasReachable, n.Reachable())
		return report
	}
	if r.apply(e.id, n, report) {
		if r.all.Remove(e.id) {
			r.stats.Forgotten++
		}
	}
	return report
}

// OrInsert is a no-op, the entry is already occupied.
func (e *OccupiedEntry) OrInsert(*peer.Node) {}

// OrInsertWith is a no-op, the entry is already occupied.
func (e *OccupiedEntry) OrInsertWith(func() *peer.Node) {}

func (e *OccupiedEntry) AndModify(p policy.Policy, fn func(*peer.Node)) (policy.Report, bool) {
	return e.Modify(p, fn), true
}
