package layer

import (
	"math/rand/v2"
	"slices"

	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

const (
	VicinityMaxViewSize     = 20
	VicinityMaxGossipLength = 10
)

// Vicinity maintains interest-induced random links: links to peers sharing
// topics with us, picked among the closest ones by profile proximity. They
// are gossiped to other peers and contributed to the views we hand out.
type Vicinity struct {
	view []peer.ID

	maxView           int
	maxGossip         int
	parallelThreshold int
	rng               *rand.Rand
}

type VicinityOption func(*Vicinity)

func WithViewSize(n int) VicinityOption {
	return func(v *Vicinity) { v.maxView = n }
}

func WithGossipLength(n int) VicinityOption {
	return func(v *Vicinity) { v.maxGossip = n }
}

// WithRand makes the tie-breaking shuffle use r instead of the global
// source.
func WithRand(r *rand.Rand) VicinityOption {
	return func(v *Vicinity) { v.rng = r }
}

func WithParallelThreshold(n int) VicinityOption {
	return func(v *Vicinity) { v.parallelThreshold = n }
}

func NewVicinity(opts ...VicinityOption) *Vicinity {
	v := &Vicinity{
		maxView:           VicinityMaxViewSize,
		maxGossip:         VicinityMaxGossipLength,
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vicinity) Alias() string { return "vicinity" }

func (v *Vicinity) Reset() {
	v.view = v.view[:0]
}

// ViewIDs returns a copy of the ids selected by the last Populate, closest
// first.
func (v *Vicinity) ViewIDs() []peer.ID {
	return slices.Clone(v.view)
}

func (v *Vicinity) Populate(self *peer.Profile, registry *nodes.Registry) {
	v.view = v.SelectClosest(self, availableExcept(registry, self.ID), v.maxView)
}

// Gossips sends the recipient the available peers closest to its own
// profile. Nothing is sent to a recipient we know nothing about.
func (v *Vicinity) Gossips(_ *peer.Profile, builder GossipBuilder, registry *nodes.Registry) {
	recipient, ok := registry.Peek(builder.Recipient())
	if !ok {
		return
	}
	candidates := availableExcept(registry, recipient.ID())
	for _, n := range v.selectClosest(recipient.Profile(), candidates, v.maxGossip) {
		builder.Add(n.Info())
	}
}

func (v *Vicinity) View(builder *view.Builder, registry *nodes.Registry) {
	for _, id := range v.view {
		if n, ok := registry.Peek(id); ok {
			builder.Add(n)
		}
	}
}

// SelectClosest returns the ids of at most limit candidates, in ascending
// proximity to the reference profile. The reference itself is never
// selected. candidates is not modified.
func (v *Vicinity) SelectClosest(to *peer.Profile, candidates []*peer.Node, limit int) []peer.ID {
	selected := v.selectClosest(to, candidates, limit)
	ids := make([]peer.ID, len(selected))
	for i, n := range selected {
		ids[i] = n.ID()
	}
	return ids
}

func (v *Vicinity) selectClosest(to *peer.Profile, all []*peer.Node, limit int) []*peer.Node {
	if limit <= 0 {
		return nil
	}
	candidates := make([]*peer.Node, 0, len(all))
	for _, n := range all {
		if n.ID() != to.ID {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Candidates come out of the registry in a clustered order. Sorting them
	// as is would hand every peer the same top entries among equally close
	// candidates and kill the randomness of the links, so shuffle first.
	v.shuffle(candidates)

	ranked := rankByProximity(to, candidates, v.parallelThreshold)
	ranked = ranked[:min(limit, len(ranked))]

	out := make([]*peer.Node, len(ranked))
	for i, r := range ranked {
		out[i] = r.node
	}
	return out
}

func (v *Vicinity) shuffle(ns []*peer.Node) {
	swap := func(i, j int) { ns[i], ns[j] = ns[j], ns[i] }
	if v.rng != nil {
		v.rng.Shuffle(len(ns), swap)
		return
	}
	rand.Shuffle(len(ns), swap)
}

func availableExcept(registry *nodes.Registry, except peer.ID) []*peer.Node {
	available := registry.AvailableNodes()
	out := make([]*peer.Node, 0, available.Len())
	for id := range available {
		if id == except {
			continue
		}
		if n, ok := registry.Peek(id); ok {
			out = append(out, n)
		}
	}
	return out
}
