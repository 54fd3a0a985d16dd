package view

import (
	"github.com/benbjohnson/clock"

	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// Builder accumulates the view for a single request. Layers add registry
// nodes by id; callers holding already resolved data add it directly. A
// Builder is consumed by Build.
type Builder struct {
	origin    *peer.ID
	selection Selection
	clock     clock.Clock

	ids   map[peer.ID]struct{}
	infos []peer.Info
}

func NewBuilder(selection Selection) *Builder {
	return &Builder{
		selection: selection,
		clock:     clock.New(),
		ids:       make(map[peer.ID]struct{}),
	}
}

// WithClock sets the time source used to stamp topic usage.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithOrigin records the peer the view is built for.
func (b *Builder) WithOrigin(origin peer.ID) *Builder {
	b.origin = &origin
	return b
}

func (b *Builder) Origin() (peer.ID, bool) {
	if b.origin == nil {
		return peer.ID{}, false
	}
	return *b.origin, true
}

func (b *Builder) Selection() Selection { return b.selection }

// Add queues n for the view. Under a topic selection the use of that topic
// is logged on n first.
func (b *Builder) Add(n *peer.Node) {
	if t, ok := b.selection.Topic(); ok {
		n.Logs().UseOf(t, b.clock.Now())
	}
	b.ids[n.ID()] = struct{}{}
}

// AddInfo appends an already resolved snapshot, bypassing the registry.
func (b *Builder) AddInfo(info peer.Info) {
	b.infos = append(b.infos, info)
}

// Len is the number of queued entries, duplicates between ids and infos
// included.
func (b *Builder) Len() int { return len(b.ids) + len(b.infos) }

// Build resolves the queued ids against the registry and returns the infos
// added directly followed by the resolved ones. Ids the registry forgot in
// the meantime are dropped. The order of resolved entries is unspecified.
func (b *Builder) Build(registry *nodes.Registry) []peer.Info {
	out := b.infos
	for id := range b.ids {
		if n, ok := registry.Get(id); ok {
			out = append(out, n.Info())
		}
	}
	b.infos, b.ids = nil, nil
	return out
}
