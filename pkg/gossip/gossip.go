package gossip

import "github.com/ryandielhenn/zephyrcast/pkg/peer"

// Gossips is the list of peers sent to one recipient.
type Gossips []peer.Info

// Builder collects gossips for a recipient. Peers are kept once, in the
// order they were first added, and the recipient is never gossiped about
// to itself.
type Builder struct {
	recipient peer.ID
	seen      map[peer.ID]struct{}
	gossips   Gossips
}

func NewBuilder(recipient peer.ID) *Builder {
	return &Builder{
		recipient: recipient,
		seen:      make(map[peer.ID]struct{}),
	}
}

func (b *Builder) Recipient() peer.ID { return b.recipient }

func (b *Builder) Add(info peer.Info) {
	if info.ID == b.recipient {
		return
	}
	if _, ok := b.seen[info.ID]; ok {
		return
	}
	b.seen[info.ID] = struct{}{}
	b.gossips = append(b.gossips, info)
}

func (b *Builder) Len() int { return len(b.gossips) }

func (b *Builder) Build() Gossips {
	return b.gossips
}
