// Package layer defines the view-construction strategies run every gossip
// round against the node registry, and provides Vicinity, the topic-interest
// driven strategy.
package layer

import (
	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

// GossipBuilder collects the peers gossiped to one recipient.
type GossipBuilder interface {
	Recipient() peer.ID
	Add(info peer.Info)
}

// Layer maintains a private view rebuilt every round. Within a round the
// calls happen in order: Reset, Populate, then any number of Gossips and
// View calls. Layers keep ids only, nodes are borrowed from the registry
// for the duration of a call.
type Layer interface {
	// Alias is a short static name, used in logs and metrics.
	Alias() string
	Reset()
	Populate(self *peer.Profile, registry *nodes.Registry)
	Gossips(self *peer.Profile, builder GossipBuilder, registry *nodes.Registry)
	View(builder *view.Builder, registry *nodes.Registry)
}
