// Package gossip defines what peers exchange every round: a list of peer
// snapshots assembled by the topology layers for one recipient, wrapped in
// a small versioned envelope.
//
// Typical usage:
//
//	b := gossip.NewBuilder(recipient)
//	for _, l := range layers {
//		l.Gossips(self, b, registry)
//	}
//	msg := gossip.NewMessage(self.ID, b.Build())
//
// Moving messages between peers is left to the caller.
package gossip
