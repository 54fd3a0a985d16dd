package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ryandielhenn/zephyrcast/pkg/gossip"
	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/topology"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

func main() {
	n := flag.Int("n", 200, "peers")
	rounds := flag.Int("rounds", 20, "gossip rounds")
	topics := flag.Int("topics", 8, "distinct topics")
	capacity := flag.Int("capacity", topology.DefaultCapacity, "registry capacity per peer")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed))
	peers := make(map[peer.ID]*topology.Topology, *n)
	ids := make([]peer.ID, 0, *n)
	for i := range *n {
		self := peer.NewProfile(peer.NewID(), fmt.Sprintf("peer%d:8080", i),
			peer.Topic(fmt.Sprintf("t%d", rng.IntN(*topics))))
		topo, err := topology.New(self, topology.WithCapacity(*capacity))
		if err != nil {
			panic(err)
		}
		peers[self.ID] = topo
		ids = append(ids, self.ID)
	}

	// every peer starts out knowing a single random other peer
	for _, id := range ids {
		other := ids[rng.IntN(len(ids))]
		if other != id {
			peers[id].AcceptGossips(other, gossip.Gossips{peers[other].Profile().Info()})
		}
	}

	start := time.Now()
	var bytes int
	for r := range *rounds {
		roundStart := time.Now()
		for _, id := range ids {
			topo := peers[id]
			topo.Reset()

			candidates := topo.View(nil, view.Any())[1:]
			if len(candidates) == 0 {
				continue
			}
			with := candidates[rng.IntN(len(candidates))].ID
			bytes += exchange(topo, peers[with])
		}
		fmt.Printf("round %2d: %s\n", r+1, time.Since(roundStart))
	}
	dur := time.Since(start)

	var total nodes.Count
	for _, topo := range peers {
		c := topo.Count()
		total.All += c.All
		total.Available += c.Available
		total.NotReachable += c.NotReachable
		total.Quarantined += c.Quarantined
	}
	fmt.Printf("Completed %d rounds over %d peers in %s (%.2f rounds/s), %d bytes gossiped\n",
		*rounds, *n, dur, float64(*rounds)/dur.Seconds(), bytes)
	fmt.Printf("Mean known peers: %.1f (available %.1f)\n",
		float64(total.All)/float64(*n), float64(total.Available)/float64(*n))
}

// exchange runs one push/reply between two peers through the wire codec and
// returns the number of bytes moved.
func exchange(from, to *topology.Topology) int {
	fromID, toID := from.Profile().ID, to.Profile().ID

	push, err := gossip.Encode(gossip.NewMessage(fromID, from.InitiateGossips(toID)))
	if err != nil {
		panic(err)
	}
	msg, err := gossip.Decode(push)
	if err != nil {
		panic(err)
	}
	to.AcceptGossips(msg.From, msg.Gossips)

	reply, err := gossip.Encode(msg.Reply(toID, to.InitiateGossips(msg.From)))
	if err != nil {
		panic(err)
	}
	back, err := gossip.Decode(reply)
	if err != nil {
		panic(err)
	}
	from.AcceptGossips(back.From, back.Gossips)
	from.ConnectionSucceeded(toID)
	return len(push) + len(reply)
}
