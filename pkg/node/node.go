package node

import (
	"github.com/ryandielhenn/zephyrcast/pkg/topology"
)

// Node exposes a topology over HTTP for inspection.
type Node struct {
	topo *topology.Topology
	addr string
}

func NewNode(topo *topology.Topology, addr string) *Node {
	return &Node{topo: topo, addr: addr}
}

func (n *Node) Addr() string {
	return n.addr
}

func (n *Node) Topology() *topology.Topology {
	return n.topo
}
