package peer

import "time"

// Node is the record kept for a known peer. It is owned by the registry;
// everything else refers to peers by ID.
type Node struct {
	profile *Profile
	logs    *Logs
}

func NewNode(profile *Profile, now time.Time) *Node {
	return &Node{
		profile: profile,
		logs:    NewLogs(now),
	}
}

func (n *Node) ID() ID            { return n.profile.ID }
func (n *Node) Address() string   { return n.profile.Address }
func (n *Node) Profile() *Profile { return n.profile }
func (n *Node) Logs() *Logs       { return n.logs }
func (n *Node) Info() Info        { return n.profile.Info() }

// Reachable reports whether the peer advertises a public address.
func (n *Node) Reachable() bool {
	return n.profile.Address != ""
}

// SetProfile replaces the profile. The id must not change.
func (n *Node) SetProfile(p *Profile) {
	if p.ID != n.profile.ID {
		panic("peer: profile id mismatch on " + n.profile.ID.String())
	}
	n.profile = p
}
