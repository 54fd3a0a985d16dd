package peer

import (
	"cmp"
	"maps"
	"slices"
)

// Topic is a subject of interest peers subscribe to.
type Topic string

// Profile is what a peer advertises about itself.
type Profile struct {
	ID ID
	// Address is where the peer accepts connections. Empty means the peer is
	// connected to us but not publicly reachable (behind a NAT, firewall...).
	Address string
	Topics  map[Topic]struct{}
}

func NewProfile(id ID, address string, topics ...Topic) *Profile {
	p := &Profile{
		ID:      id,
		Address: address,
		Topics:  make(map[Topic]struct{}, len(topics)),
	}
	for _, t := range topics {
		p.Topics[t] = struct{}{}
	}
	return p
}

func (p *Profile) Subscribes(t Topic) bool {
	_, ok := p.Topics[t]
	return ok
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	return &Profile{
		ID:      p.ID,
		Address: p.Address,
		Topics:  maps.Clone(p.Topics),
	}
}

// Info returns a serializable snapshot of the profile. Topics are sorted.
func (p *Profile) Info() Info {
	topics := slices.Collect(maps.Keys(p.Topics))
	slices.Sort(topics)
	return Info{
		ID:      p.ID,
		Address: p.Address,
		Topics:  topics,
	}
}

// Proximity ranks other relative to p: first by how many of p's topics other
// does not subscribe to, then by xor distance between the two ids. The value
// is only meaningful when compared against values computed from the same p.
func (p *Profile) Proximity(other *Profile) Proximity {
	missing := 0
	for t := range p.Topics {
		if !other.Subscribes(t) {
			missing++
		}
	}
	return Proximity{
		missing:  missing,
		distance: p.ID.distance(other.ID),
	}
}

// Proximity is a totally ordered closeness value. Lower is closer.
type Proximity struct {
	missing  int
	distance uint64
}

func (p Proximity) Compare(other Proximity) int {
	if c := cmp.Compare(p.missing, other.missing); c != 0 {
		return c
	}
	return cmp.Compare(p.distance, other.distance)
}

// Info is the immutable snapshot of a peer that is gossiped and returned in
// views.
type Info struct {
	ID      ID      `json:"id"`
	Address string  `json:"address,omitempty"`
	Topics  []Topic `json:"topics,omitempty"`
}

// Profile rebuilds a Profile from the snapshot.
func (i Info) Profile() *Profile {
	return NewProfile(i.ID, i.Address, i.Topics...)
}
