// Package topology runs the gossip round over a node registry and a stack
// of layers on behalf of the local peer. It decides nothing about timing or
// transport: callers drive Reset once per round and move gossips between
// peers themselves.
package topology

import (
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrcast/pkg/gossip"
	"github.com/ryandielhenn/zephyrcast/pkg/layer"
	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

// Topology is safe for concurrent use; calls are serialized.
type Topology struct {
	mu sync.Mutex

	profile  *peer.Profile
	registry *nodes.Registry
	policy   policy.Policy
	layers   []layer.Layer

	clock   clock.Clock
	logger  *zap.Logger
	metrics Metrics

	evicted uint64
}

func New(self *peer.Profile, opts ...Option) (*Topology, error) {
	o := options{
		capacity: DefaultCapacity,
		clock:    clock.New(),
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = policy.NewDefault().WithClock(o.clock)
	}
	if o.layers == nil {
		o.layers = []layer.Layer{layer.NewVicinity()}
	}

	registry, err := nodes.New(o.capacity, nodes.WithClock(o.clock))
	if err != nil {
		return nil, err
	}

	return &Topology{
		profile:  self.Clone(),
		registry: registry,
		policy:   o.policy,
		layers:   o.layers,
		clock:    o.clock,
		logger:   o.logger.With(zap.Stringer("self", self.ID)),
		metrics:  o.metrics,
	}, nil
}

// Profile returns a copy of the local profile.
func (t *Topology) Profile() *peer.Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profile.Clone()
}

// UpdateProfile edits the local profile. The id cannot be changed.
func (t *Topology) UpdateProfile(fn func(*peer.Profile)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.profile.Clone()
	fn(p)
	p.ID = t.profile.ID
	t.profile = p
}

// Reset starts a new round: the policy is run over every known peer, then
// each layer is reset and repopulated from the available peers.
func (t *Topology) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.clock.Now()
	before := t.registry.NodeCount()

	t.registry.Reset(policy.PolicyFunc(t.check))
	for _, l := range t.layers {
		l.Reset()
		l.Populate(t.profile, t.registry)
	}

	after := t.registry.NodeCount()
	t.metrics.Round(t.clock.Since(start))
	t.observe()
	t.logger.Debug("topology reset",
		zap.Int("forgotten", before.All-after.All),
		zap.Int("available", after.Available),
		zap.Int("unreachable", after.NotReachable),
		zap.Int("quarantined", after.Quarantined),
	)
}

// AcceptGossips records the peers a remote peer told us about. Unknown
// peers are inserted, known ones get their profile refreshed through the
// policy. Gossips about ourselves are ignored.
func (t *Topology) AcceptGossips(from peer.ID, gossips gossip.Gossips) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	inserted, updated := 0, 0
	for _, info := range gossips {
		if info.ID == t.profile.ID || info.ID.IsZero() {
			continue
		}
		switch e := t.registry.Entry(info.ID).(type) {
		case *nodes.VacantEntry:
			e.Insert(peer.NewNode(info.Profile(), now))
			inserted++
		case *nodes.OccupiedEntry:
			e.Modify(policy.PolicyFunc(t.check), func(n *peer.Node) {
				n.SetProfile(info.Profile())
				n.Logs().Updated(now)
			})
			updated++
		}
	}

	t.observe()
	t.logger.Debug("accepted gossips",
		zap.Stringer("from", from),
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
	)
}

// InitiateGossips builds the gossips to send to a peer: our own profile
// followed by what every layer picks for it.
func (t *Topology) InitiateGossips(with peer.ID) gossip.Gossips {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := gossip.NewBuilder(with)
	b.Add(t.profile.Info())
	for _, l := range t.layers {
		l.Gossips(t.profile, b, t.registry)
	}
	return b.Build()
}

// View returns the peers to hand to a requester, optionally identified by
// from. Our own info leads the list for unfiltered selections.
func (t *Topology) View(from *peer.ID, selection view.Selection) []peer.Info {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := view.NewBuilder(selection).WithClock(t.clock)
	if from != nil {
		b.WithOrigin(*from)
	}
	if selection.IsAny() {
		b.AddInfo(t.profile.Info())
	}
	for _, l := range t.layers {
		l.View(b, t.registry)
	}
	return b.Build(t.registry)
}

// ConnectionFailed records a failed attempt to reach id. The returned
// boolean is false for unknown peers.
func (t *Topology) ConnectionFailed(id peer.ID) (policy.Report, bool) {
	return t.modify(id, func(n *peer.Node) { n.Logs().ConnectionFailed() })
}

func (t *Topology) ConnectionSucceeded(id peer.ID) (policy.Report, bool) {
	return t.modify(id, func(n *peer.Node) { n.Logs().ConnectionSucceeded(t.clock.Now()) })
}

func (t *Topology) modify(id peer.ID, fn func(*peer.Node)) (policy.Report, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	report, ok := t.registry.Entry(id).AndModify(policy.PolicyFunc(t.check), fn)
	if ok {
		t.observe()
	}
	return report, ok
}

func (t *Topology) Count() nodes.Count {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.NodeCount()
}

// Nodes lists the peers of a population, in id order.
func (t *Topology) Nodes(state nodes.State) []peer.Info {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.registry.Nodes(state).IDs()
	out := make([]peer.Info, 0, len(ids))
	for _, id := range ids {
		if n, ok := t.registry.Peek(id); ok {
			out = append(out, n.Info())
		}
	}
	return out
}

// Node returns what we know about id.
func (t *Topology) Node(id peer.ID) (peer.Info, nodes.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.registry.Peek(id)
	if !ok {
		return peer.Info{}, 0, false
	}
	state, _ := t.registry.State(id)
	return n.Info(), state, true
}

func (t *Topology) Stats() nodes.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.Stats()
}

func (t *Topology) check(n *peer.Node) policy.Report {
	r := t.policy.Check(n)
	if r != policy.None {
		t.metrics.Transition(r)
		t.logger.Debug("policy transition", zap.Stringer("peer", n.ID()), zap.Stringer("report", r))
	}
	return r
}

// observe publishes populations and new evictions. Callers hold mu.
func (t *Topology) observe() {
	t.metrics.Populations(t.registry.NodeCount())
	if evicted := t.registry.Stats().Evicted; evicted > t.evicted {
		t.metrics.Evicted(evicted - t.evicted)
		t.evicted = evicted
	}
}
