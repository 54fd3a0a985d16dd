package nodes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
)

var reports = []policy.Report{policy.None, policy.Forget, policy.Quarantine, policy.LiftQuarantine}

// TestRegistry_PartitionInvariant drives random sequences of inserts,
// modifications, lookups and resets and checks after every step that the
// three populations partition the tracked ids.
func TestRegistry_PartitionInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		r, err := New(capacity)
		require.NoError(rt, err)

		genID := rapid.Custom(func(t *rapid.T) peer.ID {
			return testID(rapid.ByteRange(0, 15).Draw(t, "id"))
		})
		genAddr := rapid.SampledFrom([]string{"", "10.0.0.1:9000"})

		rt.Repeat(map[string]func(*rapid.T){
			"insert": func(t *rapid.T) {
				id := genID.Draw(t, "insert")
				before := r.Len()
				full := before >= capacity
				if e, ok := r.Entry(id).(*VacantEntry); ok {
					e.Insert(peer.NewNode(peer.NewProfile(id, genAddr.Draw(t, "addr")), time.Unix(0, 0)))
					if full {
						require.Equal(t, capacity, r.Len(), "eviction removes exactly one entry")
					} else {
						require.Equal(t, before+1, r.Len())
					}
				}
			},
			"modify": func(t *rapid.T) {
				id := genID.Draw(t, "modify")
				report := rapid.SampledFrom(reports).Draw(t, "report")
				addr := genAddr.Draw(t, "addr")
				if e, ok := r.Entry(id).(*OccupiedEntry); ok {
					e.Modify(always(report), func(n *peer.Node) {
						p := n.Profile().Clone()
						p.Address = addr
						n.SetProfile(p)
					})
					if report == policy.Forget {
						require.False(t, r.Contains(id))
					}
				}
			},
			"get": func(t *rapid.T) {
				r.Get(genID.Draw(t, "get"))
			},
			"reset": func(t *rapid.T) {
				byID := map[peer.ID]policy.Report{}
				for _, id := range r.all.Keys() {
					byID[id] = rapid.SampledFrom(reports).Draw(t, "report")
				}
				r.Reset(policy.PolicyFunc(func(n *peer.Node) policy.Report { return byID[n.ID()] }))
				for id, rep := range byID {
					if rep == policy.Forget {
						require.False(t, r.Contains(id))
					}
				}
			},
			"": func(t *rapid.T) {
				requireConsistent(t, r)
			},
		})
	})
}
