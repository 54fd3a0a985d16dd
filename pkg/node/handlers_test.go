package node

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ryandielhenn/zephyrcast/pkg/gossip"
	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/topology"
)

func newTestNode(t *testing.T) (*Node, gossip.Gossips) {
	t.Helper()
	self := peer.NewProfile(peer.NewID(), "self:8080", "news")
	topo, err := topology.New(self, topology.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	gossips := gossip.Gossips{
		peer.NewProfile(peer.NewID(), "a:8080", "news").Info(),
		peer.NewProfile(peer.NewID(), "b:8080", "sport").Info(),
		peer.NewProfile(peer.NewID(), "").Info(),
	}
	topo.AcceptGossips(peer.NewID(), gossips)
	topo.Reset()
	return NewNode(topo, "self:8080"), gossips
}

func get(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	n, _ := newTestNode(t)
	rec := get(t, n.Healthz, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestInfo(t *testing.T) {
	n, _ := newTestNode(t)
	rec := get(t, n.Info, "/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Self  peer.Info   `json:"self"`
		Count nodes.Count `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, n.Topology().Profile().ID, body.Self.ID)
	assert.Equal(t, nodes.Count{All: 3, Available: 2, NotReachable: 1}, body.Count)
}

func TestNodesByState(t *testing.T) {
	n, gossips := newTestNode(t)

	var available []peer.Info
	rec := get(t, n.Nodes, "/nodes/available")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &available))
	assert.Len(t, available, 2)

	var unreachable []peer.Info
	rec = get(t, n.Nodes, "/nodes/unreachable")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unreachable))
	require.Len(t, unreachable, 1)
	assert.Equal(t, gossips[2].ID, unreachable[0].ID)

	rec = get(t, n.Nodes, "/nodes/everything")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestView(t *testing.T) {
	n, _ := newTestNode(t)

	var unfiltered []peer.Info
	rec := get(t, n.View, "/view")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unfiltered))
	require.Len(t, unfiltered, 3, "self plus both reachable peers")
	assert.Equal(t, n.Topology().Profile().ID, unfiltered[0].ID)

	var byTopic []peer.Info
	rec = get(t, n.View, "/view?topic=news&from="+peer.NewID().String())
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byTopic))
	assert.Len(t, byTopic, 2)

	rec = get(t, n.View, "/view?from=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNormalizeHostPort(t *testing.T) {
	cases := map[string]string{
		"node1":             "node1:8080",
		"node1:9000":        "node1:9000",
		"http://node1":      "node1:8080",
		"https://node1:443": "node1:443",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHostPort(in, "8080"), in)
	}
}
