package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

func registryWith(t *testing.T, ns ...*peer.Node) *nodes.Registry {
	t.Helper()
	r, err := nodes.New(16)
	require.NoError(t, err)
	for _, n := range ns {
		r.Entry(n.ID()).OrInsert(n)
	}
	return r
}

func newNode(b byte, addr string) *peer.Node {
	return peer.NewNode(peer.NewProfile(peer.ID{15: b}, addr, "news"), time.Unix(0, 0))
}

func TestSelectionJSON(t *testing.T) {
	for _, s := range []Selection{Any(), ForTopic("news")} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got Selection
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, s, got)
	}

	data, _ := json.Marshal(ForTopic("news"))
	assert.JSONEq(t, `{"kind":"topic","topic":"news"}`, string(data))

	var s Selection
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"ring"}`), &s))
}

func TestSelectionAccessors(t *testing.T) {
	assert.True(t, Any().IsAny())
	assert.Equal(t, "any", Any().String())

	s := ForTopic("news")
	topic, ok := s.Topic()
	assert.True(t, ok)
	assert.Equal(t, peer.Topic("news"), topic)
	assert.Equal(t, "topic:news", s.String())
	assert.Equal(t, ForTopic("news"), s)
}

func TestBuilder_TopicSelectionRecordsUsage(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(time.Hour)
	n := newNode(1, "a:1")
	r := registryWith(t, n)

	b := NewBuilder(ForTopic("news")).WithClock(clk)
	b.Add(n)
	b.Add(n)

	at, ok := n.Logs().LastUseOf("news")
	require.True(t, ok)
	assert.Equal(t, clk.Now(), at)

	got := b.Build(r)
	assert.Equal(t, []peer.Info{n.Info()}, got, "duplicate adds are collapsed")
}

func TestBuilder_AnySelectionLeavesLogsAlone(t *testing.T) {
	n := newNode(1, "a:1")
	b := NewBuilder(Any())
	b.Add(n)
	_, ok := n.Logs().LastUseOf("news")
	assert.False(t, ok)
}

func TestBuilder_InfosFirstAndForgottenSkipped(t *testing.T) {
	kept, gone := newNode(1, "a:1"), newNode(2, "")
	r := registryWith(t, kept, gone)

	self := peer.NewProfile(peer.ID{15: 9}, "self:1", "news").Info()
	b := NewBuilder(Any()).WithOrigin(peer.ID{15: 7})
	origin, ok := b.Origin()
	require.True(t, ok)
	assert.Equal(t, peer.ID{15: 7}, origin)

	b.Add(kept)
	b.Add(gone)
	b.AddInfo(self)
	assert.Equal(t, 3, b.Len())

	r.Remove(gone.ID())
	got := b.Build(r)
	require.Len(t, got, 2)
	assert.Equal(t, self, got[0])
	assert.Equal(t, kept.Info(), got[1])
}

func TestBuilder_NoOrigin(t *testing.T) {
	_, ok := NewBuilder(Any()).Origin()
	assert.False(t, ok)
	assert.Equal(t, Any(), NewBuilder(Any()).Selection())
}
