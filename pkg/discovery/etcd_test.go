package discovery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

func kv(t *testing.T, key string, value any) *mvccpb.KeyValue {
	t.Helper()
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	default:
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}
	return &mvccpb.KeyValue{Key: []byte(key), Value: raw}
}

func TestKey(t *testing.T) {
	id := peer.MustParseID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "/zephyrcast/nodes/6ba7b810-9dad-11d1-80b4-00c04fd430c8", Key(id))
}

func TestDecodePeers(t *testing.T) {
	good := peer.NewProfile(peer.NewID(), "10.0.0.2:8080", "news").Info()
	other := peer.NewProfile(peer.NewID(), "").Info()

	infos, skipped := decodePeers([]*mvccpb.KeyValue{
		kv(t, Key(good.ID), good),
		kv(t, Prefix+"garbage", "not json"),
		kv(t, Key(peer.NewID()), other),
		kv(t, Key(other.ID), other),
	})

	require.Len(t, infos, 2)
	assert.Equal(t, good, infos[0])
	assert.Equal(t, other, infos[1])
	assert.Len(t, skipped, 2, "bad json and key/id mismatch are skipped")
}

func TestDecodePeersEmpty(t *testing.T) {
	infos, skipped := decodePeers(nil)
	assert.Empty(t, infos)
	assert.Empty(t, skipped)
}
