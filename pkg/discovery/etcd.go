// Package discovery publishes the local profile in etcd and keeps track of
// the other registered peers. It only bootstraps the gossip registry; it
// never decides who stays in it.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// Prefix is the key space holding one JSON encoded peer.Info per node.
const Prefix = "/zephyrcast/nodes/"

func Key(id peer.ID) string {
	return Prefix + id.String()
}

func NewClient(endpoints []string) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
}

// RegisterNode stores info under a lease of ttl seconds and keeps the lease
// alive until cancel is called or ctx ends.
func RegisterNode(ctx context.Context, cli *clientv3.Client, info peer.Info, ttl int64) (clientv3.LeaseID, context.CancelFunc, error) {
	value, err := json.Marshal(info)
	if err != nil {
		return 0, nil, fmt.Errorf("discovery: encode %s: %w", info.ID, err)
	}

	lease, err := cli.Grant(ctx, ttl)
	if err != nil {
		return 0, nil, fmt.Errorf("discovery: grant lease: %w", err)
	}
	if _, err := cli.Put(ctx, Key(info.ID), string(value), clientv3.WithLease(lease.ID)); err != nil {
		return 0, nil, fmt.Errorf("discovery: register %s: %w", info.ID, err)
	}

	kaCtx, cancel := context.WithCancel(ctx)
	ch, err := cli.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		return 0, nil, fmt.Errorf("discovery: keep alive: %w", err)
	}
	go func() {
		// the channel must be drained or the client logs a warning per tick
		for range ch {
		}
	}()
	return lease.ID, cancel, nil
}

// Peers lists every registered peer.
func Peers(ctx context.Context, cli *clientv3.Client) ([]peer.Info, error) {
	resp, err := cli.Get(ctx, Prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("discovery: list peers: %w", err)
	}
	infos, _ := decodePeers(resp.Kvs)
	return infos, nil
}

// WatchPeers calls fn with the full peer list after every change under
// Prefix. It returns immediately; the watch stops with ctx.
func WatchPeers(ctx context.Context, cli *clientv3.Client, logger *zap.Logger, fn func([]peer.Info)) {
	wch := cli.Watch(ctx, Prefix, clientv3.WithPrefix())
	go func() {
		for wr := range wch {
			if err := wr.Err(); err != nil {
				logger.Warn("peer watch failed", zap.Error(err))
				continue
			}
			infos, err := Peers(ctx, cli)
			if err != nil {
				logger.Warn("peer relist failed", zap.Error(err))
				continue
			}
			fn(infos)
		}
	}()
}

// decodePeers skips values that are not peer infos and returns their keys.
func decodePeers(kvs []*mvccpb.KeyValue) (infos []peer.Info, skipped []string) {
	infos = make([]peer.Info, 0, len(kvs))
	for _, kv := range kvs {
		key := string(kv.Key)
		var info peer.Info
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			skipped = append(skipped, key)
			continue
		}
		if info.ID.String() != strings.TrimPrefix(key, Prefix) {
			skipped = append(skipped, key)
			continue
		}
		infos = append(infos, info)
	}
	return infos, skipped
}
