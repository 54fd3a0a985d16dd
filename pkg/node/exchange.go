package node

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ryandielhenn/zephyrcast/pkg/gossip"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// maxGossipBody bounds what we read from a peer.
const maxGossipBody = 1 << 20

// Gossip accepts a push from a peer and answers with our own gossips for it.
func (n *Node) Gossip(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxGossipBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := gossip.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg.Type != gossip.MsgGossips {
		http.Error(w, "expected a gossip push", http.StatusBadRequest)
		return
	}

	n.topo.AcceptGossips(msg.From, msg.Gossips)

	self := n.topo.Profile().ID
	data, err := gossip.Encode(msg.Reply(self, n.topo.InitiateGossips(msg.From)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Exchange pushes our gossips to with and merges its reply. The outcome is
// recorded against with as a connection success or failure.
func (n *Node) Exchange(ctx context.Context, client *http.Client, with peer.Info) error {
	if err := n.exchange(ctx, client, with); err != nil {
		n.topo.ConnectionFailed(with.ID)
		return err
	}
	n.topo.ConnectionSucceeded(with.ID)
	return nil
}

func (n *Node) exchange(ctx context.Context, client *http.Client, with peer.Info) error {
	self := n.topo.Profile().ID
	payload, err := gossip.Encode(gossip.NewMessage(self, n.topo.InitiateGossips(with.ID)))
	if err != nil {
		return err
	}

	url := "http://" + NormalizeHostPort(with.Address, "8080") + "/gossip"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gossip with %s: status %d", with.ID, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGossipBody))
	if err != nil {
		return err
	}
	reply, err := gossip.Decode(body)
	if err != nil {
		return err
	}
	if reply.From != with.ID {
		return fmt.Errorf("gossip with %s: reply from %s", with.ID, reply.From)
	}
	n.topo.AcceptGossips(reply.From, reply.Gossips)
	return nil
}
