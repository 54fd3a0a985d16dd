package node

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/peer"
	"github.com/ryandielhenn/zephyrcast/pkg/view"
)

// Healthz returns 200 OK to indicate the Node is alive.
func (n *Node) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Info writes the process ID, current time, our own profile and the
// registry populations.
func (n *Node) Info(w http.ResponseWriter, _ *http.Request) {
	type resp struct {
		PID   int         `json:"pid"`
		Now   time.Time   `json:"now"`
		Self  peer.Info   `json:"self"`
		Count nodes.Count `json:"count"`
		Stats nodes.Stats `json:"stats"`
	}
	writeJSON(w, resp{
		PID:   os.Getpid(),
		Now:   time.Now(),
		Self:  n.topo.Profile().Info(),
		Count: n.topo.Count(),
		Stats: n.topo.Stats(),
	})
}

// Nodes lists one population: /nodes/available, /nodes/quarantined or
// /nodes/unreachable.
func (n *Node) Nodes(w http.ResponseWriter, req *http.Request) {
	name := strings.TrimPrefix(req.URL.Path, "/nodes/")
	state, err := nodes.ParseState(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, n.topo.Nodes(state))
}

// View returns the view we would hand to a requester. ?topic= narrows it to
// a topic and ?from= names the requester.
func (n *Node) View(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	selection := view.Any()
	if t := q.Get("topic"); t != "" {
		selection = view.ForTopic(peer.Topic(t))
	}

	var from *peer.ID
	if s := q.Get("from"); s != "" {
		id, err := peer.ParseID(s)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = &id
	}

	writeJSON(w, n.topo.View(from, selection))
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
