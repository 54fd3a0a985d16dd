package gossip

import (
	"encoding/json"
	"fmt"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// SchemaVersion is bumped on incompatible envelope changes.
const SchemaVersion uint16 = 1

type MsgType uint8

const (
	// MsgGossips pushes gossips to a peer.
	MsgGossips MsgType = iota
	// MsgGossipsReply answers a push with the receiver's own gossips.
	MsgGossipsReply
)

type Message struct {
	Type    MsgType `json:"type"`
	From    peer.ID `json:"from"`
	Gossips Gossips `json:"gossips"`
	SchemaV uint16  `json:"schema"`
}

func NewMessage(from peer.ID, gossips Gossips) Message {
	return Message{Type: MsgGossips, From: from, Gossips: gossips, SchemaV: SchemaVersion}
}

// Reply builds the answer to m carrying our own gossips.
func (m Message) Reply(from peer.ID, gossips Gossips) Message {
	return Message{Type: MsgGossipsReply, From: from, Gossips: gossips, SchemaV: SchemaVersion}
}

func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode gossip message: %w", err)
	}
	if m.SchemaV != SchemaVersion {
		return Message{}, fmt.Errorf("decode gossip message: unsupported schema %d", m.SchemaV)
	}
	return m, nil
}
