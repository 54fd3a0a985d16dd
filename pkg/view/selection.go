// Package view assembles the list of peers handed out to a requesting peer.
package view

import (
	"encoding/json"
	"fmt"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// Selection narrows what a view is built for. The zero value is Any.
type Selection struct {
	topic    peer.Topic
	hasTopic bool
}

// Any selects peers without filtering.
func Any() Selection { return Selection{} }

// ForTopic selects peers for topic t. Every peer added to a view under this
// selection gets its usage of t recorded.
func ForTopic(t peer.Topic) Selection { return Selection{topic: t, hasTopic: true} }

// Topic returns the selected topic, if any.
func (s Selection) Topic() (peer.Topic, bool) {
	return s.topic, s.hasTopic
}

func (s Selection) IsAny() bool { return !s.hasTopic }

func (s Selection) String() string {
	if t, ok := s.Topic(); ok {
		return "topic:" + string(t)
	}
	return "any"
}

type selectionJSON struct {
	Kind  string     `json:"kind"`
	Topic peer.Topic `json:"topic,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if t, ok := s.Topic(); ok {
		return json.Marshal(selectionJSON{Kind: "topic", Topic: t})
	}
	return json.Marshal(selectionJSON{Kind: "any"})
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	var raw selectionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "any":
		*s = Any()
	case "topic":
		*s = ForTopic(raw.Topic)
	default:
		return fmt.Errorf("view: unknown selection kind %q", raw.Kind)
	}
	return nil
}
