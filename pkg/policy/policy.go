// Package policy defines the vocabulary through which a membership policy
// tells the registry what to do with a peer, and a default time-driven
// policy built on it.
package policy

import "github.com/ryandielhenn/zephyrcast/pkg/peer"

// Report is the transition a policy asks for after inspecting a node.
type Report uint8

const (
	// None leaves the node where it is.
	None Report = iota
	// Forget removes the node from the registry for good.
	Forget
	// Quarantine excludes the node from the topology.
	Quarantine
	// LiftQuarantine returns the node to the available or not reachable
	// population depending on its current address.
	LiftQuarantine
)

func (r Report) String() string {
	switch r {
	case None:
		return "none"
	case Forget:
		return "forget"
	case Quarantine:
		return "quarantine"
	case LiftQuarantine:
		return "lift_quarantine"
	default:
		return "unknown"
	}
}

// Policy inspects a node and returns the transition to apply. Check must be
// a pure function of the node and the policy's own state: calling it again
// without any change in between must return the same report. A policy that
// cannot decide returns None.
type Policy interface {
	Check(n *peer.Node) Report
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(n *peer.Node) Report

func (f PolicyFunc) Check(n *peer.Node) Report {
	return f(n)
}

// Nop never asks for a transition.
var Nop Policy = PolicyFunc(func(*peer.Node) Report { return None })
