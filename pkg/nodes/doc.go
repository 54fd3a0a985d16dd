// Package nodes implements the registry of known peers: a capacity-bounded
// least-recently-used map from peer id to record, side-indexed by three
// disjoint populations (available, not reachable, quarantined).
//
// The registry is not synchronized. Callers serialize access to a given
// instance, typically by running one gossip round at a time.
package nodes
