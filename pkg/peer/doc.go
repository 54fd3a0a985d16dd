// Package peer holds the records the membership layer keeps about other
// peers of the overlay: their identity, their profile (address and topics
// of interest), and a small log of lifecycle events that policies inspect
// to decide whether a peer should be quarantined, reinstated or forgotten.
package peer
