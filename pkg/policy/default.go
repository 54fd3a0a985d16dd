package policy

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

const (
	DefaultQuarantineDuration = 30 * time.Minute
	DefaultForgetAfter        = 2 * time.Hour
	DefaultMaxFailures        = 3
)

// Default quarantines peers after a streak of connection failures, gives
// them a chance to come back once fresh information about them arrives, and
// forgets them when they stay quarantined for too long.
type Default struct {
	QuarantineDuration time.Duration
	ForgetAfter        time.Duration
	MaxFailures        int

	clock clock.Clock
}

func NewDefault() *Default {
	return &Default{
		QuarantineDuration: DefaultQuarantineDuration,
		ForgetAfter:        DefaultForgetAfter,
		MaxFailures:        DefaultMaxFailures,
		clock:              clock.New(),
	}
}

// WithClock swaps the time source, mostly for tests.
func (d *Default) WithClock(c clock.Clock) *Default {
	d.clock = c
	return d
}

func (d *Default) Check(n *peer.Node) Report {
	logs := n.Logs()

	since, quarantined := logs.Quarantined()
	if !quarantined {
		if d.MaxFailures > 0 && logs.Failures() >= d.MaxFailures {
			return Quarantine
		}
		return None
	}

	elapsed := d.clock.Since(since)
	switch {
	case elapsed >= d.ForgetAfter:
		return Forget
	case elapsed >= d.QuarantineDuration && logs.LastUpdate().After(since):
		return LiftQuarantine
	default:
		return None
	}
}
