package peer

import "time"

// Logs records lifecycle events of a peer. Policies read it, the registry
// and view builders append to it.
type Logs struct {
	createdAt     time.Time
	lastUpdate    time.Time
	quarantinedAt time.Time
	liftedAt      time.Time
	lifted        int
	failures      int
	usage         map[Topic]time.Time
}

func NewLogs(now time.Time) *Logs {
	return &Logs{
		createdAt:  now,
		lastUpdate: now,
		usage:      make(map[Topic]time.Time),
	}
}

func (l *Logs) CreatedAt() time.Time  { return l.createdAt }
func (l *Logs) LastUpdate() time.Time { return l.lastUpdate }

// Updated records that fresh information about the peer was received.
func (l *Logs) Updated(now time.Time) {
	l.lastUpdate = now
}

// Quarantine records entering quarantine. A peer already in quarantine keeps
// its original entry time.
func (l *Logs) Quarantine(now time.Time) {
	if l.quarantinedAt.IsZero() {
		l.quarantinedAt = now
	}
}

// LiftQuarantine records leaving quarantine and clears the failure streak
// that usually caused it.
func (l *Logs) LiftQuarantine(now time.Time) {
	l.quarantinedAt = time.Time{}
	l.liftedAt = now
	l.lifted++
	l.failures = 0
}

// Quarantined returns when the peer entered quarantine, if it is in it.
func (l *Logs) Quarantined() (time.Time, bool) {
	return l.quarantinedAt, !l.quarantinedAt.IsZero()
}

// LiftedQuarantines returns how many times the peer left quarantine and the
// time of the last one.
func (l *Logs) LiftedQuarantines() (int, time.Time) {
	return l.lifted, l.liftedAt
}

// UseOf records that the peer was handed out in a view for topic t.
func (l *Logs) UseOf(t Topic, now time.Time) {
	l.usage[t] = now
}

func (l *Logs) LastUseOf(t Topic) (time.Time, bool) {
	at, ok := l.usage[t]
	return at, ok
}

// ConnectionFailed increments the consecutive failure streak and returns it.
func (l *Logs) ConnectionFailed() int {
	l.failures++
	return l.failures
}

func (l *Logs) ConnectionSucceeded(now time.Time) {
	l.failures = 0
	l.lastUpdate = now
}

func (l *Logs) Failures() int { return l.failures }
