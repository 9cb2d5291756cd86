// Package cooldown rate-limits restart triggers.
package cooldown

import "time"

// Gate admits an event only when more than Interval has passed since the last
// recorded one. A Gate that never recorded admits unconditionally.
type Gate struct {
	interval time.Duration
	last     time.Time
}

// New returns a gate with the given cooldown interval
func New(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Admit reports whether now is strictly past the cooldown. It does not mutate the gate.
func (g *Gate) Admit(now time.Time) bool {
	if g.last.IsZero() {
		return true
	}
	return now.Sub(g.last) > g.interval
}

// Record marks now as the last admitted event
func (g *Gate) Record(now time.Time) {
	g.last = now
}

// Last returns the last recorded time, zero if none
func (g *Gate) Last() time.Time {
	return g.last
}

func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Remaining returns how long until Admit would return true
func (g *Gate) Remaining(now time.Time) time.Duration {
	if g.Admit(now) {
		return 0
	}
	return g.interval - now.Sub(g.last)
}
