// Package state holds the mutable process-wide monitor state shared by the
// monitor loop and the restart orchestrator.
package state

import (
	"time"

	"github.com/spotskip/spotskip/internal/cooldown"
)

// MonitorState is owned by the single goroutine running the monitor loop.
// It is never persisted.
type MonitorState struct {
	// PreviousTitle is the last distinct title observed
	PreviousTitle string

	// Cooldown holds the time of the last admitted advertisement event
	Cooldown *cooldown.Gate

	// Restarting is true for the whole duration of a restart sequence
	Restarting bool

	// LastSongBeforeRestart is captured right before a restart is triggered
	LastSongBeforeRestart string
}

// New returns a fresh state with the given restart cooldown
func New(cooldownInterval time.Duration) *MonitorState {
	return &MonitorState{Cooldown: cooldown.New(cooldownInterval)}
}

// ObserveTitle stores title as PreviousTitle and reports whether it changed
func (s *MonitorState) ObserveTitle(title string) bool {
	if title == s.PreviousTitle {
		return false
	}
	s.PreviousTitle = title
	return true
}
