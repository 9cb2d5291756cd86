package hybrid

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/pkg/window"
)

// Playerctl sends media commands over MPRIS through the playerctl CLI
type Playerctl struct {
	player string
	run    func(name string, args ...string) ([]byte, error)
}

// NewPlayerctl targets the MPRIS player named player (lowercased, e.g. "spotify")
func NewPlayerctl(player string) *Playerctl {
	return &Playerctl{
		player: strings.ToLower(player),
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

func (p *Playerctl) SendMediaKey(key window.MediaKey) error {
	var command string
	switch key {
	case window.PlayPause:
		command = "play-pause"
	case window.NextTrack:
		command = "next"
	default:
		return errors.Errorf("unsupported media key %d", int(key))
	}

	args := []string{command}
	if p.player != "" {
		args = append([]string{"--player=" + p.player}, args...)
	}

	if output, err := p.run("playerctl", args...); err != nil {
		return errors.Wrapf(err, "playerctl %s: %s", command, strings.TrimSpace(string(output)))
	}
	return nil
}
