package detector

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/spotskip/spotskip/pkg/integrations/hybrid"
)

// New builds the platform capabilities for the current session. playerName
// selects the MPRIS player used by the playerctl key sender.
func New(playerName string, log zerolog.Logger) (*hybrid.Detector, error) {
	return hybrid.NewDetector(playerName, log)
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
