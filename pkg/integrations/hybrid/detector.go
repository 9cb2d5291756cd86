package hybrid

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spotskip/spotskip/pkg/integrations/process"
	"github.com/spotskip/spotskip/pkg/integrations/wayland"
	"github.com/spotskip/spotskip/pkg/integrations/x11"
	"github.com/spotskip/spotskip/pkg/window"
)

// ErrNoInspector is returned when no display server integration is usable
var ErrNoInspector = errors.New("no window inspector available")

// Detector bundles the platform capabilities: a window inspector for the
// running display server, the /proc process controller and a media key sender
// falling back from XTEST to playerctl.
type Detector struct {
	windowInspector window.Inspector
	processes       *process.Controller
	senders         []window.KeySender
	log             zerolog.Logger
}

// NewDetector probes the session and builds the capability bundle. A missing
// window inspector is not fatal: process control still works and the
// inspector methods return ErrNoInspector.
func NewDetector(playerName string, log zerolog.Logger) (*Detector, error) {
	d := &Detector{
		processes: process.NewController(),
		log:       log,
	}

	if !d.processes.IsAvailable() {
		return nil, fmt.Errorf("failed to initialize process controller: /proc not available")
	}

	var xInspector *x11.Inspector
	d.windowInspector, xInspector = detectInspector(d.processes)
	if d.windowInspector != nil {
		log.Info().Str("display_server", d.windowInspector.GetDisplayServer()).Msg("window inspector initialized")
	} else {
		log.Warn().Msg("window inspector unavailable, ad detection is disabled")
	}

	if xInspector != nil {
		d.senders = append(d.senders, x11.NewKeyboard(xInspector))
	}
	if _, err := exec.LookPath("playerctl"); err == nil {
		d.senders = append(d.senders, NewPlayerctl(playerName))
	}

	return d, nil
}

// detectInspector picks the native Wayland IPC first, then X11 (which also
// covers XWayland clients)
func detectInspector(resolver *process.Controller) (window.Inspector, *x11.Inspector) {
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	xdgSessionType := os.Getenv("XDG_SESSION_TYPE")

	if waylandDisplay != "" || xdgSessionType == "wayland" {
		det := wayland.NewDetector(resolver)
		if det.IsAvailable() {
			return det, nil
		}
	}

	if os.Getenv("DISPLAY") != "" {
		det := x11.NewInspector(resolver)
		if det.IsAvailable() {
			return det, det
		}
	}

	return nil, nil
}

// Processes returns the process controller
func (d *Detector) Processes() window.ProcessController {
	return d.processes
}

func (d *Detector) VisibleWindowTitles(processName string) ([]string, error) {
	if d.windowInspector == nil {
		return nil, ErrNoInspector
	}
	return d.windowInspector.VisibleWindowTitles(processName)
}

func (d *Detector) FindWindowByTitle(title string) (window.Handle, bool, error) {
	if d.windowInspector == nil {
		return 0, false, ErrNoInspector
	}
	return d.windowInspector.FindWindowByTitle(title)
}

// Windows lists every top-level window the inspector can see
func (d *Detector) Windows() ([]window.WindowInfo, error) {
	if d.windowInspector == nil {
		return nil, ErrNoInspector
	}
	return d.windowInspector.Windows()
}

func (d *Detector) SetWindowVisibility(h window.Handle, visible bool) error {
	if d.windowInspector == nil {
		return ErrNoInspector
	}
	return d.windowInspector.SetWindowVisibility(h, visible)
}

// SendMediaKey tries each key sender in order until one succeeds
func (d *Detector) SendMediaKey(key window.MediaKey) error {
	if len(d.senders) == 0 {
		return errors.Errorf("no media key sender available for %s", key)
	}

	var errs []error
	for _, sender := range d.senders {
		err := sender.SendMediaKey(key)
		if err == nil {
			return nil
		}
		d.log.Debug().Err(err).Str("key", key.String()).Msg("media key sender failed, trying next")
		errs = append(errs, err)
	}

	return errors.Wrapf(errs[len(errs)-1], "all %d media key senders failed", len(errs))
}

func (d *Detector) IsAvailable() bool {
	return d.windowInspector != nil && d.windowInspector.IsAvailable()
}

func (d *Detector) GetDisplayServer() string {
	if d.windowInspector != nil {
		return d.windowInspector.GetDisplayServer()
	}
	return "none"
}

// GetStatus describes which integrations were selected
func (d *Detector) GetStatus() string {
	status := "Platform Status:\n"

	if d.windowInspector != nil {
		status += fmt.Sprintf("  Window Inspector: %s (available: %v)\n",
			d.windowInspector.GetDisplayServer(),
			d.windowInspector.IsAvailable())
	} else {
		status += "  Window Inspector: unavailable\n"
	}

	status += fmt.Sprintf("  Process Controller: available: %v\n", d.processes.IsAvailable())
	status += fmt.Sprintf("  Media Key Senders: %d\n", len(d.senders))

	return status
}

func (d *Detector) Close() error {
	if d.windowInspector != nil {
		if err := d.windowInspector.Close(); err != nil {
			d.log.Warn().Err(err).Msg("error closing window inspector")
		}
	}
	return nil
}
