package wayland

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/pkg/window"
)

// ErrUnsupportedCompositor is returned for compositors without a window-listing IPC
var ErrUnsupportedCompositor = errors.New("unsupported wayland compositor")

// NameResolver maps a pid to its process name
type NameResolver interface {
	NameOf(pid int) (string, error)
}

// runner executes an IPC command and returns its stdout
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Detector implements window.Inspector for sway and Hyprland
type Detector struct {
	compositor string
	hasSwaymsg bool
	hasHyprctl bool
	resolver   NameResolver
	run        runner
}

// NewDetector creates a new Wayland detector
func NewDetector(resolver NameResolver) *Detector {
	d := &Detector{
		resolver: resolver,
		run:      execRunner,
	}
	d.hasSwaymsg = commandExists("swaymsg")
	d.hasHyprctl = commandExists("hyprctl")
	d.detectCompositor()
	return d
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor attempts to detect the Wayland compositor
func (d *Detector) detectCompositor() {
	compositors := []struct{ process, name string }{
		{"sway", "sway"},
		{"Hyprland", "hyprland"},
	}

	for _, c := range compositors {
		cmd := exec.Command("pgrep", "-x", c.process)
		if err := cmd.Run(); err == nil {
			d.compositor = c.name
			return
		}
	}

	d.compositor = "unknown"
}

// Compositor returns the detected compositor name
func (d *Detector) Compositor() string {
	return d.compositor
}

// IsAvailable checks if Wayland window listing is available
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return d.hasSwaymsg
	case "hyprland":
		return d.hasHyprctl
	default:
		return false
	}
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// Windows lists the compositor's toplevel windows
func (d *Detector) Windows() ([]window.WindowInfo, error) {
	var infos []window.WindowInfo
	var err error

	switch d.compositor {
	case "sway":
		infos, err = d.swayWindows()
	case "hyprland":
		infos, err = d.hyprlandWindows()
	default:
		return nil, errors.Wrapf(ErrUnsupportedCompositor, "%s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	for i := range infos {
		infos[i].DisplayServer = "wayland"
		if infos[i].PID > 0 && d.resolver != nil {
			if name, err := d.resolver.NameOf(infos[i].PID); err == nil {
				infos[i].ProcessName = name
			}
		}
	}

	return infos, nil
}

// VisibleWindowTitles returns the titles of windows owned by processName
func (d *Detector) VisibleWindowTitles(processName string) ([]string, error) {
	infos, err := d.Windows()
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, info := range infos {
		if info.Visible && info.Title != "" && strings.EqualFold(info.ProcessName, processName) {
			titles = append(titles, info.Title)
		}
	}
	return titles, nil
}

// FindWindowByTitle returns the first window whose title equals title
func (d *Detector) FindWindowByTitle(title string) (window.Handle, bool, error) {
	infos, err := d.Windows()
	if err != nil {
		return 0, false, err
	}

	for _, info := range infos {
		if info.Title == title {
			return info.Handle, true, nil
		}
	}
	return 0, false, nil
}

// SetWindowVisibility moves a window to or from the scratchpad (sway) or a
// special workspace (Hyprland)
func (d *Detector) SetWindowVisibility(h window.Handle, visible bool) error {
	var name string
	var args []string

	switch d.compositor {
	case "sway":
		name = "swaymsg"
		if visible {
			args = []string{fmt.Sprintf("[con_id=%d]", uint64(h)), "scratchpad", "show"}
		} else {
			args = []string{fmt.Sprintf("[con_id=%d]", uint64(h)), "move", "scratchpad"}
		}
	case "hyprland":
		name = "hyprctl"
		if visible {
			args = []string{"dispatch", "focuswindow", fmt.Sprintf("address:0x%x", uint64(h))}
		} else {
			args = []string{"dispatch", "movetoworkspacesilent", fmt.Sprintf("special:spotskip,address:0x%x", uint64(h))}
		}
	default:
		return errors.Wrapf(ErrUnsupportedCompositor, "%s", d.compositor)
	}

	if _, err := d.run(name, args...); err != nil {
		return errors.Wrapf(err, "failed to execute %s", name)
	}
	return nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}

type swayNode struct {
	ID            uint64     `json:"id"`
	Type          string     `json:"type"`
	Name          string     `json:"name"`
	PID           int        `json:"pid"`
	AppID         string     `json:"app_id"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

func (d *Detector) swayWindows() ([]window.WindowInfo, error) {
	output, err := d.run("swaymsg", "-t", "get_tree", "-r")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

// parseSwayTree flattens the sway tree into its view containers. Scratchpad
// windows are listed with visible=false by sway but are still managed, so they
// count as visible here, the same way minimized X11 windows do.
func parseSwayTree(data []byte) ([]window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse sway tree")
	}

	var infos []window.WindowInfo
	var walk func(n swayNode)
	walk = func(n swayNode) {
		if (n.Type == "con" || n.Type == "floating_con") && n.PID > 0 {
			infos = append(infos, window.WindowInfo{
				Handle:      window.Handle(n.ID),
				Title:       strings.TrimSpace(n.Name),
				ProcessName: n.AppID,
				PID:         n.PID,
				Visible:     true,
			})
		}
		for _, child := range n.Nodes {
			walk(child)
		}
		for _, child := range n.FloatingNodes {
			walk(child)
		}
	}
	walk(root)

	return infos, nil
}

type hyprClient struct {
	Address string `json:"address"`
	Mapped  bool   `json:"mapped"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	PID     int    `json:"pid"`
}

func (d *Detector) hyprlandWindows() ([]window.WindowInfo, error) {
	output, err := d.run("hyprctl", "clients", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandClients(output)
}

func parseHyprlandClients(data []byte) ([]window.WindowInfo, error) {
	var clients []hyprClient
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, errors.Wrap(err, "failed to parse hyprctl clients")
	}

	infos := make([]window.WindowInfo, 0, len(clients))
	for _, c := range clients {
		var addr uint64
		if _, err := fmt.Sscanf(c.Address, "0x%x", &addr); err != nil {
			continue
		}
		infos = append(infos, window.WindowInfo{
			Handle:      window.Handle(addr),
			Title:       strings.TrimSpace(c.Title),
			ProcessName: c.Class,
			PID:         c.PID,
			Visible:     c.Mapped,
		})
	}

	return infos, nil
}
