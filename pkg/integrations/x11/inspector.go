package x11

import (
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/pkg/window"
)

// ErrDisplayUnavailable is returned when DISPLAY is not set
var ErrDisplayUnavailable = errors.New("x11 display unavailable")

// NameResolver maps a pid to its process name
type NameResolver interface {
	NameOf(pid int) (string, error)
}

// Inspector implements window.Inspector for X11 through an EWMH window manager
type Inspector struct {
	client   *client
	resolver NameResolver
}

// NewInspector creates a new X11 inspector. The connection is opened on first use.
func NewInspector(resolver NameResolver) *Inspector {
	return &Inspector{
		client:   newClient(),
		resolver: resolver,
	}
}

// IsAvailable checks if an X display is configured and reachable
func (i *Inspector) IsAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	_, err := i.client.connect()
	return err == nil
}

// GetDisplayServer returns "x11"
func (i *Inspector) GetDisplayServer() string {
	return "x11"
}

// Windows lists every managed top-level window with its owner.
// Minimized windows stay in the client list and are reported visible, so a
// window hidden during a restart is still seen by the next poll.
func (i *Inspector) Windows() ([]window.WindowInfo, error) {
	conn, err := i.conn()
	if err != nil {
		return nil, err
	}

	ids, err := i.client.clientList(conn)
	if err != nil {
		i.client.reset()
		return nil, err
	}

	infos := make([]window.WindowInfo, 0, len(ids))
	for _, id := range ids {
		info := window.WindowInfo{
			Handle:        window.Handle(id),
			Title:         i.client.windowName(conn, id),
			PID:           i.client.windowPID(conn, id),
			Visible:       true,
			DisplayServer: "x11",
		}
		if info.PID > 0 && i.resolver != nil {
			// the owner may exit between the listing and the lookup
			if name, err := i.resolver.NameOf(info.PID); err == nil {
				info.ProcessName = name
			}
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// VisibleWindowTitles returns the titles of windows owned by processName
func (i *Inspector) VisibleWindowTitles(processName string) ([]string, error) {
	infos, err := i.Windows()
	if err != nil {
		return nil, err
	}
	return titlesOwnedBy(infos, processName), nil
}

// FindWindowByTitle returns the first managed window whose title equals title
func (i *Inspector) FindWindowByTitle(title string) (window.Handle, bool, error) {
	conn, err := i.conn()
	if err != nil {
		return 0, false, err
	}

	ids, err := i.client.clientList(conn)
	if err != nil {
		i.client.reset()
		return 0, false, err
	}

	for _, id := range ids {
		if i.client.windowName(conn, id) == title {
			return window.Handle(id), true, nil
		}
	}

	return 0, false, nil
}

// SetWindowVisibility minimizes or restores a window
func (i *Inspector) SetWindowVisibility(h window.Handle, visible bool) error {
	conn, err := i.conn()
	if err != nil {
		return err
	}

	id := xproto.Window(h)
	if visible {
		if err := i.client.activate(conn, id); err != nil {
			return errors.Wrapf(err, "failed to restore window 0x%x", uint32(id))
		}
		return nil
	}

	if !i.client.isViewable(conn, id) {
		return nil
	}
	if err := i.client.iconify(conn, id); err != nil {
		return errors.Wrapf(err, "failed to minimize window 0x%x", uint32(id))
	}
	return nil
}

// Close cleans up resources
func (i *Inspector) Close() error {
	i.client.close()
	return nil
}

func (i *Inspector) conn() (*xgb.Conn, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, ErrDisplayUnavailable
	}
	return i.client.connect()
}

// titlesOwnedBy filters visible windows with a non-empty title owned by processName
func titlesOwnedBy(infos []window.WindowInfo, processName string) []string {
	var titles []string
	for _, info := range infos {
		if !info.Visible || info.Title == "" {
			continue
		}
		if !strings.EqualFold(info.ProcessName, processName) {
			continue
		}
		titles = append(titles, info.Title)
	}
	return titles
}
