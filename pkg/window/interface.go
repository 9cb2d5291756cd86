package window

// Handle identifies a top-level window on the current display server.
// X11 stores the window id, sway the container id, Hyprland the client address.
type Handle uint64

// WindowInfo represents one top-level window owned by a process
type WindowInfo struct {
	Handle        Handle
	Title         string
	ProcessName   string
	PID           int
	Visible       bool
	DisplayServer string // "x11" or "wayland"
}

// MediaKey is a synthetic hardware media-control button
type MediaKey int

const (
	PlayPause MediaKey = iota
	NextTrack
)

func (k MediaKey) String() string {
	switch k {
	case PlayPause:
		return "play-pause"
	case NextTrack:
		return "next-track"
	default:
		return "unknown"
	}
}

// Inspector is the interface that all window inspection implementations must satisfy
type Inspector interface {
	// VisibleWindowTitles returns the non-empty titles of the visible top-level
	// windows owned by processes named processName
	VisibleWindowTitles(processName string) ([]string, error)

	// Windows lists every top-level window with its owning process
	Windows() ([]WindowInfo, error)

	// FindWindowByTitle returns the first top-level window whose title equals title,
	// whichever process owns it
	FindWindowByTitle(title string) (Handle, bool, error)

	// SetWindowVisibility hides (minimizes) or restores a window
	SetWindowVisibility(h Handle, visible bool) error

	// IsAvailable checks if this inspector can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type ("x11" or "wayland")
	GetDisplayServer() string

	// Close cleans up any resources used by the inspector
	Close() error
}

// ProcessController starts, finds and stops processes by name
type ProcessController interface {
	IsProcessRunning(name string) (bool, error)

	// TerminateAllProcesses kills every process named name and returns how many
	// were signalled. Zero matches is not an error.
	TerminateAllProcesses(name string) (int, error)

	// LaunchExecutable starts path detached from the supervisor. A nil error
	// means the process was started.
	LaunchExecutable(path string, hidden bool) error
}

// KeySender injects synthetic media key presses
type KeySender interface {
	SendMediaKey(key MediaKey) error
}
