// Package windowtest provides scriptable in-memory implementations of the
// window capability interfaces.
package windowtest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/pkg/window"
)

// ErrNotInstalled is returned by Processes.LaunchExecutable for unknown paths
var ErrNotInstalled = errors.New("executable not installed")

// Inspector replays a scripted sequence of title lists. Each call to
// VisibleWindowTitles consumes one entry; the last entry repeats.
type Inspector struct {
	mu sync.Mutex

	Script  [][]string
	Err     error
	Handles map[string]window.Handle
	Listed  []window.WindowInfo

	Calls  int
	Hidden []window.Handle
}

func (f *Inspector) VisibleWindowTitles(processName string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Script) == 0 {
		return nil, nil
	}
	titles := f.Script[0]
	if len(f.Script) > 1 {
		f.Script = f.Script[1:]
	}
	return titles, nil
}

// Windows returns Listed, or Err when set
func (f *Inspector) Windows() ([]window.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return append([]window.WindowInfo(nil), f.Listed...), nil
}

func (f *Inspector) FindWindowByTitle(title string) (window.Handle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.Handles[title]
	return h, ok, nil
}

func (f *Inspector) SetWindowVisibility(h window.Handle, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !visible {
		f.Hidden = append(f.Hidden, h)
	}
	return nil
}

func (f *Inspector) IsAvailable() bool        { return true }
func (f *Inspector) GetDisplayServer() string { return "fake" }
func (f *Inspector) Close() error             { return nil }

// CallCount returns how many times titles were queried
func (f *Inspector) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// Processes simulates a single target application
type Processes struct {
	mu sync.Mutex

	Running      bool
	RunningErr   error
	Instances    int
	TerminateErr error
	Installed    map[string]bool

	Terminations int
	Launched     []string
	HiddenLaunch []bool
}

func (f *Processes) IsProcessRunning(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Running, f.RunningErr
}

func (f *Processes) TerminateAllProcesses(name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Terminations++
	if f.TerminateErr != nil {
		return 0, f.TerminateErr
	}
	n := f.Instances
	f.Instances = 0
	f.Running = false
	return n, nil
}

func (f *Processes) LaunchExecutable(path string, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.Installed[path] {
		return errors.Wrap(ErrNotInstalled, path)
	}
	f.Launched = append(f.Launched, path)
	f.HiddenLaunch = append(f.HiddenLaunch, hidden)
	f.Running = true
	f.Instances = 1
	return nil
}

// Keys records media key presses
type Keys struct {
	mu sync.Mutex

	Err  error
	Sent []window.MediaKey
}

func (f *Keys) SendMediaKey(key window.MediaKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, key)
	return nil
}
