package process

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ErrExecutableNotFound is returned by LaunchExecutable when the path does not
// exist or a bare command cannot be resolved through PATH
var ErrExecutableNotFound = errors.New("executable not found")

// Controller implements window.ProcessController on top of /proc
type Controller struct {
	procRoot string
	selfPID  int
	kill     func(pid int, sig syscall.Signal) error
}

// NewController creates a controller reading the live /proc
func NewController() *Controller {
	return &Controller{
		procRoot: "/proc",
		selfPID:  os.Getpid(),
		kill:     syscall.Kill,
	}
}

// IsAvailable reports whether /proc can be scanned
func (c *Controller) IsAvailable() bool {
	_, err := os.Stat(c.procRoot)
	return err == nil
}

// IsProcessRunning reports whether at least one process named name exists
func (c *Controller) IsProcessRunning(name string) (bool, error) {
	pids, err := c.FindPIDs(name)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

// TerminateAllProcesses sends SIGKILL to every process named name
func (c *Controller) TerminateAllProcesses(name string) (int, error) {
	pids, err := c.FindPIDs(name)
	if err != nil {
		return 0, err
	}

	killed := 0
	var firstErr error
	for _, pid := range pids {
		if err := c.kill(pid, syscall.SIGKILL); err != nil {
			// exited between the scan and the kill
			if errors.Is(err, syscall.ESRCH) {
				continue
			}
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to kill pid %d", pid)
			}
			continue
		}
		killed++
	}

	return killed, firstErr
}

// LaunchExecutable starts path in its own session so it survives the supervisor.
// A path without a separator is resolved through PATH.
func (c *Controller) LaunchExecutable(path string, hidden bool) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}

	cmd := exec.Command(resolved)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if hidden {
		// honoured by Spotify, ignored by most other players
		cmd.Args = append(cmd.Args, "--minimized")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", resolved)
	}

	// reap the child in the background so it never lingers as a zombie
	go func() { _ = cmd.Wait() }()

	return nil
}

// FindPIDs returns the pids whose comm matches name case-insensitively
func (c *Controller) FindPIDs(name string) ([]int, error) {
	entries, err := os.ReadDir(c.procRoot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan processes")
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == c.selfPID {
			continue
		}

		comm, err := c.readComm(pid)
		if err != nil {
			// process exited mid-enumeration
			continue
		}

		if strings.EqualFold(comm, name) {
			pids = append(pids, pid)
		}
	}

	return pids, nil
}

// NameOf returns the comm of pid
func (c *Controller) NameOf(pid int) (string, error) {
	return c.readComm(pid)
}

func (c *Controller) readComm(pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.procRoot, strconv.Itoa(pid), "comm"))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	// fall back to the name between parentheses in stat
	statData, statErr := os.ReadFile(filepath.Join(c.procRoot, strconv.Itoa(pid), "stat"))
	if statErr != nil {
		return "", err
	}

	stat := string(statData)
	start := strings.Index(stat, "(")
	end := strings.LastIndex(stat, ")")
	if start == -1 || end == -1 || end <= start {
		return "", errors.Errorf("malformed stat for pid %d", pid)
	}

	return stat[start+1 : end], nil
}

func resolve(path string) (string, error) {
	if !strings.ContainsRune(path, os.PathSeparator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return "", errors.Wrapf(ErrExecutableNotFound, "%s", path)
		}
		return resolved, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrExecutableNotFound, "%s", path)
		}
		return "", errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return "", errors.Wrapf(ErrExecutableNotFound, "%s is a directory", path)
	}

	return path, nil
}
