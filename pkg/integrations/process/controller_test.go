package process

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProc lays out a minimal /proc with the given pid -> comm entries
func fakeProc(t *testing.T, procs map[int]string) *Controller {
	t.Helper()

	root := t.TempDir()
	for pid, comm := range procs {
		dir := filepath.Join(root, strconv.Itoa(pid))
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0644))
	}

	// non-pid entries must be skipped
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bus"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0644))

	return &Controller{
		procRoot: root,
		selfPID:  -1,
		kill: func(int, syscall.Signal) error {
			return syscall.ESRCH
		},
	}
}

func TestFindPIDs(t *testing.T) {
	c := fakeProc(t, map[int]string{
		900001: "spotify",
		900002: "Spotify",
		900003: "firefox",
	})

	pids, err := c.FindPIDs("spotify")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{900001, 900002}, pids)

	running, err := c.IsProcessRunning("firefox")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = c.IsProcessRunning("vlc")
	require.NoError(t, err)
	assert.False(t, running)
}

func TestFindPIDsSkipsSelf(t *testing.T) {
	c := fakeProc(t, map[int]string{900010: "spotskip"})
	c.selfPID = 900010

	pids, err := c.FindPIDs("spotskip")
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestReadCommFallsBackToStat(t *testing.T) {
	c := fakeProc(t, nil)
	dir := filepath.Join(c.procRoot, "900020")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte("900020 (spotify) S 1 2 3"), 0644))

	name, err := c.NameOf(900020)
	require.NoError(t, err)
	assert.Equal(t, "spotify", name)

	_, err = c.NameOf(900021)
	assert.Error(t, err)
}

func TestTerminateAllProcesses(t *testing.T) {
	c := fakeProc(t, map[int]string{
		900040: "spotify",
		900041: "spotify",
		900042: "firefox",
	})

	var signalled []int
	c.kill = func(pid int, sig syscall.Signal) error {
		assert.Equal(t, syscall.SIGKILL, sig)
		signalled = append(signalled, pid)
		return nil
	}

	killed, err := c.TerminateAllProcesses("spotify")
	require.NoError(t, err)
	assert.Equal(t, 2, killed)
	assert.ElementsMatch(t, []int{900040, 900041}, signalled)
}

func TestTerminateAllProcessesIgnoresVanishedPIDs(t *testing.T) {
	c := fakeProc(t, map[int]string{
		900050: "spotify",
		900051: "spotify",
	})

	killed, err := c.TerminateAllProcesses("spotify")
	require.NoError(t, err)
	assert.Equal(t, 0, killed)
}

func TestTerminateAllProcessesReportsFirstError(t *testing.T) {
	c := fakeProc(t, map[int]string{900060: "spotify"})
	c.kill = func(int, syscall.Signal) error {
		return syscall.EPERM
	}

	killed, err := c.TerminateAllProcesses("spotify")
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.EPERM))
	assert.Zero(t, killed)
}

func TestTerminateAllProcessesNoneFound(t *testing.T) {
	c := fakeProc(t, map[int]string{900030: "firefox"})

	killed, err := c.TerminateAllProcesses("spotify")
	require.NoError(t, err)
	assert.Zero(t, killed)
}

func TestLaunchExecutableMissing(t *testing.T) {
	c := fakeProc(t, nil)

	err := c.LaunchExecutable(filepath.Join(t.TempDir(), "spotify"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound))

	err = c.LaunchExecutable("definitely-not-a-command-xyz", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound))

	err = c.LaunchExecutable(t.TempDir(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound))
}

func TestLaunchExecutableFromPath(t *testing.T) {
	c := NewController()
	if _, err := resolve("true"); err != nil {
		t.Skip("true is not available in PATH")
	}

	assert.NoError(t, c.LaunchExecutable("true", false))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "player")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	got, err := resolve(exe)
	require.NoError(t, err)
	assert.Equal(t, exe, got)
}
