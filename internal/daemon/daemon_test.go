package daemon

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrip(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "run", "spotskip.pid"))

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Zero(t, pid)

	require.NoError(t, d.WritePID())
	pid, err = d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, runningPID, err := d.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), runningPID)

	require.NoError(t, d.RemovePID())
	require.NoError(t, d.RemovePID())
}

func TestInvalidPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotskip.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	_, err := New(path).ReadPID()
	assert.Error(t, err)
}

func TestStalePIDFileIsRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotskip.pid")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0644))

	d := New(path)
	d.signal = func(pid int, sig syscall.Signal) error { return syscall.ESRCH }

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.NoFileExists(t, path)

	assert.ErrorIs(t, d.Stop(), ErrNotRunning)
}

func TestStopSendsSIGTERM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotskip.pid")
	require.NoError(t, os.WriteFile(path, []byte("4242"), 0644))

	var sent []syscall.Signal
	d := New(path)
	d.signal = func(pid int, sig syscall.Signal) error {
		assert.Equal(t, 4242, pid)
		sent = append(sent, sig)
		return nil
	}

	require.NoError(t, d.Stop())
	assert.Equal(t, []syscall.Signal{0, syscall.SIGTERM}, sent)
}

func TestIsChild(t *testing.T) {
	t.Setenv(ChildEnv, "")
	assert.False(t, IsChild())

	t.Setenv(ChildEnv, "1")
	assert.True(t, IsChild())
}
